/*
Copyright 2026 The Flux authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

// fakeActions is an in-memory Actions that records every call.
type fakeActions struct {
	runs      []WorkflowRun
	jobs      map[int64][]Job
	artifacts map[int64]*ArtifactList
	payloads  map[int64][]byte

	runsErr      error
	jobsErr      error
	artifactsErr error
	downloadErr  error

	jobCalls      []int64
	artifactCalls []int64
	downloads     []int64
	formats       []ArchiveFormat
}

func (f *fakeActions) ListWorkflowRuns(_ context.Context, _, _ string) ([]WorkflowRun, error) {
	return f.runs, f.runsErr
}

func (f *fakeActions) ListJobs(_ context.Context, _, _ string, runID int64) ([]Job, error) {
	f.jobCalls = append(f.jobCalls, runID)
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	return f.jobs[runID], nil
}

func (f *fakeActions) ListArtifacts(_ context.Context, _, _ string, runID int64) (*ArtifactList, error) {
	f.artifactCalls = append(f.artifactCalls, runID)
	if f.artifactsErr != nil {
		return nil, f.artifactsErr
	}
	return f.artifacts[runID], nil
}

func (f *fakeActions) DownloadArtifact(_ context.Context, _, _ string, artifactID int64, format ArchiveFormat) ([]byte, error) {
	f.downloads = append(f.downloads, artifactID)
	f.formats = append(f.formats, format)
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.payloads[artifactID], nil
}

func completed(ids ...int64) []Job {
	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, Job{ID: id, Status: JobStatusCompleted})
	}
	return jobs
}

func newTestResolver(t *testing.T, f *fakeActions) *Resolver {
	t.Helper()
	r, err := New(f, "owner", "repo")
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestNew(t *testing.T) {
	g := NewWithT(t)

	_, err := New(nil, "owner", "repo")
	g.Expect(err).To(MatchError("actions client cannot be nil"))

	_, err = New(&fakeActions{}, "", "repo")
	g.Expect(err).To(MatchError(ContainSubstring("repository owner and name must be provided")))

	_, err = New(&fakeActions{}, "owner", "")
	g.Expect(err).To(HaveOccurred())

	r, err := New(&fakeActions{}, "owner", "repo")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(r.Repository()).To(Equal("owner/repo"))
}

func TestResolver_SelectRun(t *testing.T) {
	tests := []struct {
		name         string
		runs         []WorkflowRun
		jobs         map[int64][]Job
		wantFound    bool
		wantRunID    int64
		wantJobCalls []int64
	}{
		{
			name:         "no runs at all",
			wantJobCalls: nil,
		},
		{
			name: "no completed runs",
			runs: []WorkflowRun{
				{ID: 1, Status: "in_progress"},
				{ID: 2, Status: "queued"},
			},
			wantJobCalls: nil,
		},
		{
			name: "first completed run with all jobs completed wins",
			runs: []WorkflowRun{
				{ID: 1, Status: "in_progress"},
				{ID: 2, Status: "completed"},
				{ID: 3, Status: "completed"},
			},
			jobs: map[int64][]Job{
				2: completed(20, 21),
				3: completed(30),
			},
			wantFound:    true,
			wantRunID:    2,
			wantJobCalls: []int64{2},
		},
		{
			name: "run with an unfinished job is skipped",
			runs: []WorkflowRun{
				{ID: 2, Status: "completed"},
				{ID: 3, Status: "completed"},
			},
			jobs: map[int64][]Job{
				2: {{ID: 20, Status: JobStatusCompleted}, {ID: 21, Status: JobStatusInProgress}},
				3: completed(30),
			},
			wantFound:    true,
			wantRunID:    3,
			wantJobCalls: []int64{2, 3},
		},
		{
			name: "run without jobs is accepted",
			runs: []WorkflowRun{
				{ID: 5, Status: "completed"},
				{ID: 6, Status: "completed"},
			},
			jobs: map[int64][]Job{
				6: completed(60),
			},
			wantFound:    true,
			wantRunID:    5,
			wantJobCalls: []int64{5},
		},
		{
			name: "conclusion is not considered",
			runs: []WorkflowRun{
				{ID: 7, Status: "completed", Conclusion: "failure"},
			},
			jobs: map[int64][]Job{
				7: completed(70),
			},
			wantFound:    true,
			wantRunID:    7,
			wantJobCalls: []int64{7},
		},
		{
			name: "every completed run has unfinished jobs",
			runs: []WorkflowRun{
				{ID: 8, Status: "completed"},
				{ID: 9, Status: "completed"},
			},
			jobs: map[int64][]Job{
				8: {{ID: 80, Status: JobStatusQueued}},
				9: {{ID: 90, Status: JobStatusWaiting}},
			},
			wantJobCalls: []int64{8, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			f := &fakeActions{runs: tt.runs, jobs: tt.jobs}
			run, found, err := newTestResolver(t, f).SelectRun(context.TODO())
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(found).To(Equal(tt.wantFound))
			if tt.wantFound {
				g.Expect(run.ID).To(Equal(tt.wantRunID))
			}
			g.Expect(f.jobCalls).To(Equal(tt.wantJobCalls))
		})
	}
}

func TestResolver_SelectRun_Errors(t *testing.T) {
	g := NewWithT(t)

	f := &fakeActions{runsErr: errors.New("unauthorized")}
	_, _, err := newTestResolver(t, f).SelectRun(context.TODO())
	g.Expect(err).To(MatchError(ContainSubstring("failed to list workflow runs: unauthorized")))

	f = &fakeActions{
		runs:    []WorkflowRun{{ID: 4, Status: "completed"}},
		jobsErr: errors.New("connection reset"),
	}
	_, _, err = newTestResolver(t, f).SelectRun(context.TODO())
	g.Expect(err).To(MatchError(ContainSubstring("failed to list jobs for workflow run 4: connection reset")))
}

func TestResolver_SelectArtifact(t *testing.T) {
	tests := []struct {
		name      string
		list      *ArtifactList
		wantFound bool
		wantID    int64
	}{
		{
			name: "absent artifact list",
			list: nil,
		},
		{
			name: "empty artifact list",
			list: &ArtifactList{},
		},
		{
			name: "all artifacts expired",
			list: &ArtifactList{Items: []Artifact{
				{ID: 10, Name: "build", Expired: true},
				{ID: 11, Name: "build2", Expired: true},
			}},
		},
		{
			name: "first unexpired artifact wins",
			list: &ArtifactList{Items: []Artifact{
				{ID: 10, Name: "build", Expired: true},
				{ID: 11, Name: "build2", SizeInBytes: 10},
				{ID: 12, Name: "build3", SizeInBytes: 1000},
			}},
			wantFound: true,
			wantID:    11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			f := &fakeActions{artifacts: map[int64]*ArtifactList{2: tt.list}}
			a, found, err := newTestResolver(t, f).SelectArtifact(context.TODO(), 2)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(found).To(Equal(tt.wantFound))
			if tt.wantFound {
				g.Expect(a.ID).To(Equal(tt.wantID))
			}
			g.Expect(f.artifactCalls).To(Equal([]int64{2}))
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	g := NewWithT(t)

	payload := []byte("PKzip...")
	f := &fakeActions{
		runs: []WorkflowRun{
			{ID: 1, Status: "in_progress"},
			{ID: 2, Status: "completed"},
		},
		jobs: map[int64][]Job{2: completed(20)},
		artifacts: map[int64]*ArtifactList{2: {Items: []Artifact{
			{ID: 10, Name: "build", Expired: true},
			{ID: 11, Name: "build2"},
		}}},
		payloads: map[int64][]byte{11: payload},
	}

	res, found, err := newTestResolver(t, f).Resolve(context.TODO())
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(found).To(BeTrue())
	g.Expect(res.Run.ID).To(Equal(int64(2)))
	g.Expect(res.Artifact.ID).To(Equal(int64(11)))
	g.Expect(res.FileName()).To(Equal("build2.zip"))
	g.Expect(res.Payload).To(Equal(payload))

	sum := sha256.Sum256(payload)
	g.Expect(res.Digest.Encoded()).To(Equal(hex.EncodeToString(sum[:])))

	g.Expect(f.downloads).To(Equal([]int64{11}))
	g.Expect(f.formats).To(Equal([]ArchiveFormat{ArchiveFormatZip}))
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	tests := []struct {
		name              string
		actions           *fakeActions
		wantArtifactCalls []int64
	}{
		{
			name:    "no runs",
			actions: &fakeActions{},
		},
		{
			name: "no artifact list",
			actions: &fakeActions{
				runs: []WorkflowRun{{ID: 2, Status: "completed"}},
			},
			wantArtifactCalls: []int64{2},
		},
		{
			name: "only expired artifacts",
			actions: &fakeActions{
				runs: []WorkflowRun{{ID: 2, Status: "completed"}},
				artifacts: map[int64]*ArtifactList{2: {Items: []Artifact{
					{ID: 10, Name: "build", Expired: true},
				}}},
			},
			wantArtifactCalls: []int64{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			res, found, err := newTestResolver(t, tt.actions).Resolve(context.TODO())
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(found).To(BeFalse())
			g.Expect(res).To(BeNil())
			g.Expect(tt.actions.artifactCalls).To(Equal(tt.wantArtifactCalls))
			g.Expect(tt.actions.downloads).To(BeEmpty())
		})
	}
}

func TestResolver_Resolve_Errors(t *testing.T) {
	base := func() *fakeActions {
		return &fakeActions{
			runs:      []WorkflowRun{{ID: 2, Status: "completed"}},
			artifacts: map[int64]*ArtifactList{2: {Items: []Artifact{{ID: 11, Name: "build"}}}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*fakeActions)
		wantErr string
	}{
		{
			name:    "artifact listing fails",
			mutate:  func(f *fakeActions) { f.artifactsErr = errors.New("forbidden") },
			wantErr: "failed to list artifacts for workflow run 2: forbidden",
		},
		{
			name:    "download fails",
			mutate:  func(f *fakeActions) { f.downloadErr = errors.New("gone") },
			wantErr: "failed to download artifact 11: gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			f := base()
			tt.mutate(f)
			res, found, err := newTestResolver(t, f).Resolve(context.TODO())
			g.Expect(err).To(MatchError(ContainSubstring(tt.wantErr)))
			g.Expect(found).To(BeFalse())
			g.Expect(res).To(BeNil())
		})
	}
}
