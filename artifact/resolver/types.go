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

	"github.com/opencontainers/go-digest"
)

// RunStatusCompleted is the workflow run status of runs that have
// finished, whatever their conclusion.
const RunStatusCompleted = "completed"

// JobStatus is the status of a workflow job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusWaiting    JobStatus = "waiting"
	JobStatusRequested  JobStatus = "requested"
	JobStatusPending    JobStatus = "pending"
)

// ArchiveFormat is the container format requested when downloading an
// artifact.
type ArchiveFormat string

// ArchiveFormatZip is the only format the proxy requests.
const ArchiveFormatZip ArchiveFormat = "zip"

// WorkflowRun is one execution of a workflow.
type WorkflowRun struct {
	ID         int64
	Status     string
	Conclusion string
}

// Job is one unit of work of a WorkflowRun.
type Job struct {
	ID     int64
	Status JobStatus
}

// Artifact is a named bundle produced by a WorkflowRun.
type Artifact struct {
	ID          int64
	Name        string
	Expired     bool
	SizeInBytes int64
}

// ArtifactList holds the artifacts of a WorkflowRun in API order.
type ArtifactList struct {
	Items []Artifact
}

// Actions is the subset of the GitHub Actions API the resolver depends on.
type Actions interface {
	// ListWorkflowRuns returns the first page of workflow runs of the repository.
	ListWorkflowRuns(ctx context.Context, owner, repo string) ([]WorkflowRun, error)
	// ListJobs returns the jobs of the given run.
	ListJobs(ctx context.Context, owner, repo string, runID int64) ([]Job, error)
	// ListArtifacts returns the artifacts of the given run. A nil list
	// means the API returned no artifact container at all.
	ListArtifacts(ctx context.Context, owner, repo string, runID int64) (*ArtifactList, error)
	// DownloadArtifact returns the complete artifact bundle in the given format.
	DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64, format ArchiveFormat) ([]byte, error)
}

// Result is the outcome of a successful resolution.
type Result struct {
	Run      WorkflowRun
	Artifact Artifact
	Payload  []byte
	Digest   digest.Digest
}

// FileName returns the name the payload is served under.
func (r *Result) FileName() string {
	return r.Artifact.Name + "." + string(ArchiveFormatZip)
}
