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

// Package resolver locates the newest artifact of a successful workflow
// run and downloads it.
//
// Runs are scanned in the order the API returns them. The first run with
// status "completed" whose jobs are all completed is selected, then the
// first artifact of that run which has not expired. Every lookup is
// sequential and stops at the first match.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/digest"
	"github.com/zihadmahiuddin/osus-proxy-update-server/logger"
)

// Reasons logged when a resolution finds nothing to serve.
const (
	ReasonNoSuccessfulRun     = "no successful workflow run"
	ReasonNoArtifactList      = "workflow run has no artifact list"
	ReasonNoUnexpiredArtifact = "workflow run has no unexpired artifact"
)

// Resolver selects and downloads artifacts of a single repository.
type Resolver struct {
	actions Actions
	owner   string
	repo    string
}

// New returns a Resolver for the owner/repo repository.
func New(actions Actions, owner, repo string) (*Resolver, error) {
	if actions == nil {
		return nil, errors.New("actions client cannot be nil")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("repository owner and name must be provided, got %q/%q", owner, repo)
	}
	return &Resolver{
		actions: actions,
		owner:   owner,
		repo:    repo,
	}, nil
}

// Repository returns the "owner/name" the Resolver reads from.
func (r *Resolver) Repository() string {
	return r.owner + "/" + r.repo
}

// SelectRun returns the first completed workflow run whose jobs have all
// completed. A run without jobs is accepted. The returned bool is false
// when no run qualifies.
func (r *Resolver) SelectRun(ctx context.Context) (WorkflowRun, bool, error) {
	log := logr.FromContextOrDiscard(ctx)

	runs, err := r.actions.ListWorkflowRuns(ctx, r.owner, r.repo)
	if err != nil {
		return WorkflowRun{}, false, fmt.Errorf("failed to list workflow runs: %w", err)
	}

	candidates := make([]WorkflowRun, 0, len(runs))
	for _, run := range runs {
		if run.Status == RunStatusCompleted {
			candidates = append(candidates, run)
		}
	}
	log.V(logger.DebugLevel).Info("listed workflow runs", "runs", len(runs), "completed", len(candidates))

	for _, run := range candidates {
		jobs, err := r.actions.ListJobs(ctx, r.owner, r.repo, run.ID)
		if err != nil {
			return WorkflowRun{}, false, fmt.Errorf("failed to list jobs for workflow run %d: %w", run.ID, err)
		}
		if allJobsCompleted(jobs) {
			log.V(logger.DebugLevel).Info("selected workflow run", "runID", run.ID, "jobs", len(jobs))
			return run, true, nil
		}
		log.V(logger.TraceLevel).Info("skipping workflow run with unfinished jobs", "runID", run.ID)
	}
	return WorkflowRun{}, false, nil
}

// allJobsCompleted reports whether every job has completed, which holds
// for an empty list.
func allJobsCompleted(jobs []Job) bool {
	for _, job := range jobs {
		if job.Status != JobStatusCompleted {
			return false
		}
	}
	return true
}

// SelectArtifact returns the first unexpired artifact of the run, in API
// order. The returned bool is false when the API returned no artifact
// list or every artifact has expired.
func (r *Resolver) SelectArtifact(ctx context.Context, runID int64) (Artifact, bool, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("runID", runID)

	list, err := r.actions.ListArtifacts(ctx, r.owner, r.repo, runID)
	if err != nil {
		return Artifact{}, false, fmt.Errorf("failed to list artifacts for workflow run %d: %w", runID, err)
	}
	if list == nil {
		log.Info("nothing to serve", "reason", ReasonNoArtifactList)
		return Artifact{}, false, nil
	}
	for _, a := range list.Items {
		if !a.Expired {
			log.V(logger.DebugLevel).Info("selected artifact", "artifactID", a.ID, "artifact", a.Name)
			return a, true, nil
		}
	}
	log.Info("nothing to serve", "reason", ReasonNoUnexpiredArtifact, "artifacts", len(list.Items))
	return Artifact{}, false, nil
}

// Download fetches the zip bundle of the artifact and computes its digest.
func (r *Resolver) Download(ctx context.Context, run WorkflowRun, artifact Artifact) (*Result, error) {
	payload, err := r.actions.DownloadArtifact(ctx, r.owner, r.repo, artifact.ID, ArchiveFormatZip)
	if err != nil {
		return nil, fmt.Errorf("failed to download artifact %d: %w", artifact.ID, err)
	}

	d, err := digest.FromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest of artifact %d: %w", artifact.ID, err)
	}

	return &Result{
		Run:      run,
		Artifact: artifact,
		Payload:  payload,
		Digest:   d,
	}, nil
}

// Resolve runs the whole selection and download. When nothing can be
// served it returns a nil Result, false and a nil error.
func (r *Resolver) Resolve(ctx context.Context) (*Result, bool, error) {
	log := logr.FromContextOrDiscard(ctx)

	run, found, err := r.SelectRun(ctx)
	if err != nil {
		return nil, false, err
	}
	if !found {
		log.Info("nothing to serve", "reason", ReasonNoSuccessfulRun)
		return nil, false, nil
	}

	artifact, found, err := r.SelectArtifact(ctx, run.ID)
	if err != nil || !found {
		return nil, false, err
	}

	res, err := r.Download(ctx, run, artifact)
	if err != nil {
		return nil, false, err
	}
	log.V(logger.DebugLevel).Info("resolved artifact", "runID", run.ID, "artifactID", artifact.ID,
		"size", len(res.Payload), "digest", res.Digest.String())
	return res, true, nil
}
