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

package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
)

// Endpoints of the ActionsServer, used to count calls and inject failures.
const (
	EndpointRuns      = "runs"
	EndpointJobs      = "jobs"
	EndpointArtifacts = "artifacts"
	EndpointDownload  = "download"
	EndpointBlob      = "blob"
)

// blobSignature is appended to download URLs to mimic pre-signed storage URLs.
const blobSignature = "sig=c2lnbmF0dXJl"

// WorkflowRun is a workflow run served by the ActionsServer.
type WorkflowRun struct {
	ID         int64
	Status     string
	Conclusion string
}

// Job is a workflow job served by the ActionsServer.
type Job struct {
	ID     int64
	Status string
}

// Artifact is a workflow artifact served by the ActionsServer. Data is
// the content returned when the artifact is downloaded.
type Artifact struct {
	ID      int64
	Name    string
	Expired bool
	Data    []byte
}

// ActionsServer is a fake of the GitHub Actions REST API for a single
// repository. Artifact downloads are answered with a redirect to a blob
// path of the same server, which does not require credentials.
type ActionsServer struct {
	*HTTPServer

	owner string
	repo  string

	mu              sync.Mutex
	username        string
	password        string
	runs            []WorkflowRun
	jobs            map[int64][]Job
	artifacts       map[int64][]Artifact
	omitArtifacts   map[int64]bool
	failures        map[string]int
	calls           map[string]int
	blobAuthHeaders []string
}

// NewActionsServer returns an unstarted ActionsServer for owner/repo.
func NewActionsServer(owner, repo string) *ActionsServer {
	s := &ActionsServer{
		owner:         owner,
		repo:          repo,
		jobs:          map[int64][]Job{},
		artifacts:     map[int64][]Artifact{},
		omitArtifacts: map[int64]bool{},
		failures:      map[string]int{},
		calls:         map[string]int{},
	}

	prefix := fmt.Sprintf("/repos/%s/%s/actions", owner, repo)
	mux := http.NewServeMux()
	mux.Handle("GET "+prefix+"/runs", s.authenticated(EndpointRuns, http.HandlerFunc(s.serveRuns)))
	mux.Handle("GET "+prefix+"/runs/{run}/jobs", s.authenticated(EndpointJobs, http.HandlerFunc(s.serveJobs)))
	mux.Handle("GET "+prefix+"/runs/{run}/artifacts", s.authenticated(EndpointArtifacts, http.HandlerFunc(s.serveArtifacts)))
	mux.Handle("GET "+prefix+"/artifacts/{artifact}/zip", s.authenticated(EndpointDownload, http.HandlerFunc(s.serveDownload)))
	mux.Handle("GET /blobs/{artifact}", s.counted(EndpointBlob, http.HandlerFunc(s.serveBlob)))

	s.HTTPServer = NewHTTPServer(mux)
	return s
}

// WithBasicAuth makes every API endpoint require the given credentials.
func (s *ActionsServer) WithBasicAuth(username, password string) *ActionsServer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.password = password
	return s
}

// APIURL returns the base URL to configure API clients with.
func (s *ActionsServer) APIURL() string {
	return s.URL() + "/"
}

// AddRun appends a workflow run with its jobs.
func (s *ActionsServer) AddRun(run WorkflowRun, jobs ...Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	s.jobs[run.ID] = jobs
}

// AddArtifacts appends artifacts to the given run.
func (s *ActionsServer) AddArtifacts(runID int64, artifacts ...Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[runID] = append(s.artifacts[runID], artifacts...)
}

// OmitArtifactList makes the artifact listing of the run answer without
// an artifacts field.
func (s *ActionsServer) OmitArtifactList(runID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitArtifacts[runID] = true
}

// FailEndpoint makes the endpoint answer with the given status code.
func (s *ActionsServer) FailEndpoint(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = status
}

// Calls returns the number of requests received by the endpoint.
func (s *ActionsServer) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// BlobAuthHeaders returns the Authorization headers received by the blob
// endpoint, in order.
func (s *ActionsServer) BlobAuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.blobAuthHeaders...)
}

func (s *ActionsServer) counted(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[endpoint]++
		status := s.failures[endpoint]
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *ActionsServer) authenticated(endpoint string, next http.Handler) http.Handler {
	return s.counted(endpoint, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		username, password := s.username, s.password
		s.mu.Unlock()

		if username != "" || password != "" {
			u, p, ok := r.BasicAuth()
			if !ok || u != username || p != password {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
				return
			}
		}
		next.ServeHTTP(w, r)
	}))
}

func (s *ActionsServer) serveRuns(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := make([]map[string]any, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, map[string]any{
			"id":         run.ID,
			"status":     run.Status,
			"conclusion": run.Conclusion,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_count":   len(runs),
		"workflow_runs": runs,
	})
}

func (s *ActionsServer) serveJobs(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "run")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]map[string]any, 0, len(s.jobs[runID]))
	for _, job := range s.jobs[runID] {
		jobs = append(jobs, map[string]any{
			"id":     job.ID,
			"run_id": runID,
			"status": job.Status,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_count": len(jobs),
		"jobs":        jobs,
	})
}

func (s *ActionsServer) serveArtifacts(w http.ResponseWriter, r *http.Request) {
	runID, ok := pathID(w, r, "run")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.omitArtifacts[runID] {
		writeJSON(w, http.StatusOK, map[string]any{"total_count": 0})
		return
	}

	artifacts := make([]map[string]any, 0, len(s.artifacts[runID]))
	for _, a := range s.artifacts[runID] {
		artifacts = append(artifacts, map[string]any{
			"id":                   a.ID,
			"name":                 a.Name,
			"size_in_bytes":        len(a.Data),
			"expired":              a.Expired,
			"archive_download_url": fmt.Sprintf("%s/repos/%s/%s/actions/artifacts/%d/zip", s.URL(), s.owner, s.repo, a.ID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_count": len(artifacts),
		"artifacts":   artifacts,
	})
}

func (s *ActionsServer) serveDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "artifact")
	if !ok {
		return
	}
	if _, found := s.artifact(id); !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	w.Header().Set("Location", fmt.Sprintf("%s/blobs/%d?%s", s.URL(), id, blobSignature))
	w.WriteHeader(http.StatusFound)
}

func (s *ActionsServer) serveBlob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.blobAuthHeaders = append(s.blobAuthHeaders, r.Header.Get("Authorization"))
	s.mu.Unlock()

	id, ok := pathID(w, r, "artifact")
	if !ok {
		return
	}
	if r.URL.RawQuery != blobSignature {
		http.Error(w, "signature mismatch", http.StatusForbidden)
		return
	}
	a, found := s.artifact(id)
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

func (s *ActionsServer) artifact(id int64) (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, artifacts := range s.artifacts {
		for _, a := range artifacts {
			if a.ID == id {
				return a, true
			}
		}
	}
	return Artifact{}, false
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
