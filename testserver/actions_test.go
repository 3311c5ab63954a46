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
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestActionsServer_Auth(t *testing.T) {
	srv := NewActionsServer("owner", "repo").WithBasicAuth("octocat", "token")
	srv.AddRun(WorkflowRun{ID: 1, Status: "completed"})
	srv.Start()
	defer srv.Stop()

	addr := srv.URL() + "/repos/owner/repo/actions/runs"
	if !strings.HasPrefix(addr, "http://") {
		t.Fatalf("URL given for HTTP server doesn't start with http://, got: %s", addr)
	}

	resp, err := http.Get(addr)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, addr, nil)
	req.SetBasicAuth("octocat", "token")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", resp.StatusCode)
	}

	var body struct {
		TotalCount   int `json:"total_count"`
		WorkflowRuns []struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"workflow_runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.TotalCount != 1 || body.WorkflowRuns[0].ID != 1 || body.WorkflowRuns[0].Status != "completed" {
		t.Errorf("unexpected runs response: %+v", body)
	}
	if got := srv.Calls(EndpointRuns); got != 2 {
		t.Errorf("expected 2 calls to the runs endpoint, got %d", got)
	}
}

func TestActionsServer_Download(t *testing.T) {
	data := []byte("PKzip...")
	srv := NewActionsServer("owner", "repo")
	srv.AddRun(WorkflowRun{ID: 2, Status: "completed"})
	srv.AddArtifacts(2, Artifact{ID: 11, Name: "build2", Data: data})
	srv.Start()
	defer srv.Stop()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(srv.URL() + "/repos/owner/repo/actions/artifacts/11/zip")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected a redirect, got %d", resp.StatusCode)
	}

	resp, err = http.Get(resp.Header.Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("expected blob %q, got %q", data, got)
	}
	if headers := srv.BlobAuthHeaders(); len(headers) != 1 || headers[0] != "" {
		t.Errorf("expected one unauthenticated blob request, got %q", headers)
	}
}

func TestActionsServer_FailEndpoint(t *testing.T) {
	srv := NewActionsServer("owner", "repo")
	srv.FailEndpoint(EndpointRuns, http.StatusBadGateway)
	srv.Start()
	defer srv.Stop()

	resp, err := http.Get(srv.URL() + "/repos/owner/repo/actions/runs")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestZipArtifact(t *testing.T) {
	data, err := ZipArtifact([]File{
		{Name: "osus-proxy", Body: "binary"},
		{Name: "README.md", Body: "readme"},
	})
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "osus-proxy" {
		t.Fatalf("unexpected zip entries: %v", zr.File)
	}
	if len(Checksum(data)) != 64 {
		t.Errorf("expected a hex SHA-256, got %q", Checksum(data))
	}
}
