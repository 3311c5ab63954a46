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

// Package github implements the GitHub Actions operations the artifact
// resolver needs on top of go-github, authenticating with HTTP basic auth.
package github

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/go-github/v82/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http/httpproxy"

	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/resolver"
)

// UserAgent is sent with every API request.
const UserAgent = "osus-proxy"

// maxRedirects is the number of permanent redirects followed before the
// artifact download URL is returned.
const maxRedirects = 3

// ErrArtifactTooLarge is returned when an artifact exceeds the configured
// maximum download size.
var ErrArtifactTooLarge = errors.New("artifact exceeds the max download size")

// Client talks to the GitHub Actions API of a single GitHub instance.
type Client struct {
	username        string
	token           string
	apiURL          string
	proxyURL        *url.URL
	tlsConfig       *tls.Config
	transport       http.RoundTripper
	maxDownloadSize int64
	log             logr.Logger

	gh   *github.Client
	blob *retryablehttp.Client
}

var _ resolver.Actions = (*Client)(nil)

// OptFunc enables specifying options for the client.
type OptFunc func(*Client)

// New returns a Client authenticated with the configured basic auth credentials.
func New(opts ...OptFunc) (*Client, error) {
	c := &Client{log: logr.Discard()}
	for _, opt := range opts {
		opt(c)
	}

	if c.username == "" || c.token == "" {
		return nil, fmt.Errorf("username and token must be provided to use basic authentication")
	}

	transport := c.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if c.tlsConfig != nil {
			t.TLSClientConfig = c.tlsConfig
		}
		if c.proxyURL != nil {
			proxyStr := c.proxyURL.String()
			proxyConfig := &httpproxy.Config{
				HTTPProxy:  proxyStr,
				HTTPSProxy: proxyStr,
			}
			t.Proxy = func(req *http.Request) (*url.URL, error) {
				return proxyConfig.ProxyFunc()(req.URL)
			}
		}
		transport = t
	}

	authTransport := &github.BasicAuthTransport{
		Username:  c.username,
		Password:  c.token,
		Transport: transport,
	}
	ghClient := github.NewClient(&http.Client{Transport: authTransport})
	ghClient.UserAgent = UserAgent

	// Set custom base URL for GitHub Enterprise
	if c.apiURL != "" {
		apiURL := c.apiURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		baseURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL: %w", err)
		}
		ghClient.BaseURL = baseURL
	}
	c.gh = ghClient

	// Artifact bundles are served from a pre-signed storage URL which must
	// not receive the API credentials. Retries are disabled.
	blob := retryablehttp.NewClient()
	blob.HTTPClient = &http.Client{Transport: transport}
	blob.RetryMax = 0
	blob.Logger = newErrorLogger(c.log)
	blob.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.blob = blob

	return c, nil
}

// WithBasicAuth sets the account and access token used for authentication.
func WithBasicAuth(username, token string) OptFunc {
	return func(c *Client) {
		c.username = username
		c.token = token
	}
}

// WithAPIURL sets the base URL of the GitHub API, for GitHub Enterprise Server.
func WithAPIURL(apiURL string) OptFunc {
	return func(c *Client) {
		c.apiURL = apiURL
	}
}

// WithTLSConfig sets the tls config to use with the transport.
func WithTLSConfig(tlsConfig *tls.Config) OptFunc {
	return func(c *Client) {
		c.tlsConfig = tlsConfig
	}
}

// WithProxyURL sets the proxy URL to use with the transport.
func WithProxyURL(proxyURL *url.URL) OptFunc {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithTransport sets the round tripper used for all requests. It takes
// precedence over WithTLSConfig and WithProxyURL.
func WithTransport(t http.RoundTripper) OptFunc {
	return func(c *Client) {
		c.transport = t
	}
}

// WithMaxDownloadSize limits the size of downloaded artifacts. Zero or a
// negative value disables the limit.
func WithMaxDownloadSize(size int64) OptFunc {
	return func(c *Client) {
		c.maxDownloadSize = size
	}
}

// WithLogger sets the logger used for download errors.
func WithLogger(log logr.Logger) OptFunc {
	return func(c *Client) {
		c.log = log
	}
}

// ListWorkflowRuns returns the first page of workflow runs of owner/repo.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo string) ([]resolver.WorkflowRun, error) {
	runs, _, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, nil)
	if err != nil {
		return nil, err
	}

	result := make([]resolver.WorkflowRun, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		result = append(result, resolver.WorkflowRun{
			ID:         run.GetID(),
			Status:     run.GetStatus(),
			Conclusion: run.GetConclusion(),
		})
	}
	return result, nil
}

// ListJobs returns the first page of jobs of the workflow run.
func (c *Client) ListJobs(ctx context.Context, owner, repo string, runID int64) ([]resolver.Job, error) {
	jobs, _, err := c.gh.Actions.ListWorkflowJobs(ctx, owner, repo, runID, nil)
	if err != nil {
		return nil, err
	}

	result := make([]resolver.Job, 0, len(jobs.Jobs))
	for _, job := range jobs.Jobs {
		result = append(result, resolver.Job{
			ID:     job.GetID(),
			Status: resolver.JobStatus(job.GetStatus()),
		})
	}
	return result, nil
}

// ListArtifacts returns the first page of artifacts of the workflow run,
// or nil when the response carried no artifact list.
func (c *Client) ListArtifacts(ctx context.Context, owner, repo string, runID int64) (*resolver.ArtifactList, error) {
	list, _, err := c.gh.Actions.ListWorkflowRunArtifacts(ctx, owner, repo, runID, nil)
	if err != nil {
		return nil, err
	}
	if list == nil || list.Artifacts == nil {
		return nil, nil
	}

	result := &resolver.ArtifactList{Items: make([]resolver.Artifact, 0, len(list.Artifacts))}
	for _, a := range list.Artifacts {
		result.Items = append(result.Items, resolver.Artifact{
			ID:          a.GetID(),
			Name:        a.GetName(),
			Expired:     a.GetExpired(),
			SizeInBytes: a.GetSizeInBytes(),
		})
	}
	return result, nil
}

// DownloadArtifact resolves the download URL of the artifact bundle and
// reads the whole bundle into memory. Only the zip format is supported
// by the API.
func (c *Client) DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64, format resolver.ArchiveFormat) ([]byte, error) {
	if format != resolver.ArchiveFormatZip {
		return nil, fmt.Errorf("unsupported archive format %q", format)
	}

	u, _, err := c.gh.Actions.DownloadArtifact(ctx, owner, repo, artifactID, maxRedirects)
	if err != nil {
		return nil, fmt.Errorf("failed to get download URL: %w", err)
	}
	return c.fetch(ctx, u)
}

// fetch reads the content at u, honouring the max download size.
func (c *Client) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new request: %w", err)
	}

	resp, err := c.blob.Do(req)
	if err != nil {
		// The URL is pre-signed, only its host is safe to report.
		return nil, fmt.Errorf("failed to download artifact from %s: %w", u.Host, redactURL(err, u))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download artifact from %s, status: %s", u.Host, resp.Status)
	}

	if c.maxDownloadSize <= 0 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact: %w", err)
		}
		return data, nil
	}

	if resp.ContentLength > c.maxDownloadSize {
		return nil, fmt.Errorf("%w: artifact is %d bytes, limit is %d bytes",
			ErrArtifactTooLarge, resp.ContentLength, c.maxDownloadSize)
	}

	// Headers can lie, so limit the read and fail if bytes are left.
	// Draining the body lets Go reuse the connection.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	n, _ := io.Copy(io.Discard, resp.Body)
	if n > 0 {
		return nil, fmt.Errorf("%w: artifact is %d bytes greater than the limit of %d bytes",
			ErrArtifactTooLarge, n, c.maxDownloadSize)
	}
	return data, nil
}

// redactURL strips the query of u from the error message.
func redactURL(err error, u *url.URL) error {
	if u.RawQuery == "" {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		stripped := *u
		stripped.RawQuery = ""
		return &url.Error{Op: urlErr.Op, URL: stripped.String(), Err: urlErr.Err}
	}
	return err
}
