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

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/config"
	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/digest"
	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/resolver"
	"github.com/zihadmahiuddin/osus-proxy-update-server/github"
	"github.com/zihadmahiuddin/osus-proxy-update-server/masktoken"
	"github.com/zihadmahiuddin/osus-proxy-update-server/metrics"
)

// HeaderContentHash carries the digest of the served artifact.
const HeaderContentHash = "X-Content-Hash"

// CredentialsFunc returns the GitHub credentials for one request.
type CredentialsFunc func() (config.Credentials, error)

// Handler serves the latest artifact of the configured repository.
// Credentials are acquired and a GitHub client is built for every request.
type Handler struct {
	opts        *config.Options
	log         logr.Logger
	credentials CredentialsFunc
	metrics     *metrics.Recorder
	clientOpts  []github.OptFunc
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the base logger of the handler.
func WithLogger(log logr.Logger) HandlerOption {
	return func(h *Handler) {
		h.log = log
	}
}

// WithCredentials overrides how credentials are acquired.
func WithCredentials(f CredentialsFunc) HandlerOption {
	return func(h *Handler) {
		h.credentials = f
	}
}

// WithMetrics sets the recorder for resolution metrics.
func WithMetrics(r *metrics.Recorder) HandlerOption {
	return func(h *Handler) {
		h.metrics = r
	}
}

// WithClientOptions appends options applied to every GitHub client.
func WithClientOptions(opts ...github.OptFunc) HandlerOption {
	return func(h *Handler) {
		h.clientOpts = append(h.clientOpts, opts...)
	}
}

// NewHandler returns a Handler for the repository named in opts.
func NewHandler(opts *config.Options, hopts ...HandlerOption) (*Handler, error) {
	if opts == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}
	if opts.RepoOwner == "" || opts.RepoName == "" {
		return nil, fmt.Errorf("repository owner and name must be provided, got %q/%q", opts.RepoOwner, opts.RepoName)
	}

	h := &Handler{
		opts:        opts,
		log:         logr.Discard(),
		credentials: config.CredentialsFromEnv,
	}
	for _, o := range hopts {
		o(h)
	}
	return h, nil
}

// ServeHTTP answers with the artifact bundle on success, 404 when there is
// nothing to serve and 500 on any failure. Only GET requests receive a body.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := h.log.WithValues(
		"requestID", uuid.NewString(),
		"method", r.Method,
		"repository", h.opts.Repository(),
	)
	ctx := logr.NewContext(r.Context(), log)

	creds, err := h.credentials()
	if err != nil {
		h.fail(w, log, start, err)
		return
	}

	result, found, err := h.resolve(ctx, creds)
	if err != nil {
		h.fail(w, log, start, err, creds.Token)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		h.metrics.RecordResolution(metrics.OutcomeNotFound, start)
		return
	}

	header := w.Header()
	header.Set("Content-Length", strconv.Itoa(len(result.Payload)))
	header.Set("Content-Disposition", `attachment; filename="`+result.FileName()+`"`)
	header.Set(HeaderContentHash, digest.HeaderValue(result.Digest))
	w.WriteHeader(http.StatusOK)

	h.metrics.RecordResolution(metrics.OutcomeServed, start)
	log.Info("serving artifact",
		"runID", result.Run.ID,
		"artifactID", result.Artifact.ID,
		"size", len(result.Payload),
		"digest", result.Digest.String())

	if r.Method != http.MethodGet {
		return
	}
	n, err := w.Write(result.Payload)
	h.metrics.RecordServedBytes(n)
	if err != nil {
		log.Error(err, "failed to write artifact", "written", n)
	}
}

func (h *Handler) resolve(ctx context.Context, creds config.Credentials) (*resolver.Result, bool, error) {
	opts := []github.OptFunc{
		github.WithBasicAuth(creds.Username, creds.Token),
		github.WithAPIURL(h.opts.GitHubAPIURL),
		github.WithMaxDownloadSize(h.opts.MaxDownloadSize),
		github.WithLogger(logr.FromContextOrDiscard(ctx)),
	}
	client, err := github.New(append(opts, h.clientOpts...)...)
	if err != nil {
		return nil, false, err
	}

	res, err := resolver.New(client, h.opts.RepoOwner, h.opts.RepoName)
	if err != nil {
		return nil, false, err
	}
	return res.Resolve(ctx)
}

func (h *Handler) fail(w http.ResponseWriter, log logr.Logger, start time.Time, err error, secrets ...string) {
	w.WriteHeader(http.StatusInternalServerError)
	h.metrics.RecordResolution(metrics.OutcomeError, start)
	log.Error(errors.New(masktoken.MaskError(err, secrets...)), "failed to resolve artifact")
}
