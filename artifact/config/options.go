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

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Options contains configuration settings for the artifact proxy.
type Options struct {
	// RepoOwner is the user or organisation owning the source repository.
	RepoOwner string `json:"repoOwner" validate:"required"`

	// RepoName is the name of the source repository.
	RepoName string `json:"repoName" validate:"required"`

	// ListenAddress is the host and port the proxy will bind to.
	ListenAddress string `json:"listenAddress" validate:"required,hostname_port"`

	// GitHubAPIURL is the base URL of the GitHub REST API. Empty means
	// api.github.com; set it for GitHub Enterprise Server.
	GitHubAPIURL string `json:"githubAPIURL" validate:"omitempty,url"`

	// MaxDownloadSize is the maximum size in bytes of a proxied artifact.
	// Zero disables the limit.
	MaxDownloadSize int64 `json:"maxDownloadSize" validate:"gte=0"`

	// EnableMetrics exposes Prometheus metrics on /metrics.
	EnableMetrics bool `json:"enableMetrics"`
}

// Repository returns the "owner/name" of the source repository.
func (o *Options) Repository() string {
	return o.RepoOwner + "/" + o.RepoName
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the Options and returns an error listing every invalid field.
func (o *Options) Validate() error {
	if o == nil {
		return fmt.Errorf("options cannot be nil")
	}

	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid options: %s", strings.Join(msgs, ", "))
}
