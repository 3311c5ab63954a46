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
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const (
	flagRepoOwner    = "repo-owner"
	envRepoOwner     = "REPO_OWNER"
	defaultRepoOwner = "zihadmahiuddin"

	flagRepoName    = "repo-name"
	envRepoName     = "REPO_NAME"
	defaultRepoName = "osus-proxy"

	flagListenAddress    = "listen-addr"
	envListenAddress     = "LISTEN_ADDRESS"
	defaultListenAddress = ":8080"

	flagGitHubAPIURL = "github-api-url"
	envGitHubAPIURL  = "GITHUB_API_URL"

	flagMaxDownloadSize = "max-download-size"

	flagEnableMetrics    = "enable-metrics"
	defaultEnableMetrics = true
)

// BindFlags will parse the given pflag.FlagSet for the proxy and set the Options accordingly.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.RepoOwner, flagRepoOwner,
		envOrDefault(envRepoOwner, defaultRepoOwner),
		"The owner of the repository whose workflow artifacts are served.")

	fs.StringVar(&o.RepoName, flagRepoName,
		envOrDefault(envRepoName, defaultRepoName),
		"The name of the repository whose workflow artifacts are served.")

	fs.StringVar(&o.ListenAddress, flagListenAddress,
		envOrDefault(envListenAddress, defaultListenAddress),
		"The address the proxy will bind to.")

	fs.StringVar(&o.GitHubAPIURL, flagGitHubAPIURL,
		envOrDefault(envGitHubAPIURL, ""),
		"The base URL of the GitHub API, for GitHub Enterprise Server.")

	fs.Int64Var(&o.MaxDownloadSize, flagMaxDownloadSize, 0,
		"The maximum size in bytes of a proxied artifact, 0 for no limit.")

	fs.BoolVar(&o.EnableMetrics, flagEnableMetrics, defaultEnableMetrics,
		"Expose Prometheus metrics on /metrics.")
}

// envOrDefault returns the value of the environment variable named by the key.
// If the variable is empty or not present, it returns the defaultValue instead.
func envOrDefault(envName, defaultValue string) string {
	ret := os.Getenv(envName)
	if ret != "" {
		return ret
	}

	return defaultValue
}

// envBindings maps the flags that fall back to an environment variable.
var envBindings = map[string]string{
	flagRepoOwner:     envRepoOwner,
	flagRepoName:      envRepoName,
	flagListenAddress: envListenAddress,
	flagGitHubAPIURL:  envGitHubAPIURL,
}

// ApplyEnv sets every flag that was not given on the command line from its
// environment variable. Call it after loading an env file, since the flag
// defaults are read when the flags are bound.
func ApplyEnv(fs *pflag.FlagSet) error {
	for flagName, envName := range envBindings {
		f := fs.Lookup(flagName)
		if f == nil || f.Changed {
			continue
		}
		v := os.Getenv(envName)
		if v == "" {
			continue
		}
		if err := fs.Set(flagName, v); err != nil {
			return fmt.Errorf("invalid value for %s from %s: %w", flagName, envName, err)
		}
	}
	return nil
}
