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

package config_test

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/config"
)

func Test_Options_BindFlags(t *testing.T) {
	tests := []struct {
		name                    string
		commandLine             []string
		env                     map[string]string
		expectedRepoOwner       string
		expectedRepoName        string
		expectedListenAddress   string
		expectedGitHubAPIURL    string
		expectedMaxDownloadSize int64
		expectedEnableMetrics   bool
	}{
		{
			name:                  "empty flags gets default values",
			commandLine:           []string{""},
			expectedRepoOwner:     "zihadmahiuddin",
			expectedRepoName:      "osus-proxy",
			expectedListenAddress: ":8080",
			expectedEnableMetrics: true,
		},
		{
			name:                  "repository flags",
			commandLine:           []string{"--repo-owner=fluxcd", "--repo-name=flux2"},
			expectedRepoOwner:     "fluxcd",
			expectedRepoName:      "flux2",
			expectedListenAddress: ":8080",
			expectedEnableMetrics: true,
		},
		{
			name:                  "environment overrides defaults",
			commandLine:           []string{""},
			env:                   map[string]string{"REPO_OWNER": "octo", "REPO_NAME": "cat", "LISTEN_ADDRESS": ":9000"},
			expectedRepoOwner:     "octo",
			expectedRepoName:      "cat",
			expectedListenAddress: ":9000",
			expectedEnableMetrics: true,
		},
		{
			name:                  "flags override environment",
			commandLine:           []string{"--repo-owner=flag-owner"},
			env:                   map[string]string{"REPO_OWNER": "env-owner"},
			expectedRepoOwner:     "flag-owner",
			expectedRepoName:      "osus-proxy",
			expectedListenAddress: ":8080",
			expectedEnableMetrics: true,
		},
		{
			name: "all flags",
			commandLine: []string{
				"--listen-addr=127.0.0.1:9999",
				"--github-api-url=https://github.example.com/api/v3",
				"--max-download-size=1048576",
				"--enable-metrics=false",
			},
			expectedRepoOwner:       "zihadmahiuddin",
			expectedRepoName:        "osus-proxy",
			expectedListenAddress:   "127.0.0.1:9999",
			expectedGitHubAPIURL:    "https://github.example.com/api/v3",
			expectedMaxDownloadSize: 1048576,
			expectedEnableMetrics:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			f := pflag.NewFlagSet("test", pflag.ContinueOnError)
			opts := config.Options{}
			opts.BindFlags(f)

			err := f.Parse(tt.commandLine)
			g.Expect(err).NotTo(HaveOccurred())

			g.Expect(opts.RepoOwner).To(Equal(tt.expectedRepoOwner))
			g.Expect(opts.RepoName).To(Equal(tt.expectedRepoName))
			g.Expect(opts.ListenAddress).To(Equal(tt.expectedListenAddress))
			g.Expect(opts.GitHubAPIURL).To(Equal(tt.expectedGitHubAPIURL))
			g.Expect(opts.MaxDownloadSize).To(Equal(tt.expectedMaxDownloadSize))
			g.Expect(opts.EnableMetrics).To(Equal(tt.expectedEnableMetrics))
			g.Expect(opts.Validate()).To(Succeed())
		})
	}
}

func Test_Options_Validate(t *testing.T) {
	valid := func() config.Options {
		return config.Options{
			RepoOwner:     "owner",
			RepoName:      "repo",
			ListenAddress: ":8080",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Options)
		wantErr string
	}{
		{
			name:   "valid options",
			mutate: func(*config.Options) {},
		},
		{
			name:    "missing owner",
			mutate:  func(o *config.Options) { o.RepoOwner = "" },
			wantErr: "RepoOwner failed on 'required'",
		},
		{
			name:    "missing name",
			mutate:  func(o *config.Options) { o.RepoName = "" },
			wantErr: "RepoName failed on 'required'",
		},
		{
			name:    "invalid listen address",
			mutate:  func(o *config.Options) { o.ListenAddress = "8080" },
			wantErr: "ListenAddress failed on 'hostname_port'",
		},
		{
			name:    "invalid API URL",
			mutate:  func(o *config.Options) { o.GitHubAPIURL = "not a url" },
			wantErr: "GitHubAPIURL failed on 'url'",
		},
		{
			name:    "negative download size",
			mutate:  func(o *config.Options) { o.MaxDownloadSize = -1 },
			wantErr: "MaxDownloadSize failed on 'gte=0'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			opts := valid()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				g.Expect(err).ToNot(HaveOccurred())
				return
			}
			g.Expect(err).To(MatchError(ContainSubstring(tt.wantErr)))
		})
	}

	var nilOpts *config.Options
	NewWithT(t).Expect(nilOpts.Validate()).To(MatchError("options cannot be nil"))
}

func Test_Options_Repository(t *testing.T) {
	g := NewWithT(t)
	opts := config.Options{RepoOwner: "zihadmahiuddin", RepoName: "osus-proxy"}
	g.Expect(opts.Repository()).To(Equal("zihadmahiuddin/osus-proxy"))
}

func Test_ApplyEnv(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("GITHUB_API_URL", "")

	var opts config.Options
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.BindFlags(fs)
	g.Expect(fs.Parse([]string{"--repo-name=from-flag"})).To(Succeed())

	// Variables set after binding, as loaded from an env file.
	t.Setenv("REPO_OWNER", "from-env")
	t.Setenv("REPO_NAME", "ignored")
	t.Setenv("LISTEN_ADDRESS", "127.0.0.1:9090")

	g.Expect(config.ApplyEnv(fs)).To(Succeed())
	g.Expect(opts.RepoOwner).To(Equal("from-env"))
	g.Expect(opts.RepoName).To(Equal("from-flag"))
	g.Expect(opts.ListenAddress).To(Equal("127.0.0.1:9090"))
	g.Expect(opts.GitHubAPIURL).To(BeEmpty())
}
