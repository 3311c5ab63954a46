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

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/config"
	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/digest"
	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/resolver"
	"github.com/zihadmahiuddin/osus-proxy-update-server/github"
	"github.com/zihadmahiuddin/osus-proxy-update-server/masktoken"
)

var errNothingToServe = errors.New("no artifact to serve")

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the latest artifact once and print its details",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

var resolveCmdFlags struct {
	output string
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVarP(&resolveCmdFlags.output, "output", "o", "",
		"Write the artifact bundle to the given file.")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := logr.NewContext(setupSignalHandler(), log)

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return err
	}

	client, err := github.New(
		github.WithBasicAuth(creds.Username, creds.Token),
		github.WithAPIURL(rootArgs.opts.GitHubAPIURL),
		github.WithMaxDownloadSize(rootArgs.opts.MaxDownloadSize),
		github.WithLogger(log),
	)
	if err != nil {
		return err
	}
	r, err := resolver.New(client, rootArgs.opts.RepoOwner, rootArgs.opts.RepoName)
	if err != nil {
		return err
	}

	result, found, err := r.Resolve(ctx)
	if err != nil {
		return errors.New(masktoken.MaskError(err, creds.Token))
	}
	if !found {
		return fmt.Errorf("%w in %s", errNothingToServe, r.Repository())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run:      %d\n", result.Run.ID)
	fmt.Fprintf(out, "artifact: %d (%s)\n", result.Artifact.ID, result.FileName())
	fmt.Fprintf(out, "size:     %d\n", len(result.Payload))
	fmt.Fprintf(out, "hash:     %s\n", digest.HeaderValue(result.Digest))

	if resolveCmdFlags.output == "" {
		return nil
	}
	if err := os.WriteFile(resolveCmdFlags.output, result.Payload, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	fmt.Fprintf(out, "written:  %s\n", resolveCmdFlags.output)
	return nil
}
