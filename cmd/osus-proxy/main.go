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

// Command osus-proxy serves the latest successful workflow artifact of a
// GitHub repository.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/config"
	"github.com/zihadmahiuddin/osus-proxy-update-server/logger"
)

var rootCmd = &cobra.Command{
	Use:               "osus-proxy",
	Short:             "Proxy the latest successful GitHub Actions artifact",
	Long:              "osus-proxy finds the most recent workflow run whose jobs all completed, downloads its first unexpired artifact and relays it with an integrity hash.",
	SilenceUsage:      true,
	PersistentPreRunE: setupRoot,
}

var rootArgs struct {
	envFiles []string
	logOpts  logger.Options
	opts     config.Options
}

var log = logr.Discard()

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSliceVar(&rootArgs.envFiles, "env-file", nil,
		"Load environment variables from the given files. Variables already set take precedence.")
	rootArgs.logOpts.BindFlags(flags)
	rootArgs.opts.BindFlags(flags)
}

func setupRoot(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(rootArgs.envFiles...); err != nil {
		return err
	}
	if err := config.ApplyEnv(cmd.Flags()); err != nil {
		return err
	}
	if err := rootArgs.logOpts.Validate(); err != nil {
		return err
	}
	if err := rootArgs.opts.Validate(); err != nil {
		return err
	}
	log = logger.NewLogger(rootArgs.logOpts)
	return nil
}

func setupSignalHandler() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	// Restore default handling so a second signal exits immediately.
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
