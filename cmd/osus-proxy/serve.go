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
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/zihadmahiuddin/osus-proxy-update-server/artifact/server"
	"github.com/zihadmahiuddin/osus-proxy-update-server/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest artifact over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupSignalHandler()

	var (
		recorder *metrics.Recorder
		gatherer prometheus.Gatherer
	)
	if rootArgs.opts.EnableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewRecorder(reg)
		gatherer = reg
	}

	handler, err := server.NewHandler(&rootArgs.opts,
		server.WithLogger(log),
		server.WithMetrics(recorder),
	)
	if err != nil {
		return err
	}

	log.Info("starting server",
		"address", rootArgs.opts.ListenAddress,
		"repository", rootArgs.opts.Repository(),
		"metrics", rootArgs.opts.EnableMetrics)

	if err := server.Start(ctx, &rootArgs.opts, server.NewMux(handler, gatherer)); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
