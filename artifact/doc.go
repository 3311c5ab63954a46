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

// Package artifact resolves and serves the build artifact of the latest
// successful GitHub Actions workflow run of a repository.
//
// Configuration (config pkg):
//   - Flag binding with environment variable fallbacks for the proxy options
//   - Validation of the options with struct tags
//   - Per-request acquisition of the GitHub credentials
//
// Resolution (resolver pkg):
//   - Selection of the first completed run whose jobs all completed
//   - Selection of the first unexpired artifact of that run
//   - Download of the artifact as a zip bundle held in memory
//
// Digest Computation (digest pkg):
//   - Chunked SHA-256 digest of the downloaded bundle
//   - Rendering of the digest as the X-Content-Hash header value
//
// Artifact Server (server pkg):
//   - HTTP handler answering 200 with the bundle, 404 or 500
//   - Health and Prometheus endpoints
//   - HTTP server with graceful shutdown support
package artifact
