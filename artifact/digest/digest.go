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

// Package digest computes the integrity digest advertised alongside
// proxied artifacts.
package digest

import (
	_ "crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
)

// ChunkSize is the size of the buffer used to feed the hash.
const ChunkSize = 1024

// Canonical is the algorithm used for artifact digests.
const Canonical = digest.SHA256

// FromReader reads r until EOF in ChunkSize chunks and returns the
// SHA-256 digest of everything read.
func FromReader(r io.Reader) (digest.Digest, error) {
	return FromReaderWith(Canonical, r)
}

// FromReaderWith is FromReader for an arbitrary available algorithm.
func FromReaderWith(algo digest.Algorithm, r io.Reader) (digest.Digest, error) {
	if !algo.Available() {
		return "", fmt.Errorf("digest algorithm %q is not available", algo)
	}

	digester := algo.Digester()
	h := digester.Hash()
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			// hash.Hash.Write never returns an error.
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read content: %w", err)
		}
	}
	return digester.Digest(), nil
}

// HeaderValue renders d as "<algorithm>-<lowercase hex>", e.g.
// "sha256-e3b0c442...".
func HeaderValue(d digest.Digest) string {
	return fmt.Sprintf("%s-%s", d.Algorithm(), strings.ToLower(d.Encoded()))
}

// ParseHeaderValue is the inverse of HeaderValue.
func ParseHeaderValue(v string) (digest.Digest, error) {
	algo, encoded, ok := strings.Cut(v, "-")
	if !ok {
		return "", fmt.Errorf("invalid digest header value %q", v)
	}
	d := digest.NewDigestFromEncoded(digest.Algorithm(algo), encoded)
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("invalid digest header value %q: %w", v, err)
	}
	return d, nil
}
