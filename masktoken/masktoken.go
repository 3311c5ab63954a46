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

package masktoken

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mask replaces every redacted token.
const Mask = "*****"

// MaskTokenFromString redacts all matches for the given token from the provided string,
// replacing them with "*****".
// The token is expected to be a valid UTF-8 string.
// This can for example be used to remove sensitive information from error messages.
func MaskTokenFromString(log string, token string) (string, error) {
	if token == "" {
		return log, nil
	}

	re, err := regexp.Compile(fmt.Sprintf("%s*", regexp.QuoteMeta(token)))
	if err != nil {
		return "", err
	}

	return re.ReplaceAllString(log, Mask), nil
}

// MaskTokens redacts all the given tokens from s. Longer tokens are
// masked first so a token containing another is redacted whole. Tokens
// that are not valid UTF-8 are replaced byte for byte.
func MaskTokens(s string, tokens ...string) string {
	sorted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	for _, t := range sorted {
		masked, err := MaskTokenFromString(s, t)
		if err != nil {
			masked = strings.ReplaceAll(s, t, Mask)
		}
		s = masked
	}
	return s
}

// MaskError returns the error message of err with all the given tokens
// redacted. A nil error yields an empty string.
func MaskError(err error, tokens ...string) string {
	if err == nil {
		return ""
	}
	return MaskTokens(err.Error(), tokens...)
}
