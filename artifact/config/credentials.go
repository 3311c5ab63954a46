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
	"os"

	"github.com/joho/godotenv"
)

const (
	// EnvUsername holds the account used for GitHub API basic auth.
	EnvUsername = "GH_USERNAME"
	// EnvToken holds the access token used for GitHub API basic auth.
	EnvToken = "GH_TOKEN"
)

// ErrMissingCredentials is returned when a credential variable is not set.
var ErrMissingCredentials = errors.New("missing credentials")

// Credentials authenticate the proxy against the GitHub API.
type Credentials struct {
	Username string
	Token    string
}

// CredentialsFromEnv reads the credentials from GH_USERNAME and GH_TOKEN.
// Both are required.
func CredentialsFromEnv() (Credentials, error) {
	username, err := requireEnv(EnvUsername)
	if err != nil {
		return Credentials{}, err
	}
	token, err := requireEnv(EnvToken)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Username: username, Token: token}, nil
}

func requireEnv(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrMissingCredentials, name)
	}
	return v, nil
}

// LoadEnvFile loads the given dotenv files into the process environment.
// Variables already set are left untouched.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
