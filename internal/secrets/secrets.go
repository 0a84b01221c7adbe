// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the
// key name and the file contents (trimmed) are the value. Keys loaded
// this way never appear in paperflow.yaml or the environment.
//
// Supported key files: llm-api-key, semantic-filter-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paperflow/pkg/types"
)

// Key file names recognized by Apply.
const (
	LLMAPIKey            = "llm-api-key"
	SemanticFilterAPIKey = "semantic-filter-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies loaded keys into the config. Values already set in the
// config win, so a key in paperflow.yaml or the environment overrides
// the secrets directory.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = secrets[LLMAPIKey]
	}
	if cfg.Filter.Semantic.APIKey == "" {
		cfg.Filter.Semantic.APIKey = secrets[SemanticFilterAPIKey]
	}
}
