// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
)

// CatalogFile is the on-disk shape of a catalog override:
//
//	states:
//	  idle: [idle.webm, idle.mp4]
//	  searching: [searching.webm]
type CatalogFile struct {
	States map[string][]string `yaml:"states"`
}

// LoadCatalog returns the built-in catalog when path is empty, otherwise the
// catalog described by the YAML file at path. Parsing is strict: unknown keys,
// unknown state names and trailing documents are errors.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Default(), nil
	}
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported catalog format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- catalog path is provided by the operator via ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*catalog.Catalog, error) {
	var file CatalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: catalog file is empty", ErrInvalidConfig)
		}
		if isUnknownField(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict catalog parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: catalog file contains multiple documents or trailing content", ErrInvalidConfig)
	}

	cat, err := catalog.FromNames(file.States)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cat, nil
}

// isUnknownField reports whether a strict decode failed on a key the file
// shape does not declare. yaml.v3 reports those as TypeError entries.
func isUnknownField(err error) bool {
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return false
	}
	for _, msg := range typeErr.Errors {
		if strings.Contains(msg, "not found in type") {
			return true
		}
	}
	return false
}
