// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config resolves avatarcache settings from the environment with
// built-in defaults, and loads the optional YAML catalog override.
package config
