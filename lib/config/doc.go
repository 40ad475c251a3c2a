// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for wirelog clients.
//
// Configuration is loaded from a single file specified by:
//   - WIRELOG_CONFIG environment variable, or
//   - an explicit path passed to LoadFile
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections
// (development, staging, production) that override base values when
// the environment matches, so the same file can point development
// machines at a local log file and production at a TCP relay.
package config
