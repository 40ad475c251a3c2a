// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wirelog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
environment: development
app_name: orders
connections: tcp(host=relay.internal, port=4228)
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppName != "orders" {
		t.Errorf("AppName = %q, want orders", cfg.AppName)
	}
	if cfg.Connections != "tcp(host=relay.internal, port=4228)" {
		t.Errorf("Connections = %q", cfg.Connections)
	}
	if !cfg.IsEnabled() {
		t.Error("IsEnabled = false, want true by default")
	}
}

func TestLoadFileEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: production
app_name: orders
connections: file(filename=dev.sil)
production:
  connections: tcp(host=relay.internal)
  app_name: orders-prod
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Connections != "tcp(host=relay.internal)" {
		t.Errorf("Connections = %q, want the production override", cfg.Connections)
	}
	if cfg.AppName != "orders-prod" {
		t.Errorf("AppName = %q, want orders-prod", cfg.AppName)
	}
}

func TestLoadFileIgnoresOtherEnvironmentSections(t *testing.T) {
	path := writeConfig(t, `
environment: development
connections: file(filename=dev.sil)
production:
  connections: tcp(host=relay.internal)
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Connections != "file(filename=dev.sil)" {
		t.Errorf("Connections = %q, want the base value", cfg.Connections)
	}
}

func TestLoadFileExpandsVariables(t *testing.T) {
	t.Setenv("WIRELOG_TEST_DIR", "/var/log/orders")
	path := writeConfig(t, `
connections: file(filename=${WIRELOG_TEST_DIR}/app.sil)
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Connections != "file(filename=/var/log/orders/app.sil)" {
		t.Errorf("Connections = %q, want the expanded path", cfg.Connections)
	}
}

func TestLoadFileKeepsUnknownVariables(t *testing.T) {
	path := writeConfig(t, `
connections: file(filename=${WIRELOG_NO_SUCH_VAR}/app.sil)
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cfg.Connections, "${WIRELOG_NO_SUCH_VAR}") {
		t.Errorf("Connections = %q, want the unexpanded reference kept", cfg.Connections)
	}
}

func TestLoadFileRejectsBadConnections(t *testing.T) {
	path := writeConfig(t, `
connections: "tcp(host=x"
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unbalanced connections string")
	}
}

func TestLoadFileRejectsUnknownEnvironment(t *testing.T) {
	path := writeConfig(t, `
environment: sandbox
connections: mem()
`)
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "unknown environment") {
		t.Fatalf("error = %v, want unknown environment", err)
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv("WIRELOG_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without WIRELOG_CONFIG")
	}
}

func TestLoadUsesEnvironmentVariable(t *testing.T) {
	path := writeConfig(t, `
app_name: fromenv
connections: mem()
`)
	t.Setenv("WIRELOG_CONFIG", path)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppName != "fromenv" {
		t.Errorf("AppName = %q, want fromenv", cfg.AppName)
	}
}

func TestEnabledOverride(t *testing.T) {
	path := writeConfig(t, `
environment: production
connections: mem()
production:
  enabled: false
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IsEnabled() {
		t.Error("IsEnabled = true, want false after override")
	}
}
