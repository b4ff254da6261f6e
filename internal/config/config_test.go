package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 9999\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_SearchPath(t *testing.T) {
	dir := t.TempDir()
	orig := searchPathsFunc
	searchPathsFunc = func() []string {
		return []string{filepath.Join(dir, "config.yaml")}
	}
	defer func() { searchPathsFunc = orig }()

	_, err := FindConfig("")
	if err == nil {
		t.Fatal("FindConfig(\"\") with no config files should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 8080\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.yaml")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("connections:\n  - id: rtk\n    kind: mqtt\n    password: ${FLOCKD_TEST_PASSWORD}\n"), 0600)
	os.Setenv("FLOCKD_TEST_PASSWORD", "secret123")
	defer os.Unsetenv("FLOCKD_TEST_PASSWORD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Connections[0].Password != "secret123" {
		t.Errorf("password = %q, want %q", cfg.Connections[0].Password, "secret123")
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("{}\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen.Port != 5000 {
		t.Errorf("listen.port = %d, want 5000", cfg.Listen.Port)
	}
	if cfg.Listen.TCPPort != 5001 {
		t.Errorf("listen.tcp_port = %d, want 5001", cfg.Listen.TCPPort)
	}
	if cfg.Extensions == nil {
		t.Error("extensions map should be initialized, not nil")
	}
}

func TestLoad_Extensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte(strings.Join([]string{
		"extensions:",
		"  sio:",
		"    enabled: true",
		"  tcp:",
		"    enabled: false",
		"  system:",
		"    options:",
		"      limit: 10",
		"",
	}, "\n")), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Extensions["sio"].IsEnabled() {
		t.Error("sio should be enabled")
	}
	if cfg.Extensions["tcp"].IsEnabled() {
		t.Error("tcp should be disabled")
	}
	if !cfg.Extensions["system"].IsEnabled() {
		t.Error("an extension entry with no enabled field should default to enabled")
	}
	if limit, _ := cfg.Extensions["system"].Options["limit"].(int); limit != 10 {
		t.Errorf("system.options.limit = %v, want 10", cfg.Extensions["system"].Options["limit"])
	}
}

func TestValidate_DuplicateConnectionID(t *testing.T) {
	cfg := Default()
	cfg.Connections = []ConnectionConfig{
		{ID: "rtk", Kind: "mqtt"},
		{ID: "rtk", Kind: "mqtt"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate connection id")
	}
	if !strings.Contains(err.Error(), "rtk") {
		t.Errorf("error should mention the duplicate id, got: %v", err)
	}
}

func TestValidate_ConnectionMissingKind(t *testing.T) {
	cfg := Default()
	cfg.Connections = []ConnectionConfig{{ID: "rtk"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for connection missing kind")
	}
}

func TestValidate_ListenPortOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Listen.Port = 70000
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for out-of-range listen.port")
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestExtensionConfig_IsEnabledDefaultsTrue(t *testing.T) {
	var ec ExtensionConfig
	if !ec.IsEnabled() {
		t.Error("zero-value ExtensionConfig should default to enabled")
	}
	disabled := false
	ec.Enabled = &disabled
	if ec.IsEnabled() {
		t.Error("explicit Enabled=false should disable")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly, got: %v", err)
	}
	if !cfg.Listen.EnableSSDP {
		t.Error("Default() should enable SSDP")
	}
}
