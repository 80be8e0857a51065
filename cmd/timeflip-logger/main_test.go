package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chaz8081/timeflip-logger/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
address: "AA:BB:CC:DD:EE:FF"
password: "123456"
output: "/tmp/from-file.csv"
log_level: "warn"
`)
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "-p", "654321", "-o", "/tmp/from-flag.csv"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	f := flags{configPath: path, password: "654321", output: "/tmp/from-flag.csv", logLevel: "info"}

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Address != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Address = %q, want value from file", cfg.Address)
	}
	if cfg.Password != "654321" {
		t.Errorf("Password = %q, want %q", cfg.Password, "654321")
	}
	if cfg.Output != "/tmp/from-flag.csv" {
		t.Errorf("Output = %q, want %q", cfg.Output, "/tmp/from-flag.csv")
	}
	// -d was not given, so the file value wins over the flag default.
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
}

func TestLoadConfigRequiresAddress(t *testing.T) {
	path := writeConfig(t, "output: /tmp/x.csv\n")
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	_, err := loadConfig(cmd, flags{configPath: path})
	if err == nil {
		t.Fatal("expected error without address")
	}
	if !strings.Contains(err.Error(), "address") {
		t.Errorf("error = %v, want mention of address", err)
	}
}

func TestLoadConfigRejectsShortPasswordFlag(t *testing.T) {
	path := writeConfig(t, "address: AA\n")
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "--password", "123"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if _, err := loadConfig(cmd, flags{configPath: path, password: "123"}); err == nil {
		t.Fatal("expected error for 3-character password")
	}
}

func TestLoadConfigFileMissingExplicitPath(t *testing.T) {
	if _, err := loadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestFacetsCommand(t *testing.T) {
	path := writeConfig(t, "address: AA\n")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"facets", "--config", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("facets: %v", err)
	}
	got := out.String()
	for _, want := range []string{" 5  Break", "11  Build", " 0  -", "18  -"} {
		if !strings.Contains(got, want) {
			t.Errorf("facets output missing %q:\n%s", want, got)
		}
	}
}

func TestReportRequiresSQLite(t *testing.T) {
	path := writeConfig(t, "address: AA\n")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "--config", path})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when sqlite.path is unset")
	}
}

func TestPrintBanner(t *testing.T) {
	cfg := config.Default()
	cfg.Address = "AA:BB"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	var out bytes.Buffer
	printBanner(&out, cfg)
	got := out.String()
	for _, want := range []string{"Device:  AA:BB", "split records", "MQTT:    tcp://localhost:1883", "1m0s backoff"} {
		if !strings.Contains(got, want) {
			t.Errorf("banner missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "SQLite") {
		t.Error("banner should omit SQLite when unset")
	}
}
