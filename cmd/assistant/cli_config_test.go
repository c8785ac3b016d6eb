package main

import (
	"io"
	"testing"

	configpkg "github.com/lennoxconsulting/aiops-assistant/pkg/config"
)

func TestParseCLIConfigDefaultsToWorkingDirectoryFile(t *testing.T) {
	opts, err := parseCLIConfig(nil, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.ConfigPath != configpkg.DefaultPath {
		t.Fatalf("unexpected config path: %q", opts.ConfigPath)
	}
}

func TestParseCLIConfigAcceptsConfigFlag(t *testing.T) {
	opts, err := parseCLIConfig([]string{"-config", "/etc/assistant/prod.yaml"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.ConfigPath != "/etc/assistant/prod.yaml" {
		t.Fatalf("unexpected config path: %q", opts.ConfigPath)
	}
}

func TestParseCLIConfigRejectsPositionalArguments(t *testing.T) {
	if _, err := parseCLIConfig([]string{"extra"}, io.Discard); err == nil {
		t.Fatal("expected positional arguments to be rejected")
	}
}

func TestParseCLIConfigRejectsEmptyPath(t *testing.T) {
	if _, err := parseCLIConfig([]string{"-config", " "}, io.Discard); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
}
