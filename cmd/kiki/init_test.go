package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestInitCmd(t *testing.T) {
	tmpDir := setupWorkspace(t)

	kikiPath := filepath.Join(tmpDir, ".kiki")
	for _, sub := range []string{"store", "audio", "session", "library"} {
		if _, err := os.Stat(filepath.Join(kikiPath, sub)); os.IsNotExist(err) {
			t.Errorf("%s directory not created", sub)
		}
	}

	if _, err := os.Stat(filepath.Join(kikiPath, "config.yaml")); os.IsNotExist(err) {
		t.Error("config.yaml not created")
	}

	// The library is a real git repository.
	if _, err := os.Stat(filepath.Join(kikiPath, "library", ".git")); os.IsNotExist(err) {
		t.Error("library git directory not created")
	}
}

func TestInitCmdAlreadyInitialized(t *testing.T) {
	setupWorkspace(t)

	cmd := NewInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for already initialized")
	}
}

func TestInitCmdGlobal(t *testing.T) {
	tmpDir := t.TempDir()

	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)
	os.Setenv("HOME", tmpDir)

	cmd := NewInitCmd()
	cmd.SetArgs([]string{"--global"})
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, ".kiki")); os.IsNotExist(err) {
		t.Error("global .kiki directory not created")
	}
}
