package main

import (
	"strings"
	"testing"
)

func seedLibrary(t *testing.T, tmpDir string) *app {
	t.Helper()

	a := testApp(&stubProvider{responses: []string{cannedCompletion}})
	indexSampleFile(t, a, tmpDir)

	if _, err := runCommand(t, a, "generate", "買い物", "--save", "shopping-1"); err != nil {
		t.Fatalf("seed library: %v", err)
	}
	return a
}

func TestLibraryListCmd(t *testing.T) {
	tmpDir := setupWorkspace(t)
	a := seedLibrary(t, tmpDir)

	out, err := runCommand(t, a, "library", "list")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out) != "shopping-1" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestLibraryRemoveCmd(t *testing.T) {
	tmpDir := setupWorkspace(t)
	a := seedLibrary(t, tmpDir)

	out, err := runCommand(t, a, "library", "remove", "shopping-1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "Removed shopping-1") {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := runCommand(t, a, "library", "get", "shopping-1"); err == nil {
		t.Error("expected error after removal")
	}
}

func TestLibraryLogCmd(t *testing.T) {
	tmpDir := setupWorkspace(t)
	a := seedLibrary(t, tmpDir)

	out, err := runCommand(t, a, "library", "log")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "add shopping-1: generated about 買い物") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestAudioCmdMissingQuestion(t *testing.T) {
	setupWorkspace(t)

	if _, err := runCommand(t, testApp(nil), "audio", "ghost_2_0"); err == nil {
		t.Error("expected error for unknown question id")
	}
}
