package main

import (
	"strings"
	"testing"
)

func TestProviderAddAndList(t *testing.T) {
	setupWorkspace(t)
	a := testApp(nil)

	out, err := runCommand(t, a, "provider", "add", "openai", "--api-key", "sk-test", "--model", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added provider openai") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = runCommand(t, a, "provider", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// First provider added becomes the default.
	if !strings.Contains(out, "openai (default)") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestProviderListEmpty(t *testing.T) {
	setupWorkspace(t)

	out, err := runCommand(t, testApp(nil), "provider", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No providers configured.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestProviderDefault(t *testing.T) {
	setupWorkspace(t)
	a := testApp(nil)

	for _, name := range []string{"openai", "openrouter"} {
		if _, err := runCommand(t, a, "provider", "add", name); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	if _, err := runCommand(t, a, "provider", "default", "openrouter"); err != nil {
		t.Fatalf("default: %v", err)
	}

	out, err := runCommand(t, a, "provider", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "openrouter (default)") {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := runCommand(t, a, "provider", "default", "ghost"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestProviderRemove(t *testing.T) {
	setupWorkspace(t)
	a := testApp(nil)

	if _, err := runCommand(t, a, "provider", "add", "openai"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := runCommand(t, a, "provider", "remove", "openai"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	out, err := runCommand(t, a, "provider", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No providers configured.") {
		t.Errorf("default not cleared with last provider: %q", out)
	}

	if _, err := runCommand(t, a, "provider", "remove", "openai"); err == nil {
		t.Error("expected error for removing unknown provider")
	}
}

func TestProviderTest(t *testing.T) {
	setupWorkspace(t)
	provider := &stubProvider{responses: []string{"OK"}}
	a := testApp(provider)

	if _, err := runCommand(t, a, "provider", "add", "openai"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCommand(t, a, "provider", "test", "openai")
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if !strings.Contains(out, "Provider openai is working") {
		t.Errorf("unexpected output: %q", out)
	}
	if len(provider.prompts) != 1 || provider.prompts[0] != "Say OK." {
		t.Errorf("prompts = %v", provider.prompts)
	}
}
