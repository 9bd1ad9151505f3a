package main

import (
	"strings"
	"testing"
)

func TestRootHelpListsCommands(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--help")
	if err != nil {
		t.Fatalf("--help: %v", err)
	}
	for _, name := range []string{"generate", "plan", "queue", "run", "serve", "status", "preflight", "config"} {
		if !strings.Contains(stdout, name) {
			t.Fatalf("help output missing %q:\n%s", name, stdout)
		}
	}
}

func TestUnknownCommandFails(t *testing.T) {
	if _, _, err := runCLI(t, "", "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
