package main

import (
	"strings"
	"testing"
)

func TestParseOptionsRequiresDSN(t *testing.T) {
	t.Setenv("EOB_DATABASE_DSN", "")
	if _, err := parseOptions(nil); err == nil || !strings.Contains(err.Error(), "-dsn") {
		t.Fatalf("expected dsn error, got %v", err)
	}
}

func TestParseOptionsFallsBackToEnvironment(t *testing.T) {
	t.Setenv("EOB_DATABASE_DSN", "postgres://eob@localhost/eob")
	opts, err := parseOptions([]string{"-action", "VERSION"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.dsn != "postgres://eob@localhost/eob" || opts.action != "version" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestParseOptionsRejectsBadActionAndSteps(t *testing.T) {
	t.Setenv("EOB_DATABASE_DSN", "")
	if _, err := parseOptions([]string{"-dsn", "postgres://x", "-action", "sideways"}); err == nil {
		t.Fatalf("expected unknown action error")
	}
	if _, err := parseOptions([]string{"-dsn", "postgres://x", "-action", "down", "-steps", "0"}); err == nil {
		t.Fatalf("expected steps error")
	}
	opts, err := parseOptions([]string{"-dsn", "postgres://x", "-action", "down", "-steps", "2"})
	if err != nil || opts.steps != 2 {
		t.Fatalf("expected two down steps, got %+v (%v)", opts, err)
	}
}
