package chronicle

import (
	"bytes"
	"flag"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("chronicle", flag.ContinueOnError)
	cfg, rest, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "chronicle.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no positional args, got %v", rest)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("chronicle", flag.ContinueOnError)
	cfg, rest, err := ParseConfig(fs, []string{"-db", "journal.db", "verify"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "journal.db" {
		t.Fatalf("expected db override, got %q", cfg.DBPath)
	}
	if len(rest) != 1 || rest[0] != "verify" {
		t.Fatalf("expected positional command, got %v", rest)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	cfg := testConfig(t)
	err := Run(t.Context(), cfg, "bogus", &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("expected command name in error, got %v", err)
	}
}

func TestRunDemoThenListAndVerify(t *testing.T) {
	cfg := testConfig(t)
	ctx := t.Context()

	var demo bytes.Buffer
	if err := Run(ctx, cfg, "demo", &demo); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if !strings.HasPrefix(demo.String(), "created customer ") {
		t.Fatalf("unexpected demo output %q", demo.String())
	}

	var list bytes.Buffer
	if err := Run(ctx, cfg, "list", &list); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(list.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 journal entries, got %d: %q", len(lines), list.String())
	}
	if !strings.Contains(lines[0], "customer.name_added") {
		t.Fatalf("expected name_added first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "customer.email_updated") {
		t.Fatalf("expected email_updated second, got %q", lines[1])
	}

	var verify bytes.Buffer
	if err := Run(ctx, cfg, "verify", &verify); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verify.String() != "journal ok (1 aggregates)\n" {
		t.Fatalf("unexpected verify output %q", verify.String())
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	var cfg Config
	cfg.DBPath = filepath.Join(t.TempDir(), "chronicle.db")
	cfg.LogMode = "dev"
	cfg.OTELEnabled = false
	return cfg
}
