package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/p4kit/internal/config"
	"github.com/dshills/p4kit/internal/integration/perforce"
)

// writeFakeP4 creates a p4 stand-in that prints its arguments and
// reports sync as already up to date.
func writeFakeP4(t *testing.T) string {
	t.Helper()
	script := `#!/bin/sh
case "$*" in
*" sync "*) echo "$8 - file(s) up-to-date." >&2 ;;
*) printf '%s\n' "$*" ;;
esac
`
	path := filepath.Join(t.TempDir(), "p4")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.P4.Binary = writeFakeP4(t)
	cfg.P4.Port = "perforce:1666"
	cfg.P4.User = "build"
	cfg.P4.Client = "build-ws"
	cfg.P4.Timeout = config.Duration(5 * time.Second)
	return &cfg
}

func TestNew_Wiring(t *testing.T) {
	var logs bytes.Buffer
	app, err := New(Options{Config: testConfig(t), LogOutput: &logs, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Shutdown()

	wantArgv := []string{app.Config().P4.Binary, "-p", "perforce:1666", "-u", "build", "-c", "build-ws", "opened"}
	if got := app.Runner().Argv("opened"); strings.Join(got, " ") != strings.Join(wantArgv, " ") {
		t.Errorf("Argv = %v, want %v", got, wantArgv)
	}

	o, err := app.Session().SyncToLatest(context.Background(), "//depot/main/...")
	if err != nil || o != perforce.OutcomeAlreadyDone {
		t.Errorf("SyncToLatest = %v, %v", o, err)
	}
	if !strings.Contains(logs.String(), "component=supervisor") {
		t.Errorf("expected supervisor exit log, got:\n%s", logs.String())
	}
	if app.Logger().Level().String() != "DEBUG" {
		t.Errorf("log level = %v", app.Logger().Level())
	}
}

func TestNew_Override(t *testing.T) {
	app, err := New(Options{
		Config:    testConfig(t),
		LogOutput: &bytes.Buffer{},
		Override:  func(c *config.Config) { c.P4.Client = "other-ws" },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer app.Shutdown()

	if app.Config().P4.Client != "other-ws" {
		t.Errorf("Client = %q", app.Config().P4.Client)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "loud"

	_, err := New(Options{Config: cfg, LogOutput: &bytes.Buffer{}})
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "config" {
		t.Errorf("err = %v, want config InitError", err)
	}
}

func TestNew_PhraseFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("version: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Phrases.File = bad
	_, err := New(Options{Config: cfg, LogOutput: &bytes.Buffer{}})
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "phrases" {
		t.Errorf("err = %v, want phrases InitError", err)
	}
}

func TestNew_PhraseWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phrases.yaml")
	table := `version: 1
templates:
  fix: "{job} fixed by change {change} on {date} by {author}"
  change_created: "Change {change} created"
  change_updated: "Change {change} updated"
operations:
  sync:
    rules:
      - {stream: stderr, match: suffix, text: "up-to-date.", outcome: already-done}
`
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Phrases.File = path
	cfg.Phrases.Watch = true
	var logs syncBuffer
	app, err := New(Options{Config: cfg, LogOutput: &logs})
	if err != nil {
		t.Fatal(err)
	}
	defer app.Shutdown()

	before := app.Phrases().Load()
	if err := os.WriteFile(path, []byte(strings.Replace(table, "version: 1", "version: 2", 1)), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for app.Phrases().Load() == before {
		if time.Now().After(deadline) {
			t.Fatal("phrase table was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if v := app.Phrases().Load().Version; v != 2 {
		t.Errorf("Version = %d, want 2", v)
	}

	if err := app.Shutdown(); err != nil {
		t.Errorf("Shutdown = %v", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("second Shutdown = %v", err)
	}
}
