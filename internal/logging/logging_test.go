package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{" error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Output: &buf})

	log.Debug("debug %d", 1)
	log.Info("info")
	log.Warn("warn %s", "here")
	log.Error("error")

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info") {
		t.Errorf("expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] warn here") {
		t.Errorf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error") {
		t.Errorf("expected error line, got %q", out)
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf, Prefix: "p4kit"})

	log.WithComponent("runner").WithField("id", "abc").Info("started")

	out := buf.String()
	if !strings.Contains(out, "[INFO] p4kit: started {component=runner, id=abc}") {
		t.Errorf("unexpected line %q", out)
	}
}

func TestLogger_DerivedShareLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf})
	child := log.WithComponent("perforce")

	log.SetLevel(LevelError)
	child.Info("dropped")

	if buf.Len() != 0 {
		t.Errorf("expected derived logger to honour parent level, got %q", buf.String())
	}
	if child.Level() != LevelError {
		t.Errorf("expected LevelError, got %v", child.Level())
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.WithField("n", n).Debug("line")
		}(i)
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 8 {
		t.Errorf("expected 8 lines, got %d", got)
	}
}

func TestNull(t *testing.T) {
	log := Null()
	log.Error("nothing %s", "here")
	log.WithComponent("x").Info("still nothing")
}
