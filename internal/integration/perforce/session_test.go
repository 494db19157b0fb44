package perforce

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/p4kit/internal/integration/process"
)

// reply is a scripted response for one argument vector.
type reply struct {
	stdout string
	stderr string
	exit   int
	err    error
}

// fakeRunner answers Run calls from a table keyed by the joined args.
type fakeRunner struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   [][]string
	inputs  []string
}

func (f *fakeRunner) Run(ctx context.Context, req process.Request) (*process.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req.Args)
	input := ""
	if req.Stdin != nil {
		data, _ := io.ReadAll(req.Stdin)
		input = string(data)
	}
	f.inputs = append(f.inputs, input)

	r := f.replies[strings.Join(req.Args, " ")]
	if r.err != nil {
		return nil, r.err
	}
	res := &process.Result{ID: "fake", Args: append([]string{"p4"}, req.Args...), ExitCode: r.exit}
	if req.CaptureStdout {
		res.Stdout = r.stdout
	}
	if req.CaptureStderr {
		res.Stderr = r.stderr
	}
	return res, nil
}

func (f *fakeRunner) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return strings.Join(f.calls[len(f.calls)-1], " ")
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memLogger records log lines by level.
type memLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLogger) Debug(msg string, args ...any) { l.add("DEBUG", msg, args...) }
func (l *memLogger) Info(msg string, args ...any)  { l.add("INFO", msg, args...) }
func (l *memLogger) Error(msg string, args ...any) { l.add("ERROR", msg, args...) }

func (l *memLogger) add(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+sprintf(msg, args...))
}

func (l *memLogger) has(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") && strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func newTestSession(t *testing.T, replies map[string]reply) (*Session, *fakeRunner, *memLogger) {
	t.Helper()
	r := &fakeRunner{replies: replies}
	log := &memLogger{}
	return NewSession(r, WithLogger(log)), r, log
}
