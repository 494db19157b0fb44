package process

import (
	"errors"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// reap drains and waits for proc in the background, as an owner would.
func reap(proc *Process) {
	go func() {
		_, _ = io.Copy(io.Discard, proc.Stdout)
		_, _ = io.Copy(io.Discard, proc.Stderr)
		_ = proc.Wait()
	}()
}

func waitDone(t *testing.T, proc *Process) {
	t.Helper()
	select {
	case <-proc.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("process %s did not exit", proc.ID)
	}
}

func TestSupervisor_Start(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Start(exec.Command("echo", "hello"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if proc.ID == "" {
		t.Error("expected a generated ID")
	}
	if s.Get(proc.ID) != proc {
		t.Error("expected process to be tracked")
	}

	out, _ := io.ReadAll(proc.Stdout)
	_ = proc.Wait()

	if string(out) != "hello\n" {
		t.Errorf("expected 'hello\\n', got %q", out)
	}
	if s.Count() != 0 {
		t.Errorf("expected process to be untracked after Wait, got %d", s.Count())
	}
}

func TestSupervisor_StartWithID_Duplicate(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.StartWithID("same", exec.Command("sleep", "1"))
	if err != nil {
		t.Fatalf("StartWithID: %v", err)
	}
	defer func() {
		_ = proc.Kill()
		_ = proc.Wait()
	}()

	if _, err := s.StartWithID("same", exec.Command("true")); err == nil {
		t.Error("expected duplicate ID to be rejected")
	}
}

func TestSupervisor_StartMissingBinary(t *testing.T) {
	s := NewSupervisor()

	_, err := s.Start(exec.Command("/nonexistent/p4kit-no-such-binary"))
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LaunchError, got %T %v", err, err)
	}
	if s.Count() != 0 {
		t.Errorf("expected failed start not to be tracked")
	}
}

func TestSupervisor_WithMaxProcesses(t *testing.T) {
	s := NewSupervisor(WithMaxProcesses(1))
	defer s.Shutdown(time.Second)

	proc, err := s.Start(exec.Command("sleep", "1"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		_ = proc.Kill()
		_ = proc.Wait()
	}()

	if _, err := s.Start(exec.Command("true")); err == nil {
		t.Error("expected process limit error")
	}
}

func TestSupervisor_WithProcessExitCallback(t *testing.T) {
	var calls atomic.Int32
	s := NewSupervisor(WithProcessExitCallback(func(p *Process) {
		calls.Add(1)
		panic("callbacks must not break untracking")
	}))

	proc, err := s.Start(exec.Command("true"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = proc.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 callback, got %d", calls.Load())
	}
	if s.Count() != 0 {
		t.Errorf("expected 0 tracked processes, got %d", s.Count())
	}
}

func TestSupervisor_Kill(t *testing.T) {
	s := NewSupervisor()

	proc, err := s.Start(exec.Command("sleep", "10"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	reap(proc)

	if err := s.Kill(proc.ID); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	waitDone(t, proc)

	if err := s.Kill("missing"); err != ErrProcessNotFound {
		t.Errorf("expected ErrProcessNotFound, got %v", err)
	}
}

func TestSupervisor_KillAll(t *testing.T) {
	s := NewSupervisor()

	var procs []*Process
	for i := 0; i < 3; i++ {
		proc, err := s.Start(exec.Command("sleep", "10"))
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		reap(proc)
		procs = append(procs, proc)
	}

	s.KillAll()
	for _, p := range procs {
		waitDone(t, p)
	}
}

func TestSupervisor_Shutdown(t *testing.T) {
	s := NewSupervisor()

	proc, err := s.Start(exec.Command("sleep", "10"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	reap(proc)

	start := time.Now()
	s.Shutdown(2 * time.Second)
	if time.Since(start) > 2*time.Second {
		t.Error("expected SIGTERM to stop sleep before the timeout")
	}
	waitDone(t, proc)

	if !s.IsShuttingDown() {
		t.Error("expected IsShuttingDown after Shutdown")
	}
	select {
	case <-s.ShutdownChan():
	default:
		t.Error("expected ShutdownChan to be closed")
	}
}

func TestSupervisor_Shutdown_Timeout(t *testing.T) {
	s := NewSupervisor()

	proc, err := s.Start(exec.Command("sh", "-c", "trap '' TERM; exec sleep 10"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	reap(proc)
	time.Sleep(100 * time.Millisecond)

	s.Shutdown(100 * time.Millisecond)
	waitDone(t, proc)

	if proc.State() != StateKilled {
		t.Errorf("expected StateKilled, got %v", proc.State())
	}
}

func TestSupervisor_StartAfterShutdown(t *testing.T) {
	s := NewSupervisor()
	s.Shutdown(time.Second)
	s.Shutdown(time.Second)

	if _, err := s.Start(exec.Command("true")); err != ErrSupervisorShutdown {
		t.Errorf("expected ErrSupervisorShutdown, got %v", err)
	}
}

func TestSupervisor_Concurrent(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			proc, err := s.Start(exec.Command("true"))
			if err != nil {
				t.Errorf("Start: %v", err)
				return
			}
			_ = proc.Wait()
		}()
	}
	wg.Wait()

	if s.Count() != 0 {
		t.Errorf("expected 0 tracked processes, got %d", s.Count())
	}
	if len(s.List()) != 0 {
		t.Errorf("expected empty List")
	}
}
