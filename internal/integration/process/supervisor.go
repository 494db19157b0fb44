package process

import (
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Supervisor tracks running p4 processes so they can be terminated together.
//
// Processes are added by Start and removed when their owner calls
// Process.Wait. Supervisor is safe for concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process

	shutdown chan struct{}
	closed   atomic.Bool

	// maxProcesses limits the number of concurrent processes (0 = unlimited)
	maxProcesses int

	onProcessExit func(p *Process)
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithMaxProcesses sets the maximum number of concurrent processes.
// A value of 0 (default) means unlimited.
func WithMaxProcesses(max int) SupervisorOption {
	return func(s *Supervisor) {
		s.maxProcesses = max
	}
}

// WithProcessExitCallback sets a callback for when processes exit.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
		shutdown:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start pipes stdin, stdout and stderr of cmd, starts it and tracks it
// under a fresh ID.
func (s *Supervisor) Start(cmd *exec.Cmd) (*Process, error) {
	return s.StartWithID(uuid.New().String(), cmd)
}

// StartWithID starts cmd and tracks it under id.
//
// Start failures are returned as *LaunchError.
func (s *Supervisor) StartWithID(id string, cmd *exec.Cmd) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}
	if s.maxProcesses > 0 && len(s.processes) >= s.maxProcesses {
		return nil, fmt.Errorf("process limit reached: %d", s.maxProcesses)
	}
	if _, exists := s.processes[id]; exists {
		return nil, fmt.Errorf("process ID already exists: %s", id)
	}

	proc := NewProcess(id, cmd)

	var createdPipes []interface{ Close() error }
	cleanupPipes := func() {
		for _, p := range createdPipes {
			_ = p.Close()
		}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &LaunchError{Args: cmd.Args, Err: fmt.Errorf("create stdin pipe: %w", err)}
	}
	proc.Stdin = stdin
	createdPipes = append(createdPipes, stdin)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cleanupPipes()
		return nil, &LaunchError{Args: cmd.Args, Err: fmt.Errorf("create stdout pipe: %w", err)}
	}
	proc.Stdout = stdout
	createdPipes = append(createdPipes, stdout)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cleanupPipes()
		return nil, &LaunchError{Args: cmd.Args, Err: fmt.Errorf("create stderr pipe: %w", err)}
	}
	proc.Stderr = stderr
	createdPipes = append(createdPipes, stderr)

	if err := proc.start(); err != nil {
		cleanupPipes()
		return nil, &LaunchError{Args: cmd.Args, Err: err}
	}

	proc.onExit = s.untrack
	s.processes[id] = proc
	return proc, nil
}

func (s *Supervisor) untrack(proc *Process) {
	if s.onProcessExit != nil {
		func() {
			defer func() { _ = recover() }()
			s.onProcessExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// Get returns a process by ID, or nil if it is not tracked.
func (s *Supervisor) Get(id string) *Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[id]
}

// List returns all tracked processes.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		result = append(result, p)
	}
	return result
}

// Count returns the number of tracked processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Kill kills a process by ID.
func (s *Supervisor) Kill(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrProcessNotFound
	}
	if !proc.IsRunning() {
		return nil
	}
	return proc.Kill()
}

// KillAll kills all tracked processes immediately.
func (s *Supervisor) KillAll() {
	for _, p := range s.List() {
		if p.IsRunning() {
			_ = p.Kill()
		}
	}
}

// Shutdown stops accepting new processes, sends SIGTERM to every tracked
// process and waits up to timeout for their owners to reap them. Processes
// still tracked after the timeout are killed.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	if s.closed.Swap(true) {
		return
	}
	close(s.shutdown)

	procs := s.List()
	if len(procs) == 0 {
		return
	}

	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	done := make(chan struct{})
	go func() {
		for _, p := range procs {
			<-p.Done()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		for _, p := range procs {
			if p.IsRunning() {
				_ = p.Kill()
			}
		}
	}
}

// IsShuttingDown returns true if the supervisor is shutting down.
func (s *Supervisor) IsShuttingDown() bool {
	return s.closed.Load()
}

// ShutdownChan returns a channel that is closed when shutdown begins.
func (s *Supervisor) ShutdownChan() <-chan struct{} {
	return s.shutdown
}
