package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// DefaultBinary is the client executable used when Config.Binary is empty.
const DefaultBinary = "p4"

// Logger is the logging interface used by Runner.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Config describes how to invoke the client.
type Config struct {
	// Binary is the executable name or path. Defaults to "p4".
	Binary string

	// GlobalArgs are placed before every subcommand, e.g. -p, -u, -c.
	GlobalArgs []string

	// Env entries (KEY=value) are appended to the inherited environment.
	Env []string

	// Dir is the working directory of the child. Empty means the
	// current directory.
	Dir string

	// Timeout bounds each Run call. Zero means no limit beyond the
	// caller's context.
	Timeout time.Duration
}

// Request is one invocation for Runner.Run.
type Request struct {
	// Args are the subcommand and its arguments, without the binary.
	Args []string

	// Stdin, when non-nil, is copied to the child's stdin before it is
	// closed. A nil Stdin closes the child's stdin immediately.
	Stdin io.Reader

	// CaptureStdout and CaptureStderr select which streams are kept in
	// the Result. Both streams are drained regardless.
	CaptureStdout bool
	CaptureStderr bool
}

// Result is the outcome of one finished invocation.
type Result struct {
	ID       string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner starts p4 commands.
type Runner struct {
	cfg        Config
	supervisor *Supervisor
	logger     Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSupervisor tracks started processes in s.
func WithSupervisor(s *Supervisor) RunnerOption {
	return func(r *Runner) {
		r.supervisor = s
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner. Without WithSupervisor it uses a private one.
func NewRunner(cfg Config, opts ...RunnerOption) *Runner {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	r := &Runner{cfg: cfg, logger: nopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.supervisor == nil {
		r.supervisor = NewSupervisor()
	}
	return r
}

// Config returns the runner's configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// Supervisor returns the supervisor tracking this runner's processes.
func (r *Runner) Supervisor() *Supervisor {
	return r.supervisor
}

// Argv returns the full argument vector for args.
func (r *Runner) Argv(args ...string) []string {
	argv := make([]string, 0, 1+len(r.cfg.GlobalArgs)+len(args))
	argv = append(argv, r.cfg.Binary)
	argv = append(argv, r.cfg.GlobalArgs...)
	return append(argv, args...)
}

// Start launches the command and returns without waiting.
//
// The caller owns the returned process: it must drain Stdout and Stderr,
// close Stdin and call Wait. Config.Timeout is not applied; bound the
// process with ctx instead.
func (r *Runner) Start(ctx context.Context, args ...string) (*Process, error) {
	if len(args) == 0 {
		return nil, ErrNoArgs
	}
	return r.start(ctx, args)
}

func (r *Runner) start(ctx context.Context, args []string) (*Process, error) {
	argv := r.Argv(args...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.cfg.Dir
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		err := &ProcessError{Op: "start", Args: argv, Err: ctxErr}
		r.logger.Error("%v", err)
		return nil, err
	}

	proc, err := r.supervisor.Start(cmd)
	if err != nil {
		r.logger.Error("cannot start %s: %v", strings.Join(argv, " "), err)
		switch {
		case ctx.Err() != nil:
			err = &ProcessError{Op: "start", Args: argv, Err: ctx.Err()}
		case !IsLaunchError(err):
			err = &LaunchError{Args: argv, Err: err}
		}
		return nil, err
	}
	r.logger.Debug("[%s] %s", proc.ID, proc.Name())
	return proc, nil
}

// Run executes the command to completion.
//
// Both streams are drained concurrently; only the streams selected in req
// are kept. A non-zero exit code is logged and returned in the Result
// without an error. Launch failures return *LaunchError. Stdin, drain and
// wait failures return *ProcessError along with whatever partial Result
// was collected, as does a context that ended before the spawn or that
// cut the process short. A process that finished on its own is not an
// error even if the context ends right after.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Args) == 0 {
		return nil, ErrNoArgs
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	proc, err := r.start(ctx, req.Args)
	if err != nil {
		return nil, err
	}

	stdout := StartDrain(ctx, "stdout", proc.Stdout)
	stderr := StartDrain(ctx, "stderr", proc.Stderr)

	var stdinErr error
	if req.Stdin != nil {
		_, stdinErr = io.Copy(proc.Stdin, req.Stdin)
	}
	if err := proc.Stdin.Close(); err != nil && stdinErr == nil {
		stdinErr = err
	}
	// The child may legitimately exit without reading its input.
	if errors.Is(stdinErr, syscall.EPIPE) || errors.Is(stdinErr, os.ErrClosed) {
		stdinErr = nil
	}

	stdout.Wait()
	stderr.Wait()
	waitErr := proc.Wait()

	res := &Result{
		ID:       proc.ID,
		Args:     proc.Args,
		ExitCode: proc.ExitCode(),
		Duration: proc.Runtime(),
	}
	if req.CaptureStdout {
		res.Stdout = stdout.String()
	}
	if req.CaptureStderr {
		res.Stderr = stderr.String()
	}

	var exitErr *exec.ExitError
	switch {
	case interrupted(ctx, waitErr, stdout.Err(), stderr.Err()):
		err = &ProcessError{Op: "run", Args: proc.Args, Err: ctx.Err()}
	case stdinErr != nil:
		err = &ProcessError{Op: "write stdin", Args: proc.Args, Err: stdinErr}
	case stdout.Err() != nil:
		err = &ProcessError{Op: "read stdout", Args: proc.Args, Err: stdout.Err()}
	case stderr.Err() != nil:
		err = &ProcessError{Op: "read stderr", Args: proc.Args, Err: stderr.Err()}
	case waitErr != nil && !errors.As(waitErr, &exitErr):
		err = &ProcessError{Op: "wait", Args: proc.Args, Err: waitErr}
	}
	if err != nil {
		r.logger.Error("[%s] %v", proc.ID, err)
		return res, err
	}

	if res.ExitCode != 0 {
		r.logger.Debug("[%s] %s returned non-zero value: %d", proc.ID, proc.Name(), res.ExitCode)
		r.logger.Debug("[%s] ----> %s", proc.ID, stderr.String())
	}
	return res, nil
}

// interrupted reports whether ctx ending cut the invocation short: the
// child was killed by a signal, or a drain was closed before EOF.
func interrupted(ctx context.Context, waitErr error, drainErrs ...error) bool {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return false
	}
	if errors.Is(waitErr, ctxErr) {
		return true
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return true
		}
	}
	for _, err := range drainErrs {
		if errors.Is(err, ctxErr) {
			return true
		}
	}
	return false
}
