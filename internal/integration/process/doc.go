// Package process runs the Perforce command-line client as a child process.
//
// It provides three layers:
//
//   - Process wraps an exec.Cmd with an ID, piped standard I/O and exit
//     tracking.
//   - Supervisor tracks every process in flight so they can all be
//     terminated on shutdown.
//   - Runner builds the argument vector for one p4 invocation, starts it
//     under a Supervisor and, for Run, drains stdout and stderr
//     concurrently until the child exits.
//
// # Running a command
//
//	sup := process.NewSupervisor()
//	defer sup.Shutdown(5 * time.Second)
//
//	r := process.NewRunner(process.Config{Binary: "p4", Timeout: time.Minute},
//	    process.WithSupervisor(sup))
//	res, err := r.Run(ctx, process.Request{
//	    Args:          []string{"changes", "-m", "1", "//depot/..."},
//	    CaptureStdout: true,
//	    CaptureStderr: true,
//	})
//
// Both streams are always drained, even when only one is captured, so a
// child that fills one pipe buffer cannot block while the caller reads the
// other. A non-zero exit code is reported in Result.ExitCode and is not an
// error; deciding success is left to the caller.
//
// # Cancellation
//
// Every invocation takes a context. Runner applies Config.Timeout on top of
// it. When the context ends the child is killed and the drain readers are
// closed, so a grandchild that inherited the pipes cannot hold the call
// open.
//
// # Thread Safety
//
// Runner, Supervisor and Process are safe for concurrent use.
package process
