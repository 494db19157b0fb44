package perforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/p4kit/internal/integration/process"
)

// Runner executes one p4 invocation. *process.Runner implements it.
type Runner interface {
	Run(ctx context.Context, req process.Request) (*process.Result, error)
}

// Logger is the logging interface used by Session.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Session runs typed Perforce operations through a Runner.
//
// A Session holds no per-call state and is safe for concurrent use.
type Session struct {
	runner  Runner
	log     Logger
	phrases *PhraseStore
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPhrases sets the phrase store used for classification.
func WithPhrases(p *PhraseStore) Option {
	return func(s *Session) {
		if p != nil {
			s.phrases = p
		}
	}
}

// NewSession creates a Session over r.
func NewSession(r Runner, opts ...Option) *Session {
	s := &Session{runner: r, log: nopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.phrases == nil {
		s.phrases = NewPhraseStore(nil)
	}
	return s
}

// Phrases returns the session's phrase store.
func (s *Session) Phrases() *PhraseStore {
	return s.phrases
}

// run executes args, capturing both streams.
func (s *Session) run(ctx context.Context, op string, args ...string) (*process.Result, error) {
	return s.runInput(ctx, op, "", args...)
}

// runInput executes args with input written to stdin when non-empty.
func (s *Session) runInput(ctx context.Context, op, input string, args ...string) (*process.Result, error) {
	req := process.Request{
		Args:          args,
		CaptureStdout: true,
		CaptureStderr: true,
	}
	if input != "" {
		req.Stdin = strings.NewReader(input)
	}

	res, err := s.runner.Run(ctx, req)
	if err != nil {
		s.log.Error("p4 %s: %v", op, err)
		return nil, fmt.Errorf("p4 %s: %w", op, err)
	}
	return res, nil
}

// classify applies the phrase table and converts failures to errors.
func (s *Session) classify(op string, res *process.Result, vars map[string]string) (Outcome, error) {
	c := s.phrases.Load().Classify(op, res, vars)
	if c.Outcome != OutcomeFailed {
		if c.Rule != nil {
			s.log.Debug("p4 %s: %s (%s)", op, c.Message, c.Outcome)
		}
		return c.Outcome, nil
	}

	if c.Ambiguous {
		s.log.Error("p4 %s: unrecognized output: %s", op, c.Message)
	} else {
		s.log.Debug("p4 %s: %s", op, c.Message)
	}
	return OutcomeFailed, &CommandError{
		Op:        op,
		Args:      res.Args,
		Message:   c.Message,
		Ambiguous: c.Ambiguous,
	}
}

// exec runs args and classifies the result in one step.
func (s *Session) exec(ctx context.Context, op string, vars map[string]string, args ...string) (*process.Result, Outcome, error) {
	res, err := s.run(ctx, op, args...)
	if err != nil {
		return nil, OutcomeFailed, err
	}
	outcome, err := s.classify(op, res, vars)
	return res, outcome, err
}

// logParse reports soft parse problems without failing the operation.
func (s *Session) logParse(op string, err error) {
	if err == nil {
		return
	}
	if pes, ok := err.(ParseErrors); ok {
		for _, pe := range pes {
			s.log.Error("p4 %s: %v", op, pe)
		}
		return
	}
	s.log.Error("p4 %s: %v", op, err)
}

// outputLines splits output into lines, dropping blank ones.
func outputLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", name, ErrMissingArgument)
	}
	return nil
}
