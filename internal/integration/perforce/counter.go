package perforce

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Counter is a named server counter.
type Counter struct {
	Name  string
	Value int
}

// Counter returns the value of counter name ("p4 counter name").
// Counters that were never set read as 0.
func (s *Session) Counter(ctx context.Context, name string) (Counter, error) {
	if err := required("counter", name); err != nil {
		return Counter{}, err
	}

	res, _, err := s.exec(ctx, "counter", nil, "counter", name)
	if err != nil {
		return Counter{}, err
	}

	lines := outputLines(res.Stdout)
	if len(lines) == 0 {
		return Counter{}, fmt.Errorf("p4 counter %s: %w", name, ErrUnexpectedOutput)
	}
	v, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		s.log.Error("p4 counter %s: unable to parse value %q", name, lines[0])
		return Counter{}, fmt.Errorf("p4 counter %s: %w", name, err)
	}
	return Counter{Name: name, Value: v}, nil
}

// SetCounter sets counter name to value. The server must confirm with
// "Counter <name> set.".
func (s *Session) SetCounter(ctx context.Context, name string, value int) error {
	if err := required("counter", name); err != nil {
		return err
	}
	_, _, err := s.exec(ctx, "counter-set", map[string]string{"name": name},
		"counter", name, strconv.Itoa(value))
	if err == nil {
		s.log.Info("counter set: %s=%d", name, value)
	}
	return err
}

// DeleteCounter deletes counter name. The server must confirm with
// "Counter <name> deleted.".
func (s *Session) DeleteCounter(ctx context.Context, name string) error {
	if err := required("counter", name); err != nil {
		return err
	}
	_, _, err := s.exec(ctx, "counter-delete", map[string]string{"name": name},
		"counter", "-d", name)
	return err
}
