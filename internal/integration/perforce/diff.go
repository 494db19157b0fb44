package perforce

import (
	"context"
	"regexp"
	"strings"
)

// diffHeader is the "==== //depot/a.c#3 - /ws/a.c ====" line.
var diffHeader = regexp.MustCompile(`====.*====`)

// DiffOptions are the parameters of "p4 diff".
type DiffOptions struct {
	// File is the file to compare. Required.
	File string
	// Flags are passed before the file, e.g. "-db" or "-du".
	Flags []string
}

// Diff returns the trimmed output of "p4 diff".
func (s *Session) Diff(ctx context.Context, opts DiffOptions) (string, error) {
	if err := required("file", opts.File); err != nil {
		return "", err
	}

	args := append([]string{"diff"}, opts.Flags...)
	args = append(args, opts.File)

	res, _, err := s.exec(ctx, "diff", nil, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// HasDifferences reports whether the workspace file differs from the
// depot, ignoring whitespace ("p4 diff -db").
func (s *Session) HasDifferences(ctx context.Context, file string) (bool, error) {
	out, err := s.Diff(ctx, DiffOptions{File: file, Flags: []string{"-db"}})
	if err != nil {
		return false, err
	}

	body := strings.TrimSpace(replaceFirst(diffHeader, out, ""))
	if body != "" {
		s.log.Debug("found differences between the client and the depot file: %s", file)
		return true, nil
	}
	s.log.Debug("no differences between the client and the depot file: %s", file)
	return false, nil
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
