package perforce

import (
	"context"
	"strings"
)

// Directory is a depot directory and its immediate subdirectories.
type Directory struct {
	Path           string
	Subdirectories []string
}

// Dirs lists the subdirectories matching pattern, such as
// //depot/main/* ("p4 dirs pattern").
func (s *Session) Dirs(ctx context.Context, pattern string) (Directory, error) {
	if err := required("directory", pattern); err != nil {
		return Directory{}, err
	}

	dir := Directory{Path: strings.TrimSuffix(pattern, "/*")}
	res, outcome, err := s.exec(ctx, "dirs", nil, "dirs", pattern)
	if err != nil {
		return dir, err
	}
	if outcome == OutcomeEmpty {
		return dir, nil
	}
	for _, line := range outputLines(res.Stdout) {
		dir.Subdirectories = append(dir.Subdirectories, strings.TrimSpace(line))
	}
	return dir, nil
}

// DirExists reports whether any directory matches pattern.
func (s *Session) DirExists(ctx context.Context, pattern string) (bool, error) {
	dir, err := s.Dirs(ctx, pattern)
	if err != nil {
		return false, err
	}
	return len(dir.Subdirectories) > 0, nil
}
