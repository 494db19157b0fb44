package perforce

import (
	"context"
	"strings"
)

// Filelog returns the lines of "p4 filelog" for file. With
// followBranches, history is followed across branches (-i).
func (s *Session) Filelog(ctx context.Context, file string, followBranches bool) ([]string, error) {
	if err := required("file", file); err != nil {
		return nil, err
	}

	args := []string{"filelog"}
	if followBranches {
		args = append(args, "-i")
	}
	args = append(args, file)

	res, _, err := s.exec(ctx, "filelog", nil, args...)
	if err != nil {
		return nil, err
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		s.log.Error("p4 filelog %s: empty output", file)
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
