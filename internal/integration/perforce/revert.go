package perforce

import "context"

// RevertOptions are the parameters of "p4 revert".
type RevertOptions struct {
	// File is the file pattern to revert. Required.
	File string
	// Change limits the revert to files open in this changelist.
	Change string
	// UnchangedOnly reverts only files that were not modified (-a).
	UnchangedOnly bool
	// Preview lists what would be reverted without reverting (-n).
	Preview bool
}

// Revert discards open files and returns the files p4 reported.
// Reverting files that are not open is not an error.
func (s *Session) Revert(ctx context.Context, opts RevertOptions) ([]File, error) {
	if err := required("file", opts.File); err != nil {
		return nil, err
	}

	args := []string{"revert"}
	if opts.UnchangedOnly {
		args = append(args, "-a")
	}
	if opts.Preview {
		args = append(args, "-n")
	}
	if opts.Change != "" {
		args = append(args, "-c", opts.Change)
	}
	args = append(args, opts.File)

	res, _, err := s.exec(ctx, "revert", nil, args...)
	if err != nil {
		return nil, err
	}
	return s.parseFiles("revert", res.Stdout), nil
}
