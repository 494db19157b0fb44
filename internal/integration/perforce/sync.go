package perforce

import (
	"context"
	"fmt"
)

// SyncAll syncs the whole client to the head revision ("p4 sync").
func (s *Session) SyncAll(ctx context.Context) (Outcome, error) {
	_, outcome, err := s.exec(ctx, "sync", nil, "sync")
	return outcome, err
}

// SyncToLatest syncs path to its head revision. A path that is already
// up-to-date yields OutcomeAlreadyDone.
func (s *Session) SyncToLatest(ctx context.Context, path string) (Outcome, error) {
	if err := required("path", path); err != nil {
		return OutcomeFailed, err
	}
	_, outcome, err := s.exec(ctx, "sync", nil, "sync", path)
	return outcome, err
}

// SyncToChange syncs path as of changelist change.
func (s *Session) SyncToChange(ctx context.Context, path, change string) (Outcome, error) {
	if err := required("path", path); err != nil {
		return OutcomeFailed, err
	}
	if err := required("change", change); err != nil {
		return OutcomeFailed, err
	}
	_, outcome, err := s.exec(ctx, "sync", nil, "sync", path+"@"+change)
	return outcome, err
}

// SyncPreview lists the files a sync of path would touch ("p4 sync -n").
func (s *Session) SyncPreview(ctx context.Context, path string) ([]File, error) {
	if err := required("path", path); err != nil {
		return nil, err
	}
	res, outcome, err := s.exec(ctx, "sync-preview", nil, "sync", "-n", path)
	if err != nil {
		return nil, err
	}
	if outcome == OutcomeAlreadyDone {
		return nil, nil
	}
	return s.parseFiles("sync -n", res.Stdout), nil
}

// SyncPreviewCount returns how many files a sync of path would touch.
func (s *Session) SyncPreviewCount(ctx context.Context, path string) (int, error) {
	files, err := s.SyncPreview(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("sync preview: %w", err)
	}
	return len(files), nil
}
