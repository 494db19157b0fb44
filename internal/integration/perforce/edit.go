package perforce

import (
	"context"
	"fmt"
	"strings"
)

// FileType is a base Perforce file type accepted by "p4 edit -t".
type FileType string

// Base file types.
const (
	FileTypeText     FileType = "text"
	FileTypeBinary   FileType = "binary"
	FileTypeSymlink  FileType = "symlink"
	FileTypeApple    FileType = "apple"
	FileTypeResource FileType = "resource"
	FileTypeUnicode  FileType = "unicode"
)

// Valid reports whether t is a known base type, optionally followed by
// "+modifiers" such as "text+k".
func (t FileType) Valid() bool {
	base, _, _ := strings.Cut(string(t), "+")
	switch FileType(base) {
	case FileTypeText, FileTypeBinary, FileTypeSymlink, FileTypeApple, FileTypeResource, FileTypeUnicode:
		return true
	}
	return false
}

// EditOptions are the parameters of "p4 edit".
type EditOptions struct {
	// File is the file to open. Required.
	File string
	// Change is the changelist to open it in; empty means the default.
	Change string
	// Type changes the file type when set.
	Type FileType
}

// Edit opens a file for edit and returns the files p4 reported.
func (s *Session) Edit(ctx context.Context, opts EditOptions) ([]File, error) {
	if err := required("file", opts.File); err != nil {
		return nil, err
	}
	if opts.Type != "" && !opts.Type.Valid() {
		return nil, fmt.Errorf("%q: %w", opts.Type, ErrInvalidFileType)
	}

	args := []string{"edit"}
	if opts.Change != "" {
		args = append(args, "-c", opts.Change)
	}
	if opts.Type != "" {
		args = append(args, "-t", string(opts.Type))
	}
	args = append(args, opts.File)

	res, _, err := s.exec(ctx, "edit", nil, args...)
	if err != nil {
		return nil, err
	}
	return s.parseFiles("edit", res.Stdout), nil
}
