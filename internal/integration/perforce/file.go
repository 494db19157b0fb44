package perforce

import (
	"context"
	"strconv"
	"strings"
)

// FileAction is what a command did, or will do, to a file.
type FileAction string

// File actions reported by p4.
const (
	ActionAdd       FileAction = "add"
	ActionEdit      FileAction = "edit"
	ActionDelete    FileAction = "delete"
	ActionBranch    FileAction = "branch"
	ActionIntegrate FileAction = "integrate"
	ActionUpdate    FileAction = "update"
	ActionRefresh   FileAction = "refresh"
	ActionReverted  FileAction = "reverted"
)

// File is one "path#rev - action ..." line of p4 output.
type File struct {
	DepotPath string
	Revision  int
	Action    FileAction
	// Change is "default" or a changelist number, when reported.
	Change string
	// Type is the file type, e.g. "text", when reported.
	Type string
}

// String returns the depot path with its revision.
func (f File) String() string {
	if f.Revision > 0 {
		return f.DepotPath + "#" + strconv.Itoa(f.Revision)
	}
	return f.DepotPath
}

// ParseFileLine parses lines such as
//
//	//depot/main/a.c#3 - edit default change (text)
//	//depot/main/a.c#3 - edit change 1234 (text+k)
//	//depot/main/a.c#3 - opened for edit
//	//depot/main/a.c#4 - updating /ws/main/a.c
//
// The depot path and revision are always read; the rest is best effort.
func ParseFileLine(line string) (File, error) {
	line = strings.TrimSpace(line)
	spec, rest, _ := strings.Cut(line, " - ")

	hash := strings.LastIndexByte(spec, '#')
	if hash <= 0 || hash == len(spec)-1 {
		return File{}, &ParseError{Form: "file", Field: "path", Value: line, Err: ErrUnexpectedOutput}
	}

	f := File{DepotPath: spec[:hash]}
	rev := spec[hash+1:]
	if rev != "none" {
		n, err := strconv.Atoi(rev)
		if err != nil {
			return f, &ParseError{Form: "file", Field: "revision", Value: rev, Err: err}
		}
		f.Revision = n
	}

	if open := strings.LastIndexByte(rest, '('); open >= 0 && strings.HasSuffix(rest, ")") {
		f.Type = rest[open+1 : len(rest)-1]
		rest = strings.TrimSpace(rest[:open])
	}

	words := strings.Fields(rest)
	switch {
	case len(words) == 0:
	case len(words) >= 4 && words[0] == "currently" && words[1] == "opened" && words[2] == "for":
		f.Action = FileAction(words[3])
	case words[0] == "opened" && len(words) >= 3 && words[1] == "for":
		f.Action = FileAction(words[2])
	case words[0] == "updating":
		f.Action = ActionUpdate
	case words[0] == "refreshing":
		f.Action = ActionRefresh
	case words[0] == "added":
		f.Action = ActionAdd
	case words[0] == "deleted":
		f.Action = ActionDelete
	case words[0] == "was":
		f.Action = ActionReverted
	default:
		f.Action = FileAction(words[0])
	}

	for i := 0; i+1 < len(words); i++ {
		if words[i+1] != "change" {
			continue
		}
		if words[i] == "default" {
			f.Change = "default"
			break
		}
		if i+2 < len(words) {
			f.Change = words[i+2]
			break
		}
	}
	return f, nil
}

// parseFiles parses every non-blank line, logging lines that fail.
func (s *Session) parseFiles(op, output string) []File {
	var files []File
	for _, line := range outputLines(output) {
		f, err := ParseFileLine(line)
		if err != nil {
			s.log.Error("p4 %s: %v", op, err)
			continue
		}
		files = append(files, f)
	}
	return files
}

// Opened lists the files open on the current client ("p4 opened").
func (s *Session) Opened(ctx context.Context) ([]File, error) {
	res, outcome, err := s.exec(ctx, "opened", nil, "opened")
	if err != nil {
		return nil, err
	}
	if outcome == OutcomeEmpty {
		return nil, nil
	}
	return s.parseFiles("opened", res.Stdout), nil
}
