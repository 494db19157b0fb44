package perforce

import (
	"context"
	"strconv"
	"strings"
)

// Fix links a job to the changelist that fixed it.
type Fix struct {
	Job    string
	Change string
	Date   string
	Author string
	// Status is the job status printed after the author, e.g. "closed".
	Status string
}

// ParseFix reads one line of "p4 fixes" output with tmpl, normally
// "{job} fixed by change {change} on {date} by {author}".
func ParseFix(tmpl *Template, line string) (Fix, error) {
	line = strings.TrimSpace(line)
	vars, ok := tmpl.Match(line)
	if !ok {
		return Fix{}, &ParseError{Form: "fixes", Field: "line", Value: line, Err: ErrUnexpectedOutput}
	}

	f := Fix{
		Job:    vars["job"],
		Change: vars["change"],
		Date:   vars["date"],
		Author: vars["author"],
	}
	if open := strings.LastIndex(f.Author, " ("); open > 0 && strings.HasSuffix(f.Author, ")") {
		f.Status = f.Author[open+2 : len(f.Author)-1]
		f.Author = f.Author[:open]
	}
	return f, nil
}

// FixesQuery selects fixes for "p4 fixes".
type FixesQuery struct {
	// Path limits fixes to changes affecting these files.
	Path string
	// Job limits fixes to one job.
	Job string
	// Change limits fixes to one changelist.
	Change int
	// Max limits the number of fixes; 0 means no limit.
	Max int
	// Integrated includes changes integrated into Path.
	Integrated bool
}

func (q FixesQuery) args() []string {
	args := []string{"fixes"}
	if q.Integrated {
		args = append(args, "-i")
	}
	if q.Job != "" {
		args = append(args, "-j", q.Job)
	}
	if q.Change > 0 {
		args = append(args, "-c", strconv.Itoa(q.Change))
	}
	if q.Max > 0 {
		args = append(args, "-m", strconv.Itoa(q.Max))
	}
	if q.Path != "" {
		args = append(args, q.Path)
	}
	return args
}

// Fixes lists job fixes matching q. Lines that do not match the fix
// template are logged and skipped.
func (s *Session) Fixes(ctx context.Context, q FixesQuery) ([]Fix, error) {
	res, _, err := s.exec(ctx, "fixes", nil, q.args()...)
	if err != nil {
		return nil, err
	}

	tmpl := s.phrases.Load().Template(TemplateFix)
	var fixes []Fix
	for _, line := range outputLines(res.Stdout) {
		f, err := ParseFix(tmpl, line)
		if err != nil {
			s.log.Error("p4 fixes: %v", err)
			continue
		}
		fixes = append(fixes, f)
	}
	return fixes, nil
}
