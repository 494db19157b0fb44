package perforce

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChangesQuery selects changelists for "p4 changes".
//
// At most one revision range applies, in this order: Client (changes
// synced to that client), the date range, the change number range.
type ChangesQuery struct {
	// Path is a depot path such as //depot/main/...
	Path string

	// Client restricts the path to revisions synced to this client.
	Client string

	// From and To bound the submission date. A zero To means now.
	From, To time.Time

	// FromChange and ToChange bound the changelist number.
	FromChange, ToChange int

	// Max limits the number of changes returned; 0 means no limit.
	Max int

	// Status filters by state when set.
	Status ChangeStatus

	// User filters by submitting user when set.
	User string
}

func (q ChangesQuery) args() []string {
	args := []string{"changes"}
	if q.Max > 0 {
		args = append(args, "-m", strconv.Itoa(q.Max))
	}
	if q.Status != "" {
		args = append(args, "-s", string(q.Status))
	}
	if q.User != "" {
		args = append(args, "-u", q.User)
	}

	var rev string
	switch {
	case q.Client != "":
		rev = "@" + q.Client
	case !q.From.IsZero():
		to := "@now"
		if !q.To.IsZero() {
			to = "@" + FormatShortDate(q.To)
		}
		rev = "@" + FormatShortDate(q.From) + "," + to
	case q.FromChange > 0 || q.ToChange > 0:
		to := "@now"
		if q.ToChange > 0 {
			to = "@" + strconv.Itoa(q.ToChange)
		}
		rev = "@" + strconv.Itoa(q.FromChange) + "," + to
	}

	path := q.Path
	if path == "" && rev != "" {
		path = "//..."
	}
	if path != "" {
		args = append(args, path+rev)
	}
	return args
}

// Change returns changelist number n ("p4 change -o n").
func (s *Session) Change(ctx context.Context, n int) (Changelist, error) {
	if n < 1 {
		return Changelist{}, fmt.Errorf("change number %d: %w", n, ErrMissingArgument)
	}
	return s.changeForm(ctx, "change", "-o", strconv.Itoa(n))
}

// NewChange returns the template the server offers for a new changelist
// ("p4 change -o").
func (s *Session) NewChange(ctx context.Context) (Changelist, error) {
	return s.changeForm(ctx, "change", "-o")
}

func (s *Session) changeForm(ctx context.Context, args ...string) (Changelist, error) {
	res, _, err := s.exec(ctx, "change", nil, args...)
	if err != nil {
		return Changelist{}, err
	}
	if strings.TrimSpace(res.Stdout) == "" {
		return Changelist{}, fmt.Errorf("p4 change: %w", ErrUnexpectedOutput)
	}
	cl, perr := ParseChangelist(res.Stdout)
	s.logParse("change", perr)
	return cl, nil
}

// Changes lists changelists matching q, newest first.
func (s *Session) Changes(ctx context.Context, q ChangesQuery) ([]Changelist, error) {
	res, _, err := s.exec(ctx, "changes", nil, q.args()...)
	if err != nil {
		return nil, err
	}

	var changes []Changelist
	for _, line := range outputLines(res.Stdout) {
		cl, perr := ParseChangeSummary(line)
		s.logParse("changes", perr)
		changes = append(changes, cl)
	}
	return changes, nil
}

// LatestChange returns the most recent changelist affecting path.
func (s *Session) LatestChange(ctx context.Context, path string) (Changelist, error) {
	if err := required("path", path); err != nil {
		return Changelist{}, err
	}
	return s.firstChange(ctx, ChangesQuery{Path: path, Max: 1})
}

// LatestSyncedChange returns the most recent changelist of path that is
// synced to client.
func (s *Session) LatestSyncedChange(ctx context.Context, path, client string) (Changelist, error) {
	if err := required("path", path); err != nil {
		return Changelist{}, err
	}
	if err := required("client", client); err != nil {
		return Changelist{}, err
	}
	return s.firstChange(ctx, ChangesQuery{Path: path, Client: client, Max: 1})
}

func (s *Session) firstChange(ctx context.Context, q ChangesQuery) (Changelist, error) {
	changes, err := s.Changes(ctx, q)
	if err != nil {
		return Changelist{}, err
	}
	if len(changes) == 0 {
		return Changelist{}, fmt.Errorf("p4 changes %s: %w", q.Path, ErrNotFound)
	}
	return changes[0], nil
}

// CreateChange sends cl to "p4 change -i" and returns the number the
// server assigned. cl.Number is ignored; the form always says "new".
//
// ErrNoChangeNumber is returned when the output does not report a
// created changelist.
func (s *Session) CreateChange(ctx context.Context, cl Changelist) (int, error) {
	cl.Number = 0
	if cl.Status == "" {
		cl.Status = StatusNew
	}

	res, err := s.runInput(ctx, "change-create", FormatChangelist(cl), "change", "-i")
	if err != nil {
		return 0, err
	}

	n, ok := s.createdNumber(res.Stdout)
	if !ok {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(res.Stdout)
		}
		s.log.Error("p4 change -i: no changelist created: %s", msg)
		return 0, fmt.Errorf("p4 change -i: %s: %w", msg, ErrNoChangeNumber)
	}
	s.log.Info("created changelist %d", n)
	return n, nil
}

// createdNumber finds "Change N created" in the output.
func (s *Session) createdNumber(stdout string) (int, bool) {
	return ExtractChangeNumber(s.phrases.Load().Template(TemplateChangeCreated), stdout)
}

// ExtractChangeNumber returns the changelist number from the first line
// of output that matches tmpl, such as
// "Change 175204 created with 1 open file(s).".
func ExtractChangeNumber(tmpl *Template, output string) (int, bool) {
	for _, line := range outputLines(output) {
		vars, ok := tmpl.Match(strings.TrimSpace(line))
		if !ok {
			continue
		}
		n, err := strconv.Atoi(vars["change"])
		if err != nil || n < 1 {
			continue
		}
		return n, true
	}
	return 0, false
}

// CreateChangeFor creates a changelist owned by the current user and
// client with the given description and, optionally, files from the
// default changelist.
func (s *Session) CreateChangeFor(ctx context.Context, description string, files []string) (Changelist, error) {
	if err := required("description", description); err != nil {
		return Changelist{}, err
	}

	user, err := s.User(ctx, "")
	if err != nil {
		return Changelist{}, err
	}
	client, err := s.ClientSpec(ctx, "")
	if err != nil {
		return Changelist{}, err
	}

	cl := Changelist{
		User:        user.Name,
		Client:      client.Name,
		Status:      StatusNew,
		Description: description,
		Files:       files,
	}
	n, err := s.CreateChange(ctx, cl)
	if err != nil {
		return Changelist{}, err
	}
	cl.Number = n
	cl.Status = StatusPending
	return cl, nil
}

// UpdateChange sends an existing pending changelist back to the server.
func (s *Session) UpdateChange(ctx context.Context, cl Changelist) error {
	if cl.Number < 1 {
		return fmt.Errorf("change number: %w", ErrMissingArgument)
	}
	res, err := s.runInput(ctx, "change-update", FormatChangelist(cl), "change", "-i")
	if err != nil {
		return err
	}
	_, err = s.classify("change-update", res, map[string]string{"change": strconv.Itoa(cl.Number)})
	return err
}

// Submit submits pending changelist n ("p4 submit -c n").
func (s *Session) Submit(ctx context.Context, n int) (Outcome, error) {
	if n < 1 {
		return OutcomeFailed, fmt.Errorf("change number %d: %w", n, ErrMissingArgument)
	}
	_, outcome, err := s.exec(ctx, "submit", nil, "submit", "-c", strconv.Itoa(n))
	return outcome, err
}

// SubmitDefault submits the default changelist with description
// ("p4 submit -d description").
func (s *Session) SubmitDefault(ctx context.Context, description string) (Outcome, error) {
	if err := required("description", description); err != nil {
		return OutcomeFailed, err
	}
	_, outcome, err := s.exec(ctx, "submit", nil, "submit", "-d", description)
	return outcome, err
}
