package perforce

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Form labels of "p4 client -o".
const (
	labelClientName    = "Client:"
	labelUpdate        = "Update:"
	labelAccess        = "Access:"
	labelOwner         = "Owner:"
	labelHost          = "Host:"
	labelRoot          = "Root:"
	labelAltRoots      = "AltRoots:"
	labelOptions       = "Options:"
	labelSubmitOptions = "SubmitOptions:"
	labelLineEnd       = "LineEnd:"
	labelView          = "View:"
)

// ClientSpec is a client workspace specification.
//
// The view is kept private so that mappings are only changed through
// AddView and RemoveView, which keep it free of duplicates and blanks.
type ClientSpec struct {
	Name   string
	Update time.Time
	Access time.Time
	Owner  string
	// Host is empty when the client may be used from any host.
	Host          string
	Comments      string
	Description   string
	Root          string
	AltRoots      []string
	Options       []string
	SubmitOptions string
	LineEnd       string
	// Extra holds fields such as Stream or ServerID, in form order.
	Extra []Field

	view []string
}

// View returns a copy of the view mappings in order.
func (c *ClientSpec) View() []string {
	return slices.Clone(c.view)
}

// SetView replaces the view, dropping duplicates. Every mapping must be
// valid.
func (c *ClientSpec) SetView(mappings []string) error {
	c.view = nil
	for _, m := range mappings {
		if err := c.AddView(m); err != nil {
			return err
		}
	}
	return nil
}

// AddView appends mapping unless it is already present.
func (c *ClientSpec) AddView(mapping string) error {
	m, err := normalizeView(mapping)
	if err != nil {
		return err
	}
	if !slices.Contains(c.view, m) {
		c.view = append(c.view, m)
	}
	return nil
}

// RemoveView removes mapping if present.
func (c *ClientSpec) RemoveView(mapping string) error {
	m, err := normalizeView(mapping)
	if err != nil {
		return err
	}
	c.view = slices.DeleteFunc(c.view, func(v string) bool { return v == m })
	return nil
}

// ExistsView reports whether mapping is in the view.
func (c *ClientSpec) ExistsView(mapping string) bool {
	m, err := normalizeView(mapping)
	if err != nil {
		return false
	}
	return slices.Contains(c.view, m)
}

func normalizeView(mapping string) (string, error) {
	m := strings.TrimSpace(mapping)
	if m == "" || strings.ContainsAny(m, "\r\n") {
		return "", fmt.Errorf("%q: %w", mapping, ErrInvalidView)
	}
	return m, nil
}

// ParseClientSpec parses the output of "p4 client -o".
//
// Unknown fields are kept in Extra so the spec can be written back
// without losing them. Problems are reported as ParseErrors next to a
// usable spec.
func ParseClientSpec(text string) (ClientSpec, error) {
	r := newFormReader("client", text)
	c := ClientSpec{Comments: r.comments()}

	c.Name = r.text(labelClientName, true)
	c.Update = r.date(labelUpdate, false)
	c.Access = r.date(labelAccess, false)
	c.Owner = r.text(labelOwner, true)
	c.Host = r.text(labelHost, false)
	c.Description = strings.Join(r.lines(labelDescription, false), "\n")
	c.Root = r.text(labelRoot, true)
	c.AltRoots = r.lines(labelAltRoots, false)
	if opts := strings.Fields(r.text(labelOptions, false)); len(opts) > 0 {
		c.Options = opts
	}
	c.SubmitOptions = r.text(labelSubmitOptions, false)
	c.LineEnd = r.text(labelLineEnd, false)

	for _, m := range r.lines(labelView, false) {
		if err := c.AddView(m); err != nil {
			r.errs = append(r.errs, &ParseError{Form: "client", Field: labelView, Value: m, Err: err})
		}
	}
	c.Extra = r.extra()

	return c, r.errs.err()
}

// FormatClientSpec writes c in the form accepted by "p4 client -i".
func FormatClientSpec(c ClientSpec) string {
	var w formWriter
	w.comments(c.Comments)

	w.text(labelClientName, c.Name)
	if !c.Update.IsZero() {
		w.text(labelUpdate, formatLongDate(c.Update))
	}
	if !c.Access.IsZero() {
		w.text(labelAccess, formatLongDate(c.Access))
	}
	w.text(labelOwner, c.Owner)
	w.optional(labelHost, c.Host)
	w.block(labelDescription, strings.Split(c.Description, "\n"))
	w.text(labelRoot, c.Root)
	if len(c.AltRoots) > 0 {
		w.block(labelAltRoots, c.AltRoots)
	}
	if len(c.Options) > 0 {
		w.text(labelOptions, strings.Join(c.Options, " "))
	}
	w.optional(labelSubmitOptions, c.SubmitOptions)
	w.optional(labelLineEnd, c.LineEnd)
	for _, f := range c.Extra {
		w.field(f)
	}
	w.block(labelView, c.view)
	return w.String()
}

// ClientSpec returns the named client, or the current client when name
// is empty ("p4 client -o [name]").
func (s *Session) ClientSpec(ctx context.Context, name string) (ClientSpec, error) {
	args := []string{"client", "-o"}
	if name != "" {
		args = append(args, name)
	}

	res, _, err := s.exec(ctx, "client", nil, args...)
	if err != nil {
		return ClientSpec{}, err
	}
	if strings.TrimSpace(res.Stdout) == "" {
		return ClientSpec{}, fmt.Errorf("p4 client -o: %w", ErrUnexpectedOutput)
	}
	c, perr := ParseClientSpec(res.Stdout)
	s.logParse("client", perr)
	return c, nil
}

// SaveClientSpec writes c to the server ("p4 client -i"). Success is
// confirmed by "Client <name> saved." on stdout.
func (s *Session) SaveClientSpec(ctx context.Context, c ClientSpec) (Outcome, error) {
	if err := required("client name", c.Name); err != nil {
		return OutcomeFailed, err
	}
	res, err := s.runInput(ctx, "client-save", FormatClientSpec(c), "client", "-i")
	if err != nil {
		return OutcomeFailed, err
	}
	return s.classify("client-save", res, map[string]string{"name": c.Name})
}
