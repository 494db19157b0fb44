package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/sjson"

	"github.com/dshills/p4kit/internal/integration/perforce"
)

// Format selects how records are printed.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// Renderer prints perforce records.
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format}
}

// Format returns the output format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render prints v. JSON output is one document per call.
func (r *Renderer) Render(v any) error {
	var out string
	var err error
	if r.format == FormatJSON {
		out, err = toJSON(v)
	} else {
		out, err = toText(v)
	}
	if err != nil {
		return err
	}
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(r.w, out)
	return err
}

func toJSON(v any) (string, error) {
	switch v := v.(type) {
	case perforce.Changelist:
		return changelistJSON(v)
	case []perforce.Changelist:
		return arrayJSON(v, changelistJSON)
	case perforce.ClientSpec:
		return clientJSON(v)
	case perforce.User:
		return userJSON(v)
	case []perforce.File:
		return arrayJSON(v, fileJSON)
	case []perforce.Fix:
		return arrayJSON(v, fixJSON)
	case perforce.Directory:
		return object(
			"path", v.Path,
			"subdirectories", nonNil(v.Subdirectories),
		)
	case perforce.Counter:
		return object("name", v.Name, "value", v.Value)
	case perforce.ServerInfo:
		return object(
			"userName", v.UserName,
			"clientName", v.ClientName,
			"clientRoot", v.ClientRoot,
			"clientHost", v.ClientHost,
			"serverAddress", v.ServerAddress,
			"serverRoot", v.ServerRoot,
			"serverVersion", v.ServerVersion,
			"serverDate", v.ServerDate,
			"caseHandling", v.CaseHandling,
		)
	case perforce.Outcome:
		return object("outcome", v.String(), "ok", v.OK())
	case perforce.ResolveResult:
		return object("outcome", v.Outcome.String(), "ok", v.Outcome.OK(), "output", v.Output)
	case []string:
		return sjson.Set("", "lines", nonNil(v))
	case int:
		return object("change", v)
	}
	return "", fmt.Errorf("%T: %w", v, ErrUnsupportedRecord)
}

// object builds a JSON object from alternating keys and values.
func object(kv ...any) (string, error) {
	out := "{}"
	for i := 0; i+1 < len(kv); i += 2 {
		var err error
		out, err = sjson.Set(out, kv[i].(string), kv[i+1])
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

func arrayJSON[T any](items []T, enc func(T) (string, error)) (string, error) {
	out := "[]"
	for _, item := range items {
		raw, err := enc(item)
		if err != nil {
			return "", err
		}
		if out, err = sjson.SetRaw(out, "-1", raw); err != nil {
			return "", err
		}
	}
	return out, nil
}

func changelistJSON(cl perforce.Changelist) (string, error) {
	out, err := object(
		"number", cl.Number,
		"date", jsonTime(cl.Date),
		"client", cl.Client,
		"user", cl.User,
		"status", string(cl.Status),
		"description", cl.Description,
	)
	if err != nil {
		return "", err
	}
	if len(cl.Files) > 0 {
		if out, err = sjson.Set(out, "files", cl.Files); err != nil {
			return "", err
		}
	}
	return extraJSON(out, cl.Extra)
}

func clientJSON(c perforce.ClientSpec) (string, error) {
	out, err := object(
		"name", c.Name,
		"update", jsonTime(c.Update),
		"access", jsonTime(c.Access),
		"owner", c.Owner,
		"host", c.Host,
		"description", c.Description,
		"root", c.Root,
		"altRoots", nonNil(c.AltRoots),
		"options", nonNil(c.Options),
		"submitOptions", c.SubmitOptions,
		"lineEnd", c.LineEnd,
		"view", nonNil(c.View()),
	)
	if err != nil {
		return "", err
	}
	return extraJSON(out, c.Extra)
}

func userJSON(u perforce.User) (string, error) {
	return object(
		"name", u.Name,
		"email", u.Email,
		"fullName", u.FullName,
		"update", jsonTime(u.Update),
		"access", jsonTime(u.Access),
		"jobView", u.JobView,
		"reviews", nonNil(u.Reviews),
	)
}

func fileJSON(f perforce.File) (string, error) {
	return object(
		"depotPath", f.DepotPath,
		"revision", f.Revision,
		"action", string(f.Action),
		"change", f.Change,
		"type", f.Type,
	)
}

func fixJSON(f perforce.Fix) (string, error) {
	return object(
		"job", f.Job,
		"change", f.Change,
		"date", f.Date,
		"author", f.Author,
		"status", f.Status,
	)
}

// extraJSON adds unrecognized form fields under "extra", keyed by label
// without the colon.
func extraJSON(out string, extra []perforce.Field) (string, error) {
	for _, f := range extra {
		key := "extra." + escapeKey(strings.TrimSuffix(f.Label, ":"))
		var err error
		if f.Block {
			out, err = sjson.Set(out, key, nonNil(f.Values))
		} else {
			out, err = sjson.Set(out, key, f.Value())
		}
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

// escapeKey quotes the sjson path metacharacters in a single key.
func escapeKey(k string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`)
	return r.Replace(k)
}

func jsonTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toText(v any) (string, error) {
	var b strings.Builder
	switch v := v.(type) {
	case perforce.Changelist:
		return perforce.FormatChangelist(v), nil
	case []perforce.Changelist:
		for _, cl := range v {
			b.WriteString(changeSummary(cl))
			b.WriteByte('\n')
		}
	case perforce.ClientSpec:
		return perforce.FormatClientSpec(v), nil
	case perforce.User:
		fmt.Fprintf(&b, "User:\t%s\nEmail:\t%s\nFullName:\t%s\n", v.Name, v.Email, v.FullName)
		for _, r := range v.Reviews {
			fmt.Fprintf(&b, "Review:\t%s\n", r)
		}
	case []perforce.File:
		for _, f := range v {
			b.WriteString(f.String())
			if f.Action != "" {
				b.WriteString(" - ")
				b.WriteString(string(f.Action))
			}
			if f.Change != "" {
				b.WriteString(" change ")
				b.WriteString(f.Change)
			}
			if f.Type != "" {
				b.WriteString(" (" + f.Type + ")")
			}
			b.WriteByte('\n')
		}
	case []perforce.Fix:
		for _, f := range v {
			fmt.Fprintf(&b, "%s fixed by change %s on %s by %s", f.Job, f.Change, f.Date, f.Author)
			if f.Status != "" {
				fmt.Fprintf(&b, " (%s)", f.Status)
			}
			b.WriteByte('\n')
		}
	case perforce.Directory:
		for _, d := range v.Subdirectories {
			b.WriteString(d)
			b.WriteByte('\n')
		}
	case perforce.Counter:
		return strconv.Itoa(v.Value), nil
	case perforce.ServerInfo:
		for _, kv := range [][2]string{
			{"User name", v.UserName},
			{"Client name", v.ClientName},
			{"Client root", v.ClientRoot},
			{"Client host", v.ClientHost},
			{"Server address", v.ServerAddress},
			{"Server root", v.ServerRoot},
			{"Server version", v.ServerVersion},
			{"Server date", v.ServerDate},
			{"Case Handling", v.CaseHandling},
		} {
			if kv[1] != "" {
				fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
			}
		}
	case perforce.Outcome:
		return v.String(), nil
	case perforce.ResolveResult:
		if out := strings.TrimSpace(v.Output); out != "" {
			b.WriteString(out)
			b.WriteByte('\n')
		}
		b.WriteString(v.Outcome.String())
	case []string:
		return strings.Join(v, "\n"), nil
	case int:
		return "Change " + strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("%T: %w", v, ErrUnsupportedRecord)
	}
	return b.String(), nil
}

// changeSummary prints cl the way "p4 changes" does.
func changeSummary(cl perforce.Changelist) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Change %d", cl.Number)
	if !cl.Date.IsZero() {
		b.WriteString(" on " + perforce.FormatShortDate(cl.Date))
	}
	if cl.User != "" {
		b.WriteString(" by " + cl.User)
		if cl.Client != "" {
			b.WriteString("@" + cl.Client)
		}
	}
	if cl.Status == perforce.StatusPending {
		b.WriteString(" *pending*")
	}
	fmt.Fprintf(&b, " '%s'", firstLine(cl.Description))
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
