package perforce

import (
	"strings"
	"time"
	"unicode"
)

// Field is one labelled entry of a spec form.
//
// Single-line fields ("Owner:<TAB>alice") have Block false and one value.
// Block fields ("View:" followed by indented lines) have Block true and
// one value per line.
type Field struct {
	Label  string
	Block  bool
	Values []string
}

// Value returns the first value, or "".
func (f Field) Value() string {
	if len(f.Values) == 0 {
		return ""
	}
	return f.Values[0]
}

// form is a spec form split into its comment block and fields.
type form struct {
	comments   []string
	fields     []Field
	unexpected []string
}

// parseForm splits text using the p4 spec grammar. Blank lines only
// separate fields; lines inside a block keep everything after the first
// tab of indentation.
func parseForm(text string) form {
	var f form
	var cur *Field

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			if cur != nil && cur.Block && line != "" {
				cur.Values = append(cur.Values, "")
			}
			continue
		}

		if strings.HasPrefix(line, "#") {
			if len(f.fields) == 0 {
				f.comments = append(f.comments, line)
			}
			continue
		}

		if line[0] == '\t' || line[0] == ' ' {
			if cur == nil || !cur.Block {
				f.unexpected = append(f.unexpected, line)
				continue
			}
			cur.Values = append(cur.Values, unindent(line))
			continue
		}

		label, value, ok := splitLabel(line)
		if !ok {
			f.unexpected = append(f.unexpected, line)
			cur = nil
			continue
		}
		f.fields = append(f.fields, Field{Label: label})
		cur = &f.fields[len(f.fields)-1]
		if value == "" {
			cur.Block = true
		} else {
			cur.Values = []string{value}
		}
	}

	// Blank lines recorded at the end of a block are separators.
	for i := range f.fields {
		fl := &f.fields[i]
		for len(fl.Values) > 0 && fl.Block && fl.Values[len(fl.Values)-1] == "" {
			fl.Values = fl.Values[:len(fl.Values)-1]
		}
	}
	return f
}

// splitLabel splits "Label:<TAB>value". The label is a run of letters and
// digits starting with a letter.
func splitLabel(line string) (label, value string, ok bool) {
	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return "", "", false
	}
	for i, r := range line[:colon] {
		if !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return "", "", false
		}
	}
	return line[:colon+1], strings.TrimSpace(line[colon+1:]), true
}

func unindent(line string) string {
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	return strings.TrimLeft(line, " ")
}

// field returns the first field with label.
func (f *form) field(label string) (Field, bool) {
	for _, fl := range f.fields {
		if fl.Label == label {
			return fl, true
		}
	}
	return Field{}, false
}

// formReader pulls known fields out of a form and collects the problems
// found along the way.
type formReader struct {
	name  string
	form  form
	known map[string]bool
	errs  ParseErrors
}

func newFormReader(name, text string) *formReader {
	r := &formReader{
		name:  name,
		form:  parseForm(text),
		known: make(map[string]bool),
	}
	for _, line := range r.form.unexpected {
		r.errs = append(r.errs, &ParseError{Form: name, Field: "line", Value: line, Err: ErrUnexpectedOutput})
	}
	return r
}

func (r *formReader) lookup(label string, required bool) (Field, bool) {
	r.known[label] = true
	fl, ok := r.form.field(label)
	if !ok && required {
		r.errs = append(r.errs, &ParseError{Form: r.name, Field: label, Err: errMissingField})
	}
	return fl, ok
}

// text returns a single-line value.
func (r *formReader) text(label string, required bool) string {
	fl, _ := r.lookup(label, required)
	return fl.Value()
}

// lines returns the values of a block field.
func (r *formReader) lines(label string, required bool) []string {
	fl, _ := r.lookup(label, required)
	if len(fl.Values) == 0 {
		return nil
	}
	return append([]string(nil), fl.Values...)
}

// date returns a date value, leaving the zero time when it is missing or
// malformed.
func (r *formReader) date(label string, required bool) time.Time {
	v := r.text(label, required)
	if v == "" {
		return time.Time{}
	}
	t, err := parseDate(v)
	if err != nil {
		r.errs = append(r.errs, &ParseError{Form: r.name, Field: label, Value: v, Err: err})
		return time.Time{}
	}
	return t
}

// extra returns the fields not read through the reader, in form order.
func (r *formReader) extra() []Field {
	var out []Field
	for _, fl := range r.form.fields {
		if !r.known[fl.Label] {
			out = append(out, fl)
		}
	}
	return out
}

func (r *formReader) comments() string {
	return strings.Join(r.form.comments, "\n")
}

// formWriter writes fields in the layout p4 accepts on stdin.
type formWriter struct {
	b strings.Builder
}

// comments writes text as the leading comment block. Lines without a
// leading "#" are marked so they parse back as comments.
func (w *formWriter) comments(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "#"):
		case strings.TrimSpace(line) == "":
			line = "#"
		default:
			line = "# " + line
		}
		w.b.WriteString(line)
		w.b.WriteString("\n")
	}
	w.b.WriteString("\n")
}

func (w *formWriter) text(label, value string) {
	w.b.WriteString(label)
	w.b.WriteString("\t")
	w.b.WriteString(value)
	w.b.WriteString("\n\n")
}

func (w *formWriter) optional(label, value string) {
	if value != "" {
		w.text(label, value)
	}
}

func (w *formWriter) block(label string, lines []string) {
	w.b.WriteString(label)
	w.b.WriteString("\n")
	for _, line := range lines {
		w.b.WriteString("\t")
		w.b.WriteString(line)
		w.b.WriteString("\n")
	}
	w.b.WriteString("\n")
}

func (w *formWriter) field(f Field) {
	if f.Block {
		w.block(f.Label, f.Values)
		return
	}
	w.text(f.Label, f.Value())
}

func (w *formWriter) String() string {
	return w.b.String()
}
