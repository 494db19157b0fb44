package perforce

import (
	"fmt"
	"strings"
)

// Template is a sentence with named {placeholders}, such as
// "{job} fixed by change {change} on {date} by {author}".
//
// Matching walks the literal segments left to right. Each placeholder
// takes the text up to the next occurrence of the literal that follows it
// and must not be empty. A trailing placeholder takes the rest of the
// line; a trailing literal allows extra text after it.
type Template struct {
	raw  string
	segs []segment
}

type segment struct {
	literal string
	name    string
}

// CompileTemplate parses a template string.
func CompileTemplate(s string) (*Template, error) {
	if s == "" {
		return nil, fmt.Errorf("empty template")
	}

	t := &Template{raw: s}
	rest := s
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, fmt.Errorf("template %q: unmatched '}'", s)
			}
			t.segs = append(t.segs, segment{literal: rest})
			break
		}
		if open > 0 {
			lit := rest[:open]
			if strings.IndexByte(lit, '}') >= 0 {
				return nil, fmt.Errorf("template %q: unmatched '}'", s)
			}
			t.segs = append(t.segs, segment{literal: lit})
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("template %q: unterminated placeholder", s)
		}
		name := rest[open+1 : open+end]
		if name == "" || strings.ContainsAny(name, "{ ") {
			return nil, fmt.Errorf("template %q: bad placeholder name %q", s, name)
		}
		if n := len(t.segs); n > 0 && t.segs[n-1].name != "" {
			return nil, fmt.Errorf("template %q: adjacent placeholders", s)
		}
		t.segs = append(t.segs, segment{name: name})
		rest = rest[open+end+1:]
	}
	return t, nil
}

// String returns the template source.
func (t *Template) String() string {
	return t.raw
}

// Names returns the placeholder names in order.
func (t *Template) Names() []string {
	var names []string
	for _, seg := range t.segs {
		if seg.name != "" {
			names = append(names, seg.name)
		}
	}
	return names
}

// Match extracts the placeholder values from s.
func (t *Template) Match(s string) (map[string]string, bool) {
	vars := make(map[string]string, len(t.segs))
	pos := 0
	for i := 0; i < len(t.segs); i++ {
		seg := t.segs[i]
		if seg.name == "" {
			if !strings.HasPrefix(s[pos:], seg.literal) {
				return nil, false
			}
			pos += len(seg.literal)
			continue
		}

		if i+1 == len(t.segs) {
			if pos == len(s) {
				return nil, false
			}
			vars[seg.name] = s[pos:]
			pos = len(s)
			break
		}

		lit := t.segs[i+1].literal
		idx := strings.Index(s[pos:], lit)
		if idx <= 0 {
			return nil, false
		}
		vars[seg.name] = s[pos : pos+idx]
		pos += idx + len(lit)
		i++
	}
	return vars, true
}

// Expand substitutes vars into the template. Placeholders without a value
// are left as written.
func (t *Template) Expand(vars map[string]string) string {
	var b strings.Builder
	for _, seg := range t.segs {
		if seg.name == "" {
			b.WriteString(seg.literal)
			continue
		}
		if v, ok := vars[seg.name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString("{" + seg.name + "}")
		}
	}
	return b.String()
}

// expandVars replaces {name} references in s with values from vars.
func expandVars(s string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(s, "{") {
		return s
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
