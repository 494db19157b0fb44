package perforce

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/dshills/p4kit/internal/integration/process"
)

//go:embed phrases.yaml
var defaultPhraseData []byte

// Template keys every phrase table must define.
const (
	TemplateFix           = "fix"
	TemplateChangeCreated = "change_created"
	TemplateChangeUpdated = "change_updated"
)

// Outcome is the classified result of a p4 operation.
type Outcome int

const (
	// OutcomeFailed means the operation did not do what was asked.
	OutcomeFailed Outcome = iota
	// OutcomeSucceeded means the operation completed.
	OutcomeSucceeded
	// OutcomeAlreadyDone means there was nothing to do, for example files
	// already integrated or already up-to-date.
	OutcomeAlreadyDone
	// OutcomeEmpty means the operation ran but selected no files.
	OutcomeEmpty
)

// String returns the name used in phrase tables.
func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeAlreadyDone:
		return "already-done"
	case OutcomeEmpty:
		return "empty"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// OK reports whether the outcome is anything other than a failure.
func (o Outcome) OK() bool {
	return o != OutcomeFailed
}

// ParseOutcome parses an outcome name.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "failed":
		return OutcomeFailed, nil
	case "succeeded":
		return OutcomeSucceeded, nil
	case "already-done":
		return OutcomeAlreadyDone, nil
	case "empty":
		return OutcomeEmpty, nil
	default:
		return OutcomeFailed, fmt.Errorf("unknown outcome %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Outcome) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseOutcome(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*o = v
	return nil
}

// Stream selects which captured output a rule looks at.
type Stream string

// Streams.
const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
	StreamAny    Stream = "any"
)

// MatchKind is how a rule's text is compared with the output.
type MatchKind string

// Match kinds.
const (
	MatchPrefix   MatchKind = "prefix"
	MatchSuffix   MatchKind = "suffix"
	MatchContains MatchKind = "contains"
	MatchEquals   MatchKind = "equals"
)

// Rule maps one known phrase to an outcome.
type Rule struct {
	Stream     Stream    `yaml:"stream"`
	Match      MatchKind `yaml:"match"`
	Text       string    `yaml:"text"`
	IgnoreCase bool      `yaml:"ignore_case"`
	Outcome    Outcome   `yaml:"outcome"`
}

func (r *Rule) validate() error {
	switch r.Stream {
	case StreamStdout, StreamStderr, StreamAny:
	default:
		return fmt.Errorf("unknown stream %q", r.Stream)
	}
	switch r.Match {
	case MatchPrefix, MatchSuffix, MatchContains, MatchEquals:
	default:
		return fmt.Errorf("unknown match %q", r.Match)
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("empty text")
	}
	return nil
}

// matches reports whether text satisfies the rule once vars are substituted.
func (r *Rule) matches(text string, vars map[string]string) bool {
	want := expandVars(r.Text, vars)
	if r.IgnoreCase {
		text = strings.ToLower(text)
		want = strings.ToLower(want)
	}
	switch r.Match {
	case MatchPrefix:
		return strings.HasPrefix(text, want)
	case MatchSuffix:
		return strings.HasSuffix(text, want)
	case MatchContains:
		return strings.Contains(text, want)
	case MatchEquals:
		return text == want
	}
	return false
}

func (r *Rule) streams(res *process.Result) []string {
	switch r.Stream {
	case StreamStdout:
		return []string{strings.TrimSpace(res.Stdout)}
	case StreamStderr:
		return []string{strings.TrimSpace(res.Stderr)}
	default:
		return []string{strings.TrimSpace(res.Stdout), strings.TrimSpace(res.Stderr)}
	}
}

// OperationRules are the rules for one operation.
type OperationRules struct {
	// RequireMatch disables the "empty stderr means success" default.
	RequireMatch bool   `yaml:"require_match"`
	Rules        []Rule `yaml:"rules"`
}

// PhraseTable is a versioned set of output phrases.
type PhraseTable struct {
	Version    int                       `yaml:"version"`
	Templates  map[string]string         `yaml:"templates"`
	Operations map[string]OperationRules `yaml:"operations"`

	compiled map[string]*Template
}

// ParsePhraseTable decodes and validates a YAML phrase table.
func ParsePhraseTable(data []byte) (*PhraseTable, error) {
	var t PhraseTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse phrase table: %w", err)
	}
	if t.Version < 1 {
		return nil, fmt.Errorf("phrase table: unsupported version %d", t.Version)
	}

	t.compiled = make(map[string]*Template, len(t.Templates))
	for name, src := range t.Templates {
		tmpl, err := CompileTemplate(src)
		if err != nil {
			return nil, fmt.Errorf("phrase table: template %s: %w", name, err)
		}
		t.compiled[name] = tmpl
	}
	for _, name := range []string{TemplateFix, TemplateChangeCreated, TemplateChangeUpdated} {
		if t.compiled[name] == nil {
			return nil, fmt.Errorf("phrase table: missing template %s", name)
		}
	}

	for op, rules := range t.Operations {
		for i := range rules.Rules {
			if err := rules.Rules[i].validate(); err != nil {
				return nil, fmt.Errorf("phrase table: %s rule %d: %w", op, i+1, err)
			}
		}
	}
	return &t, nil
}

// LoadPhraseFile reads and parses a phrase table file.
func LoadPhraseFile(path string) (*PhraseTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phrase table: %w", err)
	}
	return ParsePhraseTable(data)
}

var defaultPhrases = sync.OnceValues(func() (*PhraseTable, error) {
	return ParsePhraseTable(defaultPhraseData)
})

// DefaultPhrases returns the built-in phrase table.
func DefaultPhrases() *PhraseTable {
	t, err := defaultPhrases()
	if err != nil {
		panic(err)
	}
	return t
}

// Template returns the named sentence template, or nil.
func (t *PhraseTable) Template(name string) *Template {
	return t.compiled[name]
}

// Classification is the result of classifying one invocation.
type Classification struct {
	Outcome Outcome
	// Rule is the rule that matched, or nil.
	Rule *Rule
	// Message is the trimmed output the decision was based on.
	Message string
	// Ambiguous is set when the outcome is a failure that no rule named.
	Ambiguous bool
}

// Classify decides the outcome of op from its captured output.
//
// Rules for op are tried in order. Without a match, empty stderr means
// success unless the operation requires a match. Everything else is an
// ambiguous failure.
func (t *PhraseTable) Classify(op string, res *process.Result, vars map[string]string) Classification {
	rules := t.Operations[op]
	for i := range rules.Rules {
		r := &rules.Rules[i]
		for _, text := range r.streams(res) {
			if text != "" && r.matches(text, vars) {
				return Classification{Outcome: r.Outcome, Rule: r, Message: text}
			}
		}
	}

	stderr := strings.TrimSpace(res.Stderr)
	if stderr == "" && !rules.RequireMatch {
		return Classification{Outcome: OutcomeSucceeded}
	}

	msg := stderr
	if msg == "" {
		msg = strings.TrimSpace(res.Stdout)
	}
	return Classification{Outcome: OutcomeFailed, Message: msg, Ambiguous: true}
}

// PhraseStore holds the phrase table in use. It can be swapped while
// sessions are running.
type PhraseStore struct {
	table atomic.Pointer[PhraseTable]
}

// NewPhraseStore creates a store holding t, or the built-in table when t
// is nil.
func NewPhraseStore(t *PhraseTable) *PhraseStore {
	if t == nil {
		t = DefaultPhrases()
	}
	s := &PhraseStore{}
	s.table.Store(t)
	return s
}

// Load returns the current table.
func (s *PhraseStore) Load() *PhraseTable {
	return s.table.Load()
}

// Store replaces the current table.
func (s *PhraseStore) Store(t *PhraseTable) {
	if t != nil {
		s.table.Store(t)
	}
}

// Reload reads path and replaces the current table. On error the current
// table is kept.
func (s *PhraseStore) Reload(path string) error {
	t, err := LoadPhraseFile(path)
	if err != nil {
		return err
	}
	s.Store(t)
	return nil
}
