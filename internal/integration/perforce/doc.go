// Package perforce wraps the p4 command-line client.
//
// A Session turns typed parameters into p4 argument vectors, runs them
// through a Runner and converts the output into records:
//
//	sess := perforce.NewSession(runner, perforce.WithLogger(log))
//	cl, err := sess.Change(ctx, 98692)
//	n, err := sess.CreateChange(ctx, perforce.Changelist{Description: "fix"})
//	outcome, err := sess.Integrate(ctx, perforce.IntegrateOptions{From: src, To: dst})
//
// # Forms
//
// Perforce spec forms (change -o, client -o, user -o) are parsed by a
// shared grammar: leading "#" comment lines, "Label:<TAB>value" fields,
// and "Label:" blocks whose values are the following tab-indented lines.
// Parsing never aborts. Missing required fields are reported in a
// ParseErrors value next to a best-effort record, and Session logs them.
// FormatChangelist and FormatClientSpec write the same layout back for
// "p4 change -i" and "p4 client -i".
//
// # Outcomes
//
// p4 reports most results as English text, not exit codes. Session
// classifies that text with a PhraseTable: a versioned set of rules per
// operation, loaded from YAML. The built-in table is embedded and can be
// replaced at runtime through a PhraseStore. Text that matches no rule is
// treated as a failure and reported as an ambiguous CommandError.
package perforce
