package perforce

import "context"

// IntegrateOptions are the parameters of "p4 integrate".
type IntegrateOptions struct {
	// From is the source path, optionally with a revision. Required.
	From string
	// To is the target path. Required.
	To string
	// FromChange and ToChange limit the source to a changelist range.
	// A FromChange alone limits the source to that changelist or earlier.
	FromChange, ToChange string
	// AllowDeletedTarget lets the integration reopen files deleted in
	// the target (-Dt).
	AllowDeletedTarget bool
	// Preview reports what would be integrated without opening files (-n).
	Preview bool
}

func (o IntegrateOptions) args() []string {
	args := []string{"integrate"}
	if o.Preview {
		args = append(args, "-n")
	}
	if o.AllowDeletedTarget {
		args = append(args, "-Dt")
	}

	src := o.From
	switch {
	case o.FromChange != "" && o.ToChange != "":
		src += "@" + o.FromChange + ",@" + o.ToChange
	case o.FromChange != "":
		src += "@" + o.FromChange
	}
	return append(args, src, o.To)
}

// Integrate opens files in To for integration from From.
//
// The outcome is OutcomeSucceeded when p4 reported nothing on stderr and
// OutcomeAlreadyDone when every revision was already integrated. Any
// other stderr text is a failure.
func (s *Session) Integrate(ctx context.Context, opts IntegrateOptions) (Outcome, error) {
	if err := required("integrate source", opts.From); err != nil {
		return OutcomeFailed, err
	}
	if err := required("integrate target", opts.To); err != nil {
		return OutcomeFailed, err
	}
	_, outcome, err := s.exec(ctx, "integrate", nil, opts.args()...)
	return outcome, err
}

// IntegrateRange integrates the changes fromChange through toChange of
// from into to, allowing deleted targets to be reopened.
func (s *Session) IntegrateRange(ctx context.Context, from, to, fromChange, toChange string, preview bool) (Outcome, error) {
	return s.Integrate(ctx, IntegrateOptions{
		From:               from,
		To:                 to,
		FromChange:         fromChange,
		ToChange:           toChange,
		AllowDeletedTarget: true,
		Preview:            preview,
	})
}

// Branch integrates from into a new branch at to, taking from as of
// change, or its head revision when change is empty.
func (s *Session) Branch(ctx context.Context, from, to, change string) (Outcome, error) {
	return s.Integrate(ctx, IntegrateOptions{From: from, To: to, FromChange: change})
}
