package perforce

import (
	"strconv"
	"strings"
	"time"
)

// ChangeStatus is the state of a changelist.
type ChangeStatus string

// Changelist states.
const (
	StatusNew       ChangeStatus = "new"
	StatusPending   ChangeStatus = "pending"
	StatusSubmitted ChangeStatus = "submitted"
)

// Form labels of "p4 change -o".
const (
	labelChange      = "Change:"
	labelDate        = "Date:"
	labelClient      = "Client:"
	labelUser        = "User:"
	labelStatus      = "Status:"
	labelDescription = "Description:"
	labelFiles       = "Files:"
)

// Changelist is a Perforce changelist.
type Changelist struct {
	// Number is 0 for a changelist the server has not numbered yet.
	Number int
	// Date is the zero time when unset.
	Date   time.Time
	Client string
	User   string
	Status ChangeStatus
	// Description is the description text, one line per form line.
	// Trailing newlines are not part of the form and are dropped.
	Description string
	// Files holds the raw lines of the Files block, if present.
	Files []string
	// Comments is the leading "#" comment block, if present.
	Comments string
	// Extra holds fields such as Type or Jobs, in form order.
	Extra []Field
}

// ParseChangelist parses the output of "p4 change -o".
//
// The returned changelist is always usable. A non-nil error is a
// ParseErrors listing fields that were missing or malformed; those fields
// are left at their zero values.
func ParseChangelist(text string) (Changelist, error) {
	r := newFormReader("change", text)
	cl := Changelist{Comments: r.comments()}

	if v := r.text(labelChange, true); v != "" && v != string(StatusNew) {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.errs = append(r.errs, &ParseError{Form: "change", Field: labelChange, Value: v, Err: err})
		} else {
			cl.Number = n
		}
	}
	cl.Date = r.date(labelDate, false)
	cl.Client = r.text(labelClient, true)
	cl.User = r.text(labelUser, true)
	cl.Status = ChangeStatus(r.text(labelStatus, true))
	cl.Description = strings.Join(r.lines(labelDescription, true), "\n")
	cl.Files = r.lines(labelFiles, false)
	cl.Extra = r.extra()

	return cl, r.errs.err()
}

// FormatChangelist writes cl in the form accepted by "p4 change -i".
func FormatChangelist(cl Changelist) string {
	var w formWriter
	w.comments(cl.Comments)

	if cl.Number > 0 {
		w.text(labelChange, strconv.Itoa(cl.Number))
	} else {
		w.text(labelChange, string(StatusNew))
	}
	if !cl.Date.IsZero() {
		w.text(labelDate, formatLongDate(cl.Date))
	}
	w.text(labelClient, cl.Client)
	w.text(labelUser, cl.User)

	status := cl.Status
	if status == "" {
		status = StatusNew
	}
	w.text(labelStatus, string(status))

	w.block(labelDescription, strings.Split(strings.TrimRight(cl.Description, "\n"), "\n"))
	for _, f := range cl.Extra {
		w.field(f)
	}
	if len(cl.Files) > 0 {
		w.block(labelFiles, cl.Files)
	}
	return w.String()
}

// ParseChangeSummary parses one line of "p4 changes" output:
//
//	Change 98692 on 2003/10/01 by alice@alice-ws 'Fix the widget '
//	Change 98693 on 2003/10/01 12:00:01 by bob@build *pending* 'WIP '
//
// The line is tokenized on its keywords and quotes rather than on column
// positions. The description runs from the first quote to the last one.
func ParseChangeSummary(line string) (Changelist, error) {
	var errs ParseErrors
	cl := Changelist{Status: StatusSubmitted}

	head := line
	if q := strings.IndexByte(line, '\''); q >= 0 {
		head = line[:q]
		desc := line[q+1:]
		if end := strings.LastIndexByte(desc, '\''); end >= 0 {
			desc = desc[:end]
		}
		cl.Description = desc
	}

	toks := strings.Fields(head)
	if len(toks) < 2 || toks[0] != "Change" {
		errs = append(errs, &ParseError{Form: "changes", Field: "line", Value: line, Err: ErrUnexpectedOutput})
		return cl, errs
	}

	n, err := strconv.Atoi(toks[1])
	if err != nil {
		errs = append(errs, &ParseError{Form: "changes", Field: "number", Value: toks[1], Err: err})
	} else {
		cl.Number = n
	}

	for i := 2; i < len(toks); i++ {
		switch toks[i] {
		case "on":
			if i+1 >= len(toks) {
				errs = append(errs, &ParseError{Form: "changes", Field: "date", Value: line, Err: errMissingField})
				continue
			}
			i++
			date := toks[i]
			if i+1 < len(toks) && timeOfDay.MatchString(toks[i+1]) {
				i++
				date += " " + toks[i]
			}
			t, err := parseDate(date)
			if err != nil {
				errs = append(errs, &ParseError{Form: "changes", Field: "date", Value: date, Err: err})
				continue
			}
			cl.Date = t
		case "by":
			if i+1 >= len(toks) {
				errs = append(errs, &ParseError{Form: "changes", Field: "user", Value: line, Err: errMissingField})
				continue
			}
			i++
			who := toks[i]
			if at := strings.IndexByte(who, '@'); at >= 0 {
				cl.User, cl.Client = who[:at], who[at+1:]
			} else {
				cl.User = who
			}
		case "*pending*":
			cl.Status = StatusPending
		case "*submitted*":
			cl.Status = StatusSubmitted
		default:
			errs = append(errs, &ParseError{Form: "changes", Field: "token", Value: toks[i], Err: ErrUnexpectedOutput})
		}
	}
	return cl, errs.err()
}
