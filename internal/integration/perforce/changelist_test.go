package perforce

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

const changeForm = `# A Perforce Change Specification.
#
#  Change:      The change number. 'new' on a new changelist.

Change:	98692

Date:	2003/10/01 01:06:59

Client:	sstafford

User:	sstafford

Status:	submitted

Description:
	Fix the widget.
	
	Second paragraph.

Jobs:
	pdbug1234

Files:
	//depot/main/widget.c	# edit
`

func TestParseChangelist(t *testing.T) {
	cl, err := ParseChangelist(changeForm)
	if err != nil {
		t.Fatalf("unexpected parse errors: %v", err)
	}

	if cl.Number != 98692 {
		t.Errorf("Number = %d, want 98692", cl.Number)
	}
	if want := time.Date(2003, 10, 1, 1, 6, 59, 0, time.Local); !cl.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", cl.Date, want)
	}
	if cl.Client != "sstafford" || cl.User != "sstafford" {
		t.Errorf("Client/User = %q/%q", cl.Client, cl.User)
	}
	if cl.Status != StatusSubmitted {
		t.Errorf("Status = %q", cl.Status)
	}
	if cl.Description != "Fix the widget.\n\nSecond paragraph." {
		t.Errorf("Description = %q", cl.Description)
	}
	if want := []string{"//depot/main/widget.c\t# edit"}; !reflect.DeepEqual(cl.Files, want) {
		t.Errorf("Files = %q", cl.Files)
	}
	if !strings.HasPrefix(cl.Comments, "# A Perforce Change Specification.") {
		t.Errorf("Comments = %q", cl.Comments)
	}
	if len(cl.Extra) != 1 || cl.Extra[0].Label != "Jobs:" {
		t.Errorf("Extra = %+v", cl.Extra)
	}
}

func TestParseChangelist_NumberDefaults(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"new", false},
		{"abc", true},
	}

	for _, tt := range tests {
		text := "Change:\t" + tt.value + "\n\nClient:\tws\n\nUser:\tu\n\nStatus:\tnew\n\nDescription:\n\t<enter description here>\n"
		cl, err := ParseChangelist(text)
		if cl.Number != 0 {
			t.Errorf("Change %q: Number = %d, want 0", tt.value, cl.Number)
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("Change %q: err = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if cl.Client != "ws" || cl.Description != "<enter description here>" {
			t.Errorf("Change %q: rest of the record not parsed: %+v", tt.value, cl)
		}
	}
}

func TestParseChangelist_BadDate(t *testing.T) {
	text := "Change:\t5\n\nDate:\t2003/13/45 99:00:00\n\nClient:\tws\n\nUser:\tu\n\nStatus:\tpending\n\nDescription:\n\tx\n"
	cl, err := ParseChangelist(text)

	if !cl.Date.IsZero() {
		t.Errorf("expected zero date, got %v", cl.Date)
	}
	var pes ParseErrors
	if !errors.As(err, &pes) || len(pes) != 1 || pes[0].Field != labelDate {
		t.Errorf("expected one Date parse error, got %v", err)
	}
	if cl.Number != 5 || cl.Status != StatusPending || cl.Description != "x" {
		t.Errorf("rest of the record not parsed: %+v", cl)
	}
}

func TestParseChangelist_MissingFields(t *testing.T) {
	cl, err := ParseChangelist("Change:\t7\n")
	if cl.Number != 7 {
		t.Errorf("Number = %d", cl.Number)
	}

	var pes ParseErrors
	if !errors.As(err, &pes) {
		t.Fatalf("expected ParseErrors, got %v", err)
	}
	var fields []string
	for _, pe := range pes {
		if !errors.Is(pe, errMissingField) {
			t.Errorf("unexpected error %v", pe)
		}
		fields = append(fields, pe.Field)
	}
	if want := []string{labelClient, labelUser, labelStatus, labelDescription}; !reflect.DeepEqual(fields, want) {
		t.Errorf("missing fields = %v, want %v", fields, want)
	}
}

func TestChangelist_RoundTrip(t *testing.T) {
	original := Changelist{
		Number:      175204,
		Date:        time.Date(2020, 1, 2, 15, 4, 5, 0, time.Local),
		Client:      "build-ws",
		User:        "build",
		Status:      StatusPending,
		Description: "Merge main into release.\n\n\tindented detail",
		Files:       []string{"//depot/rel/a.c\t# integrate", "//depot/rel/b.c\t# edit"},
		Comments:    "# A Perforce Change Specification.\n#",
		Extra:       []Field{{Label: "Type:", Values: []string{"public"}}},
	}

	text := FormatChangelist(original)
	parsed, err := ParseChangelist(text)
	if err != nil {
		t.Fatalf("parse errors: %v\n%s", err, text)
	}
	if !parsed.Date.Equal(original.Date) {
		t.Errorf("Date = %v, want %v", parsed.Date, original.Date)
	}
	parsed.Date = original.Date
	if !reflect.DeepEqual(parsed, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, original)
	}
	if again := FormatChangelist(parsed); again != text {
		t.Errorf("second format differs:\n%s\n---\n%s", again, text)
	}
}

func TestFormatChangelist_New(t *testing.T) {
	text := FormatChangelist(Changelist{Client: "ws", User: "alice", Description: "Add tests"})
	want := "Change:\tnew\n\nClient:\tws\n\nUser:\talice\n\nStatus:\tnew\n\nDescription:\n\tAdd tests\n\n"
	if text != want {
		t.Errorf("FormatChangelist = %q, want %q", text, want)
	}
}

func TestFormatChangelist_PlainComments(t *testing.T) {
	text := FormatChangelist(Changelist{
		Client:      "ws",
		User:        "alice",
		Description: "Add tests\n",
		Comments:    "plain comment",
	})

	parsed, err := ParseChangelist(text)
	if err != nil {
		t.Fatalf("parse errors: %v\n%s", err, text)
	}
	if parsed.Comments != "# plain comment" {
		t.Errorf("Comments = %q, want %q", parsed.Comments, "# plain comment")
	}
	if parsed.Description != "Add tests" {
		t.Errorf("Description = %q, want %q", parsed.Description, "Add tests")
	}
}

func TestParseChangeSummary(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Changelist
	}{
		{
			name: "submitted",
			line: "Change 98692 on 2003/10/01 by sstafford@sstafford_sl 'Fix the widget '",
			want: Changelist{Number: 98692, Date: time.Date(2003, 10, 1, 0, 0, 0, 0, time.Local),
				User: "sstafford", Client: "sstafford_sl", Status: StatusSubmitted, Description: "Fix the widget "},
		},
		{
			name: "pending with time",
			line: "Change 7 on 2020/01/02 03:04:05 by bob@build *pending* 'WIP '",
			want: Changelist{Number: 7, Date: time.Date(2020, 1, 2, 3, 4, 5, 0, time.Local),
				User: "bob", Client: "build", Status: StatusPending, Description: "WIP "},
		},
		{
			name: "wide number and quote in description",
			line: "Change 12345678 on 2021/06/30 by carol@ws-1 'Don't break it '",
			want: Changelist{Number: 12345678, Date: time.Date(2021, 6, 30, 0, 0, 0, 0, time.Local),
				User: "carol", Client: "ws-1", Status: StatusSubmitted, Description: "Don't break it "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChangeSummary(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Date.Equal(tt.want.Date) {
				t.Errorf("Date = %v, want %v", got.Date, tt.want.Date)
			}
			got.Date = tt.want.Date
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestParseChangeSummary_Malformed(t *testing.T) {
	tests := []struct {
		line   string
		number int
	}{
		{"", 0},
		{"garbage", 0},
		{"Change", 0},
		{"Change x on 2003/10/01 by a@b 'd'", 0},
		{"Change 5 on", 5},
		{"Change 5 on 2003/10/01 by", 5},
		{"Change 5 on not-a-date by a@b 'd'", 5},
	}

	for _, tt := range tests {
		got, err := ParseChangeSummary(tt.line)
		if err == nil {
			t.Errorf("ParseChangeSummary(%q): expected an error", tt.line)
		}
		if got.Number != tt.number {
			t.Errorf("ParseChangeSummary(%q): Number = %d, want %d", tt.line, got.Number, tt.number)
		}
	}
}
