package perforce

import (
	"errors"
	"testing"
)

func TestParseFileLine(t *testing.T) {
	tests := []struct {
		line string
		want File
	}{
		{
			line: "//depot/main/a.c#3 - edit default change (text)",
			want: File{DepotPath: "//depot/main/a.c", Revision: 3, Action: ActionEdit, Change: "default", Type: "text"},
		},
		{
			line: "//depot/main/a.c#3 - edit change 1234 (text+k)",
			want: File{DepotPath: "//depot/main/a.c", Revision: 3, Action: ActionEdit, Change: "1234", Type: "text+k"},
		},
		{
			line: "//depot/main/a.c#3 - opened for edit",
			want: File{DepotPath: "//depot/main/a.c", Revision: 3, Action: ActionEdit},
		},
		{
			line: "//depot/main/a.c#3 - currently opened for edit",
			want: File{DepotPath: "//depot/main/a.c", Revision: 3, Action: ActionEdit},
		},
		{
			line: "//depot/main/a.c#4 - updating /ws/main/a.c",
			want: File{DepotPath: "//depot/main/a.c", Revision: 4, Action: ActionUpdate},
		},
		{
			line: "//depot/main/b.c#1 - added as /ws/main/b.c",
			want: File{DepotPath: "//depot/main/b.c", Revision: 1, Action: ActionAdd},
		},
		{
			line: "//depot/main/c.c#none - was add, abandoned",
			want: File{DepotPath: "//depot/main/c.c", Action: ActionReverted},
		},
		{
			line: "//depot/rel/a.c#1 - branch/sync from //depot/main/a.c#1,#3",
			want: File{DepotPath: "//depot/rel/a.c", Revision: 1, Action: "branch/sync"},
		},
		{
			line: "  //depot/main/a.c#2  ",
			want: File{DepotPath: "//depot/main/a.c", Revision: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseFileLine(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFileLine_Errors(t *testing.T) {
	for _, line := range []string{"", "no revision here", "//depot/a.c# - edit", "//depot/a.c#x - edit"} {
		_, err := ParseFileLine(line)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("ParseFileLine(%q) = %v, want *ParseError", line, err)
		}
	}
}

func TestFile_String(t *testing.T) {
	if got := (File{DepotPath: "//depot/a.c", Revision: 7}).String(); got != "//depot/a.c#7" {
		t.Errorf("String = %q", got)
	}
	if got := (File{DepotPath: "//depot/a.c"}).String(); got != "//depot/a.c" {
		t.Errorf("String = %q", got)
	}
}
