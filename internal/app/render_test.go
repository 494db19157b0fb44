package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/p4kit/internal/integration/perforce"
)

func renderJSON(t *testing.T, v any) gjson.Result {
	t.Helper()
	var buf bytes.Buffer
	if err := NewRenderer(&buf, FormatJSON).Render(v); err != nil {
		t.Fatalf("Render(%T): %v", v, err)
	}
	if !gjson.Valid(buf.String()) {
		t.Fatalf("invalid JSON: %s", buf.String())
	}
	return gjson.Parse(buf.String())
}

func renderText(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewRenderer(&buf, FormatText).Render(v); err != nil {
		t.Fatalf("Render(%T): %v", v, err)
	}
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", " json "} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) = %v", s, err)
		}
	}
	if _, err := ParseFormat("yaml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(yaml) = %v", err)
	}
}

func TestRender_ChangelistJSON(t *testing.T) {
	cl := perforce.Changelist{
		Number:      98692,
		Date:        time.Date(2003, 10, 1, 1, 6, 59, 0, time.UTC),
		Client:      "ws",
		User:        "alice",
		Status:      perforce.StatusSubmitted,
		Description: "Fix the widget.\nMore.",
		Files:       []string{"//depot/a.c\t# edit"},
		Extra:       []perforce.Field{{Label: "Jobs:", Block: true, Values: []string{"pdbug1234"}}, {Label: "Type:", Values: []string{"public"}}},
	}

	r := renderJSON(t, cl)
	if r.Get("number").Int() != 98692 || r.Get("user").String() != "alice" {
		t.Errorf("got %s", r.Raw)
	}
	if r.Get("date").String() != "2003-10-01T01:06:59Z" {
		t.Errorf("date = %s", r.Get("date").Raw)
	}
	if r.Get("description").String() != "Fix the widget.\nMore." {
		t.Errorf("description = %s", r.Get("description").Raw)
	}
	if r.Get("files.#").Int() != 1 || r.Get("extra.Jobs.0").String() != "pdbug1234" || r.Get("extra.Type").String() != "public" {
		t.Errorf("got %s", r.Raw)
	}

	r = renderJSON(t, perforce.Changelist{Description: "new"})
	if r.Get("date").Type != gjson.Null || r.Get("files").Exists() {
		t.Errorf("got %s", r.Raw)
	}
}

func TestRender_ListsJSON(t *testing.T) {
	r := renderJSON(t, []perforce.Changelist{{Number: 2}, {Number: 1}})
	if !r.IsArray() || r.Get("#").Int() != 2 || r.Get("1.number").Int() != 1 {
		t.Errorf("changes = %s", r.Raw)
	}

	r = renderJSON(t, []perforce.File(nil))
	if !r.IsArray() || r.Get("#").Int() != 0 {
		t.Errorf("empty files = %s", r.Raw)
	}

	r = renderJSON(t, []perforce.File{{DepotPath: "//depot/a.c", Revision: 3, Action: perforce.ActionEdit, Change: "default", Type: "text"}})
	if r.Get("0.depotPath").String() != "//depot/a.c" || r.Get("0.revision").Int() != 3 || r.Get("0.action").String() != "edit" {
		t.Errorf("files = %s", r.Raw)
	}

	r = renderJSON(t, []perforce.Fix{{Job: "pdbug1", Change: "7", Status: "closed"}})
	if r.Get("0.job").String() != "pdbug1" || r.Get("0.status").String() != "closed" {
		t.Errorf("fixes = %s", r.Raw)
	}

	r = renderJSON(t, []string(nil))
	if !r.Get("lines").IsArray() || r.Get("lines.#").Int() != 0 {
		t.Errorf("lines = %s", r.Raw)
	}
}

func TestRender_RecordsJSON(t *testing.T) {
	var c perforce.ClientSpec
	c.Name = "ws"
	c.Root = "/ws"
	if err := c.AddView("//depot/... //ws/..."); err != nil {
		t.Fatal(err)
	}
	c.Extra = []perforce.Field{{Label: "Stream:", Values: []string{"//streams/main"}}}

	r := renderJSON(t, c)
	if r.Get("view.0").String() != "//depot/... //ws/..." || r.Get("extra.Stream").String() != "//streams/main" {
		t.Errorf("client = %s", r.Raw)
	}
	if !r.Get("options").IsArray() || r.Get("update").Type != gjson.Null {
		t.Errorf("client = %s", r.Raw)
	}

	r = renderJSON(t, perforce.Counter{Name: "change", Value: 42})
	if r.Get("value").Int() != 42 {
		t.Errorf("counter = %s", r.Raw)
	}

	r = renderJSON(t, perforce.OutcomeAlreadyDone)
	if r.Get("outcome").String() != "already-done" || !r.Get("ok").Bool() {
		t.Errorf("outcome = %s", r.Raw)
	}

	r = renderJSON(t, perforce.ServerInfo{UserName: "alice", ServerAddress: "perforce:1666"})
	if r.Get("userName").String() != "alice" || r.Get("serverAddress").String() != "perforce:1666" {
		t.Errorf("info = %s", r.Raw)
	}

	r = renderJSON(t, 175204)
	if r.Get("change").Int() != 175204 {
		t.Errorf("change = %s", r.Raw)
	}
}

func TestRender_Text(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{
			name: "changes",
			v: []perforce.Changelist{{
				Number: 7, Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.Local),
				User: "bob", Client: "ws", Status: perforce.StatusPending, Description: "WIP\nmore",
			}},
			want: "Change 7 on 2020/01/02 by bob@ws *pending* 'WIP'\n",
		},
		{
			name: "files",
			v:    []perforce.File{{DepotPath: "//depot/a.c", Revision: 3, Action: perforce.ActionEdit, Change: "12", Type: "text"}},
			want: "//depot/a.c#3 - edit change 12 (text)\n",
		},
		{
			name: "fixes",
			v:    []perforce.Fix{{Job: "pdbug1", Change: "7", Date: "2020/01/02", Author: "bob@ws", Status: "closed"}},
			want: "pdbug1 fixed by change 7 on 2020/01/02 by bob@ws (closed)\n",
		},
		{
			name: "counter",
			v:    perforce.Counter{Name: "change", Value: 42},
			want: "42\n",
		},
		{
			name: "outcome",
			v:    perforce.OutcomeSucceeded,
			want: "succeeded\n",
		},
		{
			name: "dirs",
			v:    perforce.Directory{Path: "//depot", Subdirectories: []string{"//depot/main", "//depot/rel"}},
			want: "//depot/main\n//depot/rel\n",
		},
		{
			name: "change number",
			v:    175204,
			want: "Change 175204\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderText(t, tt.v); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := renderText(t, perforce.Changelist{Client: "ws", User: "u", Description: "d"}); !strings.HasPrefix(got, "Change:\tnew\n") {
		t.Errorf("changelist text = %q", got)
	}
}

func TestRender_Unsupported(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON} {
		err := NewRenderer(&bytes.Buffer{}, f).Render(struct{}{})
		if !errors.Is(err, ErrUnsupportedRecord) {
			t.Errorf("%s: err = %v", f, err)
		}
	}
}
