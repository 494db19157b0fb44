package perforce

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseUser(t *testing.T) {
	text := `# A Perforce User Specification.

User:	sstafford

Email:	sstafford@example.com

Update:	2003/09/30 17:20:01

Access:	2003/10/01 01:06:59

FullName:	Shawn Stafford

Password:	******

Reviews:
	//depot/main/...
	//depot/rel/...
`
	u, err := ParseUser(text)
	if err != nil {
		t.Fatalf("unexpected parse errors: %v", err)
	}
	if u.Name != "sstafford" || u.Email != "sstafford@example.com" || u.FullName != "Shawn Stafford" {
		t.Errorf("got %+v", u)
	}
	if u.Password != "******" || u.JobView != "" {
		t.Errorf("Password/JobView = %q/%q", u.Password, u.JobView)
	}
	if u.Access.IsZero() || u.Update.IsZero() {
		t.Error("dates not parsed")
	}
	if want := []string{"//depot/main/...", "//depot/rel/..."}; !reflect.DeepEqual(u.Reviews, want) {
		t.Errorf("Reviews = %q", u.Reviews)
	}
}

func TestParseUser_Missing(t *testing.T) {
	u, err := ParseUser("User:\talice\n")
	if u.Name != "alice" {
		t.Errorf("Name = %q", u.Name)
	}
	var pes ParseErrors
	if !errors.As(err, &pes) || len(pes) != 2 {
		t.Fatalf("expected Email and FullName errors, got %v", err)
	}
}
