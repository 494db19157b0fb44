package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"strconv"
	"strings"

	"github.com/dshills/p4kit/internal/app"
	"github.com/dshills/p4kit/internal/integration/perforce"
)

// errUsage reports wrong arguments to a command.
var errUsage = errors.New("usage")

// commandEnv is what a command runs against.
type commandEnv struct {
	session *perforce.Session
	out     *app.Renderer
	stderr  io.Writer
}

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, env *commandEnv, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"info", "", "Show server and client details", cmdInfo},
		{"changes", "[-m max] [-s status] [-u user] [-client ws] [path]", "List changelists", cmdChanges},
		{"latest", "[-client ws] path", "Show the newest change of a path", cmdLatest},
		{"change", "number", "Show a changelist", cmdChange},
		{"create-change", "-d description [file ...]", "Create a pending changelist", cmdCreateChange},
		{"submit", "number | -d description", "Submit a changelist", cmdSubmit},
		{"client", "[name]", "Show a client workspace", cmdClient},
		{"user", "[name]", "Show a user", cmdUser},
		{"opened", "", "List files open on the client", cmdOpened},
		{"edit", "[-c change] [-t type] file", "Open a file for edit", cmdEdit},
		{"revert", "[-a] [-n] [-c change] file", "Revert open files", cmdRevert},
		{"diff", "[-changed] file", "Compare a workspace file with the depot", cmdDiff},
		{"sync", "[-n] [path[@change]]", "Sync the workspace", cmdSync},
		{"integrate", "[-n] [-Dt] from to [fromChange [toChange]]", "Integrate between branches", cmdIntegrate},
		{"resolve", "[-mode theirs|yours|merge|safe]", "Resolve integrated files", cmdResolve},
		{"fixes", "[-j job] [-change n] [-m max] [-i] [path]", "List job fixes", cmdFixes},
		{"dirs", "pattern", "List depot subdirectories", cmdDirs},
		{"counter", "name [value] | -d name", "Show, set or delete a counter", cmdCounter},
		{"filelog", "[-i] file", "Show file history", cmdFilelog},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// newFlags creates a flag set that reports errors as errUsage.
func newFlags(env *commandEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func cmdInfo(ctx context.Context, env *commandEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	info, err := env.session.Info(ctx)
	if err != nil {
		return err
	}
	return env.out.Render(info)
}

func cmdChanges(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "changes")
	var q perforce.ChangesQuery
	var status string
	fs.IntVar(&q.Max, "m", 0, "maximum number of changes")
	fs.StringVar(&status, "s", "", "status: pending or submitted")
	fs.StringVar(&q.User, "u", "", "submitting user")
	fs.StringVar(&q.Client, "client", "", "changes synced to this client")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return errUsage
	}
	q.Path = fs.Arg(0)
	q.Status = perforce.ChangeStatus(status)

	changes, err := env.session.Changes(ctx, q)
	if err != nil {
		return err
	}
	return env.out.Render(changes)
}

func cmdLatest(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "latest")
	client := fs.String("client", "", "only changes synced to this client")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	var cl perforce.Changelist
	var err error
	if *client != "" {
		cl, err = env.session.LatestSyncedChange(ctx, fs.Arg(0), *client)
	} else {
		cl, err = env.session.LatestChange(ctx, fs.Arg(0))
	}
	if err != nil {
		return err
	}
	return env.out.Render([]perforce.Changelist{cl})
}

func cmdChange(ctx context.Context, env *commandEnv, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	cl, err := env.session.Change(ctx, n)
	if err != nil {
		return err
	}
	return env.out.Render(cl)
}

func cmdCreateChange(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "create-change")
	desc := fs.String("d", "", "description")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*desc) == "" {
		return errUsage
	}

	cl, err := env.session.CreateChangeFor(ctx, *desc, fs.Args())
	if err != nil {
		return err
	}
	return env.out.Render(cl.Number)
}

func cmdSubmit(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "submit")
	desc := fs.String("d", "", "submit the default changelist with this description")
	if err := parse(fs, args); err != nil {
		return err
	}

	var outcome perforce.Outcome
	var err error
	switch {
	case *desc != "" && fs.NArg() == 0:
		outcome, err = env.session.SubmitDefault(ctx, *desc)
	case *desc == "" && fs.NArg() == 1:
		n, convErr := strconv.Atoi(fs.Arg(0))
		if convErr != nil {
			return errUsage
		}
		outcome, err = env.session.Submit(ctx, n)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	return env.out.Render(outcome)
}

func cmdClient(ctx context.Context, env *commandEnv, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	c, err := env.session.ClientSpec(ctx, optionalArg(args))
	if err != nil {
		return err
	}
	return env.out.Render(c)
}

func cmdUser(ctx context.Context, env *commandEnv, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	u, err := env.session.User(ctx, optionalArg(args))
	if err != nil {
		return err
	}
	return env.out.Render(u)
}

func cmdOpened(ctx context.Context, env *commandEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	files, err := env.session.Opened(ctx)
	if err != nil {
		return err
	}
	return env.out.Render(files)
}

func cmdEdit(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "edit")
	var opts perforce.EditOptions
	var fileType string
	fs.StringVar(&opts.Change, "c", "", "changelist")
	fs.StringVar(&fileType, "t", "", "file type")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	opts.File = fs.Arg(0)
	opts.Type = perforce.FileType(fileType)

	files, err := env.session.Edit(ctx, opts)
	if err != nil {
		return err
	}
	return env.out.Render(files)
}

func cmdRevert(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "revert")
	var opts perforce.RevertOptions
	fs.BoolVar(&opts.UnchangedOnly, "a", false, "revert only unchanged files")
	fs.BoolVar(&opts.Preview, "n", false, "preview only")
	fs.StringVar(&opts.Change, "c", "", "changelist")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	opts.File = fs.Arg(0)

	files, err := env.session.Revert(ctx, opts)
	if err != nil {
		return err
	}
	return env.out.Render(files)
}

func cmdDiff(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "diff")
	changed := fs.Bool("changed", false, "only report whether the file differs")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	if *changed {
		differs, err := env.session.HasDifferences(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		return env.out.Render([]string{strconv.FormatBool(differs)})
	}
	out, err := env.session.Diff(ctx, perforce.DiffOptions{File: fs.Arg(0)})
	if err != nil {
		return err
	}
	return env.out.Render(splitLines(out))
}

func cmdSync(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "sync")
	preview := fs.Bool("n", false, "preview only")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return errUsage
	}
	path := fs.Arg(0)

	if *preview {
		if path == "" {
			path = "//..."
		}
		files, err := env.session.SyncPreview(ctx, path)
		if err != nil {
			return err
		}
		return env.out.Render(files)
	}

	var outcome perforce.Outcome
	var err error
	switch depot, change, hasChange := strings.Cut(path, "@"); {
	case path == "":
		outcome, err = env.session.SyncAll(ctx)
	case hasChange:
		outcome, err = env.session.SyncToChange(ctx, depot, change)
	default:
		outcome, err = env.session.SyncToLatest(ctx, path)
	}
	if err != nil {
		return err
	}
	return env.out.Render(outcome)
}

func cmdIntegrate(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "integrate")
	var opts perforce.IntegrateOptions
	fs.BoolVar(&opts.Preview, "n", false, "preview only")
	fs.BoolVar(&opts.AllowDeletedTarget, "Dt", false, "reopen files deleted in the target")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 2 || fs.NArg() > 4 {
		return errUsage
	}
	opts.From, opts.To = fs.Arg(0), fs.Arg(1)
	opts.FromChange, opts.ToChange = fs.Arg(2), fs.Arg(3)

	outcome, err := env.session.Integrate(ctx, opts)
	if err != nil {
		return err
	}
	return env.out.Render(outcome)
}

var resolveModes = map[string]perforce.ResolveMode{
	"theirs": perforce.ResolveTheirs,
	"yours":  perforce.ResolveYours,
	"merge":  perforce.ResolveMerge,
	"safe":   perforce.ResolveSafe,
}

func cmdResolve(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "resolve")
	name := fs.String("mode", "safe", "theirs, yours, merge or safe")
	if err := parse(fs, args); err != nil {
		return err
	}
	mode, ok := resolveModes[*name]
	if !ok || fs.NArg() != 0 {
		return errUsage
	}

	res, err := env.session.Resolve(ctx, mode)
	if err != nil {
		return err
	}
	return env.out.Render(res)
}

func cmdFixes(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "fixes")
	var q perforce.FixesQuery
	fs.StringVar(&q.Job, "j", "", "job")
	fs.IntVar(&q.Change, "change", 0, "changelist")
	fs.IntVar(&q.Max, "m", 0, "maximum number of fixes")
	fs.BoolVar(&q.Integrated, "i", false, "include integrated changes")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return errUsage
	}
	q.Path = fs.Arg(0)

	fixes, err := env.session.Fixes(ctx, q)
	if err != nil {
		return err
	}
	return env.out.Render(fixes)
}

func cmdDirs(ctx context.Context, env *commandEnv, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	dir, err := env.session.Dirs(ctx, args[0])
	if err != nil {
		return err
	}
	return env.out.Render(dir)
}

func cmdCounter(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "counter")
	del := fs.Bool("d", false, "delete the counter")
	if err := parse(fs, args); err != nil {
		return err
	}

	switch {
	case *del && fs.NArg() == 1:
		if err := env.session.DeleteCounter(ctx, fs.Arg(0)); err != nil {
			return err
		}
		return env.out.Render(perforce.OutcomeSucceeded)
	case !*del && fs.NArg() == 2:
		v, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return errUsage
		}
		if err := env.session.SetCounter(ctx, fs.Arg(0), v); err != nil {
			return err
		}
		return env.out.Render(perforce.Counter{Name: fs.Arg(0), Value: v})
	case !*del && fs.NArg() == 1:
		c, err := env.session.Counter(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		return env.out.Render(c)
	}
	return errUsage
}

func cmdFilelog(ctx context.Context, env *commandEnv, args []string) error {
	fs := newFlags(env, "filelog")
	follow := fs.Bool("i", false, "follow branches")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	lines, err := env.session.Filelog(ctx, fs.Arg(0), *follow)
	if err != nil {
		return err
	}
	return env.out.Render(lines)
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
