// Package app wires the p4kit components together: configuration,
// logging, the process supervisor and runner, the phrase table and the
// Perforce session.
package app

import (
	"io"
	"sync"
	"time"

	"github.com/dshills/p4kit/internal/config"
	"github.com/dshills/p4kit/internal/integration/perforce"
	"github.com/dshills/p4kit/internal/integration/process"
	"github.com/dshills/p4kit/internal/logging"
)

// DefaultShutdownTimeout is how long Shutdown waits for running p4
// processes to exit after SIGTERM.
const DefaultShutdownTimeout = 5 * time.Second

// Application owns the long-lived p4kit components.
type Application struct {
	cfg config.Config
	log *logging.Logger

	supervisor *process.Supervisor
	runner     *process.Runner
	phrases    *perforce.PhraseStore
	session    *perforce.Session
	watcher    *config.Watcher

	shutdownOnce sync.Once
	shutdownErr  error
}

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML file to load. Empty means config.DefaultPath.
	ConfigPath string

	// Config, when set, is used as is instead of loading ConfigPath and
	// the environment.
	Config *config.Config

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Override is applied to the loaded configuration before it is
	// validated, e.g. to apply command line flags.
	Override func(*config.Config)
}

// New loads the configuration and creates every component.
func New(opts Options) (*Application, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Output: opts.LogOutput,
		Prefix: "p4kit",
	})

	app := &Application{cfg: cfg, log: log}
	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

func loadConfig(opts Options) (config.Config, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Override != nil {
		opts.Override(&cfg)
	}
	return cfg, cfg.Validate()
}

// bootstrap initializes the components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Process supervision
	app.supervisor = process.NewSupervisor(
		process.WithProcessExitCallback(func(p *process.Process) {
			app.log.WithComponent("supervisor").Debug("[%s] exited with %d after %v", p.ID, p.ExitCode(), p.Runtime())
		}),
	)

	// 2. Runner
	app.runner = process.NewRunner(process.Config{
		Binary:     app.cfg.P4.Binary,
		GlobalArgs: app.cfg.P4.GlobalArgs(),
		Env:        app.cfg.P4.Environ(),
		Dir:        app.cfg.P4.Dir,
		Timeout:    app.cfg.P4.Timeout.Std(),
	},
		process.WithSupervisor(app.supervisor),
		process.WithLogger(app.log.WithComponent("runner")),
	)

	// 3. Phrase table
	app.phrases = perforce.NewPhraseStore(nil)
	if file := app.cfg.Phrases.File; file != "" {
		if err := app.phrases.Reload(file); err != nil {
			return &InitError{Component: "phrases", Err: err}
		}
		app.log.Info("loaded phrase table %s", file)

		if app.cfg.Phrases.Watch {
			if err := app.watchPhrases(file); err != nil {
				return &InitError{Component: "phrase watcher", Err: err}
			}
		}
	}

	// 4. Session
	app.session = perforce.NewSession(app.runner,
		perforce.WithLogger(app.log.WithComponent("perforce")),
		perforce.WithPhrases(app.phrases),
	)
	return nil
}

// watchPhrases reloads the phrase table whenever file changes. A table
// that fails to load leaves the previous one in place.
func (app *Application) watchPhrases(file string) error {
	log := app.log.WithComponent("phrases")
	w, err := config.NewWatcher(func(path string) {
		if err := app.phrases.Reload(path); err != nil {
			log.Error("keeping previous phrase table: %v", err)
			return
		}
		log.Info("reloaded phrase table %s", path)
	}, config.WithErrorHandler(func(err error) {
		log.Warn("watch error: %v", err)
	}))
	if err != nil {
		return err
	}
	if err := w.Watch(file); err != nil {
		w.Close()
		return err
	}
	app.watcher = w
	return nil
}

// Config returns the resolved configuration.
func (app *Application) Config() config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}

// Session returns the Perforce session.
func (app *Application) Session() *perforce.Session {
	return app.session
}

// Runner returns the process runner used by the session.
func (app *Application) Runner() *process.Runner {
	return app.runner
}

// Supervisor returns the process supervisor.
func (app *Application) Supervisor() *process.Supervisor {
	return app.supervisor
}

// Phrases returns the phrase store used for classification.
func (app *Application) Phrases() *perforce.PhraseStore {
	return app.phrases
}

// Shutdown stops the phrase watcher and terminates running p4
// processes. It is safe to call more than once.
func (app *Application) Shutdown() error {
	app.shutdownOnce.Do(func() {
		if app.watcher != nil {
			app.shutdownErr = app.watcher.Close()
		}
		if app.supervisor != nil {
			if n := app.supervisor.Count(); n > 0 {
				app.log.Info("terminating %d running p4 process(es)", n)
			}
			app.supervisor.Shutdown(DefaultShutdownTimeout)
		}
	})
	return app.shutdownErr
}
