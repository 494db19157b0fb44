package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultTimeout bounds each p4 invocation unless configured otherwise.
const DefaultTimeout = 5 * time.Minute

// Config is the complete p4kit configuration.
type Config struct {
	P4      P4Config      `toml:"p4"`
	Log     LogConfig     `toml:"log"`
	Phrases PhrasesConfig `toml:"phrases"`
}

// P4Config describes how the p4 client is invoked.
type P4Config struct {
	// Binary is the p4 executable name or path.
	Binary string `toml:"binary"`
	// Port, User and Client become -p, -u and -c when set.
	Port   string `toml:"port"`
	User   string `toml:"user"`
	Client string `toml:"client"`
	// Charset is exported to the child as P4CHARSET when set.
	Charset string `toml:"charset"`
	// Dir is the working directory of every invocation.
	Dir string `toml:"dir"`
	// Timeout bounds each invocation; zero disables the limit.
	Timeout Duration `toml:"timeout"`
	// Env holds extra KEY=value entries for the child environment.
	Env []string `toml:"env"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// PhrasesConfig locates an optional phrase table override.
type PhrasesConfig struct {
	// File is a YAML phrase table; empty means the built-in table.
	File string `toml:"file"`
	// Watch reloads File when it changes.
	Watch bool `toml:"watch"`
}

// Duration is a time.Duration written as a string such as "90s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		P4: P4Config{
			Binary:  "p4",
			Timeout: Duration(DefaultTimeout),
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns the user configuration file path, or "" when the
// user configuration directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "p4kit", "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path
// and the process environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.MergeFile(path); err != nil && !errors.Is(err, ErrFileNotFound) {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// MergeFile decodes the TOML file at path over c. Keys absent from the
// file keep their current values.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return c.merge(path, data)
}

// Parse decodes TOML data over c.
func (c *Config) Parse(data []byte) error {
	return c.merge("<data>", data)
}

func (c *Config) merge(source string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return newParseError(source, err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.P4.Binary) == "" {
		errs = append(errs, &ValidationError{Key: "p4.binary", Message: "must not be empty"})
	}
	if c.P4.Timeout < 0 {
		errs = append(errs, &ValidationError{Key: "p4.timeout", Message: "must not be negative"})
	}
	for _, kv := range c.P4.Env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs = append(errs, &ValidationError{Key: "p4.env", Message: fmt.Sprintf("%q is not KEY=value", kv)})
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{Key: "log.level", Message: fmt.Sprintf("unknown level %q", c.Log.Level)})
	}
	if c.Phrases.Watch && c.Phrases.File == "" {
		errs = append(errs, &ValidationError{Key: "phrases.watch", Message: "requires phrases.file"})
	}
	return errors.Join(errs...)
}

// GlobalArgs returns the p4 options selecting server, user and client.
func (c *P4Config) GlobalArgs() []string {
	var args []string
	if c.Port != "" {
		args = append(args, "-p", c.Port)
	}
	if c.User != "" {
		args = append(args, "-u", c.User)
	}
	if c.Client != "" {
		args = append(args, "-c", c.Client)
	}
	return args
}

// Environ returns the entries added to the child environment.
func (c *P4Config) Environ() []string {
	env := append([]string(nil), c.Env...)
	if c.Charset != "" {
		env = append(env, "P4CHARSET="+c.Charset)
	}
	return env
}
