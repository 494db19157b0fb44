package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "P4KIT_"

// LookupFunc reads one environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// envSetting applies one environment variable to a Config.
type envSetting struct {
	key string
	set func(c *Config, value string) error
}

// envSettings maps P4KIT_* variables onto settings.
// Empty values are treated as valid values, not as unset.
var envSettings = []envSetting{
	{"P4_BINARY", func(c *Config, v string) error { c.P4.Binary = v; return nil }},
	{"P4_PORT", func(c *Config, v string) error { c.P4.Port = v; return nil }},
	{"P4_USER", func(c *Config, v string) error { c.P4.User = v; return nil }},
	{"P4_CLIENT", func(c *Config, v string) error { c.P4.Client = v; return nil }},
	{"P4_CHARSET", func(c *Config, v string) error { c.P4.Charset = v; return nil }},
	{"P4_DIR", func(c *Config, v string) error { c.P4.Dir = v; return nil }},
	{"P4_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		c.P4.Timeout = Duration(d)
		return nil
	}},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"PHRASES_FILE", func(c *Config, v string) error { c.Phrases.File = v; return nil }},
	{"PHRASES_WATCH", func(c *Config, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		c.Phrases.Watch = b
		return nil
	}},
}

// ApplyEnv overrides c with the P4KIT_* variables found through lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, s := range envSettings {
		name := EnvPrefix + s.key
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := s.set(c, v); err != nil {
			return fmt.Errorf("%s=%q: %w: %v", name, v, ErrInvalidValue, err)
		}
	}
	return nil
}

// parseBool accepts the spellings commonly used in shell environments.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}
