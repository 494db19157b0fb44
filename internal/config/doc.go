// Package config loads p4kit settings.
//
// Settings are resolved in layers, higher layers overriding lower ones:
//
//	┌─────────────────────────────┐
//	│  4. Command line flags      │  ← applied by the caller
//	├─────────────────────────────┤
//	│  3. Environment (P4KIT_*)   │
//	├─────────────────────────────┤
//	│  2. TOML file               │  ← ~/.config/p4kit/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │
//	└─────────────────────────────┘
//
// # Configuration Files
//
//	[p4]
//	binary = "/usr/local/bin/p4"
//	port = "perforce:1666"
//	user = "build"
//	client = "build-ws"
//	charset = "utf8"
//	timeout = "2m"
//	env = ["P4TICKETS=/var/lib/build/.p4tickets"]
//
//	[log]
//	level = "info"
//
//	[phrases]
//	file = "/etc/p4kit/phrases.yaml"
//	watch = true
//
// Unknown keys are rejected so that typos surface as errors.
//
// # Live Reload
//
// Watcher reports changes to a file, such as the phrase table, through
// fsnotify. Rapid writes are coalesced into one callback.
package config
