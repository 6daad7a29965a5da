// Package config binds the ninepd CLI flags and environment into a single
// validated struct, the way the teacher keeps flag-parsing concerns out of
// main and cmd packages thin.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// Backend names the storage implementation a server instance exposes.
type Backend string

const (
	BackendMem  Backend = "mem"
	BackendDisk Backend = "disk"
	BackendLLM  Backend = "llm"
)

// Config holds everything the serve command needs to start a listener.
type Config struct {
	Addr     string
	Backend  Backend
	Dir      string
	LogLevel string

	// AnthropicAPIKey is read from ANTHROPIC_API_KEY, required only when
	// Backend == BackendLLM.
	AnthropicAPIKey string
}

// BindFlags registers the serve command's flags on fs and returns a Config
// whose fields are populated once fs.Parse has run.
func BindFlags(fs *pflag.FlagSet) *Config {
	cfg := &Config{}
	fs.StringVar(&cfg.Addr, "addr", ":5640", "address to listen on")
	fs.StringVar((*string)(&cfg.Backend), "backend", string(BackendMem), "backend to expose: mem, disk, or llm")
	fs.StringVar(&cfg.Dir, "dir", "", "root directory for the disk backend")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cfg
}

// Validate checks flag/env consistency after parsing. It reads
// ANTHROPIC_API_KEY itself so callers don't need to touch os.Getenv.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMem:
	case BackendDisk:
		if c.Dir == "" {
			return fmt.Errorf("config: --dir is required for the disk backend")
		}
	case BackendLLM:
		c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("config: ANTHROPIC_API_KEY must be set for the llm backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q (want mem, disk, or llm)", c.Backend)
	}
	return nil
}
