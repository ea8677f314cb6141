package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the Memora CLI.
//
// Fields:
//   - BackendURL: base URL of the REST backend.
//   - DataDir: app-private directory holding the session database and the
//     device key.
//   - LogLevel: debug, info, warn or error.
//   - RequestTimeout: bound on each API request; zero disables it.
type Config struct {
	BackendURL     string
	DataDir        string
	LogLevel       string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://localhost:8000"
	c.DataDir = ".memora"
	c.LogLevel = "info"
	c.RequestTimeout = 0
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend url %q", c.BackendURL)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}

// Loader gathers configuration from its sources. The zero value reads no
// .env file and no environment.
type Loader struct {
	Args      []string
	EnvFile   string
	LookupEnv func(key string) (string, bool)
}

// Load applies defaults, then the .env file and environment, then the config
// file named by -c/-config, then flags. Later sources take precedence.
func (l Loader) Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseEnv(cfg, l.EnvFile, l.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFile(cfg, l.Args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, l.Args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads from ./.env, the process environment and args.
func LoadConfig(args []string) (*Config, error) {
	return Loader{Args: args, EnvFile: ".env", LookupEnv: os.LookupEnv}.Load()
}
