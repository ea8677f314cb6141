package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvBackendURL     = "BACKEND_URL"
	EnvDataDir        = "MEMORA_DATA_DIR"
	EnvLogLevel       = "MEMORA_LOG_LEVEL"
	EnvRequestTimeout = "MEMORA_REQUEST_TIMEOUT"
)

// parseEnv overlays cfg with variables from envFile and then from lookup;
// the real environment wins over the file. A missing envFile is ignored.
func parseEnv(cfg *Config, envFile string, lookup func(string) (string, bool)) error {
	vars := map[string]string{}

	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	if lookup != nil {
		for _, k := range []string{EnvBackendURL, EnvDataDir, EnvLogLevel, EnvRequestTimeout} {
			if v, ok := lookup(k); ok {
				vars[k] = v
			}
		}
	}

	if v := vars[EnvBackendURL]; v != "" {
		cfg.BackendURL = v
	}
	if v := vars[EnvDataDir]; v != "" {
		cfg.DataDir = v
	}
	if v := vars[EnvLogLevel]; v != "" {
		cfg.LogLevel = v
	}
	if v := vars[EnvRequestTimeout]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
