// Package config loads runtime configuration for the Memora CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file and the process environment (BACKEND_URL, MEMORA_DATA_DIR,
//     MEMORA_LOG_LEVEL, MEMORA_REQUEST_TIMEOUT); the environment wins.
//  3. Optional config file selected via -c or -config, JSON or YAML by
//     extension.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-d string   data directory
//	-l string   log level
//	-t int      request timeout (seconds)
//
// # File schema
//
//	{
//	  "backend_url": "http://localhost:8000",
//	  "data_dir": ".memora",
//	  "log_level": "info",
//	  "request_timeout": "30s"
//	}
package config
