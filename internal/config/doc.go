// Package config loads the console's runtime configuration.
//
// # Resolution Order
//
//  1. Defaults (see Default)
//  2. ~/.config/padb/config.toml, or the path passed to Load
//  3. PADB_* environment variables
//
// A missing config file is not an error. Empty values after all three
// layers fall back to the defaults.
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:8000/api/v1"
//	timeout = "30s"
//	log_file = "~/.local/state/padb/padb.log"
//	log_level = "info"
//	credentials_file = "~/.config/padb/credentials.toml"
//	prefs_file = "~/.config/padb/prefs.toml"
//	debug = false
//	metrics_addr = "127.0.0.1:9464"
//
// # Environment
//
//   - PADB_API_URL
//   - PADB_TIMEOUT (Go duration, e.g. 45s)
//   - PADB_LOG_FILE, PADB_LOG_LEVEL
//   - PADB_CREDENTIALS_FILE, PADB_PREFS_FILE
//   - PADB_DEBUG (logs every HTTP exchange at debug level)
//   - PADB_METRICS_ADDR (empty disables the Prometheus listener)
//
// Tilde paths are expanded and relative paths made absolute.
package config
