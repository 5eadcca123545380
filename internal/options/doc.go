// Package options parses the backend service's configuration from
// command-line flags, environment variables (optionally loaded from a
// .env file) and an INI configuration file, in that order of precedence:
// an explicit flag always wins, then an environment variable, then the
// INI file, then a built-in default.
//
// The INI file mirrors the on-disk CMS-BACKD configuration format: a
// single [CMS-BACKD] section carrying the domain name and URL base path
// the generated pages are served under, plus a debug toggle. The
// remaining settings (socket directory, cache size, worker pool size,
// admin HTTP listener address, systemd socket activation) are
// process-level concerns and are only ever set via flag or environment
// variable.
package options
