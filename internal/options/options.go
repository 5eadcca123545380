package options

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// ValidationError reports that a configuration field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
}

var (
	domainRe  = regexp.MustCompile(`^[A-Za-z0-9.\-]*$`)
	urlBaseRe = regexp.MustCompile(`^[A-Za-z0-9/_\-]*$`)
)

// Opts holds the fully resolved backend service configuration.
type Opts struct {
	LogLevel zerolog.Level

	// Socket / process settings.
	RunDir        string
	CacheSize     int
	NoSystemd     bool
	WorkerThreads int
	AdminAddr     string

	// CMS-BACKD INI settings.
	ConfigFile string
	Debug      bool
	Domain     string
	URLBase    string
}

const (
	defaultRunDir        = "/run"
	defaultCacheSize     = 4096
	defaultWorkerThreads = 3
	defaultAdminAddr     = ""
	defaultConfigFile    = "/opt/cms/etc/cms/backd.conf"
	defaultDomain        = "example.com"
	defaultURLBase       = "/cms"
)

// Parse loads a .env file if present, then parses flags layered over
// environment-variable defaults, then fills any still-unset INI-backed
// fields from the configuration file, and finally validates the result.
func Parse(args []string) (*Opts, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	fs := flag.NewFlagSet("cms-backd", flag.ContinueOnError)

	logLevelStr := fs.String("log-level", envStringOrDefault("CMS_LOG_LEVEL", "info"), "Log level (trace, debug, info, warn, error)")
	runDir := fs.String("rundir", envStringOrDefault("CMS_RUNDIR", defaultRunDir), "Directory containing the unix sockets")
	cacheSize := fs.Int("cache-size", envIntOrDefault("CMS_CACHE_SIZE", defaultCacheSize), "Maximum number of entries in the page cache")
	noSystemd := fs.Bool("no-systemd", envBoolOrDefault("CMS_NO_SYSTEMD", false), "Disable systemd socket activation")
	workerThreads := fs.Int("worker-threads", envIntOrDefault("CMS_WORKER_THREADS", defaultWorkerThreads), "Number of worker goroutines servicing connections")
	adminAddr := fs.String("admin-addr", envStringOrDefault("CMS_ADMIN_ADDR", defaultAdminAddr), "Listen address for the admin/health HTTP surface (empty disables it)")
	configFile := fs.String("config", envStringOrDefault("CMS_CONFIG", defaultConfigFile), "Path to the CMS-BACKD INI configuration file")
	debug := fs.Bool("debug", envBoolOrDefault("CMS_DEBUG", false), "Enable debug mode (verbose error pages)")
	domain := fs.String("domain", envStringOrDefault("CMS_DOMAIN", ""), "Domain name used to build absolute URLs")
	urlBase := fs.String("url-base", envStringOrDefault("CMS_URL_BASE", ""), "URL path prefix the CMS is mounted under")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("options: parse flags: %w", err)
	}

	level, err := zerolog.ParseLevel(*logLevelStr)
	if err != nil {
		return nil, &ValidationError{Field: "log-level", Message: err.Error()}
	}

	o := &Opts{
		LogLevel:      level,
		RunDir:        *runDir,
		CacheSize:     *cacheSize,
		NoSystemd:     *noSystemd,
		WorkerThreads: *workerThreads,
		AdminAddr:     *adminAddr,
		ConfigFile:    *configFile,
		Debug:         *debug,
		Domain:        *domain,
		URLBase:       *urlBase,
	}

	if o.ConfigFile != "" {
		if err := o.loadINI(o.ConfigFile); err != nil {
			return nil, err
		}
	}

	// loadINI cannot tell an explicit false from an unset debug value, so a
	// debug setting given by flag or environment variable is reapplied here.
	_, debugSet := os.LookupEnv("CMS_DEBUG")
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "debug" {
			debugSet = true
		}
	})
	if debugSet {
		o.Debug = *debug
	}

	if o.Domain == "" {
		o.Domain = defaultDomain
	}
	if o.URLBase == "" {
		o.URLBase = defaultURLBase
	}

	if err := o.validate(); err != nil {
		return nil, err
	}

	return o, nil
}

// loadINI fills Debug, Domain and URLBase from the [CMS-BACKD] section of
// path, but only for fields that were not already set by a flag or
// environment variable. A missing file is not an error: every INI-backed
// setting has a usable built-in default.
func (o *Opts) loadINI(path string) error {
	cfg, err := ini.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("options: load ini %s: %w", path, err)
	}

	sec := cfg.Section("CMS-BACKD")

	if !o.Debug && sec.HasKey("debug") {
		v, err := sec.Key("debug").Bool()
		if err != nil {
			return &ValidationError{Field: "CMS-BACKD.debug", Message: err.Error()}
		}
		o.Debug = v
	}

	if o.Domain == "" {
		o.Domain = sec.Key("domain").String()
	}

	if o.URLBase == "" {
		o.URLBase = sec.Key("url-base").String()
	}

	return nil
}

func (o *Opts) validate() error {
	if !domainRe.MatchString(o.Domain) {
		return &ValidationError{Field: "domain", Message: "must match [A-Za-z0-9.-]*"}
	}
	if !urlBaseRe.MatchString(o.URLBase) {
		return &ValidationError{Field: "url-base", Message: "must match [A-Za-z0-9/_-]*"}
	}
	if o.CacheSize < 0 {
		return &ValidationError{Field: "cache-size", Message: "must not be negative"}
	}
	if o.WorkerThreads <= 0 {
		return &ValidationError{Field: "worker-threads", Message: "must be positive"}
	}

	return nil
}

func envStringOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return def
}

func envBoolOrDefault(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}

func envIntOrDefault(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

