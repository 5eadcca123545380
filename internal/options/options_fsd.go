package options

import (
	"fmt"
	"os"

	"flag"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FSDOpts holds the fully resolved page database service configuration.
// Unlike Opts (cms-backd), there is no INI file and no domain/url-base:
// the database service only ever serves local filesystem content, it has
// no notion of the site's public URL.
type FSDOpts struct {
	LogLevel zerolog.Level

	RunDir        string
	CacheSize     int
	NoSystemd     bool
	WorkerThreads int
	AdminAddr     string

	// DBRoot is the positional database root directory argument.
	DBRoot string
}

// ParseFSD loads a .env file if present, then parses cms-fsd's flags
// layered over environment-variable defaults, and validates the result.
func ParseFSD(args []string) (*FSDOpts, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	fs := flag.NewFlagSet("cms-fsd", flag.ContinueOnError)

	logLevelStr := fs.String("log-level", envStringOrDefault("CMS_LOG_LEVEL", "info"), "Log level (trace, debug, info, warn, error)")
	runDir := fs.String("rundir", envStringOrDefault("CMS_RUNDIR", defaultRunDir), "Directory containing the unix sockets")
	cacheSize := fs.Int("cache-size", envIntOrDefault("CMS_CACHE_SIZE", defaultCacheSize), "Maximum number of entries in the page cache (0 disables caching)")
	noSystemd := fs.Bool("no-systemd", envBoolOrDefault("CMS_NO_SYSTEMD", false), "Disable systemd socket activation")
	workerThreads := fs.Int("worker-threads", envIntOrDefault("CMS_WORKER_THREADS", defaultWorkerThreads), "Number of worker goroutines servicing connections")
	adminAddr := fs.String("admin-addr", envStringOrDefault("CMS_ADMIN_ADDR", ""), "Listen address for the admin/health HTTP surface (empty disables it)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("options: parse flags: %w", err)
	}

	level, err := zerolog.ParseLevel(*logLevelStr)
	if err != nil {
		return nil, &ValidationError{Field: "log-level", Message: err.Error()}
	}

	rest := fs.Args()
	if len(rest) != 1 {
		return nil, &ValidationError{Field: "dbroot", Message: "exactly one positional database root path is required"}
	}

	o := &FSDOpts{
		LogLevel:      level,
		RunDir:        *runDir,
		CacheSize:     *cacheSize,
		NoSystemd:     *noSystemd,
		WorkerThreads: *workerThreads,
		AdminAddr:     *adminAddr,
		DBRoot:        rest[0],
	}

	if err := o.validate(); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *FSDOpts) validate() error {
	if o.CacheSize < 0 {
		return &ValidationError{Field: "cache-size", Message: "must not be negative"}
	}
	if o.WorkerThreads <= 0 {
		return &ValidationError{Field: "worker-threads", Message: "must be positive"}
	}
	if o.DBRoot == "" {
		return &ValidationError{Field: "dbroot", Message: "must not be empty"}
	}

	return nil
}
