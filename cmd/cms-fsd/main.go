// Command cms-fsd is the page database service: it serves the P-DB
// protocol out of a filesystem-backed page tree, cached in memory and
// invalidated on change via fsnotify.
//
// Deployments that want a syscall sandbox should wrap this process with
// the supervisor's filter (e.g. a systemd unit's SystemCallFilter= list
// covering file I/O, stat, directory reads, socket send/recv, futex,
// mmap, threading, inotify and timers); sandbox setup is a packaging
// concern, not something this binary does itself.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbuesch/go-cms/internal/adminhttp"
	"github.com/mbuesch/go-cms/internal/buildinfo"
	"github.com/mbuesch/go-cms/internal/fsdb"
	"github.com/mbuesch/go-cms/internal/options"
	"github.com/mbuesch/go-cms/internal/sockio"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msgf("cms-fsd %s starting...", buildinfo.FormatVersion())

	opts, err := options.ParseFSD(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration")
	}
	log.Logger = log.Logger.Level(opts.LogLevel)

	fs, err := fsdb.New(opts.DBRoot)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open page database root")
	}

	cache, err := fsdb.NewCache(fs, opts.CacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create page cache")
	}

	watcher, err := fsdb.NewWatcher(cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create filesystem watcher")
	}
	defer watcher.Close() //nolint:errcheck // best-effort cleanup on exit

	socketPath := opts.RunDir + "/cms-fsd.sock"

	ln, err := sockio.ListenFromSystemdOrPath(socketPath, opts.NoSystemd)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind page database socket")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watcher.Run(ctx)

	admin := adminhttp.NewFSD(opts.AdminAddr, cache, opts.CacheSize)
	adminErr := make(chan error, 1)
	go func() {
		if err := admin.Listen(ctx); err != nil {
			adminErr <- err
		}
	}()

	srv := fsdb.NewServer(cache, opts.WorkerThreads)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	exitCode := runUntilShutdown(ctx, cancel, sigChan, serverErr, adminErr, cache)

	log.Info().Msg("Shutdown complete")
	os.Exit(exitCode)
}

// runUntilShutdown waits for a terminating signal or a service error.
// SIGHUP clears the cache and keeps running; SIGTERM is a clean shutdown
// (exit 0); SIGINT and any service error are treated as abnormal (exit 1).
func runUntilShutdown(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal, serverErr, adminErr chan error, cache *fsdb.Cache) int {
	for {
		select {
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				log.Info().Msg("Received SIGHUP, clearing page cache")
				cache.Clear()

				continue
			case syscall.SIGTERM:
				log.Info().Msg("Received SIGTERM, shutting down")
				cancel()

				return 0
			default:
				log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
				cancel()

				return 1
			}
		case err := <-serverErr:
			log.Error().Err(err).Msg("Page database server error")
			cancel()

			return 1
		case err := <-adminErr:
			log.Error().Err(err).Msg("Admin HTTP server error")
			cancel()

			return 1
		}
	}
}
