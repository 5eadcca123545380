// Command cms-backd is the backend render service: it serves the P-BACK
// protocol, rendering pages by combining the page database service's
// content with the text/macro resolver and page generator, and forwarding
// form submissions to an external POST-handler runner over P-POST.
//
// Deployments that want a syscall sandbox should wrap this process with
// the supervisor's filter (e.g. a systemd unit's SystemCallFilter=);
// sandbox setup is a packaging concern, not something this binary does
// itself.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbuesch/go-cms/internal/adminhttp"
	"github.com/mbuesch/go-cms/internal/backend"
	"github.com/mbuesch/go-cms/internal/buildinfo"
	"github.com/mbuesch/go-cms/internal/dbclient"
	"github.com/mbuesch/go-cms/internal/options"
	"github.com/mbuesch/go-cms/internal/postclient"
	"github.com/mbuesch/go-cms/internal/sockio"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msgf("cms-backd %s starting...", buildinfo.FormatVersion())

	opts, err := options.Parse(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration")
	}
	log.Logger = log.Logger.Level(opts.LogLevel)

	db, err := dbclient.Dial(opts.RunDir + "/cms-fsd.sock")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to page database service")
	}
	defer db.Close() //nolint:errcheck // best-effort cleanup on exit

	var post *postclient.Client

	postSocketPath := opts.RunDir + "/cms-postd.sock"
	if _, statErr := os.Stat(postSocketPath); statErr == nil {
		post, err = postclient.Dial(postSocketPath)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to POST-runner service, form submissions will fail")
		} else {
			defer post.Close() //nolint:errcheck // best-effort cleanup on exit
		}
	} else {
		log.Info().Msg("No POST-runner socket found, form submissions are disabled")
	}

	svc := backend.NewService(db, post, opts.Domain, opts.URLBase, opts.Debug)

	socketPath := opts.RunDir + "/cms-backd.sock"

	ln, err := sockio.ListenFromSystemdOrPath(socketPath, opts.NoSystemd)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind backend socket")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admin := adminhttp.NewBackend(opts.AdminAddr, func() adminhttp.BackendStatus {
		st := svc.CheckStatus()

		return adminhttp.BackendStatus{DBConnected: st.DBConnected, PostConnected: st.PostConnected}
	})
	adminErr := make(chan error, 1)
	go func() {
		if err := admin.Listen(ctx); err != nil {
			adminErr <- err
		}
	}()

	srv := backend.NewServer(svc, opts.WorkerThreads)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	exitCode := runUntilShutdown(cancel, sigChan, serverErr, adminErr)

	log.Info().Msg("Shutdown complete")
	os.Exit(exitCode)
}

// runUntilShutdown waits for a terminating signal or a service error.
// SIGHUP is a no-op here (the backend carries no cache of its own to
// clear; the page database service owns that); SIGTERM is a clean
// shutdown (exit 0); SIGINT and any service error are treated as abnormal
// (exit 1).
func runUntilShutdown(cancel context.CancelFunc, sigChan chan os.Signal, serverErr, adminErr chan error) int {
	for {
		select {
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				log.Info().Msg("Received SIGHUP (no-op, backend holds no cache)")

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
			log.Error().Err(err).Msg("Backend server error")
			cancel()

			return 1
		case err := <-adminErr:
			log.Error().Err(err).Msg("Admin HTTP server error")
			cancel()

			return 1
		}
	}
}
