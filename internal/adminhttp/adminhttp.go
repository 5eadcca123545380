// Package adminhttp exposes the small health/readiness/liveness HTTP
// surface each CMS service binds on its admin address (§4.2, §6): a local,
// low-traffic interface, disabled by binding to an empty address, entirely
// separate from the unix-socket protocols the services actually serve
// requests over.
package adminhttp

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// App wraps the fiber application and its listen address.
type App struct {
	fiber *fiber.App
	addr  string
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
}

// Listen serves the admin HTTP surface until ctx is cancelled. A blank
// addr disables the surface entirely.
func (a *App) Listen(ctx context.Context) error {
	if a.addr == "" {
		<-ctx.Done()

		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.fiber.Listen(a.addr)
	}()

	select {
	case <-ctx.Done():
		return a.fiber.ShutdownWithContext(ctx)
	case err := <-errCh:
		return err
	}
}

func livenessHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func logBound(service, addr string) {
	if addr == "" {
		log.Info().Str("service", service).Msg("Admin HTTP surface disabled")

		return
	}

	log.Info().Str("service", service).Str("addr", addr).Msg("Admin HTTP surface listening")
}
