package adminhttp

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mbuesch/go-cms/internal/fsdb"
)

// NewFSD builds the admin HTTP app for the page database service (cms-fsd):
// its health/readiness report cache occupancy, since the cache is the only
// piece of runtime state this service carries.
func NewFSD(addr string, cache *fsdb.Cache, cacheSize int) *App {
	f := newApp()

	f.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"overall_healthy": true,
			"cache_entries":   cache.Len(),
			"cache_capacity":  cacheSize,
		})
	})
	f.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})
	f.Get("/live", livenessHandler)

	logBound("cms-fsd", addr)

	return &App{fiber: f, addr: addr}
}
