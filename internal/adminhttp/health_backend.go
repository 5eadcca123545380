package adminhttp

import (
	"github.com/gofiber/fiber/v2"
)

// BackendStatus reports the backend service's connectivity to its two
// collaborator services, used by the readiness handler: a backend that
// can't reach the page database is not ready to serve requests, even
// though its process is alive.
type BackendStatus struct {
	DBConnected   bool
	PostConnected bool
}

// NewBackend builds the admin HTTP app for the backend render service
// (cms-backd): its readiness reflects whether the page database and (if
// configured) POST-runner collaborators are currently reachable.
func NewBackend(addr string, status func() BackendStatus) *App {
	f := newApp()

	f.Get("/health", func(c *fiber.Ctx) error {
		st := status()

		return c.JSON(fiber.Map{
			"overall_healthy": st.DBConnected,
			"db_connected":    st.DBConnected,
			"post_connected":  st.PostConnected,
		})
	})
	f.Get("/ready", func(c *fiber.Ctx) error {
		st := status()
		if !st.DBConnected {
			c.Status(fiber.StatusServiceUnavailable)

			return c.JSON(fiber.Map{"status": "not ready", "reason": "page database unreachable"})
		}

		return c.JSON(fiber.Map{"status": "ready"})
	})
	f.Get("/live", livenessHandler)

	logBound("cms-backd", addr)

	return &App{fiber: f, addr: addr}
}
