package dashboard

import (
	dashboardsvc "procurement-portal/internal/application/dashboard"
	"procurement-portal/internal/interfaces/handlers"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *dashboardsvc.Service
}

// Get GET /api/v1/dashboard: admin or vendor counters depending on the caller.
func (h *Handlers) Get(c *fiber.Ctx) error {
	if handlers.IsAdmin(c) {
		stats, err := h.Service.AdminStats(c.UserContext())
		if err != nil {
			return handlers.Fail(c, err)
		}
		return response.Success(c, "Dashboard", fiber.Map{"role": "admin", "stats": stats}, nil)
	}
	stats, err := h.Service.VendorStats(c.UserContext(), handlers.Actor(c).ID)
	if err != nil {
		return handlers.Fail(c, err)
	}
	return response.Success(c, "Dashboard", fiber.Map{"role": "vendor", "stats": stats}, nil)
}
