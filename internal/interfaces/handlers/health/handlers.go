package health

import (
	"encoding/json"
	"strconv"
	"time"

	healthsvc "procurement-portal/internal/application/health"
	"procurement-portal/internal/middleware"
	"procurement-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const serviceName = "procurement-portal"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Checker        *healthsvc.Checker
	HealthAdminKey string
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	rdb := h.Checker.Rdb
	if rdb == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable, nil)
	}
	ctx := c.UserContext()
	keys := []string{middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	if err := rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns health data: service, status, runtime, traffic, dependencies.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.Checker.CollectHealth(c.UserContext())
	return c.JSON(fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the capped 5xx log, newest first.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	out := make([]map[string]interface{}, 0)
	if h.Checker.Rdb == nil {
		return c.JSON(out)
	}
	entries, err := h.Checker.Rdb.LRange(c.UserContext(), middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(out)
	}
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return c.JSON(out)
}

// Dashboard returns the HTML status page with the current health data embedded.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	result := h.Checker.CollectHealth(c.UserContext())
	c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
	return c.SendString(healthsvc.RenderDashboardHTML(result))
}
