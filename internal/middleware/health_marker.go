package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys shared by the request marker and the health handlers.
const (
	KeyReqTotal  = "health:portal:req_total"
	KeyReqErrors = "health:portal:req_errors"
	KeyResTime   = "health:portal:res_time_total"
	KeyResCount  = "health:portal:res_count"
	KeyStartTime = "health:portal:start_time"
	KeyLastReq   = "health:portal:last_request"
	KeyErrorLog  = "health:portal:error_log"
)

const errorLogSize = 50

// HealthMarker records request stats in Redis (skip /, /health*, favicon and the notification stream).
// Responses with status >= 500 are appended to the capped error log.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if rdb == nil || path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") ||
			strings.HasSuffix(path, "/notifications/stream") {
			return c.Next()
		}

		start := time.Now()
		lastReq := map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		}
		b, _ := json.Marshal(lastReq)
		ctx := c.UserContext()
		_ = rdb.Set(ctx, KeyLastReq, b, 0).Err()
		_ = rdb.Incr(ctx, KeyReqTotal).Err()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_ = rdb.Incr(ctx, KeyResCount).Err()
		_ = rdb.IncrByFloat(ctx, KeyResTime, float64(ms)).Err()
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		if status >= fiber.StatusInternalServerError {
			_ = rdb.Incr(ctx, KeyReqErrors).Err()
			entry := map[string]interface{}{
				"time":     time.Now(),
				"method":   c.Method(),
				"path":     path,
				"status":   status,
				"trace_id": GetTraceID(c),
			}
			if err != nil {
				entry["error"] = err.Error()
			}
			eb, _ := json.Marshal(entry)
			pipe := rdb.TxPipeline()
			pipe.LPush(ctx, KeyErrorLog, eb)
			pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
			_, _ = pipe.Exec(ctx)
		}
		return err
	}
}
