package health

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"strconv"
	"time"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// pingPath is read from the document store; a not-found answer still proves the store is reachable.
const pingPath = "_health/ping"

// CollectResult is the payload of /health/json and the dashboard.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// Checker gathers health data from Redis, the database and the document store.
type Checker struct {
	Rdb   *redis.Client
	DB    DBPinger
	Store documents.Store
}

// CollectHealth reports "ok" only when the database and Redis are connected.
// The document store is informational.
func (h *Checker) CollectHealth(ctx context.Context) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
	}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if h.DB != nil {
		start := time.Now()
		if err := h.DB.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := "disconnected"
	var redisPingMs *int64
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()

	if h.Rdb != nil {
		start := time.Now()
		if err := h.Rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"
			startTimeMs = h.readTraffic(ctx, &stats, startTimeMs)
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}
	result.Dependencies["documents"] = h.pingStore(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
	result.Traffic = stats

	if dbStatus == "connected" && redisStatus == "connected" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

func (h *Checker) readTraffic(ctx context.Context, stats *TrafficInfo, startTimeMs int64) int64 {
	rdb := h.Rdb
	totalReq, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := rdb.Get(ctx, middleware.KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}

func (h *Checker) pingStore(ctx context.Context) DepStatus {
	if h.Store == nil {
		return DepStatus{Status: "disconnected"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	start := time.Now()
	_, err := h.Store.Get(ctx, pingPath)
	if err != nil && !errors.Is(err, documents.ErrNotFound) {
		return DepStatus{Status: "unreachable"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "reachable", PingMs: &ms}
}
