// Package health reports dependency status, request traffic and negotiation
// activity for the /health endpoints.
package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"realty-backend/internal/domain"
	"realty-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ActivityCounter is optional; when set, CollectResult.Activity is filled.
type ActivityCounter interface {
	CountActivity(ctx context.Context) (*Activity, error)
}

type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Activity     *Activity            `json:"activity,omitempty"`
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
	AllocMB     int `json:"allocMb"`
	HeapInUseMB int `json:"heapInUseMb"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

// Activity is a snapshot of negotiation workload.
type Activity struct {
	ActiveNegotiations  int64 `json:"activeNegotiations"`
	PendingTransactions int64 `json:"pendingTransactions"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// GormActivityCounter counts rows in the negotiation tables.
type GormActivityCounter struct {
	DB *gorm.DB
}

func (g *GormActivityCounter) CountActivity(ctx context.Context) (*Activity, error) {
	db := g.DB.WithContext(ctx)
	var a Activity
	if err := db.Model(&domain.Negotiation{}).Where("status = ?", domain.NegotiationActive).Count(&a.ActiveNegotiations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Transaction{}).Where("status = ?", domain.TransactionPending).Count(&a.PendingTransactions).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CollectHealth gathers dependency pings, traffic counters kept by
// middleware.HealthMarker and, optionally, negotiation activity.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger, counter ActivityCounter) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if db != nil {
		start := time.Now()
		if err := db.Ping(ctx); err == nil {
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
	startTimeMs := time.Now().UnixMilli()
	result.Traffic = TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"
			startTimeMs = readTraffic(ctx, rdb, &result.Traffic, startTimeMs)
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}

	if counter != nil && dbStatus == "connected" {
		if a, err := counter.CountActivity(ctx); err == nil {
			result.Activity = a
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapInUseMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	if dbStatus == "connected" && redisStatus == "connected" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

// readTraffic fills stats from the health:global:* keys and returns the
// recorded start time, seeding it on first use.
func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, startTimeMs int64) int64 {
	vals, _ := rdb.MGet(ctx,
		middleware.KeyReqTotal,
		middleware.KeyReqErrors,
		middleware.KeyResTime,
		middleware.KeyResCount,
		middleware.KeyStartTime,
		middleware.KeyLastReq,
	).Result()
	get := func(i int) string {
		if i < len(vals) {
			if s, ok := vals[i].(string); ok {
				return s
			}
		}
		return ""
	}

	if s := get(4); s != "" {
		if t, err := strconv.ParseInt(s, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(get(0))
	stats.FailedCount, _ = strconv.Atoi(get(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(get(2), 64)
	countSum, _ := strconv.Atoi(get(3))
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if s := get(5); s != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(s), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}
