package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-redis/redis/v8"

	"edusaas-checkout-api/services/checkout"
)

// Pinger is satisfied by the database connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	redis     *redis.Client
	registry  *checkout.Registry
	startTime time.Time
}

// NewHealthHandler reports on the optional dependencies; nil ones are shown as
// "disabled".
func NewHealthHandler(db Pinger, redisClient *redis.Client, registry *checkout.Registry) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, registry: registry, startTime: time.Now()}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := struct {
		Status          string `json:"status"`
		Time            string `json:"time"`
		Database        string `json:"database"`
		Redis           string `json:"redis"`
		CheckoutSession int    `json:"checkout_sessions"`
		Uptime          string `json:"uptime"`
		GoVersion       string `json:"go_version"`
	}{
		Status:          "ok",
		Time:            time.Now().Format(time.RFC3339),
		Database:        "disabled",
		Redis:           "disabled",
		CheckoutSession: h.registry.Len(),
		Uptime:          fmt.Sprintf("%v", time.Since(h.startTime)),
		GoVersion:       runtime.Version(),
	}

	if h.db != nil {
		dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer dbCancel()
		health.Database = "connected"
		if err := h.db.PingContext(dbCtx); err != nil {
			health.Status = "degraded"
			health.Database = "error"
		}
	}

	if h.redis != nil {
		redisCtx, redisCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer redisCancel()
		health.Redis = "connected"
		if err := h.redis.Ping(redisCtx).Err(); err != nil {
			health.Status = "degraded"
			health.Redis = "error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
