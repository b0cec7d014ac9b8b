package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

type IHealthHandler interface {
	Healthz(ctx *gin.Context)
}

type HealthHandler struct {
	checks map[string]Check
}

func NewHealthHandler(checks map[string]Check) IHealthHandler {
	return &HealthHandler{checks: checks}
}

// Healthz returns OK when every backing service answers
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	c, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for name, check := range h.checks {
		if err := check(c); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	ctx.JSON(status, gin.H{"status": state, "checks": results})
}
