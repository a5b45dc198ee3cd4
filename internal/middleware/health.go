package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthChecker struct {
	db            Pinger
	startTime     time.Time
	version       string
	cacheDuration time.Duration

	mu       sync.Mutex
	last     HealthStatus
	lastCode int
}

func NewHealthChecker(db Pinger, version string) *HealthChecker {
	return &HealthChecker{
		db:            db,
		startTime:     time.Now(),
		version:       version,
		cacheDuration: 5 * time.Second,
	}
}

// Handler reports the service as degraded when the database does not answer.
// Results are cached for a few seconds.
func (h *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.mu.Lock()
		defer h.mu.Unlock()

		if h.lastCode != 0 && time.Since(h.last.LastChecked) < h.cacheDuration {
			c.JSON(h.lastCode, h.last)
			return
		}

		status := HealthStatus{
			Status:      "ok",
			Database:    "ok",
			LastChecked: time.Now(),
			Uptime:      time.Since(h.startTime).Round(time.Second).String(),
			Version:     h.version,
		}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status.Status = "degraded"
			status.Database = err.Error()
			code = http.StatusServiceUnavailable
		}

		h.last, h.lastCode = status, code
		c.JSON(code, status)
	}
}
