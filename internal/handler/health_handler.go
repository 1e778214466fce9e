package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db   *sqlx.DB
	dirs []string
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the sync
// log is file backed; dirs are the directories the pipeline needs.
func NewHealthHandler(db *sqlx.DB, dirs ...string) *HealthHandler {
	return &HealthHandler{db: db, dirs: dirs}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) check(ctx context.Context) error {
	for _, d := range h.dirs {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("directory %s not available", d)
		}
	}
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database not reachable")
		}
	}
	return nil
}
