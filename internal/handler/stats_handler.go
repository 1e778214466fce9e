package handler

import (
	"github.com/gin-gonic/gin"

	"invwatch/internal/domain"
	"invwatch/internal/service"
)

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Ingest domain.IngestStats `json:"ingest"`
	Sync   *domain.SyncStats  `json:"sync,omitempty"`
}

// StatsHandler handles stats endpoints.
type StatsHandler struct {
	ingest service.IngestService
	sync   service.SyncService
}

// NewStatsHandler creates a new StatsHandler. sync is nil when sync is disabled.
func NewStatsHandler(ingest service.IngestService, sync service.SyncService) *StatsHandler {
	return &StatsHandler{ingest: ingest, sync: sync}
}

// GetStats handles GET /api/v1/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	resp := StatsResponse{Ingest: h.ingest.Stats()}
	if h.sync != nil {
		s := h.sync.Stats()
		resp.Sync = &s
	}
	RespondOK(c, resp)
}
