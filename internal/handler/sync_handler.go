package handler

import (
	"github.com/gin-gonic/gin"

	"invwatch/internal/domain"
	"invwatch/internal/service"
)

// SyncHandler triggers sync cycles on demand.
type SyncHandler struct {
	sync service.SyncService
}

// NewSyncHandler creates a new SyncHandler. sync is nil when sync is disabled.
func NewSyncHandler(sync service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Trigger handles POST /api/v1/sync
func (h *SyncHandler) Trigger(c *gin.Context) {
	if h.sync == nil {
		HandleError(c, domain.ErrSyncDisabled)
		return
	}
	res, err := h.sync.RunCycle(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}
