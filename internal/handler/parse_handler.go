package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"invwatch/internal/domain"
	"invwatch/internal/service"
)

// ParseHandler parses uploaded invoices without touching the pipeline's
// directories or outputs.
type ParseHandler struct {
	ingest  service.IngestService
	maxSize int64
}

// NewParseHandler creates a new ParseHandler. maxSize of 0 means unlimited.
func NewParseHandler(ingest service.IngestService, maxSize int64) *ParseHandler {
	return &ParseHandler{ingest: ingest, maxSize: maxSize}
}

// Parse handles POST /api/v1/parse
func (h *ParseHandler) Parse(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if !service.IsSupportedFile(header.Filename) {
		HandleError(c, domain.ErrUnsupportedFileType)
		return
	}
	if h.maxSize > 0 && header.Size > h.maxSize {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	dir, err := os.MkdirTemp("", "invwatch-parse-")
	if err != nil {
		HandleError(c, err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, filepath.Base(header.Filename))
	if err := saveUpload(file, path); err != nil {
		HandleError(c, err)
		return
	}

	preview, err := h.ingest.Preview(c.Request.Context(), path)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, preview)
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("saving upload: %w", err)
	}
	return dst.Close()
}
