package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panicconf/pkg/domain"
)

func (s *Server) registerConfigRoutes(v1 *gin.RouterGroup) {
	cfg := v1.Group("/config")
	cfg.GET("/export", s.handleExport)
	cfg.POST("/import", s.handleImport)

	if s.archiver != nil {
		cfg.GET("/archives", s.handleListArchives)
		cfg.POST("/archives", s.handleCreateArchive)
		cfg.POST("/archives/restore", s.handleRestoreArchive)
	}
}

func (s *Server) handleExport(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.ExportState(c.Request.Context()))
}

// handleImport replaces the whole store with the posted snapshot. The
// store normalizes the snapshot on import, so orphans and dangling
// channel references are dropped rather than rejected.
func (s *Server) handleImport(c *gin.Context) {
	var snapshot domain.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := s.service.ImportState(c.Request.Context(), snapshot); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListArchives(c *gin.Context) {
	entries, err := s.archiver.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) handleCreateArchive(c *gin.Context) {
	snapshot := s.service.ExportState(c.Request.Context())
	entry, err := s.archiver.Archive(c.Request.Context(), snapshot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": entry})
}

type restoreRequest struct {
	Key string `json:"key"`
}

// handleRestoreArchive loads an archived snapshot and imports it,
// replacing the current configuration.
func (s *Server) handleRestoreArchive(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	snapshot, err := s.archiver.Restore(c.Request.Context(), req.Key)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.service.ImportState(c.Request.Context(), snapshot); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
