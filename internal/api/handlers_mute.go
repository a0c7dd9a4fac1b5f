package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mute routes write the flags the running alerter checks in Redis. They
// are registered only when a Redis client is configured.
func (s *Server) registerMuteRoutes(v1 *gin.RouterGroup) {
	if s.redis == nil {
		return
	}

	v1.GET("/mute", s.handleGlobalMuteStatus)
	v1.POST("/mute", s.handleGlobalMute)
	v1.DELETE("/mute", s.handleGlobalUnmute)

	v1.GET("/chains/:id/mute", s.handleChainMuteStatus)
	v1.POST("/chains/:id/mute", s.handleChainMute)
	v1.DELETE("/chains/:id/mute", s.handleChainUnmute)
}

func (s *Server) handleGlobalMuteStatus(c *gin.Context) {
	muted, err := s.redis.AllMuted(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"muted": muted})
}

func (s *Server) handleGlobalMute(c *gin.Context) {
	if err := s.redis.MuteAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGlobalUnmute(c *gin.Context) {
	if err := s.redis.UnmuteAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// chainForMute resolves the chain so mute calls against unknown chains
// return 404 instead of silently writing stray Redis keys.
func (s *Server) chainForMute(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, ok := s.service.Store().GetChain(id); !ok {
		respondNotFound(c)
		return "", false
	}
	return id, true
}

func (s *Server) handleChainMuteStatus(c *gin.Context) {
	id, ok := s.chainForMute(c)
	if !ok {
		return
	}
	muted, err := s.redis.ChainMuted(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chain_id": id, "muted": muted})
}

func (s *Server) handleChainMute(c *gin.Context) {
	id, ok := s.chainForMute(c)
	if !ok {
		return
	}
	if err := s.redis.MuteChain(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleChainUnmute(c *gin.Context) {
	id, ok := s.chainForMute(c)
	if !ok {
		return
	}
	if err := s.redis.UnmuteChain(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
