package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context(), tenantID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListAudit(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "invalid limit", s.log)
			return
		}
		limit = parsed
	}

	entries, err := s.store.ListAuditLog(c.Request.Context(), tenantID(c), limit)
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, entries)
}
