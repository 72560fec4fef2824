package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleIssueToken mints a single-use enrollment token for out-of-band device
// registration. Issuance is rate limited per tenant; there is no redemption
// endpoint here, the consuming side belongs to the device agent.
func (s *Server) handleIssueToken(c *gin.Context) {
	tenant := tenantID(c)
	if limit := s.cfg.Server.TokenRateLimit; limit > 0 {
		window := time.Duration(s.cfg.Server.TokenRateWindowS) * time.Second
		if !s.limiter.Allow("enroll-token:"+tenant, limit, window) {
			respondError(c, http.StatusTooManyRequests, "token issuance rate limit exceeded", s.log)
			return
		}
	}

	token, err := s.store.IssueEnrollmentToken(c.Request.Context(), tenant, userID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         token.ID,
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
	})
}

func (s *Server) handleListTokens(c *gin.Context) {
	tokens, err := s.store.ListEnrollmentTokens(c.Request.Context(), tenantID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}

	resp := make([]gin.H, 0, len(tokens))
	for _, t := range tokens {
		resp = append(resp, gin.H{
			"id":         t.ID,
			"token":      t.Token,
			"used":       t.Used,
			"expires_at": t.ExpiresAt,
			"expired":    time.Now().After(t.ExpiresAt),
			"created_by": t.CreatedBy,
			"created_at": t.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
