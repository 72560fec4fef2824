package main

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cordonhq/cordon/pkg/store"
)

const (
	userIDContextKey   = "user_id"
	tenantIDContextKey = "tenant_id"
)

// requireAdmin guards bootstrap routes with the operator bearer token.
func (s *Server) requireAdmin(c *gin.Context) {
	if s.adminToken == "" {
		respondError(c, http.StatusForbidden, "admin API disabled", s.log)
		return
	}
	token, ok := bearerToken(c)
	if !ok || !secureCompare(token, s.adminToken) {
		respondError(c, http.StatusUnauthorized, "invalid bearer token", s.log)
		return
	}
	c.Next()
}

// requireUser resolves the caller to a tenant via its user profile. Identity
// verification is the external provider's job; this service only maps an
// authenticated user id onto its tenant partition.
func (s *Server) requireUser(c *gin.Context) {
	uid, ok := bearerToken(c)
	if !ok || uid == "" {
		respondError(c, http.StatusUnauthorized, "missing bearer token", s.log)
		return
	}

	profile, err := s.store.GetUserProfile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusUnauthorized, "unknown user", s.log)
			return
		}
		respondError(c, http.StatusInternalServerError, "user lookup failed", s.log)
		return
	}

	c.Set(userIDContextKey, profile.UserID)
	c.Set(tenantIDContextKey, profile.TenantID)
	c.Next()
}

func bearerToken(c *gin.Context) (string, bool) {
	authz := c.GetHeader("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authz, "Bearer "), true
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func userID(c *gin.Context) string {
	return c.GetString(userIDContextKey)
}

func tenantID(c *gin.Context) string {
	return c.GetString(tenantIDContextKey)
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID(c),
		"tenant_id": tenantID(c),
	})
}

func (s *Server) handleBindUser(c *gin.Context) {
	var req struct {
		UserID      string `json:"user_id" binding:"required"`
		TenantID    string `json:"tenant_id" binding:"required"`
		DisplayName string `json:"display_name"`
		Email       string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), s.log)
		return
	}

	profile := store.UserProfile{
		UserID:      req.UserID,
		TenantID:    req.TenantID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	}
	if err := s.store.PutUserProfile(c.Request.Context(), profile); err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (s *Server) handleSeedTenant(c *gin.Context) {
	tenant := c.Param("id")
	if err := s.store.Seed(c.Request.Context(), tenant); err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant_id": tenant, "seeded": true})
}
