package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordonhq/cordon/pkg/store"
)

func (s *Server) handleListPolicies(c *gin.Context) {
	policies, err := s.store.ListPolicies(c.Request.Context(), tenantID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, policies)
}

func (s *Server) handleGetPolicy(c *gin.Context) {
	policy, err := s.store.GetPolicy(c.Request.Context(), tenantID(c), store.PolicyName(c.Param("name")))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, policy)
}

// handleSavePolicy edits the settings of one of the three fixed policy
// documents. Settings are validated before any write; the document must
// already exist.
func (s *Server) handleSavePolicy(c *gin.Context) {
	var req store.PolicySettings
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), s.log)
		return
	}

	name := store.PolicyName(c.Param("name"))
	res, err := s.store.SaveSecurityPolicy(c.Request.Context(), tenantID(c), name, req, userID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fully_committed": res.FullyCommitted(),
		"audit_pending":   res.AuditPending,
	})
}
