package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordonhq/cordon/pkg/store"
)

func (s *Server) handleListDevices(c *gin.Context) {
	devices, err := s.store.ListDevices(c.Request.Context(), tenantID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (s *Server) handleGetDevice(c *gin.Context) {
	device, err := s.store.GetDevice(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, device)
}

func (s *Server) handleEnrollDevice(c *gin.Context) {
	var req store.EnrollDeviceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), s.log)
		return
	}
	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "deviceName is required", s.log)
		return
	}

	device, res, err := s.store.EnrollDevice(c.Request.Context(), tenantID(c), req, userID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"device":        device,
		"audit_pending": res.AuditPending,
	})
}

// handleIsolateDevices applies the bulk containment action. Devices already
// isolated are skipped; the rest are updated in one atomic batch.
func (s *Server) handleIsolateDevices(c *gin.Context) {
	var req struct {
		DeviceIDs []string `json:"device_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), s.log)
		return
	}

	res, err := s.store.IsolateDevices(c.Request.Context(), tenantID(c), req.DeviceIDs, userID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fully_committed": res.FullyCommitted(),
		"audit_pending":   res.AuditPending,
	})
}

func (s *Server) handleChangeDevicePolicy(c *gin.Context) {
	var req struct {
		Policy store.PolicyName `json:"policy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), s.log)
		return
	}

	res, err := s.store.ChangeDevicePolicy(c.Request.Context(), tenantID(c), c.Param("id"), req.Policy, userID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fully_committed": res.FullyCommitted(),
		"audit_pending":   res.AuditPending,
	})
}
