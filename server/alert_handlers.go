package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cordonhq/cordon/pkg/aiexplain"
	"github.com/cordonhq/cordon/pkg/store"
)

func (s *Server) handleListAlerts(c *gin.Context) {
	alerts, err := s.store.ListAlerts(c.Request.Context(), tenantID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(c *gin.Context) {
	alert, err := s.store.GetAlert(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (s *Server) handleUpdateAlertStatus(c *gin.Context) {
	var req struct {
		Status store.AlertStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), s.log)
		return
	}

	res, err := s.store.UpdateAlertStatus(c.Request.Context(), tenantID(c), c.Param("id"), req.Status, userID(c))
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fully_committed": res.FullyCommitted(),
		"audit_pending":   res.AuditPending,
	})
}

// handleIsolateFromAlert isolates the device named on the alert and then
// quarantines the alert. The two writes are independent; the response spells
// out which halves committed so a partial outcome is never silent.
func (s *Server) handleIsolateFromAlert(c *gin.Context) {
	alertID := c.Param("id")
	alert, err := s.store.GetAlert(c.Request.Context(), tenantID(c), alertID)
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}

	out, err := s.store.IsolateDeviceFromAlert(c.Request.Context(), tenantID(c), alert.Device, alertID, userID(c))
	if err != nil {
		if out.DeviceIsolated {
			// Device contained but the alert transition failed. Surface the
			// partial state rather than a bare error.
			logger := requestLogger(c, s.log)
			logger.Error().Err(err).
				Str("alert_id", alertID).
				Str("device_id", out.DeviceID).
				Msg("device isolated but alert quarantine failed")
			c.JSON(http.StatusMultiStatus, gin.H{
				"device_isolated":   true,
				"alert_quarantined": false,
				"error":             err.Error(),
			})
			return
		}
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, out)
}

// handleExplainAlert runs the configured analyst over the alert's recorded
// context and attaches the result to the alert document.
func (s *Server) handleExplainAlert(c *gin.Context) {
	ctx := c.Request.Context()
	alertID := c.Param("id")
	alert, err := s.store.GetAlert(ctx, tenantID(c), alertID)
	if err != nil {
		respondStoreError(c, err, s.log)
		return
	}

	out, err := s.analyst.Explain(ctx, aiexplain.ExplainInput{
		ThreatType:      alert.Type,
		DetectionMethod: alert.DetectionMethod,
		RawTelemetry:    alert.RawTelemetry,
		RiskScore:       alert.RiskScore,
	})
	if err != nil {
		respondError(c, http.StatusBadGateway, "explanation failed: "+err.Error(), s.log)
		return
	}

	if err := s.store.AttachExplanation(ctx, tenantID(c), alertID, out.Explanation); err != nil {
		respondStoreError(c, err, s.log)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSummarize(c *gin.Context) {
	var req aiexplain.SummarizeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), s.log)
		return
	}
	out, err := s.analyst.Summarize(c.Request.Context(), req)
	if err != nil {
		respondError(c, http.StatusBadGateway, "summarization failed: "+err.Error(), s.log)
		return
	}
	c.JSON(http.StatusOK, out)
}
