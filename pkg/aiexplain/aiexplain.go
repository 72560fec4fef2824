// Package aiexplain generates analyst-style explanations for detected
// threats and summaries of security events. Two implementations exist: a
// live client for an OpenAI-compatible chat API and a canned simulator for
// deployments without a model endpoint.
package aiexplain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// ExplainInput is the structured threat context handed to the model.
type ExplainInput struct {
	ThreatType      string `json:"threatType"`
	DetectionMethod string `json:"detectionMethod"`
	RawTelemetry    string `json:"rawTelemetry"`
	RiskScore       int    `json:"riskScore"`
}

// ExplainOutput is the schema-validated result of an explanation request.
type ExplainOutput struct {
	Explanation           string   `json:"explanation"`
	Severity              Severity `json:"severity"`
	QuarantineRecommended bool     `json:"quarantineRecommended"`
	ResolveActions        []string `json:"resolveActions"`
}

func (o *ExplainOutput) validate() error {
	if strings.TrimSpace(o.Explanation) == "" {
		return errors.New("model returned an empty explanation")
	}
	if !o.Severity.Valid() {
		return fmt.Errorf("model returned severity %q, want low, medium or high", o.Severity)
	}
	return nil
}

type SummarizeInput struct {
	TimePeriod        string `json:"timePeriod"`
	ThreatsDetected   string `json:"threatsDetected"`
	ResolvedIncidents string `json:"resolvedIncidents"`
	PolicyChanges     string `json:"policyChanges"`
}

type SummarizeOutput struct {
	Summary string `json:"summary"`
}

// Analyst produces threat explanations and event summaries.
type Analyst interface {
	Explain(ctx context.Context, in ExplainInput) (*ExplainOutput, error)
	Summarize(ctx context.Context, in SummarizeInput) (*SummarizeOutput, error)
}
