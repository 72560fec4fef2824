package aiexplain

import "context"

const simulatedExplanation = "Simulated AI analysis: This threat involves an executable file downloaded from an untrusted source, which exhibits behavior consistent with known credential-stealing trojans. It attempted to modify system files and establish outbound communication to a suspicious IP address."

// Simulated is the stand-in analyst used when no model endpoint is
// configured. The explanation text is fixed; severity and recommendations
// are derived from the risk score alone.
type Simulated struct{}

func (Simulated) Explain(_ context.Context, in ExplainInput) (*ExplainOutput, error) {
	out := &ExplainOutput{
		Explanation:           simulatedExplanation,
		Severity:              severityForScore(in.RiskScore),
		QuarantineRecommended: in.RiskScore >= 80,
		ResolveActions: []string{
			"Isolate the affected device from the network",
			"Run a full scan on the affected device",
			"Review recent downloads and remove the flagged file",
		},
	}
	return out, nil
}

func (Simulated) Summarize(_ context.Context, in SummarizeInput) (*SummarizeOutput, error) {
	return &SummarizeOutput{
		Summary: "Simulated summary for " + in.TimePeriod + ": threats were detected and triaged, incidents were resolved, and policy changes were applied. Review the audit trail for details.",
	}, nil
}

func severityForScore(score int) Severity {
	switch {
	case score >= 80:
		return SeverityHigh
	case score >= 50:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
