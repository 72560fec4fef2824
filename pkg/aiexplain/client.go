package aiexplain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const explainPrompt = `You are a security analyst providing explainable AI output for potential threats.

You will receive information about a detected threat, including its type, detection method, associated telemetry data, and risk score.

Based on this information, you will generate a detailed explanation of the threat, assess its severity, recommend quarantine if necessary, and suggest actions to resolve the threat.

Respond with a single JSON object with keys "explanation" (string), "severity" (one of "low", "medium", "high"), "quarantineRecommended" (boolean) and "resolveActions" (array of strings).

Threat Type: %s
Detection Method: %s
Raw Telemetry Data: %s
Risk Score: %d`

const summarizePrompt = `You are a security analyst. Summarize the following security events for the given time period. Respond with a single JSON object with key "summary" (string).

Time Period: %s
Threats Detected: %s
Resolved Incidents: %s
Policy Changes: %s`

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *responseFmt  `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Explain(ctx context.Context, in ExplainInput) (*ExplainOutput, error) {
	prompt := fmt.Sprintf(explainPrompt, in.ThreatType, in.DetectionMethod, in.RawTelemetry, in.RiskScore)
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var out ExplainOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Summarize(ctx context.Context, in SummarizeInput) (*SummarizeOutput, error) {
	prompt := fmt.Sprintf(summarizePrompt, in.TimePeriod, in.ThreatsDetected, in.ResolvedIncidents, in.PolicyChanges)
	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var out SummarizeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}
	if out.Summary == "" {
		return nil, fmt.Errorf("model returned an empty summary")
	}
	return &out, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: &responseFmt{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, payload)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
