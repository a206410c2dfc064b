package app

import "portfolio-agent/internal/core"

// ChatResult is returned by Chat. Exactly one of Result or Clarification is
// set; Reply is a plain-text rendering of whichever one it is.
type ChatResult struct {
	SessionID     string                     `json:"session_id"`
	Intent        core.IntentLabel           `json:"intent"`
	Confidence    float64                    `json:"confidence"`
	Reply         string                     `json:"reply"`
	Result        *core.CalculationResult    `json:"result,omitempty"`
	Clarification *core.ClarificationRequest `json:"clarification,omitempty"`
}

// PropertyListResult is returned by ListProperties.
type PropertyListResult struct {
	Properties []string `json:"properties"`
}

// TenantListResult is returned by ListTenants.
type TenantListResult struct {
	Tenants []string `json:"tenants"`
}
