package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"portfolio-agent/internal/core"
)

func TestRuleClassifier(t *testing.T) {
	c := core.NewRuleClassifier()

	tests := []struct {
		text string
		want core.IntentLabel
	}{
		{"compare P&L for Building 120 and Building 121 this year", core.IntentCompareProperties},
		{"Building 120 vs Building 121", core.IntentCompareProperties},
		{"what's the P&L?", core.IntentPortfolioSummary},
		{"total P&L for all properties", core.IntentPortfolioSummary},
		{"net profit across the entire portfolio", core.IntentPortfolioSummary},
		{"P&L for 123 Main St", core.IntentPropertySummary},
		{"P&L for Buildng 120", core.IntentPropertySummary},
		{"revenue for Building 120 in 2024", core.IntentPropertySummary},
		{"top expenses for Building 120", core.IntentExpenseAnalysis},
		{"top 5 expenses for Building 120", core.IntentExpenseAnalysis},
		{"top 3 costs for Q4 2024", core.IntentExpenseAnalysis},
		{"expense breakdown by category", core.IntentExpenseAnalysis},
		{"what properties do you have", core.IntentListProperties},
		{"show all properties", core.IntentListProperties},
		{"tell me about Building 120", core.IntentAssetDetails},
		{"P&L for Tenant 8", core.IntentTenantSummary},
		{"what about 2024?", core.IntentPropertySummary},
		{"how is the weather today", core.IntentUnknown},
		{"", core.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.text)
			assert.Equal(t, tt.want, got.Intent)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
		})
	}
}

// Off-domain input must downgrade to unknown with low confidence, never fail.
func TestRuleClassifier_UnknownIsLowConfidence(t *testing.T) {
	c := core.NewRuleClassifier()
	got := c.Classify(context.Background(), "übersetze das bitte ins Deutsche")
	assert.Equal(t, core.IntentUnknown, got.Intent)
	assert.Less(t, got.Confidence, core.DefaultMinConfidence)
}
