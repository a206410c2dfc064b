package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-agent/internal/core"
)

func TestSimilarity_ExactMatchIsOne(t *testing.T) {
	assert.Equal(t, 1.0, core.Similarity("Building 120", "Building 120"))
	assert.Equal(t, 1.0, core.Similarity("building  120", "Building 120"), "case and spacing fold")
}

func TestValidator_ExactMatchIsIdempotent(t *testing.T) {
	v := core.NewValidator()
	catalog := []string{"Building 120", "Building 121"}

	resolved, issues := v.ResolveNames("property", []string{"building 120"}, catalog)
	require.Empty(t, issues)
	assert.Equal(t, []string{"Building 120"}, resolved)
}

func TestValidator_MisspellingResolvesAboveThreshold(t *testing.T) {
	v := core.NewValidator()
	catalog := []string{"Building 120", "Building 121"}

	resolved, issues := v.ResolveNames("property", []string{"Buildng 120"}, catalog)
	require.Empty(t, issues)
	assert.Equal(t, []string{"Building 120"}, resolved)
}

func TestValidator_NoMatchReportsNearestCandidates(t *testing.T) {
	v := core.NewValidator(core.WithMaxSuggestions(2))
	catalog := []string{"Building 120", "Building 121", "Tower A"}

	resolved, issues := v.ResolveNames("property", []string{"123 Main St"}, catalog)
	assert.Empty(t, resolved)
	require.Len(t, issues, 1)
	assert.Equal(t, core.IssueUnresolved, issues[0].Kind)
	assert.Equal(t, "123 Main St", issues[0].Attempted)
	require.Len(t, issues[0].Candidates, 2, "suggestions capped at N")
	assert.GreaterOrEqual(t, issues[0].Candidates[0].Similarity, issues[0].Candidates[1].Similarity,
		"candidates sorted by similarity descending")
}

func TestValidator_TieWithinMarginIsAmbiguous(t *testing.T) {
	v := core.NewValidator()
	// "Building 1" is equidistant from both catalog names.
	catalog := []string{"Building 12", "Building 13"}

	resolved, issues := v.ResolveNames("property", []string{"Building 1"}, catalog)
	assert.Empty(t, resolved)
	require.Len(t, issues, 1)
	assert.Equal(t, core.IssueAmbiguous, issues[0].Kind)
	require.Len(t, issues[0].Candidates, 2, "all tied candidates listed")
	assert.Equal(t, "Building 12", issues[0].Candidates[0].Name, "ties keep catalog insertion order")
	assert.Equal(t, "Building 13", issues[0].Candidates[1].Name)
}

func TestValidator_MultiNameFailuresAggregated(t *testing.T) {
	v := core.NewValidator()
	catalog := []string{"Building 120", "Building 121"}

	resolved, issues := v.ResolveNames("property", []string{"Buildng 120", "5 Elm Rd", "99 Oak Way"}, catalog)
	assert.Equal(t, []string{"Building 120"}, resolved)
	require.Len(t, issues, 2, "every failing name reported together")
}

func TestValidator_Check(t *testing.T) {
	v := core.NewValidator()
	properties := []string{"Building 120", "Building 121"}
	tenants := []string{"Tenant 8"}

	tests := []struct {
		name       string
		intent     core.IntentLabel
		slots      core.SlotSet
		wantClarify bool
		wantReason core.ClarifyReason
	}{
		{
			name:       "portfolio summary never requires a property",
			intent:     core.IntentPortfolioSummary,
			slots:      core.SlotSet{},
			wantClarify: false,
		},
		{
			name:       "property summary without property clarifies",
			intent:     core.IntentPropertySummary,
			slots:      core.SlotSet{},
			wantClarify: true,
			wantReason: core.ClarifyIncompleteSlots,
		},
		{
			name:       "compare with one property clarifies",
			intent:     core.IntentCompareProperties,
			slots:      core.SlotSet{Properties: []string{"Building 120"}},
			wantClarify: true,
			wantReason: core.ClarifyIncompleteSlots,
		},
		{
			name:       "compare with two resolvable properties passes",
			intent:     core.IntentCompareProperties,
			slots:      core.SlotSet{Properties: []string{"building 120", "Buildng 121"}},
			wantClarify: false,
		},
		{
			name:       "unresolvable property clarifies with suggestions",
			intent:     core.IntentPropertySummary,
			slots:      core.SlotSet{Properties: []string{"123 Main St"}},
			wantClarify: true,
			wantReason: core.ClarifyUnresolvableEntity,
		},
		{
			name:       "tenant summary without tenant clarifies",
			intent:     core.IntentTenantSummary,
			slots:      core.SlotSet{},
			wantClarify: true,
			wantReason: core.ClarifyIncompleteSlots,
		},
		{
			name:       "list properties needs nothing",
			intent:     core.IntentListProperties,
			slots:      core.SlotSet{},
			wantClarify: false,
		},
		{
			name:       "stray tenant capture never blocks a property question",
			intent:     core.IntentPropertySummary,
			slots:      core.SlotSet{Properties: []string{"Building 120"}, Tenants: []string{"Acme Corp"}},
			wantClarify: false,
		},
		{
			name:       "tenant summary still validates the tenant name",
			intent:     core.IntentTenantSummary,
			slots:      core.SlotSet{Tenants: []string{"Acme Corp"}},
			wantClarify: true,
			wantReason: core.ClarifyUnresolvableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, clarify := v.Check(tt.intent, tt.slots, properties, tenants)
			if tt.wantClarify {
				require.NotNil(t, clarify)
				assert.Equal(t, tt.wantReason, clarify.Reason)
				return
			}
			require.Nil(t, clarify)
			for _, p := range resolved.Properties {
				assert.Contains(t, properties, p, "resolved names must be canonical")
			}
		})
	}
}

func TestValidator_ThresholdTunable(t *testing.T) {
	strict := core.NewValidator(core.WithFuzzyThreshold(0.99))
	catalog := []string{"Building 120"}

	_, issues := strict.ResolveNames("property", []string{"Buildng 120"}, catalog)
	require.Len(t, issues, 1, "raised threshold rejects the near miss")
	assert.Equal(t, core.IssueUnresolved, issues[0].Kind)
}
