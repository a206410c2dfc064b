package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-agent/internal/core"
)

func testPipeline(t *testing.T) (*core.Pipeline, *core.Dataset) {
	t.Helper()
	ds := testDataset(t)
	return core.NewPipeline(ds, core.NewValidator()), ds
}

func TestPipeline_CompareScenario(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	res := p.Turn(context.Background(), state, "compare P&L for Building 120 and Building 121 this year", ref)

	require.Nil(t, res.Clarification)
	require.NotNil(t, res.Result)
	assert.Equal(t, core.IntentCompareProperties, res.Intent)
	assert.Equal(t, []string{"Building 120", "Building 121"}, res.Result.Scope.Properties)
	assert.Equal(t, core.Period{Year: 2025}, res.Result.Scope.Period, "this year resolves against the reference period")
	require.Len(t, res.Result.PerProperty, 2)
	require.Len(t, res.Result.Deltas, 1)
	assert.True(t, res.Result.Deltas[0].Value.Equal(
		res.Result.PerProperty[0].PNL.Net.Sub(res.Result.PerProperty[1].PNL.Net)))
}

func TestPipeline_BarePnLIsPortfolioWide(t *testing.T) {
	p, ds := testPipeline(t)
	state := core.NewConversationState("s1")

	res := p.Turn(context.Background(), state, "what's the P&L?", ref)

	require.Nil(t, res.Clarification, "portfolio summary must not clarify on a missing property")
	require.NotNil(t, res.Result)
	assert.Equal(t, core.IntentPortfolioSummary, res.Intent)
	assert.Empty(t, res.Result.Scope.Properties)
	whole := ds.ProfitAndLoss(core.RowFilter{})
	assert.True(t, res.Result.Totals.Net.Equal(whole.Net), "scope equals the full catalog")
}

func TestPipeline_UnresolvablePropertyClarifies(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	res := p.Turn(context.Background(), state, "P&L for 123 Main St", ref)

	require.Nil(t, res.Result, "no calculation for an unresolvable entity")
	require.NotNil(t, res.Clarification)
	assert.Equal(t, core.ClarifyUnresolvableEntity, res.Clarification.Reason)
	require.Len(t, res.Clarification.Issues, 1)
	assert.Equal(t, "123 Main St", res.Clarification.Issues[0].Attempted)
	assert.NotEmpty(t, res.Clarification.Issues[0].Candidates, "nearest real names suggested")
}

func TestPipeline_MisspelledPropertyResolvesViaFuzzyMatch(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	res := p.Turn(context.Background(), state, "P&L for Buildng 120", ref)

	require.Nil(t, res.Clarification)
	require.NotNil(t, res.Result)
	assert.Equal(t, []string{"Building 120"}, res.Result.Scope.Properties)
}

func TestPipeline_AmbiguousTieClarifies(t *testing.T) {
	rows := []core.LedgerRow{
		{Property: "Building 12", Period: core.Period{Year: 2024}, Category: core.CategoryRevenue, Amount: dec("10.00")},
		{Property: "Building 13", Period: core.Period{Year: 2024}, Category: core.CategoryRevenue, Amount: dec("20.00")},
	}
	ds, err := core.NewDataset(rows)
	require.NoError(t, err)
	p := core.NewPipeline(ds, core.NewValidator())
	state := core.NewConversationState("s1")

	res := p.Turn(context.Background(), state, "P&L for Buildding 1", ref)

	require.Nil(t, res.Result)
	require.NotNil(t, res.Clarification)
	assert.Equal(t, core.ClarifyAmbiguousEntity, res.Clarification.Reason)
	require.Len(t, res.Clarification.Issues, 1)
	assert.Len(t, res.Clarification.Issues[0].Candidates, 2, "both tied candidates listed, none auto-picked")
}

func TestPipeline_UnknownIntentClarifies(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	res := p.Turn(context.Background(), state, "how is the weather today", ref)

	require.Nil(t, res.Result)
	require.NotNil(t, res.Clarification)
	assert.Equal(t, core.IntentUnknown, res.Intent)
	assert.Equal(t, core.ClarifyUnknownIntent, res.Clarification.Reason)
}

func TestPipeline_MissingPropertyClarifiesForPropertySummary(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	// A follow-up with no prior slots has nothing to carry over.
	res := p.Turn(context.Background(), state, "what about 2024?", ref)

	require.Nil(t, res.Result)
	require.NotNil(t, res.Clarification)
	assert.Equal(t, core.ClarifyIncompleteSlots, res.Clarification.Reason)
}

func TestPipeline_SlotCarryOverAcrossTurns(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	first := p.Turn(context.Background(), state, "P&L for Building 120", ref)
	require.NotNil(t, first.Result)

	second := p.Turn(context.Background(), state, "what about 2024?", ref)
	require.Nil(t, second.Clarification)
	require.NotNil(t, second.Result)
	assert.Equal(t, []string{"Building 120"}, second.Result.Scope.Properties, "property carried over")
	assert.Equal(t, core.Period{Year: 2024}, second.Result.Scope.Period, "period narrowed by the follow-up")
	assert.True(t, second.Result.Totals.Net.Equal(dec("1750.25")))
}

func TestPipeline_OffDomainTurnKeepsCarryOver(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	first := p.Turn(context.Background(), state, "P&L for Building 120", ref)
	require.NotNil(t, first.Result)

	interjection := p.Turn(context.Background(), state, "how is the weather today", ref)
	require.NotNil(t, interjection.Clarification)
	assert.Equal(t, core.ClarifyUnknownIntent, interjection.Clarification.Reason)
	assert.Equal(t, []string{"Building 120"}, state.Slots.Properties,
		"an off-domain turn does not erase the conversation subject")

	third := p.Turn(context.Background(), state, "what about 2024?", ref)
	require.Nil(t, third.Clarification)
	require.NotNil(t, third.Result)
	assert.Equal(t, []string{"Building 120"}, third.Result.Scope.Properties)
	assert.Equal(t, core.Period{Year: 2024}, third.Result.Scope.Period)
	assert.True(t, third.Result.Totals.Net.Equal(dec("1750.25")))
}

func TestPipeline_StateMutatedOncePerTurn(t *testing.T) {
	p, _ := testPipeline(t)
	state := core.NewConversationState("s1")

	p.Turn(context.Background(), state, "P&L for Building 120", ref)

	require.Len(t, state.Messages, 1)
	assert.Equal(t, core.RoleUser, state.Messages[0].Role)
	assert.Equal(t, []string{"Building 120"}, state.Slots.Properties)
	require.NotNil(t, state.LastResult)
}

func TestPipeline_LowConfidenceTreatedAsUnknown(t *testing.T) {
	ds := testDataset(t)
	p := core.NewPipeline(ds, core.NewValidator(), core.WithMinConfidence(0.99))
	state := core.NewConversationState("s1")

	res := p.Turn(context.Background(), state, "P&L for Building 120", ref)

	require.Nil(t, res.Result)
	require.NotNil(t, res.Clarification)
	assert.Equal(t, core.ClarifyUnknownIntent, res.Clarification.Reason)
	assert.Equal(t, []string{"Building 120"}, state.Slots.Properties,
		"slots extracted even for low-confidence turns")
}
