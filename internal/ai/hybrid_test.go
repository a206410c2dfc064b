package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-agent/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubIntentModel struct {
	cls core.Classification
	err error
}

func (s stubIntentModel) ClassifyIntent(context.Context, string) (core.Classification, error) {
	return s.cls, s.err
}

type stubSlotModel struct {
	slots core.SlotSet
	err   error
}

func (s stubSlotModel) ExtractSlots(context.Context, string) (core.SlotSet, error) {
	return s.slots, s.err
}

func TestHybridClassifierUsesModelAnswer(t *testing.T) {
	h := NewHybridClassifier(
		stubIntentModel{cls: core.Classification{Intent: core.IntentCompareProperties, Confidence: 0.93}},
		core.NewRuleClassifier(),
		zap.NewNop(),
	)

	got := h.Classify(context.Background(), "gibberish the rules would never route")
	assert.Equal(t, core.IntentCompareProperties, got.Intent)
	assert.InDelta(t, 0.93, got.Confidence, 1e-9)
}

func TestHybridClassifierFallsBackOnError(t *testing.T) {
	h := NewHybridClassifier(
		stubIntentModel{err: errors.New("upstream down")},
		core.NewRuleClassifier(),
		zap.NewNop(),
	)

	got := h.Classify(context.Background(), "compare Building 120 and Building 121")
	assert.Equal(t, core.IntentCompareProperties, got.Intent)
}

func TestHybridExtractorMergesCarryOver(t *testing.T) {
	h := NewHybridExtractor(
		stubSlotModel{slots: core.SlotSet{Metric: core.CategoryRevenue}},
		core.NewRuleExtractor(),
		zap.NewNop(),
	)

	prior := core.SlotSet{Properties: []string{"Building 120"}, Period: core.Period{Year: 2024}}
	got := h.Extract(context.Background(), "what about revenue?", core.IntentPropertySummary, prior, core.Period{Year: 2025, Month: time.June})

	assert.Equal(t, []string{"Building 120"}, got.Properties)
	assert.Equal(t, core.Period{Year: 2024}, got.Period)
	assert.Equal(t, core.CategoryRevenue, got.Metric)
}

func TestHybridExtractorResolvesRelativePeriods(t *testing.T) {
	h := NewHybridExtractor(
		stubSlotModel{slots: core.SlotSet{Properties: []string{"Building 120"}}},
		core.NewRuleExtractor(),
		zap.NewNop(),
	)

	ref := core.Period{Year: 2025, Month: time.June}
	got := h.Extract(context.Background(), "P&L for Building 120 this year", core.IntentPropertySummary, core.SlotSet{}, ref)
	assert.Equal(t, core.Period{Year: 2025}, got.Period)
}

func TestHybridExtractorFallsBackOnError(t *testing.T) {
	h := NewHybridExtractor(
		stubSlotModel{err: errors.New("timeout")},
		core.NewRuleExtractor(),
		zap.NewNop(),
	)

	got := h.Extract(context.Background(), "P&L for Building 120 in 2024", core.IntentPropertySummary, core.SlotSet{}, core.Period{Year: 2025, Month: time.June})
	assert.Equal(t, []string{"Building 120"}, got.Properties)
	assert.Equal(t, core.Period{Year: 2024}, got.Period)
}

func TestSlotOutConversion(t *testing.T) {
	out := slotOut{
		Properties: []string{" Building 120 ", ""},
		Tenants:    []string{"Tenant 8"},
		Quarter:    "2024-Q4",
		Metric:     "net",
		TopN:       5,
	}
	slots, err := out.toSlots()
	require.NoError(t, err)
	assert.Equal(t, []string{"Building 120"}, slots.Properties)
	assert.Equal(t, []string{"Tenant 8"}, slots.Tenants)
	assert.Equal(t, core.Period{Year: 2024, Quarter: 4}, slots.Period)
	assert.Empty(t, slots.Metric)
	assert.Equal(t, 5, slots.TopN)
}

func TestSlotOutConversionMonthAndBadCodes(t *testing.T) {
	slots, err := slotOut{Month: "2025-M02", Metric: "expense"}.toSlots()
	require.NoError(t, err)
	assert.Equal(t, core.Period{Year: 2025, Month: time.February}, slots.Period)
	assert.Equal(t, core.CategoryExpense, slots.Metric)

	_, err = slotOut{Quarter: "Q9"}.toSlots()
	assert.Error(t, err)

	_, err = slotOut{Month: "2025-13"}.toSlots()
	assert.Error(t, err)
}
