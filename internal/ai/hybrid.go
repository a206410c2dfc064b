package ai

import (
	"context"
	"time"

	"portfolio-agent/internal/core"

	"go.uber.org/zap"
)

// DefaultCallTimeout bounds each model call so a slow upstream never stalls
// a conversation turn past what a chat surface tolerates.
const DefaultCallTimeout = 8 * time.Second

// intentModel and slotModel are the slices of Agent the hybrids depend on.
type intentModel interface {
	ClassifyIntent(ctx context.Context, text string) (core.Classification, error)
}

type slotModel interface {
	ExtractSlots(ctx context.Context, text string) (core.SlotSet, error)
}

// HybridClassifier routes intent classification through the model and falls
// back to the rule-based classifier on any error or timeout. The fallback
// keeps the pipeline fully functional with no API key configured upstream.
type HybridClassifier struct {
	agent    intentModel
	fallback core.IntentClassifier
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHybridClassifier wraps agent with a rule-based fallback.
func NewHybridClassifier(agent intentModel, fallback core.IntentClassifier, logger *zap.Logger) *HybridClassifier {
	return &HybridClassifier{
		agent:    agent,
		fallback: fallback,
		timeout:  DefaultCallTimeout,
		logger:   logger,
	}
}

func (h *HybridClassifier) Classify(ctx context.Context, text string) core.Classification {
	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	cls, err := h.agent.ClassifyIntent(cctx, text)
	if err != nil {
		h.logger.Warn("intent model call failed, using rules", zap.Error(err))
		return h.fallback.Classify(ctx, text)
	}
	return cls
}

// HybridExtractor routes slot extraction through the model, applying the
// same carry-over merge as the rule-based extractor so a model-backed run
// resolves follow-ups identically. Any error falls back to the rules.
type HybridExtractor struct {
	agent    slotModel
	fallback core.SlotExtractor
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHybridExtractor wraps agent with a rule-based fallback.
func NewHybridExtractor(agent slotModel, fallback core.SlotExtractor, logger *zap.Logger) *HybridExtractor {
	return &HybridExtractor{
		agent:    agent,
		fallback: fallback,
		timeout:  DefaultCallTimeout,
		logger:   logger,
	}
}

func (h *HybridExtractor) Extract(ctx context.Context, text string, intent core.IntentLabel, prior core.SlotSet, ref core.Period) core.SlotSet {
	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	fresh, err := h.agent.ExtractSlots(cctx, text)
	if err != nil {
		h.logger.Warn("slot model call failed, using rules", zap.Error(err))
		return h.fallback.Extract(ctx, text, intent, prior, ref)
	}
	if fresh.Period.IsZero() {
		// The model never sees the wall clock; relative phrases like
		// "this year" still need the reference period to resolve.
		fresh.Period = core.ResolvePeriod(text, ref)
	}
	return core.MergeSlots(intent, fresh, prior)
}
