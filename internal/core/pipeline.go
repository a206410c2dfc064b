package core

import "context"

// Stage names the orchestrator's states. The transition table is fixed:
//
//	Start → Classify → Extract → Validate → Calculate → Respond → End
//	                                      ↘ Clarify ———————————→ End
//
// Every turn walks this sequence; the only branch is Validate choosing the
// clarify path when the request cannot be completed.
type Stage string

const (
	StageStart     Stage = "start"
	StageClassify  Stage = "classify"
	StageExtract   Stage = "extract"
	StageValidate  Stage = "validate"
	StageCalculate Stage = "calculate"
	StageRespond   Stage = "respond"
	StageClarify   Stage = "clarify"
	StageEnd       Stage = "end"
)

// TurnResult is the terminal outcome of one pipeline turn: exactly one of
// Result or Clarification is set.
type TurnResult struct {
	Intent        IntentLabel           `json:"intent"`
	Confidence    float64               `json:"confidence"`
	Result        *CalculationResult    `json:"result,omitempty"`
	Clarification *ClarificationRequest `json:"clarification,omitempty"`
}

// Pipeline sequences the stages for one conversation turn. The dataset is
// shared and read-only; per-session state travels in the ConversationState
// the caller owns. Stages never fail for malformed input — the classifier
// downgrades to unknown, the extractor leaves slots empty, and the validator
// routes the gaps to clarification.
type Pipeline struct {
	classifier    IntentClassifier
	extractor     SlotExtractor
	validator     *Validator
	engine        *Engine
	ds            *Dataset
	minConfidence float64
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithMinConfidence sets the classifier confidence floor below which a turn
// is treated as unknown intent.
func WithMinConfidence(c float64) PipelineOption {
	return func(p *Pipeline) { p.minConfidence = c }
}

// WithClassifier swaps the intent classifier, e.g. for an LLM-backed one.
func WithClassifier(c IntentClassifier) PipelineOption {
	return func(p *Pipeline) { p.classifier = c }
}

// WithExtractor swaps the slot extractor.
func WithExtractor(e SlotExtractor) PipelineOption {
	return func(p *Pipeline) { p.extractor = e }
}

// NewPipeline wires the orchestrator over a loaded dataset. Defaults use the
// deterministic rule-based classifier and extractor.
func NewPipeline(ds *Dataset, validator *Validator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		classifier:    NewRuleClassifier(),
		extractor:     NewRuleExtractor(),
		validator:     validator,
		engine:        NewEngine(ds),
		ds:            ds,
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Turn runs one user query through the stage sequence and mutates state
// exactly once: the user message is appended on entry, and on exit the
// merged slot set and last result are stored for the next turn's carry-over.
// ref anchors relative period terms for this turn.
func (p *Pipeline) Turn(ctx context.Context, state *ConversationState, text string, ref Period) TurnResult {
	state.Append(RoleUser, text)

	// Classify.
	cls := p.classifier.Classify(ctx, text)

	// Extract — always, even for unknown intent: slots may still be
	// salvageable as carry-over for the next turn.
	slots := p.extractor.Extract(ctx, text, cls.Intent, state.Slots, ref)

	// Unknown or low-confidence intent short-circuits to clarify, but the
	// extracted slots are kept so a restated question can reuse them. The
	// merge above drops entity slots for non-entity intents, so inherit
	// them back here: an off-domain interjection must not erase the
	// conversation's subject for the next follow-up.
	if cls.Intent == IntentUnknown || cls.Confidence < p.minConfidence {
		if len(slots.Properties) == 0 {
			slots.Properties = append([]string(nil), state.Slots.Properties...)
		}
		if len(slots.Tenants) == 0 {
			slots.Tenants = append([]string(nil), state.Slots.Tenants...)
		}
		state.Slots = slots
		return TurnResult{
			Intent:     IntentUnknown,
			Confidence: cls.Confidence,
			Clarification: &ClarificationRequest{
				Reason: ClarifyUnknownIntent,
				Issues: []SlotIssue{{Slot: "intent", Kind: IssueMissing}},
			},
		}
	}

	// Validate.
	resolved, clarify := p.validator.Check(cls.Intent, slots, p.ds.Properties(), p.ds.Tenants())
	if clarify != nil {
		state.Slots = slots
		return TurnResult{Intent: cls.Intent, Confidence: cls.Confidence, Clarification: clarify}
	}

	// Calculate → Respond.
	result := p.engine.Run(cls.Intent, resolved)
	state.Slots = result.Scope
	state.LastResult = result
	return TurnResult{Intent: cls.Intent, Confidence: cls.Confidence, Result: result}
}
