package core

import (
	"context"
	"strings"
)

// IntentClassifier maps free-text queries onto the closed intent taxonomy.
// Implementations must never fail: off-domain or unreadable input maps to
// IntentUnknown with low confidence, and the orchestrator treats anything
// below its confidence threshold the same way.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) Classification
}

// RuleClassifier is the deterministic keyword-rule classifier. It is a pure
// function of the query text and the static taxonomy below; rules are
// checked in a fixed priority order so classification is reproducible.
type RuleClassifier struct{}

// NewRuleClassifier constructs the rule-based classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

var (
	compareCues = []string{"compare", " vs ", " vs. ", "versus", "difference between", "side by side"}

	expenseAnalysisCues = []string{
		"top expense", "biggest expense", "largest expense", "expense breakdown",
		"break down", "breakdown", "expense analysis", "largest cost", "biggest cost",
		"where does the money go", "spending breakdown",
	}

	listCues = []string{
		"list propert", "list of propert", "list all", "what properties",
		"which properties", "show all propert", "show propert", "all buildings",
		"show all building", "what buildings", "which buildings",
	}

	detailCues = []string{"tell me about", "details for", "details on", "detail for", "information about", "information on", "describe"}

	portfolioCues = []string{"portfolio", "all properties", "all my properties", "entire", "overall", "everything", "across the board", "in total", "total"}

	followUpCues = []string{"what about", "how about", "same for", "and for"}
)

func containsAny(lower string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

func hasMetricCue(lower string) bool {
	for _, kw := range netKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	for _, kw := range expenseKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	for _, kw := range revenueKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// Classify implements IntentClassifier.
func (c *RuleClassifier) Classify(_ context.Context, text string) Classification {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return Classification{Intent: IntentUnknown, Confidence: 0}
	}

	switch {
	case containsAny(lower, compareCues):
		return Classification{Intent: IntentCompareProperties, Confidence: 0.9}

	case (containsAny(lower, expenseAnalysisCues) || extractTopN(lower) > 0) && containsWordAny(lower, expenseKeywords):
		// "top expenses" and counted forms like "top 5 expenses" both rank.
		return Classification{Intent: IntentExpenseAnalysis, Confidence: 0.85}

	case containsAny(lower, listCues) && !hasMetricCue(lower):
		return Classification{Intent: IntentListProperties, Confidence: 0.85}

	case containsWord(lower, "tenant") || containsWord(lower, "tenants"):
		return Classification{Intent: IntentTenantSummary, Confidence: 0.8}

	case containsAny(lower, detailCues) && hasEntityCue(text):
		return Classification{Intent: IntentAssetDetails, Confidence: 0.8}

	case containsAny(lower, portfolioCues) && hasMetricCue(lower):
		return Classification{Intent: IntentPortfolioSummary, Confidence: 0.85}

	case containsAny(lower, followUpCues):
		// Follow-ups narrow the previous question; prior slots fill the rest.
		return Classification{Intent: IntentPropertySummary, Confidence: 0.6}

	case hasMetricCue(lower) && hasEntityCue(text):
		return Classification{Intent: IntentPropertySummary, Confidence: 0.75}

	case hasMetricCue(lower):
		// A bare metric question scopes to the whole portfolio — summary of
		// everything is a valid default, so this is not a clarify path.
		return Classification{Intent: IntentPortfolioSummary, Confidence: 0.7}
	}

	return Classification{Intent: IntentUnknown, Confidence: 0.2}
}

func containsWordAny(lower string, kws []string) bool {
	for _, kw := range kws {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}
