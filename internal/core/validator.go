package core

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Fuzzy matching tunables. Threshold and tie margin are deliberate
// configuration constants: the acceptance threshold is the minimum
// normalized similarity for an automatic correction, and the tie margin is
// the band below the best score inside which a second candidate makes the
// match ambiguous instead of auto-resolved.
const (
	DefaultFuzzyThreshold = 0.72
	DefaultFuzzyTieMargin = 0.05
	DefaultMaxSuggestions = 3
	DefaultMinConfidence  = 0.5
	defaultExpenseTopN    = 8
	maxExpenseTopN        = 20
)

// Validator resolves raw entity names against a catalog snapshot. It is a
// pure function of its inputs: no state beyond the tunables, no side effects.
type Validator struct {
	threshold      float64
	tieMargin      float64
	maxSuggestions int
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithFuzzyThreshold sets the minimum similarity for automatic resolution.
func WithFuzzyThreshold(t float64) ValidatorOption {
	return func(v *Validator) { v.threshold = t }
}

// WithTieMargin sets the ambiguity band below the best candidate's score.
func WithTieMargin(m float64) ValidatorOption {
	return func(v *Validator) { v.tieMargin = m }
}

// WithMaxSuggestions caps the nearest-candidate list on validation failure.
func WithMaxSuggestions(n int) ValidatorOption {
	return func(v *Validator) { v.maxSuggestions = n }
}

// NewValidator constructs a Validator with the default tunables.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		threshold:      DefaultFuzzyThreshold,
		tieMargin:      DefaultFuzzyTieMargin,
		maxSuggestions: DefaultMaxSuggestions,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// normalizeName case-folds and collapses interior whitespace so that
// "building  120" and "Building 120" compare equal.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity is the normalized Levenshtein ratio between two names in [0, 1].
// Identical names (after normalization) score exactly 1.0, which makes
// matching idempotent: a correct catalog name always resolves to itself.
func Similarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == nb {
		return 1.0
	}
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(na, nb)
	return 1.0 - float64(dist)/float64(longest)
}

// rank scores every catalog entry against name, sorted by similarity
// descending. Equal scores keep catalog insertion order.
func (v *Validator) rank(name string, catalog []string) []MatchCandidate {
	ranked := make([]MatchCandidate, 0, len(catalog))
	for _, entry := range catalog {
		ranked = append(ranked, MatchCandidate{Name: entry, Similarity: Similarity(name, entry)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked
}

// resolveOne validates a single raw name against the catalog. It returns the
// canonical name on success, or a SlotIssue describing the failure.
func (v *Validator) resolveOne(slot, name string, catalog []string) (string, *SlotIssue) {
	ranked := v.rank(name, catalog)
	if len(ranked) == 0 {
		return "", &SlotIssue{Slot: slot, Kind: IssueUnresolved, Attempted: name}
	}

	best := ranked[0]
	if best.Similarity >= 1.0 {
		return best.Name, nil
	}
	if best.Similarity < v.threshold {
		return "", &SlotIssue{
			Slot:       slot,
			Kind:       IssueUnresolved,
			Attempted:  name,
			Candidates: v.clip(ranked),
		}
	}

	// Best clears the threshold. Refuse to auto-pick when a distinct second
	// candidate sits within the tie margin: ambiguity routes to the user.
	var tied []MatchCandidate
	for _, c := range ranked {
		if best.Similarity-c.Similarity <= v.tieMargin {
			tied = append(tied, c)
		}
	}
	if len(tied) > 1 {
		return "", &SlotIssue{
			Slot:       slot,
			Kind:       IssueAmbiguous,
			Attempted:  name,
			Candidates: tied,
		}
	}
	return best.Name, nil
}

func (v *Validator) clip(ranked []MatchCandidate) []MatchCandidate {
	if len(ranked) > v.maxSuggestions {
		ranked = ranked[:v.maxSuggestions]
	}
	out := make([]MatchCandidate, len(ranked))
	copy(out, ranked)
	return out
}

// ResolveNames validates each raw name independently and aggregates the
// failures, so a multi-entity request reports every bad name in one pass.
func (v *Validator) ResolveNames(slot string, raw, catalog []string) ([]string, []SlotIssue) {
	var resolved []string
	var issues []SlotIssue
	seen := make(map[string]struct{})
	for _, name := range raw {
		canonical, issue := v.resolveOne(slot, name, catalog)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		resolved = append(resolved, canonical)
	}
	return resolved, issues
}

// requiredProperties returns the minimum number of resolved properties the
// intent demands. portfolio_summary and friends default to "all properties"
// by design, so an absent property slot is valid for them.
func requiredProperties(intent IntentLabel) int {
	switch intent {
	case IntentCompareProperties:
		return 2
	case IntentPropertySummary, IntentAssetDetails:
		return 1
	default:
		return 0
	}
}

// Check resolves every entity slot in the set against the given catalogs and
// verifies completeness relative to the intent. On success it returns the
// slot set with canonical entity names; otherwise a ClarificationRequest
// naming every missing, unresolved, or ambiguous slot.
func (v *Validator) Check(intent IntentLabel, slots SlotSet, properties, tenants []string) (SlotSet, *ClarificationRequest) {
	resolved := slots

	var issues []SlotIssue
	resolved.Properties, issues = v.ResolveNames("property", slots.Properties, properties)

	// Tenant names are checked only where the calculation reads them. A
	// spurious tenant capture must not block an unrelated property question;
	// it rides along unvalidated as carry-over for a later tenant turn.
	if intent == IntentTenantSummary {
		tenantResolved, tenantIssues := v.ResolveNames("tenant", slots.Tenants, tenants)
		resolved.Tenants = tenantResolved
		issues = append(issues, tenantIssues...)
	}

	if len(issues) > 0 {
		return slots, &ClarificationRequest{Reason: reasonFor(issues), Issues: issues}
	}

	if need := requiredProperties(intent); len(resolved.Properties) < need {
		issue := SlotIssue{Slot: "property", Kind: IssueMissing, Candidates: v.suggestCatalog(properties)}
		return slots, &ClarificationRequest{Reason: ClarifyIncompleteSlots, Issues: []SlotIssue{issue}}
	}
	if intent == IntentTenantSummary && len(resolved.Tenants) == 0 {
		issue := SlotIssue{Slot: "tenant", Kind: IssueMissing, Candidates: v.suggestCatalog(tenants)}
		return slots, &ClarificationRequest{Reason: ClarifyIncompleteSlots, Issues: []SlotIssue{issue}}
	}
	return resolved, nil
}

// reasonFor picks the clarification reason: ambiguity wins over plain
// unresolvability because the user must disambiguate before anything else.
func reasonFor(issues []SlotIssue) ClarifyReason {
	for _, is := range issues {
		if is.Kind == IssueAmbiguous {
			return ClarifyAmbiguousEntity
		}
	}
	return ClarifyUnresolvableEntity
}

// suggestCatalog offers the first few catalog entries as examples when a
// required slot is entirely absent.
func (v *Validator) suggestCatalog(catalog []string) []MatchCandidate {
	n := v.maxSuggestions
	if len(catalog) < n {
		n = len(catalog)
	}
	out := make([]MatchCandidate, 0, n)
	for _, name := range catalog[:n] {
		out = append(out, MatchCandidate{Name: name, Similarity: 0})
	}
	return out
}
