package core

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SlotExtractor maps a free-text query plus the current intent to a SlotSet.
// Property references are extracted by name shape only — catalog membership
// is deliberately checked later, in the validator, so that "nothing looked
// like a property" and "that property does not exist" clarify differently.
// prior seeds carry-over from the previous turn; ref anchors relative
// period terms like "this year".
type SlotExtractor interface {
	Extract(ctx context.Context, text string, intent IntentLabel, prior SlotSet, ref Period) SlotSet
}

// RuleExtractor is the deterministic, rule-based SlotExtractor. It is a pure
// function of its inputs and never fails: anything it cannot read is simply
// left unset for the validator to flag.
type RuleExtractor struct{}

// NewRuleExtractor constructs the rule-based extractor.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// Extract implements SlotExtractor.
func (e *RuleExtractor) Extract(_ context.Context, text string, intent IntentLabel, prior SlotSet, ref Period) SlotSet {
	fresh := SlotSet{
		Period:      ResolvePeriod(text, ref),
		Metric:      extractMetric(text),
		BreakdownBy: extractBreakdown(text),
		TopN:        extractTopN(text),
	}
	fresh.Properties, fresh.Tenants = extractEntities(text)
	return MergeSlots(intent, fresh, prior)
}

// MergeSlots applies carry-over: fresh values win, otherwise the prior
// turn's slots persist so follow-up questions keep their subject. Intents
// that explicitly scope to the whole portfolio never inherit entity slots —
// "all properties" means all properties, not last turn's one.
func MergeSlots(intent IntentLabel, fresh, prior SlotSet) SlotSet {
	merged := fresh

	inheritsEntities := intent == IntentPropertySummary ||
		intent == IntentCompareProperties ||
		intent == IntentAssetDetails ||
		intent == IntentExpenseAnalysis
	if len(merged.Properties) == 0 && inheritsEntities {
		merged.Properties = append([]string(nil), prior.Properties...)
	}
	if len(merged.Tenants) == 0 && intent == IntentTenantSummary {
		merged.Tenants = append([]string(nil), prior.Tenants...)
	}
	if merged.Period.IsZero() {
		merged.Period = prior.Period
	}
	if merged.Metric == "" {
		merged.Metric = prior.Metric
	}
	if merged.BreakdownBy == "" {
		merged.BreakdownBy = prior.BreakdownBy
	}
	if merged.TopN == 0 {
		merged.TopN = prior.TopN
	}
	return merged
}

// ── Period extraction ─────────────────────────────────────────────────────────

var (
	reYear        = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	reQuarterCode = regexp.MustCompile(`(?i)\b(?:((?:19|20)\d{2})-)?q([1-4])\b`)
	reMonthCode   = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})-m(0[1-9]|1[0-2])\b`)
	reOrdinalQtr  = regexp.MustCompile(`(?i)\b(first|second|third|fourth) quarter\b`)

	monthNames = map[string]time.Month{
		"january": time.January, "jan": time.January,
		"february": time.February, "feb": time.February,
		"march": time.March, "mar": time.March,
		"april": time.April, "apr": time.April,
		"may":  time.May,
		"june": time.June, "jun": time.June,
		"july": time.July, "jul": time.July,
		"august": time.August, "aug": time.August,
		"september": time.September, "sep": time.September, "sept": time.September,
		"october": time.October, "oct": time.October,
		"november": time.November, "nov": time.November,
		"december": time.December, "dec": time.December,
	}

	ordinalQuarters = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4}
)

// ResolvePeriod reads explicit years, quarters ("Q4", "2024-Q4", "fourth
// quarter"), months ("2025-M02", "February 2025"), and relative terms
// resolved against ref. Month granularity wins over quarter, quarter over
// year. Nothing found yields the zero period (full date range). Exported so
// alternative extractors can resolve relative phrases the same way.
func ResolvePeriod(text string, ref Period) Period {
	lower := strings.ToLower(text)

	if p, ok := relativeSubYear(lower, ref); ok {
		return p
	}

	year := 0
	switch {
	case strings.Contains(lower, "this year"), strings.Contains(lower, "current year"):
		year = ref.Year
	case strings.Contains(lower, "last year"), strings.Contains(lower, "previous year"):
		year = ref.Year - 1
	default:
		if m := reYear.FindStringSubmatch(lower); m != nil {
			year, _ = strconv.Atoi(m[1])
		}
	}

	if m := reMonthCode.FindStringSubmatch(lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		return Period{Year: y, Month: time.Month(mo)}
	}
	for _, tok := range strings.Fields(strings.Map(stripPunct, lower)) {
		if mo, ok := monthNames[tok]; ok {
			y := year
			if y == 0 {
				y = ref.Year
			}
			return Period{Year: y, Month: mo}
		}
	}

	if m := reQuarterCode.FindStringSubmatch(lower); m != nil {
		q, _ := strconv.Atoi(m[2])
		y := year
		if m[1] != "" {
			y, _ = strconv.Atoi(m[1])
		}
		if y == 0 {
			y = ref.Year
		}
		return Period{Year: y, Quarter: q}
	}
	if m := reOrdinalQtr.FindStringSubmatch(lower); m != nil {
		y := year
		if y == 0 {
			y = ref.Year
		}
		return Period{Year: y, Quarter: ordinalQuarters[strings.ToLower(m[1])]}
	}

	if year != 0 {
		return Period{Year: year}
	}
	return Period{}
}

// relativeSubYear resolves quarter- and month-level relative terms, which
// are terminal: "last quarter" fully determines the period by itself.
func relativeSubYear(lower string, ref Period) (Period, bool) {
	switch {
	case strings.Contains(lower, "this quarter"), strings.Contains(lower, "current quarter"):
		return Period{Year: ref.Year, Quarter: QuarterOf(ref.Month)}, true
	case strings.Contains(lower, "last quarter"), strings.Contains(lower, "previous quarter"):
		q := QuarterOf(ref.Month) - 1
		y := ref.Year
		if q == 0 {
			q, y = 4, y-1
		}
		return Period{Year: y, Quarter: q}, true
	case strings.Contains(lower, "this month"), strings.Contains(lower, "current month"):
		return Period{Year: ref.Year, Month: ref.Month}, true
	case strings.Contains(lower, "last month"), strings.Contains(lower, "previous month"):
		y, m := ref.Year, ref.Month-1
		if m == 0 {
			y, m = y-1, time.December
		}
		return Period{Year: y, Month: m}, true
	}
	return Period{}, false
}

func stripPunct(r rune) rune {
	switch r {
	case ',', '.', '?', '!', ';', ':':
		return ' '
	}
	return r
}

// ── Metric extraction ─────────────────────────────────────────────────────────

// Keyword tables are ordered slices so scanning is deterministic.
var (
	netKeywords     = []string{"p&l", "p & l", "pnl", "profit and loss", "profit", "net", "bottom line"}
	expenseKeywords = []string{"expense", "expenses", "cost", "costs", "spending", "spend", "opex", "outgoings"}
	revenueKeywords = []string{"revenue", "income", "rent", "rents", "earnings", "sales", "takings"}
)

func containsWord(lower, kw string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordRune(rune(lower[i-1]))
		afterIdx := i + len(kw)
		after := afterIdx >= len(lower) || !isWordRune(rune(lower[afterIdx]))
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func isWordRune(r rune) bool {
	return r == '&' || r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// extractMetric maps free-text metric phrases onto the category enum via the
// fixed keyword tables. A net/P&L phrase, or no match at all, leaves the
// metric unset — the calculation engine owns defaulting, not the extractor.
func extractMetric(text string) Category {
	lower := strings.ToLower(text)
	for _, kw := range netKeywords {
		if containsWord(lower, kw) {
			return ""
		}
	}
	for _, kw := range expenseKeywords {
		if containsWord(lower, kw) {
			return CategoryExpense
		}
	}
	for _, kw := range revenueKeywords {
		if containsWord(lower, kw) {
			return CategoryRevenue
		}
	}
	return ""
}

// ── Entity extraction ─────────────────────────────────────────────────────────

var (
	// Named pattern: a property-class noun followed by a designator,
	// e.g. "Building 120", "Tower A", "property 7".
	reNamedProperty = regexp.MustCompile(`(?i)\b(building|tower|plaza|property|asset|unit)\s+([A-Za-z0-9]+)\b`)

	reNamedTenant = regexp.MustCompile(`(?i)\btenants?\s+([A-Za-z0-9]+)\b`)

	// Prepositional pattern: a run of capitalized or numeric tokens after a
	// cue word, e.g. "for 123 Main St", "between Building 120 and Tower B".
	// Lowercase connectors are captured so the run can be split afterwards.
	rePrepPhrase = regexp.MustCompile(`\b(?:for|at|about|of|compare|between|versus|vs\.?)\s+((?:[A-Z0-9][\w&'.-]*)(?:\s+(?:[A-Z0-9][\w&'.-]*|and|&|vs\.?|versus))*)`)

	rePhraseSplit = regexp.MustCompile(`(?i)\s+(?:and|&|vs\.?|versus)\s+|\s*,\s*`)
)

// noiseCandidates are capitalized captures that are query vocabulary, not
// entity names.
var noiseCandidates = map[string]struct{}{
	"p&l": {}, "pnl": {}, "profit": {}, "revenue": {}, "income": {},
	"expense": {}, "expenses": {}, "cost": {}, "costs": {},
	"portfolio": {}, "properties": {}, "property": {}, "buildings": {},
	"everything": {}, "total": {}, "all": {}, "the": {},
	"q1": {}, "q2": {}, "q3": {}, "q4": {},
}

// extractEntities pulls raw property and tenant name candidates out of the
// query text. Candidates are unvalidated by design: they may be misspelled
// or absent from the catalog, and the validator owns that judgement.
func extractEntities(text string) (properties, tenants []string) {
	seenProp := make(map[string]struct{})
	seenTenant := make(map[string]struct{})

	addTenant := func(name string) {
		key := normalizeName(name)
		if _, ok := seenTenant[key]; ok || key == "" {
			return
		}
		seenTenant[key] = struct{}{}
		tenants = append(tenants, name)
	}
	addProperty := func(name string) {
		name = strings.TrimSpace(name)
		key := normalizeName(name)
		if key == "" || isPeriodPhrase(key) {
			return
		}
		if _, noise := noiseCandidates[key]; noise {
			return
		}
		if strings.HasPrefix(key, "tenant ") || key == "tenant" {
			addTenant(name)
			return
		}
		if _, ok := seenProp[key]; ok {
			return
		}
		seenProp[key] = struct{}{}
		properties = append(properties, name)
	}

	for _, m := range reNamedTenant.FindAllStringSubmatch(text, -1) {
		addTenant("Tenant " + m[1])
	}
	for _, m := range reNamedProperty.FindAllStringSubmatch(text, -1) {
		addProperty(m[1] + " " + m[2])
	}
	for _, m := range rePrepPhrase.FindAllStringSubmatch(text, -1) {
		for _, part := range rePhraseSplit.Split(m[1], -1) {
			addProperty(part)
		}
	}
	return properties, tenants
}

// isPeriodPhrase reports whether every token of the candidate reads as a
// date word, so "2024", "Q4 2024" and "February" never become property names.
func isPeriodPhrase(lower string) bool {
	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if reYear.MatchString(f) || reQuarterCode.MatchString(f) || reMonthCode.MatchString(f) {
			continue
		}
		if _, ok := monthNames[f]; ok {
			continue
		}
		switch f {
		case "this", "last", "current", "previous", "year", "quarter", "month":
			continue
		}
		return false
	}
	return true
}

// hasEntityCue reports whether the text names anything that could be a
// specific property or tenant. The classifier uses it to separate
// summary-of-one-entity queries from portfolio-wide ones.
func hasEntityCue(text string) bool {
	props, tenants := extractEntities(text)
	return len(props) > 0 || len(tenants) > 0
}

// ── Misc slots ────────────────────────────────────────────────────────────────

var reTopN = regexp.MustCompile(`(?i)\btop\s+(\d{1,3})\b`)

func extractTopN(text string) int {
	m := reTopN.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func extractBreakdown(text string) BreakdownKey {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "by category"):
		return BreakdownLedgerCategory
	case strings.Contains(lower, "by tenant"):
		return BreakdownTenant
	case strings.Contains(lower, "by group"), strings.Contains(lower, "by ledger group"):
		return BreakdownLedgerGroup
	}
	return ""
}
