package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the ledger category of a single financial fact.
type Category string

const (
	CategoryRevenue Category = "revenue"
	CategoryExpense Category = "expense"
	CategoryOther   Category = "other"
)

// Period is a partial date with explicit granularity. Year alone means the
// whole year, Year+Quarter a calendar quarter, Year+Month a single month.
// The zero Period means "all periods" — under-specified queries must never
// silently narrow to the most recent data.
type Period struct {
	Year    int        `json:"year,omitempty"`
	Quarter int        `json:"quarter,omitempty"` // 1..4, 0 = not quarter-scoped
	Month   time.Month `json:"month,omitempty"`   // 0 = not month-scoped
}

// IsZero reports whether the period places no constraint at all.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Quarter == 0 && p.Month == 0
}

// QuarterOf returns the calendar quarter a month belongs to.
func QuarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// Covers reports whether a row recorded at period r falls inside the filter
// period p. A quarter filter admits monthly rows of that quarter; a month
// filter admits only rows recorded at month granularity.
func (p Period) Covers(r Period) bool {
	if p.Year != 0 && r.Year != p.Year {
		return false
	}
	if p.Month != 0 {
		return r.Month == p.Month
	}
	if p.Quarter != 0 {
		if r.Quarter == p.Quarter {
			return true
		}
		return r.Month != 0 && QuarterOf(r.Month) == p.Quarter
	}
	return true
}

// String renders the period in the dataset's native notation:
// "2024", "2024-Q4", "2024-M02", or "all periods" for the zero value.
func (p Period) String() string {
	switch {
	case p.IsZero():
		return "all periods"
	case p.Month != 0:
		return fmt.Sprintf("%04d-M%02d", p.Year, int(p.Month))
	case p.Quarter != 0:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// CurrentPeriod derives the month-granularity reference period from a wall
// clock reading. Extraction of relative terms ("this year", "last quarter")
// resolves against this value, never against an implicit clock read.
func CurrentPeriod(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// LedgerRow is one immutable financial fact: an amount tied to a property,
// a period, and a ledger category. Amounts are signed — revenue positive,
// expenses negative — so the net position of any row set is its plain sum.
type LedgerRow struct {
	Property       string          `json:"property"`
	Tenant         string          `json:"tenant,omitempty"`
	Period         Period          `json:"period"`
	Category       Category        `json:"category"`
	LedgerGroup    string          `json:"ledger_group,omitempty"`
	LedgerCategory string          `json:"ledger_category,omitempty"`
	Description    string          `json:"description,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
}

// ── Intents ───────────────────────────────────────────────────────────────────

// IntentLabel is one of the closed set of query intents.
type IntentLabel string

const (
	IntentCompareProperties IntentLabel = "compare_properties"
	IntentPropertySummary   IntentLabel = "property_summary"
	IntentPortfolioSummary  IntentLabel = "portfolio_summary"
	IntentExpenseAnalysis   IntentLabel = "expense_analysis"
	IntentListProperties    IntentLabel = "list_properties"
	IntentAssetDetails      IntentLabel = "asset_details"
	IntentTenantSummary     IntentLabel = "tenant_summary"
	IntentUnknown           IntentLabel = "unknown"
)

// Classification is the classifier's verdict for one query.
type Classification struct {
	Intent     IntentLabel `json:"intent"`
	Confidence float64     `json:"confidence"` // in [0, 1]
}

// ── Slots ─────────────────────────────────────────────────────────────────────

// BreakdownKey selects the grouping column for expense analysis.
type BreakdownKey string

const (
	BreakdownLedgerGroup    BreakdownKey = "ledger_group"
	BreakdownLedgerCategory BreakdownKey = "ledger_category"
	BreakdownTenant         BreakdownKey = "tenant_name"
)

// SlotSet holds the structured entities extracted from a query. Property and
// tenant names are raw text until the validator resolves them against the
// catalogs; a zero Period means the full available date range and an empty
// Metric means no category filter.
type SlotSet struct {
	Properties  []string     `json:"properties,omitempty"`
	Tenants     []string     `json:"tenants,omitempty"`
	Period      Period       `json:"period"`
	Metric      Category     `json:"metric,omitempty"`
	BreakdownBy BreakdownKey `json:"breakdown_by,omitempty"`
	TopN        int          `json:"top_n,omitempty"` // 0 = use default
}

// ── Results ───────────────────────────────────────────────────────────────────

// PNL is the exact-decimal profit and loss triple over some row scope.
// Expenses keeps the source sign convention (negative = money out).
type PNL struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// PropertyFigures is one property's figures inside a comparison or breakdown.
type PropertyFigures struct {
	Property string `json:"property"`
	PNL      PNL    `json:"pnl"`
}

// Delta is the signed difference metric(A) − metric(B) for one ordered pair.
type Delta struct {
	A     string          `json:"a"`
	B     string          `json:"b"`
	Value decimal.Decimal `json:"value"`
}

// Ratio is a derived quotient. Valid is false when the denominator is zero;
// the value is then meaningless and must be rendered as "not applicable".
type Ratio struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Valid bool            `json:"valid"`
}

// GroupTotal is one grouped aggregate line, e.g. an expense group's total.
type GroupTotal struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
}

// CalculationResult is the structured answer for one successfully resolved
// turn. It is immutable once produced and rendered by an external formatter.
type CalculationResult struct {
	Intent IntentLabel `json:"intent"`
	Scope  SlotSet     `json:"scope"` // fully resolved slots

	Totals      *PNL              `json:"totals,omitempty"`
	PerProperty []PropertyFigures `json:"per_property,omitempty"`
	Deltas      []Delta           `json:"deltas,omitempty"`
	Ratios      []Ratio           `json:"ratios,omitempty"`
	TopExpenses []GroupTotal      `json:"top_expenses,omitempty"`

	// list_properties / asset_details extras.
	Properties   []string `json:"properties,omitempty"`
	Tenants      []string `json:"tenants,omitempty"`
	LedgerGroups []string `json:"ledger_groups,omitempty"`
	RowCount     int      `json:"row_count,omitempty"`
}

// ── Clarification ─────────────────────────────────────────────────────────────

// ClarifyReason classifies why a turn could not be resolved.
type ClarifyReason string

const (
	ClarifyUnknownIntent      ClarifyReason = "unknown_intent"
	ClarifyIncompleteSlots    ClarifyReason = "incomplete_slots"
	ClarifyUnresolvableEntity ClarifyReason = "unresolvable_entity"
	ClarifyAmbiguousEntity    ClarifyReason = "ambiguous_entity"
)

// IssueKind distinguishes the per-slot failure modes.
type IssueKind string

const (
	IssueMissing    IssueKind = "missing"
	IssueUnresolved IssueKind = "unresolved"
	IssueAmbiguous  IssueKind = "ambiguous"
)

// MatchCandidate is one fuzzy-match suggestion for an unresolved name.
type MatchCandidate struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// SlotIssue describes one slot that blocked calculation. A multi-entity
// request reports every failing name, never just the first.
type SlotIssue struct {
	Slot       string           `json:"slot"` // "property", "tenant", "intent"
	Kind       IssueKind        `json:"kind"`
	Attempted  string           `json:"attempted,omitempty"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// ClarificationRequest is the terminal outcome of a turn that needs more
// input from the user. It is surfaced verbatim, never silently guessed past.
type ClarificationRequest struct {
	Reason ClarifyReason `json:"reason"`
	Issues []SlotIssue   `json:"issues,omitempty"`
}

// ── Conversation state ────────────────────────────────────────────────────────

// Role tags one side of the conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn entry. History is append-only.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ConversationState is the per-session record carried across turns. It is
// owned exclusively by its session: the orchestrator mutates it once per
// turn and slots from a prior turn seed extraction for the next one.
type ConversationState struct {
	ID         string             `json:"id"`
	Messages   []Message          `json:"messages"`
	Slots      SlotSet            `json:"slots"`
	LastResult *CalculationResult `json:"last_result,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewConversationState creates an empty session record.
func NewConversationState(id string) *ConversationState {
	return &ConversationState{ID: id, CreatedAt: time.Now()}
}

// Append adds one message to the history.
func (s *ConversationState) Append(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, At: time.Now()})
}
