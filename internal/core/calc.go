package core

import "github.com/shopspring/decimal"

// Engine executes the deterministic aggregation for a validated request.
// It reads the Dataset only — it never mutates anything — and it cannot fail
// for a fully validated SlotSet: the one degenerate numeric case
// (zero-denominator ratios) is a defined result, not an error.
type Engine struct {
	ds *Dataset
}

// NewEngine constructs an Engine over the given dataset.
func NewEngine(ds *Dataset) *Engine {
	return &Engine{ds: ds}
}

// metricOf selects the figure a comparison ranks by. An unset metric means
// the net position.
func metricOf(p PNL, metric Category) decimal.Decimal {
	switch metric {
	case CategoryRevenue:
		return p.Revenue
	case CategoryExpense:
		return p.Expenses
	default:
		return p.Net
	}
}

// Run executes the intent over the resolved slots. Defaults are applied
// here, not in extraction: an absent period means the full available range
// and an absent property scope means the whole portfolio, never "most
// recent" or "first property".
func (e *Engine) Run(intent IntentLabel, slots SlotSet) *CalculationResult {
	switch intent {
	case IntentCompareProperties:
		return e.compare(slots)
	case IntentPropertySummary:
		return e.propertySummary(slots)
	case IntentExpenseAnalysis:
		return e.expenseAnalysis(slots)
	case IntentListProperties:
		return e.listProperties(slots)
	case IntentAssetDetails:
		return e.assetDetails(slots)
	case IntentTenantSummary:
		return e.tenantSummary(slots)
	default:
		return e.portfolioSummary(slots)
	}
}

func (e *Engine) portfolioSummary(slots SlotSet) *CalculationResult {
	// Property slot is never required here: absent means all properties.
	scope := slots
	scope.Properties = nil

	pnl := e.ds.ProfitAndLoss(RowFilter{Period: scope.Period})
	return &CalculationResult{
		Intent: IntentPortfolioSummary,
		Scope:  scope,
		Totals: &pnl,
		Ratios: summaryRatios(pnl),
	}
}

func (e *Engine) propertySummary(slots SlotSet) *CalculationResult {
	f := RowFilter{Properties: slots.Properties, Period: slots.Period}
	pnl := e.ds.ProfitAndLoss(f)
	return &CalculationResult{
		Intent: IntentPropertySummary,
		Scope:  slots,
		Totals: &pnl,
		Ratios: summaryRatios(pnl),
	}
}

func (e *Engine) compare(slots SlotSet) *CalculationResult {
	res := &CalculationResult{Intent: IntentCompareProperties, Scope: slots}

	for _, prop := range slots.Properties {
		pnl := e.ds.ProfitAndLoss(RowFilter{Properties: []string{prop}, Period: slots.Period})
		res.PerProperty = append(res.PerProperty, PropertyFigures{Property: prop, PNL: pnl})
	}

	// Pairwise signed deltas over the requested metric, in slot order, so
	// delta(A,B) == −delta(B,A) by construction.
	for i := 0; i < len(res.PerProperty); i++ {
		for j := i + 1; j < len(res.PerProperty); j++ {
			a, b := res.PerProperty[i], res.PerProperty[j]
			res.Deltas = append(res.Deltas, Delta{
				A:     a.Property,
				B:     b.Property,
				Value: metricOf(a.PNL, slots.Metric).Sub(metricOf(b.PNL, slots.Metric)),
			})
		}
	}
	return res
}

func (e *Engine) expenseAnalysis(slots SlotSet) *CalculationResult {
	f := RowFilter{
		Properties: slots.Properties, // empty = whole portfolio
		Period:     slots.Period,
		Category:   CategoryExpense,
	}

	key := slots.BreakdownBy
	if key == "" {
		key = BreakdownLedgerGroup
	}
	topN := slots.TopN
	if topN == 0 {
		topN = defaultExpenseTopN
	}
	if topN < 1 {
		topN = 1
	}
	if topN > maxExpenseTopN {
		topN = maxExpenseTopN
	}

	groups := e.ds.GroupTotals(f, key)
	if len(groups) > topN {
		groups = groups[:topN]
	}

	total := e.ds.Sum(f)
	scope := slots
	scope.BreakdownBy = key
	scope.TopN = topN
	return &CalculationResult{
		Intent:      IntentExpenseAnalysis,
		Scope:       scope,
		Totals:      &PNL{Expenses: total, Net: total},
		TopExpenses: groups,
	}
}

func (e *Engine) listProperties(slots SlotSet) *CalculationResult {
	return &CalculationResult{
		Intent:     IntentListProperties,
		Scope:      slots,
		Properties: e.ds.Properties(),
	}
}

func (e *Engine) assetDetails(slots SlotSet) *CalculationResult {
	f := RowFilter{Properties: slots.Properties, Period: slots.Period}
	pnl := e.ds.ProfitAndLoss(f)
	return &CalculationResult{
		Intent:       IntentAssetDetails,
		Scope:        slots,
		Totals:       &pnl,
		Ratios:       summaryRatios(pnl),
		Tenants:      e.ds.TenantsIn(f),
		LedgerGroups: e.ds.LedgerGroupsIn(f),
		RowCount:     e.ds.Count(f),
	}
}

func (e *Engine) tenantSummary(slots SlotSet) *CalculationResult {
	res := &CalculationResult{Intent: IntentTenantSummary, Scope: slots}
	// One tenant per request; validation guarantees at least one.
	f := RowFilter{Tenant: slots.Tenants[0], Properties: slots.Properties, Period: slots.Period}
	pnl := e.ds.ProfitAndLoss(f)
	res.Totals = &pnl
	res.Ratios = summaryRatios(pnl)
	return res
}

// summaryRatios derives the expense ratio and net margin from a P&L triple.
// Zero revenue yields Valid=false entries — "not applicable", never a crash.
func summaryRatios(p PNL) []Ratio {
	ratios := make([]Ratio, 0, 2)
	if p.Revenue.IsZero() {
		ratios = append(ratios,
			Ratio{Name: "expense_ratio", Valid: false},
			Ratio{Name: "net_margin", Valid: false},
		)
		return ratios
	}
	ratios = append(ratios,
		Ratio{Name: "expense_ratio", Value: p.Expenses.Neg().Div(p.Revenue), Valid: true},
		Ratio{Name: "net_margin", Value: p.Net.Div(p.Revenue), Valid: true},
	)
	return ratios
}
