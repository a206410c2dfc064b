package app

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"portfolio-agent/internal/core"
)

// renderTurn produces a plain one-line reply for hosts that have no
// formatter of their own. A proper natural-language formatter is an external
// collaborator; this rendering is deliberately template-simple and carries
// no logic beyond reading the structured result.
func renderTurn(turn core.TurnResult) string {
	if turn.Clarification != nil {
		return renderClarification(turn.Clarification)
	}
	return renderResult(turn.Result)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func renderResult(res *core.CalculationResult) string {
	scope := res.Scope
	switch res.Intent {
	case core.IntentListProperties:
		return "Your portfolio contains the following properties: " + strings.Join(res.Properties, ", ") + "."

	case core.IntentPortfolioSummary:
		return fmt.Sprintf("The total P&L for all your properties over %s is %s (revenue %s, expenses %s).",
			scope.Period, money(res.Totals.Net), money(res.Totals.Revenue), money(res.Totals.Expenses))

	case core.IntentPropertySummary:
		return fmt.Sprintf("The P&L for %s over %s is %s (revenue %s, expenses %s).",
			strings.Join(scope.Properties, ", "), scope.Period,
			money(res.Totals.Net), money(res.Totals.Revenue), money(res.Totals.Expenses))

	case core.IntentCompareProperties:
		parts := make([]string, 0, len(res.PerProperty))
		for _, p := range res.PerProperty {
			parts = append(parts, fmt.Sprintf("%s has a net P&L of %s", p.Property, money(p.PNL.Net)))
		}
		line := strings.Join(parts, ", while ")
		if len(res.Deltas) == 1 {
			line += fmt.Sprintf(", a difference of %s", money(res.Deltas[0].Value))
		}
		return line + "."

	case core.IntentExpenseAnalysis:
		target := "your portfolio"
		if len(scope.Properties) > 0 {
			target = strings.Join(scope.Properties, ", ")
		}
		items := make([]string, 0, len(res.TopExpenses))
		for _, g := range res.TopExpenses {
			items = append(items, fmt.Sprintf("%s: %s", g.Key, money(g.Total)))
		}
		return fmt.Sprintf("Top expenses for %s over %s: %s.", target, scope.Period, strings.Join(items, ", "))

	case core.IntentAssetDetails:
		return fmt.Sprintf("Details for %s over %s: net P&L %s, revenue %s, expenses %s, %d ledger rows, tenants: %s.",
			strings.Join(scope.Properties, ", "), scope.Period,
			money(res.Totals.Net), money(res.Totals.Revenue), money(res.Totals.Expenses),
			res.RowCount, orNone(res.Tenants))

	case core.IntentTenantSummary:
		return fmt.Sprintf("Tenant %s generated a net P&L of %s over %s.",
			strings.Join(scope.Tenants, ", "), money(res.Totals.Net), scope.Period)
	}
	return "Done."
}

func orNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

func renderClarification(c *core.ClarificationRequest) string {
	if c.Reason == core.ClarifyUnknownIntent {
		return "I can help with property details, P&L summaries, comparisons, and expense analysis. " +
			"Could you restate your question?"
	}

	var lines []string
	for _, issue := range c.Issues {
		switch issue.Kind {
		case core.IssueMissing:
			lines = append(lines, fmt.Sprintf("Which %s do you mean? For example: %s.",
				issue.Slot, candidateNames(issue.Candidates)))
		case core.IssueUnresolved:
			lines = append(lines, fmt.Sprintf("I couldn't find a %s named %q. Closest matches: %s.",
				issue.Slot, issue.Attempted, candidateNames(issue.Candidates)))
		case core.IssueAmbiguous:
			lines = append(lines, fmt.Sprintf("%q matches more than one %s: %s. Which one did you mean?",
				issue.Attempted, issue.Slot, candidateNames(issue.Candidates)))
		}
	}
	if len(lines) == 0 {
		return "Please clarify your request."
	}
	return strings.Join(lines, " ")
}

func candidateNames(cands []core.MatchCandidate) string {
	if len(cands) == 0 {
		return "(no suggestions)"
	}
	names := make([]string, 0, len(cands))
	for _, c := range cands {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
