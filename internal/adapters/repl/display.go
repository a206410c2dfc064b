package repl

import (
	"fmt"
	"strings"

	"portfolio-agent/internal/app"
	"portfolio-agent/internal/core"

	"github.com/shopspring/decimal"
)

func printProperties(result *app.PropertyListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  PROPERTIES (%d)\n", len(result.Properties))
	fmt.Println(strings.Repeat("-", 62))
	for _, p := range result.Properties {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printTenants(result *app.TenantListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  TENANTS (%d)\n", len(result.Tenants))
	fmt.Println(strings.Repeat("-", 62))
	for _, t := range result.Tenants {
		fmt.Printf("  %s\n", t)
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printHistory(messages []core.Message) {
	fmt.Println()
	for _, m := range messages {
		fmt.Printf("  [%s] %s\n", m.Role, m.Content)
	}
}

// printTurn shows the reply line plus the per-property detail tables a plain
// one-liner cannot carry.
func printTurn(result *app.ChatResult) {
	fmt.Printf("\n%s\n", result.Reply)
	if result.Result == nil {
		return
	}

	if len(result.Result.PerProperty) > 1 {
		fmt.Println()
		fmt.Printf("  %-30s %14s %14s %14s\n", "PROPERTY", "REVENUE", "EXPENSES", "NET")
		fmt.Println("  " + strings.Repeat("-", 74))
		for _, p := range result.Result.PerProperty {
			fmt.Printf("  %-30s %14s %14s %14s\n",
				p.Property, p.PNL.Revenue.StringFixed(2), p.PNL.Expenses.StringFixed(2), p.PNL.Net.StringFixed(2))
		}
	}

	if len(result.Result.TopExpenses) > 0 {
		fmt.Println()
		fmt.Printf("  %-40s %14s\n", "EXPENSE", "TOTAL")
		fmt.Println("  " + strings.Repeat("-", 55))
		for _, g := range result.Result.TopExpenses {
			fmt.Printf("  %-40s %14s\n", g.Key, g.Total.StringFixed(2))
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, r := range result.Result.Ratios {
		if r.Valid {
			fmt.Printf("  %s: %s%%\n", r.Name, r.Value.Mul(hundred).StringFixed(1))
		}
	}
}

func printHelp() {
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  /props          List all properties")
	fmt.Println("  /tenants        List all tenants")
	fmt.Println("  /history        Show this conversation")
	fmt.Println("  /reset          Start a fresh conversation")
	fmt.Println("  /help           This help")
	fmt.Println("  /exit           Quit")
	fmt.Println()
	fmt.Println("Anything else is treated as a question, e.g.:")
	fmt.Println("  What's the P&L for Building 120 in 2024?")
	fmt.Println("  Compare Building 120 and Building 121 this year")
	fmt.Println("  Top 5 expenses for Q4 2024")
}
