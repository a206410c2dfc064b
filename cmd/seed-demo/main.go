// seed-demo is a one-shot tool that loads a deterministic demo portfolio
// into the ledger. Run it after migrations on a fresh database; it wipes any
// existing ledger rows first so reruns always produce the same dataset.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"portfolio-agent/internal/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type seedRow struct {
	property string
	tenant   string
	year     int
	quarter  int
	month    int
	category string
	group    string
	ledger   string
	desc     string
	amount   decimal.Decimal
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Clearing existing ledger rows...")
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries`); err != nil {
		log.Fatalf("Failed to clear ledger: %v", err)
	}

	rows := demoRows()
	log.Printf("Inserting %d demo rows...", len(rows))
	for _, r := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_entries
				(property_name, tenant_name, year, quarter, month, category, ledger_group, ledger_category, description, amount)
			VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, 0), NULLIF($5, 0), $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10)
		`, r.property, r.tenant, r.year, r.quarter, r.month, r.category, r.group, r.ledger, r.desc, r.amount)
		if err != nil {
			log.Fatalf("Failed to insert row: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Demo portfolio seeded successfully.")
	os.Exit(0)
}

// demoRows builds the demo dataset. Amounts are fixed formulas of the
// property and month indexes, so every run seeds identical data and P&L
// answers stay stable across demos.
func demoRows() []seedRow {
	properties := []string{"Building 120", "Building 121", "Building 180", "Tower A"}
	expenseGroups := []struct {
		group, ledger string
		base          int64
	}{
		{"Maintenance", "Repairs", 850},
		{"Utilities", "Electricity", 430},
		{"Utilities", "Water", 160},
		{"Insurance", "Property Insurance", 390},
		{"Taxes", "Property Tax", 610},
	}

	var rows []seedRow
	for pi, prop := range properties {
		tenant := fmt.Sprintf("Tenant %d", pi+7)
		for _, year := range []int{2024, 2025} {
			months := 12
			if year == 2025 {
				months = 6
			}
			for m := 1; m <= months; m++ {
				rent := decimal.NewFromInt(int64(9000 + 1500*pi + 40*m))
				rows = append(rows, seedRow{
					property: prop, tenant: tenant, year: year, month: m,
					category: "revenue", group: "Rent", ledger: "Base Rent",
					desc: fmt.Sprintf("%s rent %d-M%02d", tenant, year, m), amount: rent,
				})

				for gi, g := range expenseGroups {
					// Spread expense groups across the year instead of
					// booking every group every month.
					if (m+gi)%2 != 0 {
						continue
					}
					amt := decimal.NewFromInt(g.base + int64(25*pi) + int64(10*(m%3)))
					rows = append(rows, seedRow{
						property: prop, year: year, month: m,
						category: "expense", group: g.group, ledger: g.ledger,
						desc: g.ledger, amount: amt.Neg(),
					})
				}
			}

			// One coarse-grained row per year so period filtering over
			// year-granularity facts has data to exercise.
			rows = append(rows, seedRow{
				property: prop, year: year,
				category: "expense", group: "Management", ledger: "Management Fee",
				desc: "Annual management fee", amount: decimal.NewFromInt(int64(2400 + 300*pi)).Neg(),
			})
		}
	}
	return rows
}
