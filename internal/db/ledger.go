package db

import (
	"context"
	"fmt"
	"time"

	"portfolio-agent/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadLedger reads every ledger fact into memory. The dataset is loaded once
// at startup and treated as immutable afterwards, so ordering here fixes the
// catalog order for the whole process lifetime.
func LoadLedger(ctx context.Context, pool *pgxpool.Pool) ([]core.LedgerRow, error) {
	rows, err := pool.Query(ctx, `
		SELECT property_name, COALESCE(tenant_name, ''), year, COALESCE(quarter, 0), COALESCE(month, 0),
		       category, COALESCE(ledger_group, ''), COALESCE(ledger_category, ''), COALESCE(description, ''),
		       amount::numeric
		FROM ledger_entries
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []core.LedgerRow
	for rows.Next() {
		var (
			r              core.LedgerRow
			category       string
			quarter, month int
		)
		if err := rows.Scan(&r.Property, &r.Tenant, &r.Period.Year, &quarter, &month,
			&category, &r.LedgerGroup, &r.LedgerCategory, &r.Description, &r.Amount); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		r.Period.Quarter = quarter
		r.Period.Month = time.Month(month)
		r.Category = core.Category(category)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ledger_entries is empty: seed the database first")
	}
	return out, nil
}
