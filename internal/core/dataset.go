package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyDataset is returned when construction is attempted over no rows.
// An empty ledger is the one unrecoverable condition in this core: the
// pipeline must fail fast at startup rather than serve empty answers.
var ErrEmptyDataset = errors.New("dataset contains no ledger rows")

// RowFilter narrows the ledger to a scope. Zero values place no constraint:
// nil Properties means all properties, the zero Period means all periods,
// and an empty Category means every ledger category.
type RowFilter struct {
	Properties []string
	Tenant     string
	Period     Period
	Category   Category
}

// Dataset owns the in-memory ledger table. It is loaded once, immutable
// thereafter, and safe for concurrent reads across any number of sessions.
type Dataset struct {
	rows       []LedgerRow
	properties []string // distinct, in order of first appearance
	tenants    []string
	groups     []string
	propIndex  map[string]struct{}
}

// NewDataset builds the accessor over pre-materialized ledger rows.
// Rows with an empty property identifier are rejected — every fact must
// belong to exactly one catalog property.
func NewDataset(rows []LedgerRow) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	d := &Dataset{
		rows:      make([]LedgerRow, len(rows)),
		propIndex: make(map[string]struct{}),
	}
	copy(d.rows, rows)

	seenTenant := make(map[string]struct{})
	seenGroup := make(map[string]struct{})
	for i, r := range d.rows {
		if strings.TrimSpace(r.Property) == "" {
			return nil, fmt.Errorf("ledger row %d has no property identifier", i)
		}
		if _, ok := d.propIndex[r.Property]; !ok {
			d.propIndex[r.Property] = struct{}{}
			d.properties = append(d.properties, r.Property)
		}
		if r.Tenant != "" {
			if _, ok := seenTenant[r.Tenant]; !ok {
				seenTenant[r.Tenant] = struct{}{}
				d.tenants = append(d.tenants, r.Tenant)
			}
		}
		if r.LedgerGroup != "" {
			if _, ok := seenGroup[r.LedgerGroup]; !ok {
				seenGroup[r.LedgerGroup] = struct{}{}
				d.groups = append(d.groups, r.LedgerGroup)
			}
		}
	}
	return d, nil
}

// Properties returns the property catalog in insertion order. The catalog is
// the ground truth for entity validation; callers get a copy.
func (d *Dataset) Properties() []string {
	out := make([]string, len(d.properties))
	copy(out, d.properties)
	return out
}

// Tenants returns the distinct tenant names in insertion order.
func (d *Dataset) Tenants() []string {
	out := make([]string, len(d.tenants))
	copy(out, d.tenants)
	return out
}

// HasProperty reports whether name is an exact catalog identifier.
func (d *Dataset) HasProperty(name string) bool {
	_, ok := d.propIndex[name]
	return ok
}

// Len returns the total number of ledger rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

func (f RowFilter) matches(r LedgerRow) bool {
	if len(f.Properties) > 0 {
		found := false
		for _, p := range f.Properties {
			if r.Property == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Tenant != "" && r.Tenant != f.Tenant {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	return f.Period.Covers(r.Period)
}

// Select returns the rows matching the filter, in load order.
func (d *Dataset) Select(f RowFilter) []LedgerRow {
	var out []LedgerRow
	for _, r := range d.rows {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of rows matching the filter.
func (d *Dataset) Count(f RowFilter) int {
	n := 0
	for _, r := range d.rows {
		if f.matches(r) {
			n++
		}
	}
	return n
}

// Sum returns the exact decimal sum of amounts over the filtered row set.
func (d *Dataset) Sum(f RowFilter) decimal.Decimal {
	total := decimal.Zero
	for _, r := range d.rows {
		if f.matches(r) {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// ProfitAndLoss computes the revenue/expense/net triple for a scope in one
// pass. Net is the sum over every category, so revenue + expenses + other
// always reconciles with it exactly.
func (d *Dataset) ProfitAndLoss(f RowFilter) PNL {
	var p PNL
	scoped := f
	scoped.Category = ""
	for _, r := range d.rows {
		if !scoped.matches(r) {
			continue
		}
		switch r.Category {
		case CategoryRevenue:
			p.Revenue = p.Revenue.Add(r.Amount)
		case CategoryExpense:
			p.Expenses = p.Expenses.Add(r.Amount)
		}
		p.Net = p.Net.Add(r.Amount)
	}
	return p
}

// GroupTotals aggregates the filtered rows by the given breakdown key and
// returns per-group totals sorted ascending (most negative first, the
// convention for expense rankings). Equal totals keep first-seen order.
func (d *Dataset) GroupTotals(f RowFilter, key BreakdownKey) []GroupTotal {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, r := range d.rows {
		if !f.matches(r) {
			continue
		}
		var k string
		switch key {
		case BreakdownLedgerCategory:
			k = r.LedgerCategory
		case BreakdownTenant:
			k = r.Tenant
		default:
			k = r.LedgerGroup
		}
		if k == "" {
			k = "(unclassified)"
		}
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] = totals[k].Add(r.Amount)
	}

	out := make([]GroupTotal, 0, len(order))
	for _, k := range order {
		out = append(out, GroupTotal{Key: k, Total: totals[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.LessThan(out[j].Total)
	})
	return out
}

// LedgerGroupsIn returns the distinct ledger groups present in the filtered
// scope, in first-seen order.
func (d *Dataset) LedgerGroupsIn(f RowFilter) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.rows {
		if !f.matches(r) || r.LedgerGroup == "" {
			continue
		}
		if _, ok := seen[r.LedgerGroup]; !ok {
			seen[r.LedgerGroup] = struct{}{}
			out = append(out, r.LedgerGroup)
		}
	}
	return out
}

// TenantsIn returns the distinct tenants present in the filtered scope,
// in first-seen order.
func (d *Dataset) TenantsIn(f RowFilter) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.rows {
		if !f.matches(r) || r.Tenant == "" {
			continue
		}
		if _, ok := seen[r.Tenant]; !ok {
			seen[r.Tenant] = struct{}{}
			out = append(out, r.Tenant)
		}
	}
	return out
}
