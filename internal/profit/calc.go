// Package profit computes order totals: per-item tax, qualified-invoice
// deductible costs, and the invoice-minus-cost profit figure.
//
// The package is a pure function over in-memory line items plus a resolved
// supplier lookup. It performs no I/O, holds no state, and recomputing from
// the same inputs always yields the same outputs.
package profit

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/keiridesk/keiridesk/internal/tax"
)

// InvoiceItem is one revenue line. Amount is taken at face value; whatever
// tax treatment the issuer baked in under the order's display mode stands
// as-is for revenue recognition.
type InvoiceItem struct {
	ID      snowflake.ID
	Amount  decimal.Decimal
	TaxRate *decimal.Decimal
}

// CostItem is one expense line owned by a supplier.
type CostItem struct {
	ID         snowflake.ID
	Amount     decimal.Decimal
	TaxRate    *decimal.Decimal
	SupplierID *snowflake.ID
}

// ItemResult carries the computed figures for one line item.
type ItemResult struct {
	ID             snowflake.ID
	TaxAmount      decimal.Decimal
	DeductibleCost decimal.Decimal // cost items only; zero value for invoice items
}

// OrderTotals is the full output of one calculation pass.
type OrderTotals struct {
	InvoiceItems []ItemResult
	CostItems    []ItemResult
	InvoiceTotal decimal.Decimal
	CostTotal    decimal.Decimal
	Profit       decimal.Decimal
}

// AggregateInvoice sums invoice line amounts. No tax adjustment is applied to
// the order total itself.
func AggregateInvoice(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// AggregateCost sums deductible costs across cost lines under the
// qualified-invoice rule.
func AggregateCost(items []CostItem, suppliers Lookup) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(DeductibleCost(item.Amount, item.TaxRate, suppliers.Resolve(item.SupplierID)))
	}
	return total
}

// ComputeProfit subtracts deductible cost from invoice revenue. All tax
// handling has already been folded into costTotal; adjusting again here would
// understate profit.
func ComputeProfit(invoiceTotal, costTotal decimal.Decimal) decimal.Decimal {
	return invoiceTotal.Sub(costTotal)
}

// ComputeOrder runs one full calculation pass for an order.
//
// Invoice items are taxed under the order's display mode; cost items are
// taxed under each supplier's own category, because that determines what the
// buyer actually paid.
func ComputeOrder(invoiceItems []InvoiceItem, costItems []CostItem, suppliers Lookup, displayMode tax.Mode) OrderTotals {
	totals := OrderTotals{
		InvoiceItems: make([]ItemResult, 0, len(invoiceItems)),
		CostItems:    make([]ItemResult, 0, len(costItems)),
	}

	for _, item := range invoiceItems {
		totals.InvoiceItems = append(totals.InvoiceItems, ItemResult{
			ID:        item.ID,
			TaxAmount: tax.Compute(item.Amount, item.TaxRate, displayMode),
		})
	}

	for _, item := range costItems {
		info := suppliers.Resolve(item.SupplierID)
		totals.CostItems = append(totals.CostItems, ItemResult{
			ID:             item.ID,
			TaxAmount:      tax.Compute(item.Amount, item.TaxRate, info.TaxCategory),
			DeductibleCost: DeductibleCost(item.Amount, item.TaxRate, info),
		})
	}

	totals.InvoiceTotal = AggregateInvoice(invoiceItems)
	totals.CostTotal = AggregateCost(costItems, suppliers)
	totals.Profit = ComputeProfit(totals.InvoiceTotal, totals.CostTotal)
	return totals
}
