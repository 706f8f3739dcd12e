package profit

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/keiridesk/keiridesk/internal/tax"
)

// SupplierInfo carries the two supplier facts the deduction rule depends on.
// TaxCategory reflects what the supplier actually charged, independent of the
// order's own display mode.
type SupplierInfo struct {
	TaxCategory               tax.Mode
	HasQualifiedInvoiceNumber bool
}

// Lookup is a pre-fetched supplier table. The engine never touches storage;
// callers resolve every supplier referenced by the cost items up front.
type Lookup map[snowflake.ID]SupplierInfo

// Resolve returns the supplier facts for a cost line. A missing or deleted
// supplier fails closed: no qualified invoice number, inclusive tax. That
// yields the least deduction, so a broken reference can only understate
// profit, never inflate it.
func (l Lookup) Resolve(supplierID *snowflake.ID) SupplierInfo {
	if supplierID == nil {
		return SupplierInfo{TaxCategory: tax.ModeInternal}
	}
	info, ok := l[*supplierID]
	if !ok {
		return SupplierInfo{TaxCategory: tax.ModeInternal}
	}
	if info.TaxCategory == "" {
		info.TaxCategory = tax.ModeInternal
	}
	return info
}

// DeductibleCost applies the qualified-invoice rule to one cost line.
//
// With a qualified invoice number on file the tax portion is reclaimable, so
// only the net-of-tax amount counts against profit. Without one the full
// tax-inclusive amount is a real cost, regardless of the line's own rate.
func DeductibleCost(amount decimal.Decimal, rate *decimal.Decimal, info SupplierInfo) decimal.Decimal {
	if !info.HasQualifiedInvoiceNumber {
		return amount
	}
	return amount.Sub(tax.Compute(amount, rate, info.TaxCategory))
}
