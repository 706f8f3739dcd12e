// Package domain contains the supplier model and service contract.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/keiridesk/keiridesk/internal/tax"
)

// Supplier is a vendor that cost line items are purchased from.
//
// TaxCategory records how the supplier states prices (inclusive/exclusive).
// Legacy rows created before category tracking carry an empty string and are
// treated as inclusive. QualifiedInvoiceNumber is the 適格請求書 registration
// number; a non-empty value entitles the payer to deduct the tax portion of
// purchases from this supplier.
type Supplier struct {
	ID                     snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name                   string            `gorm:"not null" json:"name"`
	Email                  string            `gorm:"type:text" json:"email,omitempty"`
	TaxCategory            string            `gorm:"column:tax_category;type:text" json:"tax_category,omitempty"`
	QualifiedInvoiceNumber string            `gorm:"column:qualified_invoice_number;type:text" json:"qualified_invoice_number,omitempty"`
	Metadata               datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt              time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Supplier) TableName() string { return "suppliers" }

// HasQualifiedInvoiceNumber reports whether the supplier holds a registration
// number. Whitespace-only values do not count.
func (s Supplier) HasQualifiedInvoiceNumber() bool {
	return strings.TrimSpace(s.QualifiedInvoiceNumber) != ""
}

// Mode resolves the supplier's tax category, defaulting legacy rows to
// inclusive tax.
func (s Supplier) Mode() tax.Mode {
	return tax.ParseMode(s.TaxCategory)
}
