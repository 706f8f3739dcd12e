// Package domain contains persistence models for orders and their line items.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus represents order lifecycle states.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusClosed    OrderStatus = "CLOSED"
)

// ItemType distinguishes revenue lines from expense lines on one order.
type ItemType string

const (
	ItemTypeInvoice ItemType = "invoice"
	ItemTypeCost    ItemType = "cost"
)

// Order is the aggregate root for invoice and cost line items.
//
// TaxDisplayMode applies to invoice items only; cost items are taxed under
// each supplier's own category. The three total columns are recomputed from
// current items on every totals pass, never patched incrementally.
type Order struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	ClientID       snowflake.ID      `gorm:"not null;index" json:"client_id"`
	Title          string            `gorm:"type:text;not null" json:"title"`
	Status         OrderStatus       `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	TaxDisplayMode string            `gorm:"column:tax_display_mode;type:text;not null;default:'internal'" json:"tax_display_mode"`
	InvoiceTotal   decimal.Decimal   `gorm:"type:numeric(18,2);not null;default:0" json:"invoice_total"`
	CostTotal      decimal.Decimal   `gorm:"type:numeric(18,2);not null;default:0" json:"cost_total"`
	Profit         decimal.Decimal   `gorm:"type:numeric(18,2);not null;default:0" json:"profit"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderItem is one line on an order's invoice or cost breakdown.
//
// Amount is stored as supplied; derivation from UnitPrice × Quantity is a
// convenience at entry time, never an enforced invariant. TaxRate is a
// percentage and genuinely nullable: NULL means tax-exempt, which is not the
// same state as a zero rate, and updates must round-trip NULL faithfully.
type OrderItem struct {
	ID          snowflake.ID        `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID        `gorm:"not null;index" json:"order_id"`
	ItemType    ItemType            `gorm:"column:item_type;type:text;not null" json:"item_type"`
	ProductName string              `gorm:"type:text;not null" json:"product_name"`
	UnitPrice   decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0" json:"unit_price"`
	Quantity    decimal.Decimal     `gorm:"type:numeric(10,3);not null;default:0" json:"quantity"`
	Amount      decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
	TaxRate     decimal.NullDecimal `gorm:"column:tax_rate;type:numeric(6,3)" json:"tax_rate"`
	SupplierID  *snowflake.ID       `gorm:"index" json:"supplier_id,omitempty"`
	Remarks     string              `gorm:"type:text" json:"remarks,omitempty"`
	SortOrder   int                 `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt   time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }

// Rate converts the stored nullable rate to the engine's optional form.
func (i OrderItem) Rate() *decimal.Decimal {
	if !i.TaxRate.Valid {
		return nil
	}
	rate := i.TaxRate.Decimal
	return &rate
}
