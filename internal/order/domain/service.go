package domain

import (
	"context"

	"github.com/keiridesk/keiridesk/pkg/db/pagination"
)

type CreateOrderRequest struct {
	ClientID       string
	Title          string
	TaxDisplayMode string
}

type ListOrderRequest struct {
	PageToken string
	PageSize  int
	ClientID  string
	Status    string
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

// AddItemRequest carries raw field values as entered. Numeric fields are
// parsed leniently: a malformed amount, unit price, or quantity degrades to
// zero rather than failing the request. TaxRate nil or blank persists NULL.
type AddItemRequest struct {
	OrderID     string
	ItemType    string
	ProductName string
	UnitPrice   string
	Quantity    string
	Amount      string
	TaxRate     *string
	SupplierID  *string
	Remarks     string
}

// UpdateItemRequest updates fields independently: nil means leave unchanged.
// A present-but-blank TaxRate persists NULL — it must never fall back to a
// default rate.
type UpdateItemRequest struct {
	ItemID      string
	ProductName *string
	UnitPrice   *string
	Quantity    *string
	Amount      *string
	TaxRate     *string
	SupplierID  *string
	Remarks     *string
}

type ReorderItemsRequest struct {
	OrderID string
	ItemIDs []string
}

// ItemTotals carries the computed figures for one line item. Amounts are
// decimal strings so callers never round-trip through binary floats.
type ItemTotals struct {
	ID             string `json:"id"`
	TaxAmount      string `json:"tax_amount"`
	DeductibleCost string `json:"deductible_cost,omitempty"`
}

// TotalsResponse is the output of one totals recomputation pass.
type TotalsResponse struct {
	OrderID      string       `json:"order_id"`
	InvoiceItems []ItemTotals `json:"invoice_items"`
	CostItems    []ItemTotals `json:"cost_items"`
	InvoiceTotal string       `json:"invoice_total"`
	CostTotal    string       `json:"cost_total"`
	Profit       string       `json:"profit"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, req ListOrderRequest) (ListOrderResponse, error)

	AddItem(ctx context.Context, req AddItemRequest) (OrderItem, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (OrderItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	ListItems(ctx context.Context, orderID string) ([]OrderItem, error)
	ReorderItems(ctx context.Context, req ReorderItemsRequest) error

	// Totals recomputes the order's figures from its current line items,
	// persists the three aggregate columns, and returns per-item results.
	Totals(ctx context.Context, orderID string) (TotalsResponse, error)
}
