package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/keiridesk/keiridesk/internal/profit"
	"github.com/keiridesk/keiridesk/pkg/db/pagination"
)

type CreateSupplierRequest struct {
	Name                   string
	Email                  string
	TaxCategory            string
	QualifiedInvoiceNumber string
}

type UpdateSupplierRequest struct {
	ID                     string
	Name                   *string
	Email                  *string
	TaxCategory            *string
	QualifiedInvoiceNumber *string
}

type ListSupplierRequest struct {
	PageToken string
	PageSize  int
	Name      string
}

type ListSupplierResponse struct {
	pagination.PageInfo
	Suppliers []Supplier `json:"suppliers"`
}

type Service interface {
	Create(ctx context.Context, req CreateSupplierRequest) (Supplier, error)
	List(ctx context.Context, req ListSupplierRequest) (ListSupplierResponse, error)
	GetByID(ctx context.Context, id string) (Supplier, error)
	Update(ctx context.Context, req UpdateSupplierRequest) (Supplier, error)

	// InfoLookup resolves the supplier facts the profit engine needs for the
	// given ids. Missing ids are simply absent from the map; the engine fails
	// closed on them.
	InfoLookup(ctx context.Context, ids []snowflake.ID) (profit.Lookup, error)
}

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidTaxCategory = errors.New("invalid_tax_category")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
)
