package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/keiridesk/keiridesk/internal/profit"
	"github.com/keiridesk/keiridesk/internal/supplier/domain"
	"github.com/keiridesk/keiridesk/internal/tax"
	"github.com/keiridesk/keiridesk/pkg/db/pagination"
	"github.com/keiridesk/keiridesk/pkg/repository"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[domain.Supplier]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("supplier.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Supplier](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSupplierRequest) (domain.Supplier, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Supplier{}, domain.ErrInvalidName
	}

	category, err := normalizeCategory(req.TaxCategory)
	if err != nil {
		return domain.Supplier{}, err
	}

	now := time.Now().UTC()
	supplier := domain.Supplier{
		ID:                     s.genID.Generate(),
		Name:                   name,
		Email:                  strings.TrimSpace(req.Email),
		TaxCategory:            category,
		QualifiedInvoiceNumber: strings.TrimSpace(req.QualifiedInvoiceNumber),
		Metadata:               datatypes.JSONMap{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := s.repo.Create(ctx, &supplier); err != nil {
		return domain.Supplier{}, err
	}
	return supplier, nil
}

func (s *Service) List(ctx context.Context, req domain.ListSupplierRequest) (domain.ListSupplierResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	stmt := s.db.WithContext(ctx).Model(&domain.Supplier{}).Order("id ASC").Limit(pageSize + 1)
	if name := strings.TrimSpace(req.Name); name != "" {
		stmt = stmt.Where("name = ?", name)
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListSupplierResponse{}, domain.ErrInvalidID
		}
		afterID, err := parseID(cursor.ID)
		if err != nil {
			return domain.ListSupplierResponse{}, domain.ErrInvalidID
		}
		stmt = stmt.Where("id > ?", afterID)
	}

	var items []*domain.Supplier
	if err := stmt.Find(&items).Error; err != nil {
		return domain.ListSupplierResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(supplier *domain.Supplier) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        supplier.ID.String(),
			CreatedAt: supplier.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	suppliers := make([]domain.Supplier, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		suppliers = append(suppliers, *item)
	}

	resp := domain.ListSupplierResponse{Suppliers: suppliers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Supplier, error) {
	supplierID, err := parseID(id)
	if err != nil {
		return domain.Supplier{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindOne(ctx, &domain.Supplier{ID: supplierID})
	if err != nil {
		return domain.Supplier{}, err
	}
	if item == nil {
		return domain.Supplier{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSupplierRequest) (domain.Supplier, error) {
	supplierID, err := parseID(req.ID)
	if err != nil {
		return domain.Supplier{}, domain.ErrInvalidID
	}

	existing, err := s.repo.FindOne(ctx, &domain.Supplier{ID: supplierID})
	if err != nil {
		return domain.Supplier{}, err
	}
	if existing == nil {
		return domain.Supplier{}, domain.ErrNotFound
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Supplier{}, domain.ErrInvalidName
		}
		updates["name"] = name
	}
	if req.Email != nil {
		updates["email"] = strings.TrimSpace(*req.Email)
	}
	if req.TaxCategory != nil {
		category, err := normalizeCategory(*req.TaxCategory)
		if err != nil {
			return domain.Supplier{}, err
		}
		updates["tax_category"] = category
	}
	if req.QualifiedInvoiceNumber != nil {
		// Clearing the number is a legitimate update; deductions for this
		// supplier stop from the next recomputation onward.
		updates["qualified_invoice_number"] = strings.TrimSpace(*req.QualifiedInvoiceNumber)
	}

	if err := s.repo.Update(ctx, supplierID.String(), updates); err != nil {
		return domain.Supplier{}, err
	}

	updated, err := s.repo.FindOne(ctx, &domain.Supplier{ID: supplierID})
	if err != nil {
		return domain.Supplier{}, err
	}
	if updated == nil {
		return domain.Supplier{}, domain.ErrNotFound
	}
	return *updated, nil
}

func (s *Service) InfoLookup(ctx context.Context, ids []snowflake.ID) (profit.Lookup, error) {
	lookup := make(profit.Lookup, len(ids))
	if len(ids) == 0 {
		return lookup, nil
	}

	unique := make([]snowflake.ID, 0, len(ids))
	seen := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var rows []domain.Supplier
	err := s.db.WithContext(ctx).
		Model(&domain.Supplier{}).
		Where("id IN ?", unique).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		lookup[row.ID] = profit.SupplierInfo{
			TaxCategory:               row.Mode(),
			HasQualifiedInvoiceNumber: row.HasQualifiedInvoiceNumber(),
		}
	}
	return lookup, nil
}

func normalizeCategory(raw string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch tax.Mode(value) {
	case tax.ModeInternal, tax.ModeExternal:
		return value, nil
	case "":
		// Left unset; resolved as inclusive at calculation time.
		return "", nil
	default:
		return "", domain.ErrInvalidTaxCategory
	}
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
