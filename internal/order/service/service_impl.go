package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	obsmetrics "github.com/keiridesk/keiridesk/internal/observability/metrics"
	orderdomain "github.com/keiridesk/keiridesk/internal/order/domain"
	supplierdomain "github.com/keiridesk/keiridesk/internal/supplier/domain"
	"github.com/keiridesk/keiridesk/internal/tax"
	"github.com/keiridesk/keiridesk/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	SupplierSvc supplierdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	supplierSvc supplierdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) orderdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		supplierSvc: p.SupplierSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req orderdomain.CreateOrderRequest) (orderdomain.Order, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return orderdomain.Order{}, orderdomain.ErrInvalidClient
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return orderdomain.Order{}, orderdomain.ErrInvalidTitle
	}

	mode := strings.ToLower(strings.TrimSpace(req.TaxDisplayMode))
	switch tax.Mode(mode) {
	case tax.ModeInternal, tax.ModeExternal:
	case "":
		mode = string(tax.ModeInternal)
	default:
		return orderdomain.Order{}, orderdomain.ErrInvalidMode
	}

	now := time.Now().UTC()
	order := orderdomain.Order{
		ID:             s.genID.Generate(),
		ClientID:       clientID,
		Title:          title,
		Status:         orderdomain.OrderStatusDraft,
		TaxDisplayMode: mode,
		InvoiceTotal:   decimal.Zero,
		CostTotal:      decimal.Zero,
		Profit:         decimal.Zero,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return orderdomain.Order{}, err
	}
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (orderdomain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return orderdomain.Order{}, orderdomain.ErrInvalidID
	}
	return s.loadOrder(ctx, orderID)
}

func (s *Service) List(ctx context.Context, req orderdomain.ListOrderRequest) (orderdomain.ListOrderResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	stmt := s.db.WithContext(ctx).Model(&orderdomain.Order{}).Order("id ASC").Limit(pageSize + 1)
	if req.ClientID != "" {
		clientID, err := parseID(req.ClientID)
		if err != nil {
			return orderdomain.ListOrderResponse{}, orderdomain.ErrInvalidClient
		}
		stmt = stmt.Where("client_id = ?", clientID)
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		stmt = stmt.Where("status = ?", strings.ToUpper(status))
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return orderdomain.ListOrderResponse{}, orderdomain.ErrInvalidID
		}
		afterID, err := parseID(cursor.ID)
		if err != nil {
			return orderdomain.ListOrderResponse{}, orderdomain.ErrInvalidID
		}
		stmt = stmt.Where("id > ?", afterID)
	}

	var items []*orderdomain.Order
	if err := stmt.Find(&items).Error; err != nil {
		return orderdomain.ListOrderResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(order *orderdomain.Order) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        order.ID.String(),
			CreatedAt: order.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	orders := make([]orderdomain.Order, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		orders = append(orders, *item)
	}

	resp := orderdomain.ListOrderResponse{Orders: orders}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) loadOrder(ctx context.Context, id snowflake.ID) (orderdomain.Order, error) {
	var order orderdomain.Order
	err := s.db.WithContext(ctx).
		Model(&orderdomain.Order{}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return orderdomain.Order{}, orderdomain.ErrOrderNotFound
		}
		return orderdomain.Order{}, err
	}
	return order, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
