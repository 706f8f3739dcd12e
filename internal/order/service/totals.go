package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	orderdomain "github.com/keiridesk/keiridesk/internal/order/domain"
	"github.com/keiridesk/keiridesk/internal/profit"
	"github.com/keiridesk/keiridesk/internal/tax"
)

// Totals recomputes the order's figures from its current line items. The
// pass always starts from a fresh read; nothing is patched incrementally, so
// deleting or editing an item simply changes what the next pass sees.
func (s *Service) Totals(ctx context.Context, orderID string) (orderdomain.TotalsResponse, error) {
	id, err := parseID(orderID)
	if err != nil {
		return orderdomain.TotalsResponse{}, orderdomain.ErrInvalidID
	}

	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return orderdomain.TotalsResponse{}, err
	}

	items, err := s.ListItems(ctx, orderID)
	if err != nil {
		return orderdomain.TotalsResponse{}, err
	}

	invoiceItems := make([]profit.InvoiceItem, 0, len(items))
	costItems := make([]profit.CostItem, 0, len(items))
	supplierIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		switch item.ItemType {
		case orderdomain.ItemTypeInvoice:
			invoiceItems = append(invoiceItems, profit.InvoiceItem{
				ID:      item.ID,
				Amount:  item.Amount,
				TaxRate: item.Rate(),
			})
		case orderdomain.ItemTypeCost:
			costItems = append(costItems, profit.CostItem{
				ID:         item.ID,
				Amount:     item.Amount,
				TaxRate:    item.Rate(),
				SupplierID: item.SupplierID,
			})
			if item.SupplierID != nil {
				supplierIDs = append(supplierIDs, *item.SupplierID)
			}
		}
	}

	suppliers, err := s.supplierSvc.InfoLookup(ctx, supplierIDs)
	if err != nil {
		return orderdomain.TotalsResponse{}, err
	}

	totals := profit.ComputeOrder(invoiceItems, costItems, suppliers, tax.ParseMode(order.TaxDisplayMode))

	err = s.db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET invoice_total = ?, cost_total = ?, profit = ?, updated_at = ?
		 WHERE id = ?`,
		totals.InvoiceTotal,
		totals.CostTotal,
		totals.Profit,
		time.Now().UTC(),
		id,
	).Error
	if err != nil {
		return orderdomain.TotalsResponse{}, err
	}

	s.metrics.RecordTotalsRecomputed(ctx)
	s.log.Debug("order totals recomputed",
		zap.String("order_id", order.ID.String()),
		zap.String("invoice_total", totals.InvoiceTotal.String()),
		zap.String("cost_total", totals.CostTotal.String()),
		zap.String("profit", totals.Profit.String()),
	)

	resp := orderdomain.TotalsResponse{
		OrderID:      order.ID.String(),
		InvoiceItems: make([]orderdomain.ItemTotals, 0, len(totals.InvoiceItems)),
		CostItems:    make([]orderdomain.ItemTotals, 0, len(totals.CostItems)),
		InvoiceTotal: totals.InvoiceTotal.String(),
		CostTotal:    totals.CostTotal.String(),
		Profit:       totals.Profit.String(),
	}
	for _, item := range totals.InvoiceItems {
		resp.InvoiceItems = append(resp.InvoiceItems, orderdomain.ItemTotals{
			ID:        item.ID.String(),
			TaxAmount: item.TaxAmount.String(),
		})
	}
	for _, item := range totals.CostItems {
		resp.CostItems = append(resp.CostItems, orderdomain.ItemTotals{
			ID:             item.ID.String(),
			TaxAmount:      item.TaxAmount.String(),
			DeductibleCost: item.DeductibleCost.String(),
		})
	}
	return resp, nil
}
