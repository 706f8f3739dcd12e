package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	orderdomain "github.com/keiridesk/keiridesk/internal/order/domain"
	"github.com/keiridesk/keiridesk/internal/tax"
)

func (s *Service) AddItem(ctx context.Context, req orderdomain.AddItemRequest) (orderdomain.OrderItem, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return orderdomain.OrderItem{}, orderdomain.ErrInvalidID
	}
	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return orderdomain.OrderItem{}, err
	}

	itemType, err := parseItemType(req.ItemType)
	if err != nil {
		return orderdomain.OrderItem{}, err
	}

	unitPrice := tax.ParseAmount(req.UnitPrice)
	quantity := tax.ParseAmount(req.Quantity)

	// Amount is stored as supplied; derivation is an entry-time convenience
	// only, used when the field was left blank.
	amount := tax.ParseAmount(req.Amount)
	if strings.TrimSpace(req.Amount) == "" {
		amount = unitPrice.Mul(quantity)
	}

	var supplierID *snowflake.ID
	if itemType == orderdomain.ItemTypeCost && req.SupplierID != nil && strings.TrimSpace(*req.SupplierID) != "" {
		id, err := parseID(*req.SupplierID)
		if err != nil {
			return orderdomain.OrderItem{}, orderdomain.ErrInvalidID
		}
		supplierID = &id
	}

	now := time.Now().UTC()
	item := orderdomain.OrderItem{
		ID:          s.genID.Generate(),
		OrderID:     orderID,
		ItemType:    itemType,
		ProductName: strings.TrimSpace(req.ProductName),
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Amount:      amount,
		TaxRate:     nullableRate(req.TaxRate),
		SupplierID:  supplierID,
		Remarks:     strings.TrimSpace(req.Remarks),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextSortOrder(tx, orderID, itemType)
		if err != nil {
			return err
		}
		item.SortOrder = next
		return tx.Create(&item).Error
	})
	if err != nil {
		return orderdomain.OrderItem{}, err
	}

	s.metrics.RecordItemMutation(ctx, "create")
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, req orderdomain.UpdateItemRequest) (orderdomain.OrderItem, error) {
	itemID, err := parseID(req.ItemID)
	if err != nil {
		return orderdomain.OrderItem{}, orderdomain.ErrInvalidID
	}

	existing, err := s.loadItem(ctx, itemID)
	if err != nil {
		return orderdomain.OrderItem{}, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.ProductName != nil {
		updates["product_name"] = strings.TrimSpace(*req.ProductName)
	}
	if req.UnitPrice != nil {
		updates["unit_price"] = tax.ParseAmount(*req.UnitPrice)
	}
	if req.Quantity != nil {
		updates["quantity"] = tax.ParseAmount(*req.Quantity)
	}
	if req.Amount != nil {
		updates["amount"] = tax.ParseAmount(*req.Amount)
	}
	if req.TaxRate != nil {
		// A blank rate stores NULL. Writing through the map is deliberate:
		// struct-based updates skip zero values, which is exactly how NULL
		// rates once came back as the default 10%.
		if rate := tax.ParseRate(*req.TaxRate); rate != nil {
			updates["tax_rate"] = *rate
		} else {
			updates["tax_rate"] = nil
		}
	}
	if req.SupplierID != nil {
		if existing.ItemType != orderdomain.ItemTypeCost {
			return orderdomain.OrderItem{}, orderdomain.ErrInvalidItemType
		}
		if strings.TrimSpace(*req.SupplierID) == "" {
			updates["supplier_id"] = nil
		} else {
			id, err := parseID(*req.SupplierID)
			if err != nil {
				return orderdomain.OrderItem{}, orderdomain.ErrInvalidID
			}
			updates["supplier_id"] = id
		}
	}
	if req.Remarks != nil {
		updates["remarks"] = strings.TrimSpace(*req.Remarks)
	}

	err = s.db.WithContext(ctx).
		Model(&orderdomain.OrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
	if err != nil {
		return orderdomain.OrderItem{}, err
	}

	s.metrics.RecordItemMutation(ctx, "update")
	return s.loadItem(ctx, itemID)
}

func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	id, err := parseID(itemID)
	if err != nil {
		return orderdomain.ErrInvalidID
	}

	item, err := s.loadItem(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&orderdomain.OrderItem{}).Error; err != nil {
			return err
		}
		return renumberItems(tx, item.OrderID, item.ItemType)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordItemMutation(ctx, "delete")
	return nil
}

func (s *Service) ListItems(ctx context.Context, orderID string) ([]orderdomain.OrderItem, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, orderdomain.ErrInvalidID
	}

	var items []orderdomain.OrderItem
	err = s.db.WithContext(ctx).
		Model(&orderdomain.OrderItem{}).
		Where("order_id = ?", id).
		Order("item_type ASC, sort_order ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) ReorderItems(ctx context.Context, req orderdomain.ReorderItemsRequest) error {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return orderdomain.ErrInvalidID
	}

	ids := make([]snowflake.ID, 0, len(req.ItemIDs))
	for _, raw := range req.ItemIDs {
		id, err := parseID(raw)
		if err != nil {
			return orderdomain.ErrInvalidID
		}
		ids = append(ids, id)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []orderdomain.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&existing).Error; err != nil {
			return err
		}

		known := make(map[snowflake.ID]orderdomain.ItemType, len(existing))
		for _, item := range existing {
			known[item.ID] = item.ItemType
		}

		// The request must name each of the order's items exactly once;
		// anything else means the list changed under the caller.
		if len(ids) != len(existing) {
			return orderdomain.ErrItemListChanged
		}
		seen := make(map[snowflake.ID]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return orderdomain.ErrItemListChanged
			}
			if _, dup := seen[id]; dup {
				return orderdomain.ErrItemListChanged
			}
			seen[id] = struct{}{}
		}

		position := map[orderdomain.ItemType]int{}
		now := time.Now().UTC()
		for _, id := range ids {
			itemType := known[id]
			position[itemType]++
			err := tx.Model(&orderdomain.OrderItem{}).
				Where("id = ?", id).
				Updates(map[string]any{"sort_order": position[itemType], "updated_at": now}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) loadItem(ctx context.Context, id snowflake.ID) (orderdomain.OrderItem, error) {
	var item orderdomain.OrderItem
	err := s.db.WithContext(ctx).
		Model(&orderdomain.OrderItem{}).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return orderdomain.OrderItem{}, orderdomain.ErrItemNotFound
		}
		return orderdomain.OrderItem{}, err
	}
	return item, nil
}

func nextSortOrder(tx *gorm.DB, orderID snowflake.ID, itemType orderdomain.ItemType) (int, error) {
	var max int
	err := tx.Raw(
		`SELECT COALESCE(MAX(sort_order), 0)
		 FROM order_items
		 WHERE order_id = ? AND item_type = ?`,
		orderID,
		itemType,
	).Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func renumberItems(tx *gorm.DB, orderID snowflake.ID, itemType orderdomain.ItemType) error {
	var items []orderdomain.OrderItem
	err := tx.Where("order_id = ? AND item_type = ?", orderID, itemType).
		Order("sort_order ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return err
	}

	for i, item := range items {
		if item.SortOrder == i+1 {
			continue
		}
		err := tx.Model(&orderdomain.OrderItem{}).
			Where("id = ?", item.ID).
			Update("sort_order", i+1).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func parseItemType(raw string) (orderdomain.ItemType, error) {
	switch orderdomain.ItemType(strings.ToLower(strings.TrimSpace(raw))) {
	case orderdomain.ItemTypeInvoice:
		return orderdomain.ItemTypeInvoice, nil
	case orderdomain.ItemTypeCost:
		return orderdomain.ItemTypeCost, nil
	default:
		return "", orderdomain.ErrInvalidItemType
	}
}

func nullableRate(raw *string) decimal.NullDecimal {
	if raw == nil {
		return decimal.NullDecimal{}
	}
	rate := tax.ParseRate(*raw)
	if rate == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *rate, Valid: true}
}
