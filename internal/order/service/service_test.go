package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/keiridesk/keiridesk/internal/client/domain"
	orderdomain "github.com/keiridesk/keiridesk/internal/order/domain"
	supplierdomain "github.com/keiridesk/keiridesk/internal/supplier/domain"
	supplierservice "github.com/keiridesk/keiridesk/internal/supplier/service"
)

func setupOrderTest(t *testing.T) (orderdomain.Service, supplierdomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&clientdomain.Client{},
		&supplierdomain.Supplier{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()

	supplierSvc := supplierservice.New(supplierservice.Params{
		DB:    db,
		Log:   logger,
		GenID: node,
	})
	orderSvc := New(Params{
		DB:          db,
		Log:         logger,
		GenID:       node,
		SupplierSvc: supplierSvc,
	})

	return orderSvc, supplierSvc, node
}

func createOrder(t *testing.T, svc orderdomain.Service, node *snowflake.Node, mode string) orderdomain.Order {
	t.Helper()
	order, err := svc.Create(context.Background(), orderdomain.CreateOrderRequest{
		ClientID:       node.Generate().String(),
		Title:          "order",
		TaxDisplayMode: mode,
	})
	require.NoError(t, err)
	return order
}

func strptr(s string) *string { return &s }

func TestOrderService_Create(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, orderdomain.CreateOrderRequest{
		ClientID: node.Generate().String(),
		Title:    "spring campaign",
	})
	assert.NoError(t, err)
	assert.Equal(t, orderdomain.OrderStatusDraft, order.Status)
	assert.Equal(t, "internal", order.TaxDisplayMode)

	fetched, err := svc.GetByID(ctx, order.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.True(t, fetched.InvoiceTotal.IsZero())

	_, err = svc.Create(ctx, orderdomain.CreateOrderRequest{
		ClientID:       node.Generate().String(),
		Title:          "bad mode",
		TaxDisplayMode: "gross",
	})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidMode)

	_, err = svc.Create(ctx, orderdomain.CreateOrderRequest{
		ClientID: node.Generate().String(),
	})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidTitle)
}

func TestOrderService_NullRateSurvivesUnrelatedUpdates(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:     order.ID.String(),
		ItemType:    "invoice",
		ProductName: "design work",
		Amount:      "10000",
		TaxRate:     strptr("10"),
	})
	require.NoError(t, err)
	require.True(t, item.TaxRate.Valid)

	// Blanking the rate must store NULL, not a default.
	item, err = svc.UpdateItem(ctx, orderdomain.UpdateItemRequest{
		ItemID:  item.ID.String(),
		TaxRate: strptr(""),
	})
	assert.NoError(t, err)
	assert.False(t, item.TaxRate.Valid)

	// Updating an unrelated field must not resurrect a rate.
	item, err = svc.UpdateItem(ctx, orderdomain.UpdateItemRequest{
		ItemID:  item.ID.String(),
		Remarks: strptr("rounded at source"),
	})
	assert.NoError(t, err)
	assert.False(t, item.TaxRate.Valid)
	assert.Equal(t, "rounded at source", item.Remarks)

	// And setting it again works.
	item, err = svc.UpdateItem(ctx, orderdomain.UpdateItemRequest{
		ItemID:  item.ID.String(),
		TaxRate: strptr("8"),
	})
	assert.NoError(t, err)
	require.True(t, item.TaxRate.Valid)
	assert.True(t, item.TaxRate.Decimal.Equal(decimal.NewFromInt(8)))
}

func TestOrderService_RateUntouchedWhenFieldAbsent(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:  order.ID.String(),
		ItemType: "invoice",
		Amount:   "5000",
		TaxRate:  strptr("10"),
	})
	require.NoError(t, err)

	item, err = svc.UpdateItem(ctx, orderdomain.UpdateItemRequest{
		ItemID:      item.ID.String(),
		ProductName: strptr("renamed"),
	})
	assert.NoError(t, err)
	require.True(t, item.TaxRate.Valid)
	assert.True(t, item.TaxRate.Decimal.Equal(decimal.NewFromInt(10)))
}

func TestOrderService_AmountDerivedWhenBlank(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:   order.ID.String(),
		ItemType:  "invoice",
		UnitPrice: "1200",
		Quantity:  "2.5",
	})
	assert.NoError(t, err)
	assert.True(t, item.Amount.Equal(decimal.NewFromInt(3000)))

	// An explicit amount wins even when it disagrees with price times quantity.
	item, err = svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:   order.ID.String(),
		ItemType:  "invoice",
		UnitPrice: "1200",
		Quantity:  "2",
		Amount:    "2000",
	})
	assert.NoError(t, err)
	assert.True(t, item.Amount.Equal(decimal.NewFromInt(2000)))
}

func TestOrderService_DeleteRenumbersSortOrder(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	var items []orderdomain.OrderItem
	for _, name := range []string{"first", "second", "third"} {
		item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
			OrderID:     order.ID.String(),
			ItemType:    "invoice",
			ProductName: name,
			Amount:      "100",
		})
		require.NoError(t, err)
		items = append(items, item)
	}
	assert.Equal(t, 1, items[0].SortOrder)
	assert.Equal(t, 3, items[2].SortOrder)

	err := svc.DeleteItem(ctx, items[1].ID.String())
	require.NoError(t, err)

	remaining, err := svc.ListItems(ctx, order.ID.String())
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "first", remaining[0].ProductName)
	assert.Equal(t, 1, remaining[0].SortOrder)
	assert.Equal(t, "third", remaining[1].ProductName)
	assert.Equal(t, 2, remaining[1].SortOrder)
}

func TestOrderService_ReorderItems(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
			OrderID:     order.ID.String(),
			ItemType:    "invoice",
			ProductName: name,
			Amount:      "100",
		})
		require.NoError(t, err)
		ids = append(ids, item.ID.String())
	}

	// Partial lists are rejected; the caller is working from a stale view.
	err := svc.ReorderItems(ctx, orderdomain.ReorderItemsRequest{
		OrderID: order.ID.String(),
		ItemIDs: ids[:2],
	})
	assert.ErrorIs(t, err, orderdomain.ErrItemListChanged)

	err = svc.ReorderItems(ctx, orderdomain.ReorderItemsRequest{
		OrderID: order.ID.String(),
		ItemIDs: []string{ids[2], ids[0], ids[1]},
	})
	require.NoError(t, err)

	items, err := svc.ListItems(ctx, order.ID.String())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].ProductName)
	assert.Equal(t, "a", items[1].ProductName)
	assert.Equal(t, "b", items[2].ProductName)
}

func TestOrderService_TotalsQualifiedInvoiceScenario(t *testing.T) {
	svc, supplierSvc, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	qualified, err := supplierSvc.Create(ctx, supplierdomain.CreateSupplierRequest{
		Name:                   "Suzuki Printing",
		TaxCategory:            "internal",
		QualifiedInvoiceNumber: "T1234567890123",
	})
	require.NoError(t, err)
	unqualified, err := supplierSvc.Create(ctx, supplierdomain.CreateSupplierRequest{
		Name:        "Tanaka Design",
		TaxCategory: "internal",
	})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:     order.ID.String(),
		ItemType:    "invoice",
		ProductName: "website build",
		Amount:      "27180",
		TaxRate:     strptr("10"),
	})
	require.NoError(t, err)

	costs := []struct {
		amount   string
		rate     string
		supplier string
	}{
		{"1000", "10", qualified.ID.String()},
		{"2500", "8", qualified.ID.String()},
		{"500", "8", unqualified.ID.String()},
	}
	costIDs := make([]string, 0, len(costs))
	for _, cost := range costs {
		item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
			OrderID:    order.ID.String(),
			ItemType:   "cost",
			Amount:     cost.amount,
			TaxRate:    strptr(cost.rate),
			SupplierID: strptr(cost.supplier),
		})
		require.NoError(t, err)
		costIDs = append(costIDs, item.ID.String())
	}

	totals, err := svc.Totals(ctx, order.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "27180", totals.InvoiceTotal)

	deductible := map[string]string{}
	for _, item := range totals.CostItems {
		deductible[item.ID] = item.DeductibleCost
	}
	// Qualified suppliers deduct the net of their own tax; the unqualified
	// one carries the full amount.
	assert.Equal(t, "909", deductible[costIDs[0]])
	assert.Equal(t, "2314", deductible[costIDs[1]])
	assert.Equal(t, "500", deductible[costIDs[2]])

	costTotal, err := decimal.NewFromString(totals.CostTotal)
	require.NoError(t, err)
	assert.InDelta(t, 3724, costTotal.InexactFloat64(), 10)

	invoiceTotal, _ := decimal.NewFromString(totals.InvoiceTotal)
	profitTotal, _ := decimal.NewFromString(totals.Profit)
	assert.True(t, profitTotal.Equal(invoiceTotal.Sub(costTotal)),
		"profit must be invoice total minus cost total, with no further tax adjustment")

	// Persisted aggregates match the response.
	stored, err := svc.GetByID(ctx, order.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.CostTotal.Equal(costTotal))
	assert.True(t, stored.Profit.Equal(profitTotal))
}

func TestOrderService_TotalsIdempotentAndFresh(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	_, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:  order.ID.String(),
		ItemType: "invoice",
		Amount:   "10000",
		TaxRate:  strptr("10"),
	})
	require.NoError(t, err)
	cost, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:  order.ID.String(),
		ItemType: "cost",
		Amount:   "3000",
		TaxRate:  strptr("10"),
	})
	require.NoError(t, err)

	first, err := svc.Totals(ctx, order.ID.String())
	require.NoError(t, err)
	second, err := svc.Totals(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Deleting an item changes the next pass, which starts from scratch.
	require.NoError(t, svc.DeleteItem(ctx, cost.ID.String()))
	third, err := svc.Totals(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "0", third.CostTotal)
	assert.Equal(t, third.InvoiceTotal, third.Profit)
}

func TestOrderService_TotalsMissingSupplierFailsClosed(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	// The referenced supplier row does not exist.
	ghost := node.Generate().String()
	_, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:    order.ID.String(),
		ItemType:   "cost",
		Amount:     "1000",
		TaxRate:    strptr("10"),
		SupplierID: strptr(ghost),
	})
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, order.ID.String())
	require.NoError(t, err)
	require.Len(t, totals.CostItems, 1)
	assert.Equal(t, "1000", totals.CostItems[0].DeductibleCost)
	assert.Equal(t, "1000", totals.CostTotal)
}

func TestOrderService_ExemptItemContributesNoTax(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:  order.ID.String(),
		ItemType: "invoice",
		Amount:   "5000",
	})
	require.NoError(t, err)
	assert.False(t, item.TaxRate.Valid)

	totals, err := svc.Totals(ctx, order.ID.String())
	require.NoError(t, err)
	require.Len(t, totals.InvoiceItems, 1)
	assert.Equal(t, "0", totals.InvoiceItems[0].TaxAmount)
	assert.Equal(t, "5000", totals.InvoiceTotal)
}

func TestOrderService_SupplierOnlyOnCostItems(t *testing.T) {
	svc, _, node := setupOrderTest(t)
	ctx := context.Background()
	order := createOrder(t, svc, node, "internal")

	item, err := svc.AddItem(ctx, orderdomain.AddItemRequest{
		OrderID:    order.ID.String(),
		ItemType:   "invoice",
		Amount:     "1000",
		SupplierID: strptr(node.Generate().String()),
	})
	require.NoError(t, err)
	assert.Nil(t, item.SupplierID)

	_, err = svc.UpdateItem(ctx, orderdomain.UpdateItemRequest{
		ItemID:     item.ID.String(),
		SupplierID: strptr(node.Generate().String()),
	})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidItemType)
}
