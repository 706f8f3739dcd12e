package profit

import (
	"math/rand"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keiridesk/keiridesk/internal/tax"
)

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func rate(raw string) *decimal.Decimal {
	value := decimal.RequireFromString(raw)
	return &value
}

func amt(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func TestDeductibleCost_QualifiedSupplier(t *testing.T) {
	qualified := SupplierInfo{TaxCategory: tax.ModeInternal, HasQualifiedInvoiceNumber: true}

	// 1000 inclusive of 10%: tax 91, net cost 909.
	got := DeductibleCost(amt("1000"), rate("10"), qualified)
	assert.True(t, got.Equal(amt("909")), "got %s", got)

	// Exempt line: nothing to deduct even with a qualified supplier.
	got = DeductibleCost(amt("1000"), nil, qualified)
	assert.True(t, got.Equal(amt("1000")), "got %s", got)
}

func TestDeductibleCost_UnqualifiedSupplier(t *testing.T) {
	unqualified := SupplierInfo{TaxCategory: tax.ModeInternal}

	// Without a qualified invoice number the full tax-inclusive amount is a
	// real cost, whatever the line's own rate says.
	got := DeductibleCost(amt("500"), rate("8"), unqualified)
	assert.True(t, got.Equal(amt("500")), "got %s", got)
}

func TestLookup_FailsClosedOnMissingSupplier(t *testing.T) {
	node := newNode(t)
	known := node.Generate()
	missing := node.Generate()

	suppliers := Lookup{
		known: {TaxCategory: tax.ModeExternal, HasQualifiedInvoiceNumber: true},
	}

	info := suppliers.Resolve(&missing)
	assert.False(t, info.HasQualifiedInvoiceNumber)
	assert.Equal(t, tax.ModeInternal, info.TaxCategory)

	info = suppliers.Resolve(nil)
	assert.False(t, info.HasQualifiedInvoiceNumber)
	assert.Equal(t, tax.ModeInternal, info.TaxCategory)
}

func TestLookup_EmptyCategoryDefaultsToInternal(t *testing.T) {
	node := newNode(t)
	legacy := node.Generate()

	suppliers := Lookup{
		legacy: {HasQualifiedInvoiceNumber: true},
	}

	info := suppliers.Resolve(&legacy)
	assert.True(t, info.HasQualifiedInvoiceNumber)
	assert.Equal(t, tax.ModeInternal, info.TaxCategory)
}

func TestComputeOrder_QualifiedInvoiceScenario(t *testing.T) {
	node := newNode(t)
	qualifiedA := node.Generate()
	qualifiedB := node.Generate()
	unqualified := node.Generate()

	suppliers := Lookup{
		qualifiedA:  {TaxCategory: tax.ModeInternal, HasQualifiedInvoiceNumber: true},
		qualifiedB:  {TaxCategory: tax.ModeInternal, HasQualifiedInvoiceNumber: true},
		unqualified: {TaxCategory: tax.ModeInternal},
	}

	invoiceItems := []InvoiceItem{
		{ID: node.Generate(), Amount: amt("27180"), TaxRate: rate("10")},
	}
	costItems := []CostItem{
		{ID: node.Generate(), Amount: amt("1000"), TaxRate: rate("10"), SupplierID: &qualifiedA},
		{ID: node.Generate(), Amount: amt("2500"), TaxRate: rate("8"), SupplierID: &qualifiedB},
		{ID: node.Generate(), Amount: amt("500"), TaxRate: rate("8"), SupplierID: &unqualified},
	}

	totals := ComputeOrder(invoiceItems, costItems, suppliers, tax.ModeInternal)

	// Qualified lines net of tax: 1000-91=909, 2500-186=2314.
	// Unqualified line at full amount: 500.
	require.Len(t, totals.CostItems, 3)
	assert.True(t, totals.CostItems[0].DeductibleCost.Equal(amt("909")),
		"got %s", totals.CostItems[0].DeductibleCost)
	assert.True(t, totals.CostItems[1].DeductibleCost.Equal(amt("2314")),
		"got %s", totals.CostItems[1].DeductibleCost)
	assert.True(t, totals.CostItems[2].DeductibleCost.Equal(amt("500")),
		"got %s", totals.CostItems[2].DeductibleCost)

	// Item-level ceilings accumulate, so allow a few units around 3724.
	costFloat, _ := totals.CostTotal.Float64()
	assert.InDelta(t, 3724, costFloat, 10)

	assert.True(t, totals.InvoiceTotal.Equal(amt("27180")))
	assert.True(t, totals.Profit.Equal(totals.InvoiceTotal.Sub(totals.CostTotal)))

	// The historical defect: re-applying the tax adjustment to an already
	// deductible cost total produces a lower, wrong profit figure.
	naive := totals.InvoiceTotal.Sub(totals.CostTotal.Add(tax.ComputeOnTotal(totals.CostTotal, rate("10"), tax.ModeInternal)))
	assert.True(t, naive.LessThan(totals.Profit))
}

func TestComputeOrder_Idempotent(t *testing.T) {
	node := newNode(t)
	supplierID := node.Generate()
	suppliers := Lookup{
		supplierID: {TaxCategory: tax.ModeExternal, HasQualifiedInvoiceNumber: true},
	}

	invoiceItems := []InvoiceItem{
		{ID: node.Generate(), Amount: amt("10000"), TaxRate: rate("10")},
		{ID: node.Generate(), Amount: amt("-910"), TaxRate: rate("10")},
		{ID: node.Generate(), Amount: amt("333.5")},
	}
	costItems := []CostItem{
		{ID: node.Generate(), Amount: amt("4980"), TaxRate: rate("10"), SupplierID: &supplierID},
	}

	first := ComputeOrder(invoiceItems, costItems, suppliers, tax.ModeExternal)
	second := ComputeOrder(invoiceItems, costItems, suppliers, tax.ModeExternal)

	assert.True(t, first.InvoiceTotal.Equal(second.InvoiceTotal))
	assert.True(t, first.CostTotal.Equal(second.CostTotal))
	assert.True(t, first.Profit.Equal(second.Profit))
	require.Equal(t, len(first.InvoiceItems), len(second.InvoiceItems))
	for i := range first.InvoiceItems {
		assert.True(t, first.InvoiceItems[i].TaxAmount.Equal(second.InvoiceItems[i].TaxAmount))
	}
}

func TestAggregation_Commutative(t *testing.T) {
	node := newNode(t)
	supplierID := node.Generate()
	suppliers := Lookup{
		supplierID: {TaxCategory: tax.ModeInternal, HasQualifiedInvoiceNumber: true},
	}

	costItems := []CostItem{
		{ID: node.Generate(), Amount: amt("1000"), TaxRate: rate("10"), SupplierID: &supplierID},
		{ID: node.Generate(), Amount: amt("2500.25"), TaxRate: rate("8"), SupplierID: &supplierID},
		{ID: node.Generate(), Amount: amt("-910"), TaxRate: rate("10"), SupplierID: &supplierID},
		{ID: node.Generate(), Amount: amt("0.1")},
		{ID: node.Generate(), Amount: amt("999999999.99"), TaxRate: rate("10"), SupplierID: &supplierID},
	}

	want := AggregateCost(costItems, suppliers)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]CostItem, len(costItems))
		copy(shuffled, costItems)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := AggregateCost(shuffled, suppliers)
		assert.True(t, got.Equal(want), "permutation %d: got %s want %s", i, got, want)
	}
}

func TestAggregateInvoice_FaceValue(t *testing.T) {
	node := newNode(t)
	items := []InvoiceItem{
		{ID: node.Generate(), Amount: amt("10000"), TaxRate: rate("10")},
		{ID: node.Generate(), Amount: amt("5500")},
		{ID: node.Generate(), Amount: amt("-500"), TaxRate: rate("10")},
	}

	// Revenue is recognized at face value; rates on invoice lines only drive
	// the per-item tax figures, never the order total.
	got := AggregateInvoice(items)
	assert.True(t, got.Equal(amt("15000")), "got %s", got)
}
