package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/katalog-toko/internal/domain/product"
)

// --- Helpers ---

func newTestProduct(id string, price int64, discount int) product.Product {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return product.Product{
		ID:        id,
		Name:      "Product " + id,
		Price:     decimal.NewFromInt(price),
		Discount:  discount,
		Category:  "SOFTLENS",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// --- Tests ---

func TestLedger_AddIncrements(t *testing.T) {
	l := New()
	p := newTestProduct("p1", 85000, 10)

	l.Add(p)
	l.Add(p)

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 2, l.TotalItems())
	assert.True(t, decimal.NewFromInt(153000).Equal(l.TotalPrice()), "got %s", l.TotalPrice())
}

func TestLedger_AddKeepsSnapshot(t *testing.T) {
	l := New()
	p := newTestProduct("p1", 10000, 0)
	l.Add(p)

	p.Price = decimal.NewFromInt(99999)
	l.Add(p)

	items := l.Items()
	require.Len(t, items, 1)
	assert.True(t, decimal.NewFromInt(10000).Equal(items[0].Product.Price))
	assert.Equal(t, 2, items[0].Quantity)
}

func TestLedger_SetQuantity(t *testing.T) {
	l := New()
	l.Add(newTestProduct("p1", 1000, 0))
	l.Add(newTestProduct("p2", 2000, 50))

	l.SetQuantity("p1", 5)
	assert.Equal(t, 6, l.TotalItems())
	assert.True(t, decimal.NewFromInt(6000).Equal(l.TotalPrice()))

	l.SetQuantity("missing", 3)
	assert.Equal(t, 2, l.Len())

	l.SetQuantity("p1", 0)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, "p2", l.Items()[0].Product.ID)

	l.SetQuantity("p2", -1)
	assert.Zero(t, l.Len())
}

func TestLedger_RemoveAndClear(t *testing.T) {
	l := New()
	l.Add(newTestProduct("p1", 1000, 0))
	l.Add(newTestProduct("p2", 2000, 0))
	l.Add(newTestProduct("p3", 3000, 0))

	l.Remove("p2")
	l.Remove("missing")
	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].Product.ID)
	assert.Equal(t, "p3", items[1].Product.ID)

	l.Clear()
	assert.Zero(t, l.Len())
	assert.Zero(t, l.TotalItems())
	assert.True(t, decimal.Zero.Equal(l.TotalPrice()))
}

func TestLedger_ItemsIsCopy(t *testing.T) {
	l := New()
	l.Add(newTestProduct("p1", 1000, 0))

	items := l.Items()
	items[0].Quantity = 42

	assert.Equal(t, 1, l.TotalItems())
}

func TestLedger_ZeroValue(t *testing.T) {
	var l Ledger
	l.Add(newTestProduct("p1", 500, 0))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_MarshalJSON(t *testing.T) {
	l := New()
	p := newTestProduct("p1", 85000, 10)
	img := "img-1"
	p.ImageID = &img
	l.Add(p)
	l.Add(newTestProduct("p2", 45, 0))
	l.SetQuantity("p2", 3)

	data, err := l.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"product":{"id":"p1","name":"Product p1","price":85000,"discount":10,"category":"SOFTLENS","imageId":"img-1","createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"},"quantity":1},
		{"product":{"id":"p2","name":"Product p2","price":45,"discount":0,"category":"SOFTLENS","imageId":null,"createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"},"quantity":3}
	]`, string(data))
}

// snapshot normalizes the parts of a product that compare unequal after a
// round-trip without changing value: decimal internals and time zones.
func snapshot(t *testing.T, p product.Product, price decimal.Decimal) product.Product {
	t.Helper()
	require.True(t, price.Equal(p.Price), "price %s != %s", p.Price, price)
	p.Price = price
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p
}

func TestLedger_RoundTrip(t *testing.T) {
	l := New()
	p := newTestProduct("p1", 85000, 10)
	img := "img-1"
	p.ImageID = &img
	p.Category = "TAKEDA & LUMINIQUE"
	p.UpdatedAt = time.Date(2025, 3, 2, 17, 30, 0, 123456789, time.FixedZone("WIB", 7*3600))
	l.Add(p)
	l.Add(p)
	l.Add(newTestProduct("p2", 45, 0))

	data, err := l.MarshalJSON()
	require.NoError(t, err)

	got := New()
	require.NoError(t, got.UnmarshalJSON(data))

	want := l.Items()
	items := got.Items()
	require.Len(t, items, len(want))
	for i := range want {
		assert.Equal(t, want[i].Quantity, items[i].Quantity)
		assert.Equal(t,
			snapshot(t, want[i].Product, want[i].Product.Price),
			snapshot(t, items[i].Product, want[i].Product.Price),
		)
	}
	assert.True(t, l.TotalPrice().Equal(got.TotalPrice()))
}

func TestLedger_UnmarshalLegacy(t *testing.T) {
	// Entries written by older clients use $-prefixed store fields and may
	// carry string prices.
	data := `[
		{"product":{"$id":"a","name":"Cairan","price":"25000","discount":0,"category":"GIP","imageId":null,"$createdAt":"2024-01-01T00:00:00.000+00:00","extra":true},"quantity":2},
		{"product":{"$id":"a","name":"dup","price":1},"quantity":1},
		{"product":{"$id":"b","name":"zero","price":1},"quantity":0}
	]`

	l := New()
	require.NoError(t, l.UnmarshalJSON([]byte(data)))
	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Product.ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, decimal.NewFromInt(50000).Equal(l.TotalPrice()))
}

func TestLedger_UnmarshalInvalid(t *testing.T) {
	l := New()
	l.Add(newTestProduct("p1", 1, 0))

	require.Error(t, l.UnmarshalJSON([]byte(`{"not":"an array"}`)))
	require.Error(t, l.UnmarshalJSON([]byte(`[{"product":{"price":"abc"},"quantity":1}]`)))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, l.Len())

	l.Add(newTestProduct("p1", 1000, 0))
	require.NoError(t, s.Save(ctx, l))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalItems())
}

func TestScenario_CreateThenAddTwice(t *testing.T) {
	svc := product.NewService(&stubRepo{}, nil)
	price := decimal.NewFromInt(85000)
	discount := 10

	p, err := svc.Create(context.Background(), product.Fields{
		Name:     "Softlens",
		Price:    &price,
		Discount: &discount,
		Category: "SOFTLENS",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(76500).Equal(p.EffectivePrice()))

	l := New()
	l.Add(*p)
	l.Add(*p)
	assert.Equal(t, 2, l.TotalItems())
	assert.True(t, decimal.NewFromInt(153000).Equal(l.TotalPrice()))
}

type stubRepo struct {
	product.Repository
}

func (stubRepo) Create(_ context.Context, doc product.Document) (*product.Product, error) {
	now := time.Now()
	return &product.Product{
		ID:        "new",
		Name:      doc.Name,
		Price:     doc.Price,
		Discount:  doc.Discount,
		Category:  doc.Category,
		ImageID:   doc.ImageID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
