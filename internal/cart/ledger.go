// Package cart implements the client-side shopping cart ledger.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/katalog-toko/internal/domain/product"
	"github.com/xenking/katalog-toko/internal/pricing"
)

// Item is a cart line: a snapshot of the product taken when it was first
// added, and a quantity of at least 1.
type Item struct {
	Product  product.Product
	Quantity int
}

// LineTotal returns the effective unit price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return pricing.LineTotal(i.Product.Price, i.Product.Discount, i.Quantity)
}

// Ledger is an ordered list of cart items with at most one entry per product
// ID. The zero value is an empty ledger. Ledger is not safe for concurrent
// use.
type Ledger struct {
	items []Item
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) index(id string) int {
	return slices.IndexFunc(l.items, func(it Item) bool {
		return it.Product.ID == id
	})
}

// Add puts one unit of p into the cart. An existing entry keeps its original
// snapshot and has its quantity incremented.
func (l *Ledger) Add(p product.Product) {
	if i := l.index(p.ID); i >= 0 {
		l.items[i].Quantity++
		return
	}
	l.items = append(l.items, Item{Product: p, Quantity: 1})
}

// SetQuantity sets the quantity of product id. A quantity of zero or less
// removes the entry. Unknown ids are ignored.
func (l *Ledger) SetQuantity(id string, qty int) {
	if qty <= 0 {
		l.Remove(id)
		return
	}
	if i := l.index(id); i >= 0 {
		l.items[i].Quantity = qty
	}
}

// Remove deletes the entry for product id, if present.
func (l *Ledger) Remove(id string) {
	if i := l.index(id); i >= 0 {
		l.items = slices.Delete(l.items, i, i+1)
	}
}

// Items returns a copy of the cart lines in insertion order.
func (l *Ledger) Items() []Item {
	return slices.Clone(l.items)
}

// Len returns the number of distinct products in the cart.
func (l *Ledger) Len() int {
	return len(l.items)
}

// TotalItems returns the sum of quantities.
func (l *Ledger) TotalItems() int {
	n := 0
	for _, it := range l.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice returns the sum of effective line totals.
func (l *Ledger) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range l.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Clear empties the cart.
func (l *Ledger) Clear() {
	l.items = nil
}
