package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/katalog-toko/internal/domain/product"
)

// Product is the wire form of a catalog product. Prices are JSON numbers.
type Product struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Price          json.Number `json:"price"`
	Discount       int         `json:"discount"`
	EffectivePrice json.Number `json:"effectivePrice"`
	Category       string      `json:"category"`
	ImageID        *string     `json:"imageId"`
	ImageURL       string      `json:"imageUrl,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (h *Handler) toProduct(p product.Product) Product {
	out := Product{
		ID:             p.ID,
		Name:           p.Name,
		Price:          json.Number(p.Price.String()),
		Discount:       p.Discount,
		EffectivePrice: json.Number(p.EffectivePrice().String()),
		Category:       p.Category,
		ImageID:        p.ImageID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.HasImage() {
		out.ImageURL = h.urls.URL(*p.ImageID)
	}
	return out
}

// ProductRequest is the body of create and update calls. Price and discount
// accept JSON numbers or numeric strings.
type ProductRequest struct {
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Category string           `json:"category"`
	ImageID  *string          `json:"imageId,omitempty"`
}

var maxDiscount = decimal.NewFromInt(100)

func (req ProductRequest) fields() (product.Fields, error) {
	f := product.Fields{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		ImageID:  req.ImageID,
	}
	if req.Discount != nil {
		if !req.Discount.IsInteger() {
			return product.Fields{}, &product.ValidationError{Field: "discount", Reason: "must be a whole percentage"}
		}
		if req.Discount.LessThan(decimal.Zero) || req.Discount.GreaterThan(maxDiscount) {
			return product.Fields{}, &product.ValidationError{Field: "discount", Reason: "must be between 0 and 100"}
		}
		d := int(req.Discount.IntPart())
		f.Discount = &d
	}
	return f, nil
}

func decodeProductRequest(r *http.Request) (ProductRequest, error) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ProductRequest{}, &product.ValidationError{Field: "body", Reason: "must be a valid JSON product"}
	}
	return req, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, total, err := h.products.List(r.Context(), q.Get("category"), q.Get("search"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch products")
		return
	}

	out := make([]Product, len(items))
	for i, p := range items {
		out[i] = h.toProduct(p)
	}
	writeList(w, out, total)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to fetch product")
		return
	}
	writeData(w, h.toProduct(*p), "")
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProductRequest(r)
	if err != nil {
		writeError(w, r, err, "Failed to create product")
		return
	}
	f, err := req.fields()
	if err != nil {
		writeError(w, r, err, "Failed to create product")
		return
	}

	p, err := h.products.Create(r.Context(), f)
	if err != nil {
		writeError(w, r, err, "Failed to create product")
		return
	}
	writeData(w, h.toProduct(*p), "Product created successfully")
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProductRequest(r)
	if err != nil {
		writeError(w, r, err, "Failed to update product")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeFailure(w, http.StatusBadRequest, "Product ID is required")
		return
	}
	f, err := req.fields()
	if err != nil {
		writeError(w, r, err, "Failed to update product")
		return
	}

	p, err := h.products.Update(r.Context(), req.ID, f)
	if err != nil {
		writeError(w, r, err, "Failed to update product")
		return
	}
	writeData(w, h.toProduct(*p), "Product updated successfully")
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeFailure(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, "Failed to delete product")
		return
	}
	writeData(w, map[string]string{"id": id}, "Product deleted successfully")
}
