package handler

import (
	"net/http"
	"time"
)

// Category is the wire form of a category.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch categories")
		return
	}

	out := make([]Category, len(list))
	for i, c := range list {
		out[i] = Category(c)
	}
	writeList(w, out, len(out))
}
