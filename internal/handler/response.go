package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/katalog-toko/internal/domain/auth"
	"github.com/xenking/katalog-toko/internal/domain/image"
	"github.com/xenking/katalog-toko/internal/domain/product"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

func writeList(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Total: &total})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}

// writeError maps domain errors to HTTP statuses. Anything unrecognized is
// logged and reported as a generic 500 so store details never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, product.ErrValidation), errors.Is(err, image.ErrUploadRejected):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, image.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Image not found")
	case errors.Is(err, auth.ErrUnauthorized):
		writeFailure(w, http.StatusUnauthorized, "Unauthorized")
	default:
		zctx.From(r.Context()).Error(fallback, zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, fallback)
	}
}
