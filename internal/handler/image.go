package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/katalog-toko/internal/domain/image"
)

// UploadField is the multipart field carrying the image.
const UploadField = "image"

// multipartOverhead allows for boundaries and part headers on top of the
// file size limit.
const multipartOverhead = 64 << 10

// Upload is the response data of a successful upload.
type Upload struct {
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxBytes()+multipartOverhead)

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, r, &image.RejectedError{Reason: "file too large"}, "Failed to upload image")
		case errors.Is(err, http.ErrMissingFile):
			writeFailure(w, http.StatusBadRequest, "No image file provided")
		default:
			writeFailure(w, http.StatusBadRequest, "Invalid multipart form")
		}
		return
	}
	defer file.Close()

	f, err := h.images.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, r, err, "Failed to upload image")
		return
	}

	writeData(w, Upload{
		FileID:   f.ID,
		Filename: f.Filename,
		URL:      h.urls.URL(f.ID),
	}, "Image uploaded successfully")
}

func (h *Handler) serveImage(w http.ResponseWriter, r *http.Request) {
	f, data, err := h.images.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "Failed to load image")
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
