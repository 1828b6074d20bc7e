package image

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
)

// allowedTypes lists accepted image content types. image/jpg is not a
// registered type but browsers still send it.
var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

// Allowed reports whether contentType is an accepted image type.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[normalizeType(contentType)]
	return ok
}

func normalizeType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// Read consumes r and returns a validated Upload. The declared content type
// is used when present; otherwise the type is sniffed from the data. Content
// larger than maxBytes is rejected without being fully read.
func Read(r io.Reader, filename, declaredType string, maxBytes int64) (Upload, error) {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Upload{}, errors.Wrap(err, "read upload")
	}
	if n > maxBytes {
		return Upload{}, &RejectedError{Reason: fmt.Sprintf("file too large: limit is %d bytes", maxBytes)}
	}
	if n == 0 {
		return Upload{}, &RejectedError{Reason: "no file uploaded"}
	}

	contentType := normalizeType(declaredType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalizeType(mimetype.Detect(buf.Bytes()).String())
	}
	if !Allowed(contentType) {
		return Upload{}, &RejectedError{Reason: "invalid file type: only JPEG, PNG and WebP images are allowed"}
	}

	return Upload{
		Filename:    filename,
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}

// Service stores uploads after validating them.
type Service struct {
	store    Store
	maxBytes int64
}

// NewService returns a Service enforcing maxBytes per upload. A non-positive
// maxBytes selects MaxUploadBytes.
func NewService(store Store, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	return &Service{
		store:    store,
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the configured size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates r and stores it. Rejected uploads never reach the store.
func (s *Service) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*File, error) {
	u, err := Read(r, filename, contentType, s.maxBytes)
	if err != nil {
		return nil, err
	}

	f, err := s.store.Create(ctx, u)
	if err != nil {
		return nil, errors.Wrap(err, "store image")
	}
	return f, nil
}

// Open returns a stored image and its content.
func (s *Service) Open(ctx context.Context, id string) (*File, []byte, error) {
	f, data, err := s.store.Open(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, errors.Wrap(err, "open image")
	}
	return f, data, nil
}

// Delete removes a stored image.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "delete image")
	}
	return nil
}
