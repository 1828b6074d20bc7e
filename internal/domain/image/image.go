// Package image handles product image uploads: content checks, storage and
// public URL construction.
package image

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// MaxUploadBytes is the default upload size limit (5 MB).
const MaxUploadBytes int64 = 5 << 20

var (
	// ErrUploadRejected matches every *RejectedError.
	ErrUploadRejected = errors.New("upload rejected")
	// ErrNotFound is returned for unknown file identifiers.
	ErrNotFound = errors.New("image not found")
)

// RejectedError reports why an upload was refused.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// Is makes errors.Is(err, ErrUploadRejected) hold.
func (e *RejectedError) Is(target error) bool {
	return target == ErrUploadRejected
}

// File is metadata of a stored image.
type File struct {
	ID          string
	Bucket      string
	Filename    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// Upload is an accepted image waiting to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store is the file side of the catalog store.
type Store interface {
	Create(ctx context.Context, u Upload) (*File, error)
	Open(ctx context.Context, id string) (*File, []byte, error)
	Delete(ctx context.Context, id string) error
}

// URLBuilder turns stored file identifiers into public URLs.
type URLBuilder struct {
	Base string
}

// URL returns the public URL of file id. An empty id yields "".
func (b URLBuilder) URL(id string) string {
	if id == "" {
		return ""
	}
	base := strings.TrimSuffix(b.Base, "/")
	return fmt.Sprintf("%s/%s", base, url.PathEscape(id))
}
