package image

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockStore struct {
	created []Upload
	files   map[string][]byte
	err     error
}

func (m *mockStore) Create(_ context.Context, u Upload) (*File, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, u)
	return &File{
		ID:          "file-1",
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Size:        int64(len(u.Data)),
		CreatedAt:   time.Now(),
	}, nil
}

func (m *mockStore) Open(_ context.Context, id string) (*File, []byte, error) {
	data, ok := m.files[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return &File{ID: id, ContentType: "image/png"}, data, nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	if _, ok := m.files[id]; !ok {
		return ErrNotFound
	}
	delete(m.files, id)
	return nil
}

// --- Helpers ---

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00")
)

// --- Tests ---

func TestAllowed(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "IMAGE/PNG", "image/png; charset=binary"} {
		assert.True(t, Allowed(ct), ct)
	}
	for _, ct := range []string{"image/gif", "text/plain", "application/pdf", ""} {
		assert.False(t, Allowed(ct), ct)
	}
}

func TestRead_DeclaredType(t *testing.T) {
	u, err := Read(bytes.NewReader(pngHeader), "a.png", "image/png", MaxUploadBytes)
	require.NoError(t, err)
	assert.Equal(t, "image/png", u.ContentType)
	assert.Equal(t, "a.png", u.Filename)
	assert.Equal(t, pngHeader, u.Data)
}

func TestRead_SniffsMissingType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "png", data: pngHeader, want: "image/png"},
		{name: "jpeg", data: jpegHeader, want: "image/jpeg"},
		{name: "webp", data: webpHeader, want: "image/webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Read(bytes.NewReader(tt.data), "upload", "application/octet-stream", MaxUploadBytes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.ContentType)
		})
	}
}

func TestRead_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		max         int64
	}{
		{name: "gif declared", data: gifHeader, contentType: "image/gif", max: MaxUploadBytes},
		{name: "gif sniffed", data: gifHeader, contentType: "", max: MaxUploadBytes},
		{name: "text", data: []byte("hello"), contentType: "text/plain", max: MaxUploadBytes},
		{name: "empty", data: nil, contentType: "image/png", max: MaxUploadBytes},
		{name: "too large", data: bytes.Repeat([]byte{0}, 11), contentType: "image/png", max: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data), "f", tt.contentType, tt.max)
			require.ErrorIs(t, err, ErrUploadRejected)

			var rerr *RejectedError
			require.ErrorAs(t, err, &rerr)
			assert.NotEmpty(t, rerr.Reason)
		})
	}
}

func TestRead_ExactLimit(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 16)...)
	_, err := Read(bytes.NewReader(data), "f.png", "image/png", int64(len(data)))
	require.NoError(t, err)
}

func TestService_Upload(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, 0)
	assert.Equal(t, MaxUploadBytes, svc.MaxBytes())

	f, err := svc.Upload(context.Background(), "lens.png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "file-1", f.ID)
	assert.Len(t, store.created, 1)
}

func TestService_UploadRejectedSkipsStore(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, 8)

	_, err := svc.Upload(context.Background(), "big.png", "image/png", bytes.NewReader(pngHeader))
	require.ErrorIs(t, err, ErrUploadRejected)

	_, err = svc.Upload(context.Background(), "doc.txt", "text/plain", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrUploadRejected)
	assert.Empty(t, store.created)
}

func TestService_UploadStoreFailure(t *testing.T) {
	svc := NewService(&mockStore{err: errors.New("bucket unavailable")}, 0)

	_, err := svc.Upload(context.Background(), "lens.png", "image/png", bytes.NewReader(pngHeader))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUploadRejected)
}

func TestService_OpenDelete(t *testing.T) {
	store := &mockStore{files: map[string][]byte{"f1": pngHeader}}
	svc := NewService(store, 0)

	_, data, err := svc.Open(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, svc.Delete(context.Background(), "f1"))
	require.ErrorIs(t, svc.Delete(context.Background(), "f1"), ErrNotFound)

	_, _, err = svc.Open(context.Background(), "f1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestURLBuilder(t *testing.T) {
	b := URLBuilder{Base: "https://cdn.example.com/api/images/"}
	assert.Equal(t, "https://cdn.example.com/api/images/abc", b.URL("abc"))
	assert.Equal(t, "", b.URL(""))
	assert.Equal(t, "/api/images/a%20b", URLBuilder{Base: "/api/images"}.URL("a b"))
}
