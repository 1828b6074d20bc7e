// Package client is an HTTP client for the catalog API. It implements
// admin.Catalog and the storefront reads used by the terminal client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/katalog-toko/internal/admin"
	"github.com/xenking/katalog-toko/internal/domain/auth"
	"github.com/xenking/katalog-toko/internal/domain/category"
	"github.com/xenking/katalog-toko/internal/domain/image"
	"github.com/xenking/katalog-toko/internal/domain/product"
	"github.com/xenking/katalog-toko/internal/handler"
)

var _ admin.Catalog = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// APIKey or Token authenticate admin calls.
	APIKey string
	Token  string
	// HTTPClient defaults to a client with an instrumented transport.
	HTTPClient *http.Client
}

// Client talks to the API mounted at base, e.g. "http://localhost:8080/api".
type Client struct {
	base   string
	http   *http.Client
	apiKey string
	token  string
}

// New returns a Client for base.
func New(base string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		base:   u.String(),
		http:   hc,
		apiKey: opts.APIKey,
		token:  opts.Token,
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Total   *int            `json:"total"`
}

// do sends the request and decodes the envelope. Failures are mapped back
// onto domain errors.
func (c *Client) do(req *http.Request, op string, authed bool) (*envelope, error) {
	if authed {
		if c.apiKey != "" {
			req.Header.Set(handler.APIKeyHeader, c.apiKey)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &product.UnavailableError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &product.UnavailableError{Op: op, Err: errors.Wrapf(err, "decode %s response", resp.Status)}
	}
	if resp.StatusCode < 300 && env.Success {
		return &env, nil
	}

	msg := env.Message
	if msg == "" {
		msg = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, product.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, auth.ErrUnauthorized
	case http.StatusBadRequest:
		if op == "upload image" {
			return nil, &image.RejectedError{Reason: msg}
		}
		return nil, &product.ValidationError{Field: "request", Reason: msg}
	default:
		return nil, &product.UnavailableError{Op: op, Err: errors.New(msg)}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	return req, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path, op string, v any) (*envelope, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, true)
}

func fromWire(p handler.Product) (product.Product, error) {
	price, err := decimal.NewFromString(p.Price.String())
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "product %s: price", p.ID)
	}
	return product.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     price,
		Discount:  p.Discount,
		Category:  p.Category,
		ImageID:   p.ImageID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func decodeProduct(env *envelope) (*product.Product, error) {
	var w handler.Product
	if err := json.Unmarshal(env.Data, &w); err != nil {
		return nil, errors.Wrap(err, "decode product")
	}
	p, err := fromWire(w)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns products matching category and search with the total
// match count.
func (c *Client) ListProducts(ctx context.Context, cat, search string) ([]product.Product, int, error) {
	q := url.Values{}
	if cat != "" {
		q.Set("category", cat)
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	env, err := c.do(req, "list products", false)
	if err != nil {
		return nil, 0, err
	}

	var wire []handler.Product
	if err := json.Unmarshal(env.Data, &wire); err != nil {
		return nil, 0, errors.Wrap(err, "decode products")
	}
	items := make([]product.Product, 0, len(wire))
	for _, w := range wire {
		p, err := fromWire(w)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	total := len(items)
	if env.Total != nil {
		total = *env.Total
	}
	return items, total, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	env, err := c.do(req, "get product", false)
	if err != nil {
		return nil, err
	}
	return decodeProduct(env)
}

// Categories lists the stored categories.
func (c *Client) Categories(ctx context.Context) ([]category.Category, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/categories", nil)
	if err != nil {
		return nil, err
	}
	env, err := c.do(req, "list categories", false)
	if err != nil {
		return nil, err
	}
	var wire []handler.Category
	if err := json.Unmarshal(env.Data, &wire); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	out := make([]category.Category, 0, len(wire))
	for _, w := range wire {
		out = append(out, category.Category{
			ID:          w.ID,
			Name:        w.Name,
			Description: w.Description,
			CreatedAt:   w.CreatedAt,
			UpdatedAt:   w.UpdatedAt,
		})
	}
	return out, nil
}

func toRequest(id string, f product.Fields) handler.ProductRequest {
	req := handler.ProductRequest{
		ID:       id,
		Name:     f.Name,
		Price:    f.Price,
		Category: f.Category,
		ImageID:  f.ImageID,
	}
	if f.Discount != nil {
		d := decimal.NewFromInt(int64(*f.Discount))
		req.Discount = &d
	}
	return req
}

// CreateProduct creates a product. Requires admin credentials.
func (c *Client) CreateProduct(ctx context.Context, f product.Fields) (*product.Product, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/products", "create product", toRequest("", f))
	if err != nil {
		return nil, err
	}
	return decodeProduct(env)
}

// UpdateProduct updates product id. Requires admin credentials.
func (c *Client) UpdateProduct(ctx context.Context, id string, f product.Fields) (*product.Product, error) {
	env, err := c.sendJSON(ctx, http.MethodPut, "/products", "update product", toRequest(id, f))
	if err != nil {
		return nil, err
	}
	return decodeProduct(env)
}

// DeleteProduct deletes product id. Requires admin credentials.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/products?"+url.Values{"id": {id}}.Encode(), nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, "delete product", true)
	return err
}

// UploadImage uploads an image file. Requires admin credentials.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (*image.File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+handler.UploadField+`"; filename="`+escapeQuotes(filename)+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, errors.Wrap(err, "create form part")
	}
	n, err := io.Copy(part, r)
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "close form")
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	env, err := c.do(req, "upload image", true)
	if err != nil {
		return nil, err
	}

	var up handler.Upload
	if err := json.Unmarshal(env.Data, &up); err != nil {
		return nil, errors.Wrap(err, "decode upload")
	}
	return &image.File{
		ID:          up.FileID,
		Filename:    up.Filename,
		ContentType: contentType,
		Size:        n,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
