package importer

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

// ErrMalformedRow marks a value tuple that could not be parsed.
var ErrMalformedRow = errors.New("malformed row")

// Row is one product tuple of a legacy dump. Err is set when the line looked
// like a tuple but could not be parsed; the other fields are then partial.
type Row struct {
	Line     int
	Err      error
	Name     string
	Price    decimal.Decimal
	Image    string
	Category string
}

// tuple matches ('name', price, 'image', 'category') value lists.
var tuple = regexp.MustCompile(`^\('([^']+)'\s*,\s*([0-9.]+)\s*,\s*'([^']*)'\s*,\s*'([^']+)'\)[,;]$`)

var gzipMagic = []byte{0x1f, 0x8b}

// Open returns a reader over the dump in r, transparently decompressing
// gzip input.
func Open(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "peek dump header")
	}
	if !bytes.Equal(head, gzipMagic) {
		return io.NopCloser(br), nil
	}
	gz, err := pgzip.NewReader(br)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip dump")
	}
	return gz, nil
}

// Parse streams the product tuples of a SQL dump to fn. Lines starting with
// "(" that do not parse are passed with Err set; all other lines are ignored.
func Parse(r io.Reader, fn func(Row) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		row := Row{Line: line}

		m := tuple.FindStringSubmatch(text)
		switch {
		case m != nil:
			row.Name, row.Image, row.Category = m[1], m[3], m[4]
			price, err := decimal.NewFromString(m[2])
			if err != nil {
				row.Err = errors.Wrapf(ErrMalformedRow, "parse price %q: %v", m[2], err)
			}
			row.Price = price
		case strings.HasPrefix(text, "("):
			row.Err = errors.Wrap(ErrMalformedRow, "not a (name, price, image, category) tuple")
		default:
			continue
		}

		if err := fn(row); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scan dump")
	}
	return nil
}
