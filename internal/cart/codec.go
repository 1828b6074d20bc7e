package cart

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/katalog-toko/internal/domain/product"
)

// MarshalJSON encodes the ledger as
// [{"product":{...},"quantity":n}] with the full product snapshot.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, it := range l.items {
		e.ObjStart()
		e.FieldStart("product")
		encodeProduct(e, it.Product)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()

	return append([]byte(nil), e.Bytes()...), nil
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	e.Raw([]byte(p.Price.String()))
	e.FieldStart("discount")
	e.Int(p.Discount)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("imageId")
	if p.ImageID != nil {
		e.Str(*p.ImageID)
	} else {
		e.Null()
	}
	e.FieldStart("createdAt")
	e.Str(p.CreatedAt.Format(time.RFC3339Nano))
	e.FieldStart("updatedAt")
	e.Str(p.UpdatedAt.Format(time.RFC3339Nano))
	e.ObjEnd()
}

// UnmarshalJSON replaces the ledger contents with the decoded items. Lines
// with a non-positive quantity or a duplicate product ID are dropped.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	d := jx.DecodeBytes(data)

	var items []Item
	if err := d.Arr(func(d *jx.Decoder) error {
		var it Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "product":
				p, err := decodeProduct(d)
				if err != nil {
					return errors.Wrap(err, "product")
				}
				it.Product = p
			case "quantity":
				n, err := d.Int()
				if err != nil {
					return errors.Wrap(err, "quantity")
				}
				it.Quantity = n
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return errors.Wrap(err, "decode cart")
	}

	l.items = nil
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if _, ok := seen[it.Product.ID]; ok {
			continue
		}
		seen[it.Product.ID] = struct{}{}
		l.items = append(l.items, it)
	}
	return nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id", "$id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "discount":
			p.Discount, err = d.Int()
		case "category":
			p.Category, err = d.Str()
		case "imageId":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var id string
			if id, err = d.Str(); err == nil {
				p.ImageID = &id
			}
		case "createdAt", "$createdAt":
			p.CreatedAt, err = decodeTime(d)
		case "updatedAt", "$updatedAt":
			p.UpdatedAt, err = decodeTime(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return p, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	if d.Next() == jx.Null {
		return time.Time{}, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
