package product

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Fields is the caller-supplied input for create and update. Pointer fields
// distinguish "absent" from zero values.
type Fields struct {
	Name     string           `validate:"required"`
	Price    *decimal.Decimal `validate:"required"`
	Discount *int             `validate:"omitempty,min=0,max=100"`
	Category string           `validate:"required,category"`
	ImageID  *string
}

// MaxPrice is the largest storable price: 15 whole digits.
var MaxPrice = decimal.New(1, 15).Sub(decimal.NewFromInt(1))

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return IsCategory(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// document validates f and converts it to the stored form: the name is
// trimmed, the price rounded to a whole unit and the discount defaulted to 0.
func (f Fields) document() (Document, error) {
	f.Name = strings.TrimSpace(f.Name)

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Document{}, fieldError(verrs[0])
		}
		return Document{}, errors.Wrap(err, "validate fields")
	}
	if f.Price.IsNegative() {
		return Document{}, &ValidationError{Field: "price", Reason: "must not be negative"}
	}

	price := f.Price.Round(0)
	if price.GreaterThan(MaxPrice) {
		return Document{}, &ValidationError{Field: "price", Reason: "must not exceed " + MaxPrice.String()}
	}

	doc := Document{
		Name:     f.Name,
		Price:    price,
		Category: f.Category,
	}
	if f.Discount != nil {
		doc.Discount = *f.Discount
	}
	if f.ImageID != nil && *f.ImageID != "" {
		id := *f.ImageID
		doc.ImageID = &id
	}
	return doc, nil
}

func fieldError(fe validator.FieldError) *ValidationError {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Reason: "is required"}
	case "category":
		return &ValidationError{Field: field, Reason: "must be one of the catalog categories"}
	case "min", "max":
		return &ValidationError{Field: field, Reason: "must be between 0 and 100"}
	default:
		return &ValidationError{Field: field, Reason: "is invalid"}
	}
}
