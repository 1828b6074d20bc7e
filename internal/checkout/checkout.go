// Package checkout drives the storefront session from browsing through cart
// review to a completed (unpaid, unpersisted) checkout.
package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/katalog-toko/internal/cart"
)

// State is a step of the storefront session.
type State int

const (
	Browsing State = iota
	CartOpen
	CheckoutOpen
	Completed
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case CartOpen:
		return "cart_open"
	case CheckoutOpen:
		return "checkout_open"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when an action is not allowed from the
// current state.
var ErrInvalidTransition = errors.New("invalid checkout transition")

// ShippingInfo is collected on the checkout form. Fields are only checked
// for presence.
type ShippingInfo struct {
	Name    string `validate:"required"`
	Phone   string `validate:"required"`
	Email   string `validate:"required"`
	Address string `validate:"required"`
}

// MissingFieldError lists shipping fields left blank.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Receipt summarizes a completed checkout.
type Receipt struct {
	Shipping    ShippingInfo
	Items       []cart.Item
	TotalItems  int
	TotalPrice  decimal.Decimal
	CompletedAt time.Time
}

var validate = validator.New()

// Flow is the session state machine. It is not safe for concurrent use.
type Flow struct {
	state  State
	ledger *cart.Ledger
	now    func() time.Time
}

// NewFlow returns a flow in the Browsing state operating on ledger.
func NewFlow(ledger *cart.Ledger) *Flow {
	return &Flow{
		state:  Browsing,
		ledger: ledger,
		now:    time.Now,
	}
}

// State returns the current state.
func (f *Flow) State() State {
	return f.state
}

// Ledger returns the cart the flow operates on.
func (f *Flow) Ledger() *cart.Ledger {
	return f.ledger
}

func (f *Flow) transition(from, to State) error {
	if f.state != from {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s from %s", from, to, f.state)
	}
	f.state = to
	return nil
}

// OpenCart shows the cart drawer.
func (f *Flow) OpenCart() error {
	return f.transition(Browsing, CartOpen)
}

// CloseCart hides the cart drawer.
func (f *Flow) CloseCart() error {
	return f.transition(CartOpen, Browsing)
}

// BeginCheckout opens the checkout form. The cart must not be empty.
func (f *Flow) BeginCheckout() error {
	if f.state == CartOpen && f.ledger.Len() == 0 {
		return errors.Wrap(ErrInvalidTransition, "cart is empty")
	}
	return f.transition(CartOpen, CheckoutOpen)
}

// Cancel abandons the checkout form and returns to browsing. The cart is
// left intact.
func (f *Flow) Cancel() error {
	return f.transition(CheckoutOpen, Browsing)
}

// Complete validates info, clears the cart and returns to browsing. On
// validation failure the flow stays in CheckoutOpen.
func (f *Flow) Complete(info ShippingInfo) (*Receipt, error) {
	if f.state != CheckoutOpen {
		return nil, errors.Wrapf(ErrInvalidTransition, "complete from %s", f.state)
	}

	info = ShippingInfo{
		Name:    strings.TrimSpace(info.Name),
		Phone:   strings.TrimSpace(info.Phone),
		Email:   strings.TrimSpace(info.Email),
		Address: strings.TrimSpace(info.Address),
	}
	if err := validate.Struct(info); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, errors.Wrap(err, "validate shipping info")
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, strings.ToLower(fe.Field()))
		}
		return nil, &MissingFieldError{Fields: missing}
	}

	f.state = Completed
	r := &Receipt{
		Shipping:    info,
		Items:       f.ledger.Items(),
		TotalItems:  f.ledger.TotalItems(),
		TotalPrice:  f.ledger.TotalPrice(),
		CompletedAt: f.now(),
	}
	f.ledger.Clear()
	f.state = Browsing
	return r, nil
}
