package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders monetary amounts with a currency symbol, locale grouping
// and no fractional digits.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter returns a Formatter for the given locale and currency symbol.
func NewFormatter(tag language.Tag, symbol string) *Formatter {
	return &Formatter{
		printer: message.NewPrinter(tag),
		symbol:  symbol,
	}
}

// IDR returns the storefront default: Indonesian grouping with the Rupiah
// symbol, e.g. "Rp85.000".
func IDR() *Formatter {
	return NewFormatter(language.Indonesian, "Rp")
}

// Format rounds amount to a whole unit (half away from zero) and renders it.
func (f *Formatter) Format(amount decimal.Decimal) string {
	whole := amount.Round(0).IntPart()
	sign := ""
	if whole < 0 {
		sign = "-"
		whole = -whole
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(whole))
}
