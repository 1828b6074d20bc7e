package product

import "slices"

// All is the category filter value meaning "no category constraint".
const All = "ALL"

// categories is the closed set of values a product category may take.
var categories = []string{
	"DIOSYS & Y2000",
	"GIP",
	"SOFTLENS",
	"BLESSING",
	"MELANIE",
	"TUFT & LUMI",
	"RIDHA",
	"TAKEDA & LUMINIQUE",
	"BESTZ 3G",
	"PERLENGKAPAN",
	"LAIN LAIN",
	"AKSESORIS",
	"BEAUTICA",
}

// Categories returns the category enumeration in display order.
func Categories() []string {
	return slices.Clone(categories)
}

// IsCategory reports whether name is one of the catalog categories. The
// comparison is case-sensitive.
func IsCategory(name string) bool {
	return slices.Contains(categories, name)
}
