package catalog

import (
	"errors"
	"strings"
)

// Currency is the ISO code every catalog amount is expressed in.
const Currency = "INR"

// MinorUnitsPerMajor converts rupees to paise.
const MinorUnitsPerMajor = 100

var (
	// ErrUnknownPackage is returned when a reference matches no catalog package.
	ErrUnknownPackage = errors.New("catalog: unknown package")
	// ErrUnknownProduct is returned when a reference matches no storefront product.
	ErrUnknownProduct = errors.New("catalog: unknown product")
)

// Package is a bookable studio package with its price and slot length.
type Package struct {
	ID               string
	Label            string
	AmountMinorUnits int64
	SlotHours        int
}

// AmountMajorUnits reports the package price in rupees.
func (p Package) AmountMajorUnits() int64 {
	return p.AmountMinorUnits / MinorUnitsPerMajor
}

// Product is a storefront add-on that can be placed in a cart.
type Product struct {
	ID              string
	Title           string
	PriceMinorUnits int64
	ImageURL        string
}

var packages = []Package{
	{ID: "pkg-499", Label: "PACKAGE 499 (1 HR)", AmountMinorUnits: 499 * MinorUnitsPerMajor, SlotHours: 1},
	{ID: "pkg-699", Label: "PACKAGE 699 (1 HR)", AmountMinorUnits: 699 * MinorUnitsPerMajor, SlotHours: 1},
	{ID: "pkg-999", Label: "PACKAGE 999 (1 HR)", AmountMinorUnits: 999 * MinorUnitsPerMajor, SlotHours: 1},
	{ID: "pkg-1699", Label: "PACKAGE 1699 (1 HR)", AmountMinorUnits: 1699 * MinorUnitsPerMajor, SlotHours: 1},
	{ID: "pkg-2699", Label: "PACKAGE 2699 (2 HR)", AmountMinorUnits: 2699 * MinorUnitsPerMajor, SlotHours: 2},
}

var occasions = []string{
	"Birthday Celebration",
	"Anniversary",
	"Proposal",
	"Baby Shower",
	"Bride To Be",
	"Farewell",
	"Private Screening",
	"Other",
}

var products = []Product{
	{ID: "addon-cake", Title: "Celebration Cake (1 kg)", PriceMinorUnits: 79900, ImageURL: "/static/img/cake.jpg"},
	{ID: "addon-fog", Title: "Fog Entry", PriceMinorUnits: 49900, ImageURL: "/static/img/fog.jpg"},
	{ID: "addon-prints", Title: "Photo Prints (10 pcs)", PriceMinorUnits: 29900, ImageURL: "/static/img/prints.jpg"},
	{ID: "addon-bouquet", Title: "Rose Bouquet", PriceMinorUnits: 39900, ImageURL: "/static/img/bouquet.jpg"},
}

// Packages returns the package catalog ordered by price.
func Packages() []Package {
	out := make([]Package, len(packages))
	copy(out, packages)
	return out
}

// Occasions returns the occasions a booking may be made for.
func Occasions() []string {
	out := make([]string, len(occasions))
	copy(out, occasions)
	return out
}

// Products returns the storefront add-ons.
func Products() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// Lookup resolves a package by identifier or by its exact label. Labels are
// compared case-insensitively after collapsing whitespace; partial labels never
// match.
func Lookup(ref string) (Package, error) {
	key := normalize(ref)
	if key == "" {
		return Package{}, ErrUnknownPackage
	}
	for _, pkg := range packages {
		if strings.EqualFold(pkg.ID, key) || normalize(pkg.Label) == key {
			return pkg, nil
		}
	}
	return Package{}, ErrUnknownPackage
}

// LookupProduct resolves a storefront product by identifier.
func LookupProduct(id string) (Product, error) {
	key := strings.TrimSpace(id)
	for _, product := range products {
		if product.ID == key {
			return product, nil
		}
	}
	return Product{}, ErrUnknownProduct
}

// IsOccasion reports whether the value names a known occasion.
func IsOccasion(value string) bool {
	key := normalize(value)
	for _, occasion := range occasions {
		if normalize(occasion) == key {
			return true
		}
	}
	return false
}

// CanonicalOccasion returns the catalog spelling of an occasion.
func CanonicalOccasion(value string) (string, bool) {
	key := normalize(value)
	for _, occasion := range occasions {
		if normalize(occasion) == key {
			return occasion, true
		}
	}
	return "", false
}

func normalize(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}
