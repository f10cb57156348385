package http

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/example/studio-booking/internal/catalog"
)

type packageDTO struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Amount    int64  `json:"amount"`
	SlotHours int    `json:"slotHours"`
}

type productDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	ImageURL string `json:"img"`
}

type catalogResponse struct {
	Currency  string       `json:"currency"`
	Packages  []packageDTO `json:"packages"`
	Occasions []string     `json:"occasions"`
	Products  []productDTO `json:"products"`
}

// Catalog lists the bookable packages, occasions and storefront products.
func Catalog(w http.ResponseWriter, r *http.Request) {
	resp := catalogResponse{Currency: catalog.Currency, Occasions: catalog.Occasions()}
	for _, p := range catalog.Packages() {
		resp.Packages = append(resp.Packages, packageDTO{ID: p.ID, Label: p.Label, Amount: p.AmountMinorUnits, SlotHours: p.SlotHours})
	}
	for _, p := range catalog.Products() {
		resp.Products = append(resp.Products, productDTO{ID: p.ID, Title: p.Title, Price: p.PriceMinorUnits, ImageURL: p.ImageURL})
	}
	render.JSON(w, r, resp)
}
