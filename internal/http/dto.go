package http

import (
	"time"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/catalog"
)

type bookingDTO struct {
	ID               string  `json:"id"`
	Occasion         string  `json:"occasion"`
	PackageID        string  `json:"packageId"`
	Package          string  `json:"package"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Name             string  `json:"name"`
	Mobile           string  `json:"mobile"`
	Email            string  `json:"email"`
	Date             string  `json:"date"`
	SlotStart        string  `json:"slotStart"`
	SlotEnd          string  `json:"slotEnd"`
	CreatedAt        string  `json:"createdAt"`
	PaymentReference string  `json:"paymentReference,omitempty"`
	Status           string  `json:"status"`
	CancelReason     string  `json:"cancelReason,omitempty"`
	CancelNote       string  `json:"cancelNote,omitempty"`
	CancelledAt      *string `json:"cancelledAt,omitempty"`
	RefundAmount     *int64  `json:"refundAmount,omitempty"`
}

func toBookingDTO(b application.Booking) bookingDTO {
	dto := bookingDTO{
		ID:               b.ID,
		Occasion:         b.Occasion,
		PackageID:        b.PackageID,
		Package:          b.Package,
		Amount:           b.AmountMinorUnits,
		Currency:         catalog.Currency,
		Name:             b.Name,
		Mobile:           b.Mobile,
		Email:            b.Email,
		Date:             b.Date,
		SlotStart:        b.SlotStart,
		SlotEnd:          b.SlotEnd,
		CreatedAt:        formatTime(b.CreatedAt),
		PaymentReference: b.PaymentReference,
		Status:           b.EffectiveStatus(),
		CancelReason:     b.CancelReason,
		CancelNote:       b.CancelNote,
		RefundAmount:     b.RefundAmount,
	}
	if b.CancelledAt != nil {
		at := formatTime(*b.CancelledAt)
		dto.CancelledAt = &at
	}
	return dto
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

type loginEventDTO struct {
	Email string `json:"email"`
	At    string `json:"at"`
}

func toLoginEventDTOs(events []application.LoginEvent) []loginEventDTO {
	out := make([]loginEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, loginEventDTO{Email: e.Email, At: formatTime(e.At)})
	}
	return out
}

type selectionDTO struct {
	Occasion  string `json:"occasion"`
	PackageID string `json:"packageId"`
	Package   string `json:"package"`
}

type slotDTO struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Locked bool   `json:"locked"`
}

type slotOffersDTO struct {
	Date      string    `json:"date"`
	PackageID string    `json:"packageId"`
	Hours     int       `json:"hours"`
	Slots     []slotDTO `json:"slots"`
}

func toSlotOffersDTO(offers application.SlotOffers) slotOffersDTO {
	dto := slotOffersDTO{Date: offers.Date, PackageID: offers.PackageID, Hours: offers.Hours, Slots: make([]slotDTO, 0, len(offers.Slots))}
	for _, s := range offers.Slots {
		dto.Slots = append(dto.Slots, slotDTO{Start: s.Start, End: s.End, Locked: s.Locked})
	}
	return dto
}

type cartItemDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	ImageURL string `json:"img,omitempty"`
	Quantity int    `json:"qty"`
}

type cartDTO struct {
	Items    []cartItemDTO `json:"items"`
	Count    int           `json:"count"`
	Total    int64         `json:"total"`
	Currency string        `json:"currency"`
}

func toCartDTO(items []application.CartItem, count int, total int64) cartDTO {
	dto := cartDTO{Items: make([]cartItemDTO, 0, len(items)), Count: count, Total: total, Currency: catalog.Currency}
	for _, item := range items {
		dto.Items = append(dto.Items, cartItemDTO{
			ID:       item.ProductID,
			Title:    item.Title,
			Price:    item.PriceMinorUnits,
			ImageURL: item.ImageURL,
			Quantity: item.Quantity,
		})
	}
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
