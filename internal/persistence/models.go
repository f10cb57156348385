package persistence

import (
	"encoding/json"
	"math"
	"time"
)

// Store keys for each document.
const (
	KeyUsers     = "app_users"
	KeySessions  = "app_session_user"
	KeyCarts     = "app_cart"
	KeyBookings  = "app_bookings"
	KeyLogins    = "app_logins"
	KeySelection = "app_booking_selection"
)

// Booking status values.
const (
	StatusConfirmed       = "confirmed"
	StatusCancelledByUser = "cancelled_by_user"
	StatusCancelled       = "cancelled"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is an authenticated browser session.
type Session struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// Booking is a ledger entry for a paid studio slot.
type Booking struct {
	ID               string     `json:"id"`
	Occasion         string     `json:"occasion"`
	PackageID        string     `json:"packageId"`
	Package          string     `json:"package"`
	AmountMinorUnits int64      `json:"amountMinorUnits"`
	Name             string     `json:"name"`
	Mobile           string     `json:"mobile"`
	Email            string     `json:"email"`
	Date             string     `json:"date"`
	SlotStart        string     `json:"slotStart"`
	SlotEnd          string     `json:"slotEnd"`
	CreatedAt        time.Time  `json:"createdAt"`
	PaymentReference string     `json:"paymentReference,omitempty"`
	Status           string     `json:"status,omitempty"`
	CancelReason     string     `json:"cancelReason,omitempty"`
	CancelNote       string     `json:"cancelNote,omitempty"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty"`
	RefundAmount     *int64     `json:"refundAmount,omitempty"`
}

type bookingRecord Booking

// UnmarshalJSON reads both the current layout and legacy booking blobs. A blob
// without amountMinorUnits is legacy: its payment reference lives under
// razorpayPaymentId and its refundAmount is in rupees.
func (b *Booking) UnmarshalJSON(data []byte) error {
	var raw struct {
		bookingRecord
		AmountMinorUnits  *int64       `json:"amountMinorUnits"`
		RefundAmount      *json.Number `json:"refundAmount"`
		RazorpayPaymentID string       `json:"razorpayPaymentId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	record := Booking(raw.bookingRecord)
	legacy := raw.AmountMinorUnits == nil
	if !legacy {
		record.AmountMinorUnits = *raw.AmountMinorUnits
	}
	if record.PaymentReference == "" {
		record.PaymentReference = raw.RazorpayPaymentID
	}
	if raw.RefundAmount != nil {
		var refund int64
		if legacy {
			rupees, err := raw.RefundAmount.Float64()
			if err != nil {
				return err
			}
			refund = int64(math.Round(rupees * 100))
		} else {
			n, err := raw.RefundAmount.Int64()
			if err != nil {
				return err
			}
			refund = n
		}
		record.RefundAmount = &refund
	}
	*b = record
	return nil
}

// EffectiveStatus treats an empty status as confirmed.
func (b Booking) EffectiveStatus() string {
	if b.Status == "" {
		return StatusConfirmed
	}
	return b.Status
}

// IsCancelled reports whether the booking has left the confirmed state.
func (b Booking) IsCancelled() bool {
	status := b.EffectiveStatus()
	return status == StatusCancelled || status == StatusCancelledByUser
}

// LoginEvent records a successful login.
type LoginEvent struct {
	Email string    `json:"email"`
	At    time.Time `json:"at"`
}

// Selection is the occasion and package a user picked before choosing a slot.
type Selection struct {
	Occasion  string    `json:"occasion"`
	PackageID string    `json:"packageId"`
	Package   string    `json:"package"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartItem is a storefront product line.
type CartItem struct {
	ProductID       string `json:"id"`
	Title           string `json:"title"`
	PriceMinorUnits int64  `json:"price"`
	ImageURL        string `json:"img,omitempty"`
	Quantity        int    `json:"qty"`
}
