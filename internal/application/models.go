package application

import "time"

// Role distinguishes customers from studio staff.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Booking status values.
const (
	BookingStatusConfirmed       = "confirmed"
	BookingStatusCancelledByUser = "cancelled_by_user"
	BookingStatusCancelled       = "cancelled"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// User represents a registered account.
type User struct {
	ID        string
	FullName  string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserCredentials couples a user with its stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an issued authentication session.
type Session struct {
	Token     string
	UserID    string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// RegisterParams captures the registration form.
type RegisterParams struct {
	FullName        string `validate:"required,min=3"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// RegisterResult returns the created account with its first session.
type RegisterResult struct {
	User    User
	Session Session
}

// AuthenticateParams captures login credentials.
type AuthenticateParams struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// AuthenticateResult returns the authenticated user and issued session.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams identifies the session to rotate.
type RefreshSessionParams struct {
	Token string
}

// RefreshSessionResult returns the rotated session.
type RefreshSessionResult struct {
	Session Session
}

// Booking is a studio reservation.
type Booking struct {
	ID               string
	Occasion         string
	PackageID        string
	Package          string
	AmountMinorUnits int64
	Name             string
	Mobile           string
	Email            string
	Date             string
	SlotStart        string
	SlotEnd          string
	CreatedAt        time.Time
	PaymentReference string
	Status           string
	CancelReason     string
	CancelNote       string
	CancelledAt      *time.Time
	RefundAmount     *int64
}

// EffectiveStatus treats an empty status as confirmed.
func (b Booking) EffectiveStatus() string {
	if b.Status == "" {
		return BookingStatusConfirmed
	}
	return b.Status
}

// IsCancelled reports whether the booking was cancelled by anyone.
func (b Booking) IsCancelled() bool {
	status := b.EffectiveStatus()
	return status == BookingStatusCancelled || status == BookingStatusCancelledByUser
}

// BookingDraft is a booking before the ledger assigns its identity.
type BookingDraft struct {
	Occasion         string
	PackageID        string
	Package          string
	AmountMinorUnits int64
	Name             string
	Mobile           string
	Email            string
	Date             string
	SlotStart        string
	SlotEnd          string
	PaymentReference string
}

// LoginEvent is an audit record of a successful login.
type LoginEvent struct {
	Email string
	At    time.Time
}

// Selection is a user's in-progress occasion and package choice.
type Selection struct {
	Occasion  string
	PackageID string
	Package   string
	UpdatedAt time.Time
}

// SelectPackageParams captures the first booking step.
type SelectPackageParams struct {
	Principal Principal
	Occasion  string `validate:"required"`
	Package   string `validate:"required"`
}

// OfferSlotsParams asks for the slots available on a date.
type OfferSlotsParams struct {
	Date    string `validate:"required"`
	Package string `validate:"required"`
}

// SlotOffer is a slot presented to the customer.
type SlotOffer struct {
	Start  string
	End    string
	Locked bool
}

// SlotOffers lists the slots for a date and package.
type SlotOffers struct {
	Date      string
	PackageID string
	Hours     int
	Slots     []SlotOffer
}

// CheckoutParams captures the contact form, slot choice and payment token.
// Occasion and Package fall back to the stored selection when empty.
type CheckoutParams struct {
	Principal    Principal
	Occasion     string
	Package      string
	Name         string `validate:"required,min=3"`
	Mobile       string `validate:"required,numeric,len=10"`
	Date         string `validate:"required"`
	SlotStart    string `validate:"required"`
	PaymentToken string
}

// CheckoutResult reports the payment outcome and, on success, the booking.
type CheckoutResult struct {
	Paid          bool
	FailureReason string
	Booking       *Booking
}

// CancelBookingParams captures a self-service cancellation.
type CancelBookingParams struct {
	Principal Principal
	BookingID string
	Reason    string `validate:"required"`
}

// AdminCancelParams captures a staff cancellation with an optional refund.
type AdminCancelParams struct {
	Principal        Principal
	BookingID        string
	Note             string
	RefundMinorUnits int64
}

// Refund outcomes reported alongside an admin cancellation.
const (
	RefundOutcomeConfirmed    = "confirmed"
	RefundOutcomeNotConfirmed = "not_confirmed"
	RefundOutcomeSimulated    = "simulated"
	RefundOutcomeNotRequested = "not_requested"
)

// AdminCancelResult reports the committed cancellation and, separately, the refund.
type AdminCancelResult struct {
	Booking       Booking
	RefundOutcome string
	RefundError   string
}

// Report combines the ledger with the login trail, newest first.
type Report struct {
	Bookings []Booking
	Logins   []LoginEvent
}

// CartItem is a storefront product line.
type CartItem struct {
	ProductID       string
	Title           string
	PriceMinorUnits int64
	ImageURL        string
	Quantity        int
}

// Cart summarises a user's cart.
type Cart struct {
	Items           []CartItem
	Count           int
	TotalMinorUnits int64
}

// CartCheckoutResult reports what was purchased before the cart was cleared.
type CartCheckoutResult struct {
	Items           []CartItem
	Count           int
	TotalMinorUnits int64
}
