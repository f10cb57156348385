package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/studio-booking/internal/application"
	"github.com/example/studio-booking/internal/catalog"
	"github.com/example/studio-booking/internal/persistence"
)

var (
	userCounter    uint64
	bookingCounter uint64
)

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account usable at either layer.
type UserFixture struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         application.Role
	CreatedAt    time.Time
}

type UserOption func(*UserFixture)

func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:           id,
		FullName:     fmt.Sprintf("Guest %03d", idx),
		Email:        id + "@example.com",
		PasswordHash: "hash-" + id,
		Role:         application.RoleUser,
		CreatedAt:    ReferenceTime().Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

func WithUserName(name string) UserOption {
	return func(f *UserFixture) { f.FullName = name }
}

// AsAdmin gives the fixture the admin role.
func AsAdmin() UserOption {
	return func(f *UserFixture) { f.Role = application.RoleAdmin }
}

func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		FullName:  f.FullName,
		Email:     f.Email,
		Role:      f.Role,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Email: f.Email, IsAdmin: f.Role == application.RoleAdmin}
}

func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		FullName:     f.FullName,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		Role:         string(f.Role),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}
}

// --------------------------- Booking fixtures ----------------------------

// BookingFixture is a confirmed, paid booking by default.
type BookingFixture struct {
	ID               string
	Occasion         string
	Package          catalog.Package
	Name             string
	Mobile           string
	Email            string
	Date             string
	SlotStart        string
	SlotEnd          string
	Status           string
	PaymentReference string
	CreatedAt        time.Time
}

type BookingOption func(*BookingFixture)

// NewBookingFixture books pkg-999 on 2024-06-12 at 14:00 unless overridden.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	pkg, _ := catalog.Lookup("pkg-999")
	fixture := BookingFixture{
		ID:               fmt.Sprintf("KKR%08dFIX", idx),
		Occasion:         "Birthday Celebration",
		Package:          pkg,
		Name:             "Asha Rao",
		Mobile:           "9876543210",
		Email:            "asha@example.com",
		Date:             "2024-06-12",
		SlotStart:        "14:00",
		SlotEnd:          "15:00",
		Status:           application.BookingStatusConfirmed,
		PaymentReference: fmt.Sprintf("pay_fixture_%d", idx),
		CreatedAt:        ReferenceTime().Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

func WithOwner(email string) BookingOption {
	return func(f *BookingFixture) { f.Email = email }
}

// WithSlot sets the date and the start/end clock times.
func WithSlot(date, start, end string) BookingOption {
	return func(f *BookingFixture) {
		f.Date = date
		f.SlotStart = start
		f.SlotEnd = end
	}
}

// WithPackage switches to a catalog package. It panics on unknown ids.
func WithPackage(ref string) BookingOption {
	return func(f *BookingFixture) {
		pkg, err := catalog.Lookup(ref)
		if err != nil {
			panic(err)
		}
		f.Package = pkg
	}
}

func WithStatus(status string) BookingOption {
	return func(f *BookingFixture) { f.Status = status }
}

func WithCreatedAt(t time.Time) BookingOption {
	return func(f *BookingFixture) { f.CreatedAt = t }
}

func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:               f.ID,
		Occasion:         f.Occasion,
		PackageID:        f.Package.ID,
		Package:          f.Package.Label,
		AmountMinorUnits: f.Package.AmountMinorUnits,
		Name:             f.Name,
		Mobile:           f.Mobile,
		Email:            f.Email,
		Date:             f.Date,
		SlotStart:        f.SlotStart,
		SlotEnd:          f.SlotEnd,
		CreatedAt:        f.CreatedAt,
		PaymentReference: f.PaymentReference,
		Status:           f.Status,
	}
}

// Draft is the ledger input that would produce this booking.
func (f BookingFixture) Draft() application.BookingDraft {
	return application.BookingDraft{
		Occasion:         f.Occasion,
		PackageID:        f.Package.ID,
		Package:          f.Package.Label,
		AmountMinorUnits: f.Package.AmountMinorUnits,
		Name:             f.Name,
		Mobile:           f.Mobile,
		Email:            f.Email,
		Date:             f.Date,
		SlotStart:        f.SlotStart,
		SlotEnd:          f.SlotEnd,
		PaymentReference: f.PaymentReference,
	}
}

func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:               f.ID,
		Occasion:         f.Occasion,
		PackageID:        f.Package.ID,
		Package:          f.Package.Label,
		AmountMinorUnits: f.Package.AmountMinorUnits,
		Name:             f.Name,
		Mobile:           f.Mobile,
		Email:            f.Email,
		Date:             f.Date,
		SlotStart:        f.SlotStart,
		SlotEnd:          f.SlotEnd,
		CreatedAt:        f.CreatedAt,
		PaymentReference: f.PaymentReference,
		Status:           f.Status,
	}
}
