package labcart

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const maxTestName = 120

var (
	ErrNotFound     = errors.New("lab booking not found")
	ErrAccessDenied = errors.New("Access denied")
	// ErrNoProfile means the caller's account has no patient profile.
	ErrNoProfile = errors.New("no profile linked to this account")
)

// Booking is one priced lab test in a patient's cart.
type Booking struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	TestName    string    `db:"test_name" json:"test_name"`
	Price       float64   `db:"price" json:"price"`
	BookingDate time.Time `db:"booking_date" json:"booking_date"`
}

// Cart is a patient's bookings, newest first, with their total price.
type Cart struct {
	Items []*Booking `json:"items"`
	Total float64    `json:"total"`
}

type NewBooking struct {
	TestName string  `json:"test_name" validate:"required,max=120"`
	Price    float64 `json:"price" validate:"gt=0"`
}
