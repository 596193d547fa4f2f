package labcart

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// ListByPatient returns the patient's bookings, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
