package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a Booked appointment. A concurrent booking of the same
	// slot surfaces as ErrSlotTaken.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// SlotBooked reports whether the doctor already has a Booked
	// appointment at date and time.
	SlotBooked(ctx context.Context, doctorID uuid.UUID, date, clock string) (bool, error)
	// UpdateStatus moves the appointment from one status to another and
	// reports whether a row was changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	Count(ctx context.Context, f Filter) (int, error)

	CreateTreatment(ctx context.Context, t *Treatment) error

	AssignedPatients(ctx context.Context, doctorID uuid.UUID) ([]*AssignedPatient, error)
}
