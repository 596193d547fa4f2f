package directory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Departments
	CreateDepartment(ctx context.Context, d *Department) error
	GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error)
	ListDepartments(ctx context.Context) ([]*Department, error)

	// Doctors
	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
	SearchDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error)
	CountDoctors(ctx context.Context) (int, error)

	// Patients
	CreatePatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) error
	DeletePatient(ctx context.Context, id uuid.UUID) error
	SearchPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
	CountPatients(ctx context.Context) (int, error)

	// Availability
	CreateAvailability(ctx context.Context, a *Availability) error
	// ListAvailability returns a doctor's windows dated within [from, to],
	// ordered by date then start time.
	ListAvailability(ctx context.Context, doctorID uuid.UUID, from, to string, onlyAvailable bool) ([]*Availability, error)
}
