package labcart

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/healflow/healflow/internal/platform/validate"
)

// Patients resolves the patient profile behind an account. It returns
// ErrNoProfile when there is none.
type Patients interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo     Repository
	patients Patients
	catalog  Catalog
}

func NewService(repo Repository, patients Patients) *Service {
	return &Service{repo: repo, patients: patients, catalog: DefaultCatalog()}
}

func (s *Service) Catalog() Catalog {
	return s.catalog
}

// Add puts a test into the cart of the patient behind userID.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, in *NewBooking) (*Booking, error) {
	name := strings.TrimSpace(in.TestName)
	switch {
	case name == "":
		return nil, validate.Errorf("test_name is required")
	case utf8.RuneCountInString(name) > maxTestName:
		return nil, validate.Errorf("test_name must be at most %d characters", maxTestName)
	case in.Price <= 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0):
		return nil, validate.Errorf("price must be greater than 0")
	}
	patientID, err := s.patients.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	b := &Booking{PatientID: patientID, TestName: name, Price: in.Price}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Cart lists the caller's bookings with the summed price.
func (s *Service) Cart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	patientID, err := s.patients.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	cart := &Cart{Items: items}
	if cart.Items == nil {
		cart.Items = []*Booking{}
	}
	for _, b := range items {
		cart.Total += b.Price
	}
	cart.Total = math.Round(cart.Total*100) / 100
	return cart, nil
}

// Remove deletes a booking owned by the caller. Another patient's booking
// yields ErrAccessDenied and is left in place.
func (s *Service) Remove(ctx context.Context, userID, id uuid.UUID) error {
	patientID, err := s.patients.PatientIDForUser(ctx, userID)
	if err != nil {
		return err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.PatientID != patientID {
		return ErrAccessDenied
	}
	return s.repo.Delete(ctx, id)
}
