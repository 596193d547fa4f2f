package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/internal/platform/validate"
	"github.com/healflow/healflow/pkg/calendar"
)

const maxReasonLength = 1000

// Profiles resolves doctor and patient profiles. The *ForUser lookups
// return ErrNoProfile when the account has no profile of that kind.
type Profiles interface {
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier is told about lifecycle changes after they commit.
type Notifier interface {
	AppointmentBooked(ctx context.Context, a *Appointment) error
	AppointmentCancelled(ctx context.Context, a *Appointment, by string) error
	VisitCompleted(ctx context.Context, a *Appointment) error
}

// Dispatcher runs a notification off the request path and logs failures.
type Dispatcher interface {
	Go(ctx context.Context, event, subject string, fn func(ctx context.Context) error)
}

// Actor is the caller acting on an appointment.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// ActorFrom converts a request identity into an Actor.
func ActorFrom(id auth.Identity) Actor {
	return Actor{UserID: id.UserID, Role: id.Role}
}

type Service struct {
	repo     Repository
	profiles Profiles
	tx       TxRunner
	notifier Notifier
	dispatch Dispatcher
	now      func() time.Time
}

func NewService(repo Repository, profiles Profiles, tx TxRunner) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		tx:       tx,
		now:      time.Now,
	}
}

// SetNotifier attaches an optional lifecycle notifier. Notices are handed
// to d after the change commits, so delivery never delays or fails the
// request.
func (s *Service) SetNotifier(n Notifier, d Dispatcher) {
	s.notifier = n
	s.dispatch = d
}

func (s *Service) notify(ctx context.Context, a *Appointment, event string, fn func(context.Context, Notifier) error) {
	if s.notifier == nil || s.dispatch == nil || a == nil {
		return
	}
	n := s.notifier
	s.dispatch.Go(ctx, "appointment_"+event, a.ID.String(), func(ctx context.Context) error {
		return fn(ctx, n)
	})
}

// Book creates a Booked appointment for the patient behind userID. The slot
// check and the insert share one transaction; a concurrent insert of the
// same slot is caught by the booked-slot index and reported as ErrSlotTaken.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, req *BookingRequest) (*Appointment, error) {
	if req.DoctorID == uuid.Nil {
		return nil, validate.Errorf("doctor_id is required")
	}
	date, err := calendar.NormalizeDate(req.Date)
	if err != nil {
		return nil, validate.Errorf("appointment_date: %v", err)
	}
	clock, err := calendar.NormalizeClock(req.Time)
	if err != nil {
		return nil, validate.Errorf("appointment_time: %v", err)
	}
	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, validate.Errorf("reason must be at most %d characters", maxReasonLength)
	}

	patientID, err := s.profiles.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var booked *Appointment
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.profiles.DoctorExists(ctx, req.DoctorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDoctorNotFound
		}
		taken, err := s.repo.SlotBooked(ctx, req.DoctorID, date, clock)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}
		a := &Appointment{
			PatientID: patientID,
			DoctorID:  req.DoctorID,
			Date:      date,
			Time:      clock,
			Reason:    reason,
			Status:    StatusBooked,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		booked, err = s.repo.GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, booked, "booked", func(ctx context.Context, n Notifier) error { return n.AppointmentBooked(ctx, booked) })
	return booked, nil
}

// Complete moves a Booked appointment of the doctor behind userID to
// Completed and records its treatment. Both writes commit together.
func (s *Service) Complete(ctx context.Context, userID, id uuid.UUID, in *TreatmentInput) (*Appointment, error) {
	diagnosis := strings.TrimSpace(in.Diagnosis)
	if diagnosis == "" {
		return nil, validate.Errorf("diagnosis is required")
	}
	doctorID, err := s.profiles.DoctorIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var completed *Appointment
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.DoctorID != doctorID {
			return ErrAccessDenied
		}
		if a.Status != StatusBooked {
			return ErrInvalidTransition
		}
		changed, err := s.repo.UpdateStatus(ctx, id, StatusBooked, StatusCompleted)
		if err != nil {
			return fmt.Errorf("complete appointment: %w", err)
		}
		if !changed {
			return ErrInvalidTransition
		}
		t := &Treatment{
			AppointmentID: id,
			Diagnosis:     diagnosis,
			Prescription:  strings.TrimSpace(in.Prescription),
			Notes:         strings.TrimSpace(in.Notes),
		}
		if err := s.repo.CreateTreatment(ctx, t); err != nil {
			return err
		}
		completed, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, completed, "completed", func(ctx context.Context, n Notifier) error { return n.VisitCompleted(ctx, completed) })
	return completed, nil
}

// Cancel moves a Booked appointment to Cancelled. Only the owning doctor or
// the owning patient may cancel.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	var cancelled *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkOwner(ctx, actor, a, false); err != nil {
			return err
		}
		if a.Status != StatusBooked {
			return ErrInvalidTransition
		}
		changed, err := s.repo.UpdateStatus(ctx, id, StatusBooked, StatusCancelled)
		if err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		if !changed {
			return ErrInvalidTransition
		}
		cancelled, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, cancelled, "cancelled", func(ctx context.Context, n Notifier) error {
		return n.AppointmentCancelled(ctx, cancelled, actor.Role)
	})
	return cancelled, nil
}

// checkOwner returns ErrAccessDenied unless actor is the appointment's
// doctor or patient, or an admin when allowAdmin is set.
func (s *Service) checkOwner(ctx context.Context, actor Actor, a *Appointment, allowAdmin bool) error {
	switch actor.Role {
	case auth.RoleAdmin:
		if allowAdmin {
			return nil
		}
	case auth.RoleDoctor:
		doctorID, err := s.profiles.DoctorIDForUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if doctorID == a.DoctorID {
			return nil
		}
	case auth.RolePatient:
		patientID, err := s.profiles.PatientIDForUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if patientID == a.PatientID {
			return nil
		}
	}
	return ErrAccessDenied
}

func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(ctx, actor, a, true); err != nil {
		return nil, err
	}
	return a, nil
}

// GetTreatment returns the treatment of an appointment to its doctor, its
// patient, or an admin.
func (s *Service) GetTreatment(ctx context.Context, actor Actor, id uuid.UUID) (*Treatment, error) {
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Treatment == nil {
		return nil, ErrTreatmentNotFound
	}
	return a.Treatment, nil
}

// Summary renders the visit summary PDF of a Completed appointment for its
// doctor or patient.
func (s *Service) Summary(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := s.checkOwner(ctx, actor, a, false); err != nil {
		return nil, "", err
	}
	if a.Status != StatusCompleted || a.Treatment == nil {
		return nil, "", ErrNotCompleted
	}
	pdf, err := RenderSummary(a, s.now())
	if err != nil {
		return nil, "", err
	}
	return pdf, SummaryFilename(a), nil
}

// -- Queries --

func normalizeFilter(f Filter) (Filter, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return f, validate.Errorf("status must be one of: Booked Cancelled Completed")
	}
	var err error
	if f.From != "" {
		if f.From, err = calendar.NormalizeDate(f.From); err != nil {
			return f, validate.Errorf("from: %v", err)
		}
	}
	if f.To != "" {
		if f.To, err = calendar.NormalizeDate(f.To); err != nil {
			return f, validate.Errorf("to: %v", err)
		}
	}
	if err := calendar.ValidateDateRange(f.From, f.To); err != nil {
		return f, validate.Errorf("%v", err)
	}
	return f, nil
}

// List returns appointments matching f. Callers scope f to a doctor or
// patient; admins pass it through unscoped.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, f, limit, offset)
}

// Upcoming lists Booked appointments dated today or later, soonest first.
func (s *Service) Upcoming(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	f.Status = StatusBooked
	f.From = calendar.Today(s.now())
	f.Order = OrderSoonest
	return s.List(ctx, f, limit, offset)
}

// History lists Completed appointments, newest first.
func (s *Service) History(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	f.Status = StatusCompleted
	f.Order = OrderLatest
	return s.List(ctx, f, limit, offset)
}

// Recent returns the n most recently created appointments.
func (s *Service) Recent(ctx context.Context, n int) ([]*Appointment, error) {
	out, _, err := s.repo.List(ctx, Filter{Order: OrderCreated}, n, 0)
	return out, err
}

func (s *Service) Count(ctx context.Context, f Filter) (int, error) {
	f, err := normalizeFilter(f)
	if err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, f)
}

// CountUpcoming counts Booked appointments dated today or later.
func (s *Service) CountUpcoming(ctx context.Context, f Filter) (int, error) {
	f.Status = StatusBooked
	f.From = calendar.Today(s.now())
	return s.Count(ctx, f)
}

func (s *Service) ListForDoctor(ctx context.Context, userID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error) {
	doctorID, err := s.profiles.DoctorIDForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	f.DoctorID = &doctorID
	f.PatientID = nil
	f.Order = OrderLatest
	return s.List(ctx, f, limit, offset)
}

func (s *Service) UpcomingForDoctor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	doctorID, err := s.profiles.DoctorIDForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.Upcoming(ctx, Filter{DoctorID: &doctorID}, limit, offset)
}

// PatientHistoryForDoctor lists the patient's Completed appointments with
// the doctor behind userID.
func (s *Service) PatientHistoryForDoctor(ctx context.Context, userID, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	doctorID, err := s.profiles.DoctorIDForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	ok, err := s.profiles.PatientExists(ctx, patientID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrPatientNotFound
	}
	return s.History(ctx, Filter{DoctorID: &doctorID, PatientID: &patientID}, limit, offset)
}

func (s *Service) ListForPatient(ctx context.Context, userID uuid.UUID, f Filter, limit, offset int) ([]*Appointment, int, error) {
	patientID, err := s.profiles.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	f.PatientID = &patientID
	f.DoctorID = nil
	f.Order = OrderLatest
	return s.List(ctx, f, limit, offset)
}

func (s *Service) UpcomingForPatient(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	patientID, err := s.profiles.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.Upcoming(ctx, Filter{PatientID: &patientID}, limit, offset)
}

func (s *Service) HistoryForPatient(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	patientID, err := s.profiles.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.History(ctx, Filter{PatientID: &patientID}, limit, offset)
}

// AssignedPatients lists the distinct patients with at least one
// appointment with the doctor.
func (s *Service) AssignedPatients(ctx context.Context, doctorID uuid.UUID) ([]*AssignedPatient, error) {
	return s.repo.AssignedPatients(ctx, doctorID)
}
