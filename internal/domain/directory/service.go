package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/internal/platform/validate"
	"github.com/healflow/healflow/pkg/calendar"
)

// Accounts manages the login accounts behind doctors and patients.
type Accounts interface {
	CreateAccount(ctx context.Context, username, email, password, role string) (uuid.UUID, error)
	// UpdateAccount sets the email and, when password is non-empty, the password.
	UpdateAccount(ctx context.Context, userID uuid.UUID, email, password string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier is told about new patient registrations after they commit.
type Notifier interface {
	PatientRegistered(ctx context.Context, p *Patient) error
}

// Dispatcher runs a notification off the request path and logs failures.
type Dispatcher interface {
	Go(ctx context.Context, event, subject string, fn func(ctx context.Context) error)
}

type Service struct {
	repo     Repository
	accounts Accounts
	tx       TxRunner
	notifier Notifier
	dispatch Dispatcher
	now      func() time.Time
}

func NewService(repo Repository, accounts Accounts, tx TxRunner) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		tx:       tx,
		now:      time.Now,
	}
}

// SetNotifier attaches an optional registration notifier. The welcome mail
// is handed to d after the registration commits.
func (s *Service) SetNotifier(n Notifier, d Dispatcher) {
	s.notifier = n
	s.dispatch = d
}

// -- Departments --

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return validate.Errorf("name is required")
	}
	if utf8.RuneCountInString(d.Name) > maxDepartmentName {
		return validate.Errorf("name must be at most %d characters", maxDepartmentName)
	}
	return s.repo.CreateDepartment(ctx, d)
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.repo.ListDepartments(ctx)
}

// -- Doctors --

func validateDoctorProfile(fullName, phone, qualification string, experience int, fee float64) error {
	switch {
	case strings.TrimSpace(fullName) == "":
		return validate.Errorf("full_name is required")
	case utf8.RuneCountInString(fullName) > maxFullName:
		return validate.Errorf("full_name must be at most %d characters", maxFullName)
	case strings.TrimSpace(phone) == "":
		return validate.Errorf("phone is required")
	case utf8.RuneCountInString(phone) > maxPhone:
		return validate.Errorf("phone must be at most %d characters", maxPhone)
	case strings.TrimSpace(qualification) == "":
		return validate.Errorf("qualification is required")
	case utf8.RuneCountInString(qualification) > maxQualification:
		return validate.Errorf("qualification must be at most %d characters", maxQualification)
	case experience < 0:
		return validate.Errorf("experience_years must not be negative")
	case fee < 0:
		return validate.Errorf("consultation_fee must not be negative")
	}
	return nil
}

func (s *Service) requireDepartment(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validate.Errorf("department_id is required")
	}
	if _, err := s.repo.GetDepartment(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return validate.Errorf("department not found")
		}
		return err
	}
	return nil
}

// CreateDoctor adds a doctor together with its login account in one
// transaction. A blank password falls back to DefaultDoctorPassword.
func (s *Service) CreateDoctor(ctx context.Context, in *NewDoctor) (*Doctor, error) {
	if err := validateDoctorProfile(in.FullName, in.Phone, in.Qualification, in.ExperienceYears, in.ConsultationFee); err != nil {
		return nil, err
	}
	password := in.Password
	if password == "" {
		password = DefaultDoctorPassword
	}

	var created *Doctor
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.requireDepartment(ctx, in.DepartmentID); err != nil {
			return err
		}
		userID, err := s.accounts.CreateAccount(ctx, in.Username, in.Email, password, auth.RoleDoctor)
		if err != nil {
			return err
		}
		d := &Doctor{
			UserID:          userID,
			DepartmentID:    in.DepartmentID,
			FullName:        strings.TrimSpace(in.FullName),
			Phone:           strings.TrimSpace(in.Phone),
			Qualification:   strings.TrimSpace(in.Qualification),
			ExperienceYears: in.ExperienceYears,
			ConsultationFee: in.ConsultationFee,
		}
		if err := s.repo.CreateDoctor(ctx, d); err != nil {
			return fmt.Errorf("create doctor: %w", err)
		}
		created, err = s.repo.GetDoctor(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

// GetDoctorByUserID returns the doctor profile of a doctor account.
func (s *Service) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctorByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoProfile
	}
	return d, err
}

// UpdateDoctor replaces the doctor's profile and account email, and the
// password when one is given.
func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, in *DoctorUpdate) (*Doctor, error) {
	if err := validateDoctorProfile(in.FullName, in.Phone, in.Qualification, in.ExperienceYears, in.ConsultationFee); err != nil {
		return nil, err
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return nil, validate.Errorf("password must be at least %d characters", minPasswordLength)
	}

	var updated *Doctor
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetDoctor(ctx, id)
		if err != nil {
			return err
		}
		if err := s.requireDepartment(ctx, in.DepartmentID); err != nil {
			return err
		}
		d.DepartmentID = in.DepartmentID
		d.FullName = strings.TrimSpace(in.FullName)
		d.Phone = strings.TrimSpace(in.Phone)
		d.Qualification = strings.TrimSpace(in.Qualification)
		d.ExperienceYears = in.ExperienceYears
		d.ConsultationFee = in.ConsultationFee
		if err := s.repo.UpdateDoctor(ctx, d); err != nil {
			return err
		}
		if err := s.accounts.UpdateAccount(ctx, d.UserID, in.Email, in.Password); err != nil {
			return err
		}
		updated, err = s.repo.GetDoctor(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDoctor removes the doctor and its account in one transaction.
// Appointments and availability go with it through cascading keys.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetDoctor(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteDoctor(ctx, id); err != nil {
			return err
		}
		return s.accounts.DeleteAccount(ctx, d.UserID)
	})
}

func (s *Service) SearchDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.SearchDoctors(ctx, f, limit, offset)
}

// FindDoctorsWithAvailability searches doctors the way patients browse them:
// each result carries its open windows for the next LookAheadDays days.
func (s *Service) FindDoctorsWithAvailability(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	doctors, total, err := s.repo.SearchDoctors(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	from, to := calendar.Window(s.now(), calendar.LookAheadDays)
	for _, d := range doctors {
		avail, err := s.repo.ListAvailability(ctx, d.ID, from, to, true)
		if err != nil {
			return nil, 0, err
		}
		d.Availability = avail
	}
	return doctors, total, nil
}

func (s *Service) CountDoctors(ctx context.Context) (int, error) {
	return s.repo.CountDoctors(ctx)
}

// -- Patients --

func validatePatientProfile(fullName, phone, dob, gender, bloodGroup string) (string, error) {
	switch {
	case strings.TrimSpace(fullName) == "":
		return "", validate.Errorf("full_name is required")
	case utf8.RuneCountInString(fullName) > maxFullName:
		return "", validate.Errorf("full_name must be at most %d characters", maxFullName)
	case strings.TrimSpace(phone) == "":
		return "", validate.Errorf("phone is required")
	case utf8.RuneCountInString(phone) > maxPhone:
		return "", validate.Errorf("phone must be at most %d characters", maxPhone)
	case !validGenders[gender]:
		return "", validate.Errorf("gender must be one of: Male Female Other")
	case bloodGroup != "" && !validBloodGroups[bloodGroup]:
		return "", validate.Errorf("invalid blood_group: %s", bloodGroup)
	}
	date, err := calendar.NormalizeDate(dob)
	if err != nil {
		return "", validate.Errorf("date_of_birth: %v", err)
	}
	return date, nil
}

// RegisterPatient creates a patient and its login account in one
// transaction. Duplicate usernames or emails are rejected before any write.
func (s *Service) RegisterPatient(ctx context.Context, in *Registration) (*Patient, error) {
	username := strings.TrimSpace(in.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, validate.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if len(in.Password) < minPasswordLength {
		return nil, validate.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if in.Password != in.ConfirmPassword {
		return nil, validate.Errorf("passwords must match")
	}
	dob, err := validatePatientProfile(in.FullName, in.Phone, in.DateOfBirth, in.Gender, in.BloodGroup)
	if err != nil {
		return nil, err
	}

	var created *Patient
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		userID, err := s.accounts.CreateAccount(ctx, username, in.Email, in.Password, auth.RolePatient)
		if err != nil {
			return err
		}
		p := &Patient{
			UserID:      userID,
			FullName:    strings.TrimSpace(in.FullName),
			Phone:       strings.TrimSpace(in.Phone),
			DateOfBirth: dob,
			Gender:      in.Gender,
			Address:     strings.TrimSpace(in.Address),
			BloodGroup:  in.BloodGroup,
		}
		if err := s.repo.CreatePatient(ctx, p); err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		created, err = s.repo.GetPatient(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && s.dispatch != nil {
		n := s.notifier
		s.dispatch.Go(ctx, "patient_registered", created.ID.String(), func(ctx context.Context) error {
			return n.PatientRegistered(ctx, created)
		})
	}
	return created, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatient(ctx, id)
}

// GetPatientByUserID returns the patient profile of a patient account.
func (s *Service) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatientByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoProfile
	}
	return p, err
}

// UpdateProfile applies a patient's own edit to the profile and the
// account email in one transaction.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in *ProfileUpdate) (*Patient, error) {
	dob, err := validatePatientProfile(in.FullName, in.Phone, in.DateOfBirth, in.Gender, in.BloodGroup)
	if err != nil {
		return nil, err
	}

	var updated *Patient
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.GetPatientByUserID(ctx, userID)
		if err != nil {
			return err
		}
		p.FullName = strings.TrimSpace(in.FullName)
		p.Phone = strings.TrimSpace(in.Phone)
		p.DateOfBirth = dob
		p.Gender = in.Gender
		p.Address = strings.TrimSpace(in.Address)
		p.BloodGroup = in.BloodGroup
		if err := s.repo.UpdatePatient(ctx, p); err != nil {
			return err
		}
		if err := s.accounts.UpdateAccount(ctx, userID, in.Email, ""); err != nil {
			return err
		}
		updated, err = s.repo.GetPatient(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePatient removes the patient and its account in one transaction.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPatient(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repo.DeletePatient(ctx, id); err != nil {
			return err
		}
		return s.accounts.DeleteAccount(ctx, p.UserID)
	})
}

func (s *Service) SearchPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.SearchPatients(ctx, search, limit, offset)
}

func (s *Service) CountPatients(ctx context.Context) (int, error) {
	return s.repo.CountPatients(ctx)
}

// -- Availability --

// AddAvailability records an open window for the doctor behind userID.
func (s *Service) AddAvailability(ctx context.Context, userID uuid.UUID, in *NewAvailability) (*Availability, error) {
	date, err := calendar.NormalizeDate(in.Date)
	if err != nil {
		return nil, validate.Errorf("date: %v", err)
	}
	start, err := calendar.NormalizeClock(in.StartTime)
	if err != nil {
		return nil, validate.Errorf("start_time: %v", err)
	}
	end, err := calendar.NormalizeClock(in.EndTime)
	if err != nil {
		return nil, validate.Errorf("end_time: %v", err)
	}
	if err := calendar.ValidateClockRange(start, end); err != nil {
		return nil, validate.Errorf("%v", err)
	}

	d, err := s.GetDoctorByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	a := &Availability{
		DoctorID:    d.ID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
	if err := s.repo.CreateAvailability(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpcomingAvailability lists every window of the doctor dated in the next
// LookAheadDays days, open or not.
func (s *Service) UpcomingAvailability(ctx context.Context, doctorID uuid.UUID) ([]*Availability, error) {
	from, to := calendar.Window(s.now(), calendar.LookAheadDays)
	return s.repo.ListAvailability(ctx, doctorID, from, to, false)
}

// OpenAvailability lists the doctor's windows marked available in the next
// LookAheadDays days. It does not consult existing bookings.
func (s *Service) OpenAvailability(ctx context.Context, doctorID uuid.UUID) ([]*Availability, error) {
	if _, err := s.repo.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	from, to := calendar.Window(s.now(), calendar.LookAheadDays)
	return s.repo.ListAvailability(ctx, doctorID, from, to, true)
}
