// Package sandbox loads the demo hospital used for local development and
// walkthroughs: departments, doctors with a week of availability, patients,
// and appointments in every lifecycle state.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healflow/healflow/internal/domain/appointment"
	"github.com/healflow/healflow/internal/domain/directory"
	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/pkg/calendar"
)

// Directory is the part of the directory service the seeder drives.
type Directory interface {
	CreateDepartment(ctx context.Context, d *directory.Department) error
	CreateDoctor(ctx context.Context, in *directory.NewDoctor) (*directory.Doctor, error)
	RegisterPatient(ctx context.Context, in *directory.Registration) (*directory.Patient, error)
	AddAvailability(ctx context.Context, userID uuid.UUID, in *directory.NewAvailability) (*directory.Availability, error)
}

// Appointments is the part of the appointment service the seeder drives.
type Appointments interface {
	Book(ctx context.Context, userID uuid.UUID, req *appointment.BookingRequest) (*appointment.Appointment, error)
	Complete(ctx context.Context, userID, id uuid.UUID, in *appointment.TreatmentInput) (*appointment.Appointment, error)
	Cancel(ctx context.Context, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error)
}

// SeedResult summarizes one seeding run.
type SeedResult struct {
	Departments  int           `json:"departments"`
	Doctors      int           `json:"doctors"`
	Availability int           `json:"availability"`
	Patients     int           `json:"patients"`
	Appointments int           `json:"appointments"`
	Treatments   int           `json:"treatments"`
	Duration     time.Duration `json:"duration"`
}

type Seeder struct {
	dir    Directory
	appts  Appointments
	logger zerolog.Logger
	now    func() time.Time
}

func NewSeeder(dir Directory, appts Appointments, logger zerolog.Logger) *Seeder {
	return &Seeder{dir: dir, appts: appts, logger: logger, now: time.Now}
}

// Seed loads the demo data. Every record goes through the services, so a
// second run stops at the first duplicate department and returns its error.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	start := time.Now()
	today := calendar.Today(s.now())
	result := &SeedResult{}

	deptIDs := make([]uuid.UUID, 0, len(departments))
	for _, d := range departments {
		dept := &directory.Department{Name: d.name, Description: d.description}
		if err := s.dir.CreateDepartment(ctx, dept); err != nil {
			return result, fmt.Errorf("seed department %s: %w", d.name, err)
		}
		deptIDs = append(deptIDs, dept.ID)
		result.Departments++
	}
	s.logger.Info().Int("count", result.Departments).Msg("departments created")

	doctorUsers := make([]uuid.UUID, 0, len(doctors))
	doctorIDs := make([]uuid.UUID, 0, len(doctors))
	for _, d := range doctors {
		doc, err := s.dir.CreateDoctor(ctx, &directory.NewDoctor{
			Username:        d.username,
			Email:           d.email,
			Password:        DoctorPassword,
			FullName:        d.fullName,
			DepartmentID:    deptIDs[d.dept],
			Phone:           d.phone,
			Qualification:   d.qualification,
			ExperienceYears: d.experience,
			ConsultationFee: d.fee,
		})
		if err != nil {
			return result, fmt.Errorf("seed doctor %s: %w", d.username, err)
		}
		doctorUsers = append(doctorUsers, doc.UserID)
		doctorIDs = append(doctorIDs, doc.ID)
		result.Doctors++

		for day := 0; day < availabilityDays; day++ {
			date, _ := calendar.AddDays(today, day)
			_, err := s.dir.AddAvailability(ctx, doc.UserID, &directory.NewAvailability{
				Date: date, StartTime: availabilityStart, EndTime: availabilityEnd,
			})
			if err != nil {
				return result, fmt.Errorf("seed availability for %s: %w", d.username, err)
			}
			result.Availability++
		}
	}
	s.logger.Info().Int("count", result.Doctors).Int("availability", result.Availability).Msg("doctors created")

	patientUsers := make([]uuid.UUID, 0, len(patients))
	for _, p := range patients {
		pat, err := s.dir.RegisterPatient(ctx, &directory.Registration{
			Username:        p.username,
			Email:           p.email,
			Password:        PatientPassword,
			ConfirmPassword: PatientPassword,
			FullName:        p.fullName,
			Phone:           p.phone,
			DateOfBirth:     p.dob,
			Gender:          p.gender,
			Address:         p.address,
			BloodGroup:      p.blood,
		})
		if err != nil {
			return result, fmt.Errorf("seed patient %s: %w", p.username, err)
		}
		patientUsers = append(patientUsers, pat.UserID)
		result.Patients++
	}
	s.logger.Info().Int("count", result.Patients).Msg("patients created")

	for _, a := range appointments {
		date, _ := calendar.AddDays(today, a.days)
		patientUser := patientUsers[a.patient]
		booked, err := s.appts.Book(ctx, patientUser, &appointment.BookingRequest{
			DoctorID: doctorIDs[a.doctor],
			Date:     date,
			Time:     a.clock,
			Reason:   a.reason,
		})
		if err != nil {
			return result, fmt.Errorf("seed appointment on %s %s: %w", date, a.clock, err)
		}
		switch a.status {
		case statusCompleted:
			_, err = s.appts.Complete(ctx, doctorUsers[a.doctor], booked.ID, &appointment.TreatmentInput{
				Diagnosis:    seedDiagnosis,
				Prescription: seedPrescription,
				Notes:        seedNotes,
			})
			if err == nil {
				result.Treatments++
			}
		case statusCancelled:
			_, err = s.appts.Cancel(ctx, appointment.Actor{UserID: patientUser, Role: auth.RolePatient}, booked.ID)
		}
		if err != nil {
			return result, fmt.Errorf("seed appointment %s -> %s: %w", booked.ID, a.status, err)
		}
		result.Appointments++
	}
	s.logger.Info().Int("count", result.Appointments).Int("treatments", result.Treatments).Msg("appointments created")

	result.Duration = time.Since(start)
	return result, nil
}

// Credentials lists the demo logins printed after a successful run.
func Credentials() []string {
	out := make([]string, 0, len(doctors)+len(patients))
	for _, d := range doctors {
		out = append(out, fmt.Sprintf("doctor  %-16s %s", d.username, DoctorPassword))
	}
	for _, p := range patients {
		out = append(out, fmt.Sprintf("patient %-16s %s", p.username, PatientPassword))
	}
	return out
}
