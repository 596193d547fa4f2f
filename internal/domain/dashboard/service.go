// Package dashboard assembles the landing views of the admin, doctor and
// patient roles from the directory, appointment and lab-cart services.
package dashboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/healflow/healflow/internal/domain/appointment"
	"github.com/healflow/healflow/internal/domain/directory"
	"github.com/healflow/healflow/internal/domain/labcart"
	"github.com/healflow/healflow/internal/platform/notification"
)

const (
	recentLimit   = 5
	historyLimit  = 5
	upcomingLimit = 20
)

type Directory interface {
	CountDoctors(ctx context.Context) (int, error)
	CountPatients(ctx context.Context) (int, error)
	ListDepartments(ctx context.Context) ([]*directory.Department, error)
	GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*directory.Doctor, error)
	GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*directory.Patient, error)
	UpcomingAvailability(ctx context.Context, doctorID uuid.UUID) ([]*directory.Availability, error)
}

type Appointments interface {
	Count(ctx context.Context, f appointment.Filter) (int, error)
	CountUpcoming(ctx context.Context, f appointment.Filter) (int, error)
	Upcoming(ctx context.Context, f appointment.Filter, limit, offset int) ([]*appointment.Appointment, int, error)
	History(ctx context.Context, f appointment.Filter, limit, offset int) ([]*appointment.Appointment, int, error)
	Recent(ctx context.Context, n int) ([]*appointment.Appointment, error)
	AssignedPatients(ctx context.Context, doctorID uuid.UUID) ([]*appointment.AssignedPatient, error)
}

type Catalog interface {
	Catalog() labcart.Catalog
}

// Notifications exposes delivery history of outbound mail.
type Notifications interface {
	Stats() map[string]int
	Recent(limit int) []*notification.Notification
}

type Admin struct {
	TotalDoctors         int                          `json:"total_doctors"`
	TotalPatients        int                          `json:"total_patients"`
	TotalAppointments    int                          `json:"total_appointments"`
	UpcomingAppointments int                          `json:"upcoming_appointments"`
	RecentAppointments   []*appointment.Appointment   `json:"recent_appointments"`
	Notifications        map[string]int               `json:"notifications,omitempty"`
	RecentNotifications  []*notification.Notification `json:"recent_notifications,omitempty"`
}

type Doctor struct {
	Profile          *directory.Doctor              `json:"profile"`
	Upcoming         []*appointment.Appointment     `json:"upcoming_appointments"`
	UpcomingTotal    int                            `json:"upcoming_total"`
	AssignedPatients []*appointment.AssignedPatient `json:"assigned_patients"`
	PatientCount     int                            `json:"patient_count"`
	Availability     []*directory.Availability      `json:"availability"`
}

type Patient struct {
	Profile     *directory.Patient         `json:"profile"`
	Upcoming    []*appointment.Appointment `json:"upcoming_appointments"`
	History     []*appointment.Appointment `json:"recent_history"`
	Departments []*directory.Department    `json:"departments"`
	Catalog     labcart.Catalog            `json:"catalog"`
}

type Service struct {
	directory     Directory
	appointments  Appointments
	catalog       Catalog
	notifications Notifications
}

// NewService wires the dashboards. notifications may be nil, in which case
// the admin view omits mail statistics.
func NewService(dir Directory, appts Appointments, catalog Catalog, notifications Notifications) *Service {
	return &Service{directory: dir, appointments: appts, catalog: catalog, notifications: notifications}
}

func (s *Service) Admin(ctx context.Context) (*Admin, error) {
	var (
		out Admin
		err error
	)
	if out.TotalDoctors, err = s.directory.CountDoctors(ctx); err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	if out.TotalPatients, err = s.directory.CountPatients(ctx); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	if out.TotalAppointments, err = s.appointments.Count(ctx, appointment.Filter{}); err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	if out.UpcomingAppointments, err = s.appointments.CountUpcoming(ctx, appointment.Filter{}); err != nil {
		return nil, fmt.Errorf("count upcoming: %w", err)
	}
	if out.RecentAppointments, err = s.appointments.Recent(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("recent appointments: %w", err)
	}
	out.RecentAppointments = nonNil(out.RecentAppointments)
	if s.notifications != nil {
		out.Notifications = s.notifications.Stats()
		out.RecentNotifications = s.notifications.Recent(recentLimit)
	}
	return &out, nil
}

func (s *Service) Doctor(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	profile, err := s.directory.GetDoctorByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := Doctor{Profile: profile}
	f := appointment.Filter{DoctorID: &profile.ID}
	if out.Upcoming, out.UpcomingTotal, err = s.appointments.Upcoming(ctx, f, upcomingLimit, 0); err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	if out.AssignedPatients, err = s.appointments.AssignedPatients(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("assigned patients: %w", err)
	}
	if out.Availability, err = s.directory.UpcomingAvailability(ctx, profile.ID); err != nil {
		return nil, fmt.Errorf("availability: %w", err)
	}
	out.Upcoming = nonNil(out.Upcoming)
	if out.AssignedPatients == nil {
		out.AssignedPatients = []*appointment.AssignedPatient{}
	}
	if out.Availability == nil {
		out.Availability = []*directory.Availability{}
	}
	out.PatientCount = len(out.AssignedPatients)
	return &out, nil
}

func (s *Service) Patient(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	profile, err := s.directory.GetPatientByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := Patient{Profile: profile, Catalog: s.catalog.Catalog()}
	f := appointment.Filter{PatientID: &profile.ID}
	if out.Upcoming, _, err = s.appointments.Upcoming(ctx, f, upcomingLimit, 0); err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	if out.History, _, err = s.appointments.History(ctx, f, historyLimit, 0); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if out.Departments, err = s.directory.ListDepartments(ctx); err != nil {
		return nil, fmt.Errorf("departments: %w", err)
	}
	out.Upcoming = nonNil(out.Upcoming)
	out.History = nonNil(out.History)
	if out.Departments == nil {
		out.Departments = []*directory.Department{}
	}
	return &out, nil
}

func nonNil(in []*appointment.Appointment) []*appointment.Appointment {
	if in == nil {
		return []*appointment.Appointment{}
	}
	return in
}
