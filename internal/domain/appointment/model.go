package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	StatusBooked    = "Booked"
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
)

var validStatuses = map[string]bool{
	StatusBooked:    true,
	StatusCancelled: true,
	StatusCompleted: true,
}

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrTreatmentNotFound = errors.New("treatment not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrSlotTaken         = errors.New("This time slot is already booked")
	ErrInvalidTransition = errors.New("only booked appointments can be completed or cancelled")
	ErrAccessDenied      = errors.New("Access denied")
	ErrNotCompleted      = errors.New("visit summary is only available for completed appointments")
	// ErrNoProfile means the caller's account has no doctor or patient
	// profile behind it.
	ErrNoProfile = errors.New("no profile linked to this account")
)

// Appointment is one booking of a doctor's time slot. Names come from the
// joined doctor, patient and department rows.
type Appointment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName    string     `db:"patient_name" json:"patient_name"`
	PatientEmail   string     `db:"patient_email" json:"-"`
	DoctorID       uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DoctorName     string     `db:"doctor_name" json:"doctor_name"`
	DepartmentName string     `db:"department_name" json:"department_name"`
	Date           string     `db:"appointment_date" json:"appointment_date"`
	Time           string     `db:"appointment_time" json:"appointment_time"`
	Reason         string     `db:"reason" json:"reason,omitempty"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	Treatment      *Treatment `json:"treatment,omitempty"`
}

// Treatment is the clinical record written when a doctor completes an
// appointment. There is at most one per appointment.
type Treatment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Prescription  string    `db:"prescription" json:"prescription,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AssignedPatient is a patient who has at least one appointment with a doctor.
type AssignedPatient struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Appointments int       `json:"appointments"`
}

// Order selects how lists are sorted.
type Order int

const (
	// OrderLatest sorts by date then time, newest first.
	OrderLatest Order = iota
	// OrderSoonest sorts by date then time, earliest first.
	OrderSoonest
	// OrderCreated sorts by creation time, newest first.
	OrderCreated
)

// Filter narrows appointment lists. Zero fields match everything.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	From      string
	To        string
	Order     Order
}

type BookingRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	Date     string    `json:"appointment_date" validate:"required"`
	Time     string    `json:"appointment_time" validate:"required"`
	Reason   string    `json:"reason" validate:"max=1000"`
}

type TreatmentInput struct {
	Diagnosis    string `json:"diagnosis" validate:"required"`
	Prescription string `json:"prescription"`
	Notes        string `json:"notes"`
}
