package directory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateDepartment = errors.New("department already exists")
	ErrDuplicateUser       = errors.New("username or email already exists")
	ErrEmailTaken          = errors.New("email already in use by another account")
	// ErrNoProfile means the caller's account has no doctor or patient
	// profile behind it.
	ErrNoProfile = errors.New("no profile linked to this account")
)

// DefaultDoctorPassword is set on doctor accounts created without one.
const DefaultDoctorPassword = "doctor123"

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

var validGenders = map[string]bool{
	GenderMale: true, GenderFemale: true, GenderOther: true,
}

var validBloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

const (
	maxDepartmentName = 100
	maxFullName       = 120
	maxPhone          = 20
	maxQualification  = 200
	maxUsernameLength = 80
	minUsernameLength = 3
	minPasswordLength = 6
)

type Department struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Doctor struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	Username        string          `db:"username" json:"username"`
	Email           string          `db:"email" json:"email"`
	DepartmentID    uuid.UUID       `db:"department_id" json:"department_id"`
	DepartmentName  string          `db:"department_name" json:"department_name"`
	FullName        string          `db:"full_name" json:"full_name"`
	Phone           string          `db:"phone" json:"phone"`
	Qualification   string          `db:"qualification" json:"qualification"`
	ExperienceYears int             `db:"experience_years" json:"experience_years"`
	ConsultationFee float64         `db:"consultation_fee" json:"consultation_fee"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	Availability    []*Availability `json:"availability,omitempty"`
}

type Patient struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	Email       string    `db:"email" json:"email"`
	FullName    string    `db:"full_name" json:"full_name"`
	Phone       string    `db:"phone" json:"phone"`
	DateOfBirth string    `db:"date_of_birth" json:"date_of_birth"`
	Gender      string    `db:"gender" json:"gender"`
	Address     string    `db:"address" json:"address,omitempty"`
	BloodGroup  string    `db:"blood_group" json:"blood_group,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Availability is a window a doctor declared open on one date. It is
// advisory: bookings are not checked against it.
type Availability struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date        string    `db:"date" json:"date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DoctorFilter narrows doctor searches. Search matches full name or
// department name case-insensitively.
type DoctorFilter struct {
	Search       string
	DepartmentID *uuid.UUID
}

// NewDoctor is the admin input for adding a doctor and its account.
type NewDoctor struct {
	Username        string    `json:"username" validate:"required,min=3,max=80"`
	Email           string    `json:"email" validate:"required,email"`
	Password        string    `json:"password" validate:"omitempty,min=6"`
	FullName        string    `json:"full_name" validate:"required,max=120"`
	DepartmentID    uuid.UUID `json:"department_id" validate:"required"`
	Phone           string    `json:"phone" validate:"required,max=20"`
	Qualification   string    `json:"qualification" validate:"required,max=200"`
	ExperienceYears int       `json:"experience_years" validate:"min=0"`
	ConsultationFee float64   `json:"consultation_fee" validate:"min=0"`
}

// DoctorUpdate replaces a doctor's profile. A blank Password keeps the
// current one.
type DoctorUpdate struct {
	Email           string    `json:"email" validate:"required,email"`
	Password        string    `json:"password" validate:"omitempty,min=6"`
	FullName        string    `json:"full_name" validate:"required,max=120"`
	DepartmentID    uuid.UUID `json:"department_id" validate:"required"`
	Phone           string    `json:"phone" validate:"required,max=20"`
	Qualification   string    `json:"qualification" validate:"required,max=200"`
	ExperienceYears int       `json:"experience_years" validate:"min=0"`
	ConsultationFee float64   `json:"consultation_fee" validate:"min=0"`
}

// Registration is the public patient sign-up input.
type Registration struct {
	Username        string `json:"username" validate:"required,min=3,max=80"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FullName        string `json:"full_name" validate:"required,max=120"`
	Phone           string `json:"phone" validate:"required,max=20"`
	DateOfBirth     string `json:"date_of_birth" validate:"required"`
	Gender          string `json:"gender" validate:"required,oneof=Male Female Other"`
	Address         string `json:"address"`
	BloodGroup      string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

// ProfileUpdate is a patient editing their own profile.
type ProfileUpdate struct {
	FullName    string `json:"full_name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=20"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female Other"`
	Address     string `json:"address"`
	BloodGroup  string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

// NewAvailability is a doctor declaring an open window.
type NewAvailability struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}
