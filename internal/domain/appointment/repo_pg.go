package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healflow/healflow/internal/platform/db"
)

// bookedSlotIndex is the partial unique index over Booked appointments.
const bookedSlotIndex = "appointment_booked_slot_key"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptFrom = `appointment a
	JOIN patient p ON p.id = a.patient_id
	JOIN app_user pu ON pu.id = p.user_id
	JOIN doctor d ON d.id = a.doctor_id
	JOIN department dep ON dep.id = d.department_id
	LEFT JOIN treatment t ON t.appointment_id = a.id`

const apptCols = `a.id, a.patient_id, p.full_name, pu.email, a.doctor_id, d.full_name, dep.name,
	to_char(a.appointment_date, 'YYYY-MM-DD'), to_char(a.appointment_time, 'HH24:MI'),
	COALESCE(a.reason, ''), a.status, a.created_at, a.updated_at,
	t.id, t.diagnosis, t.prescription, t.notes, t.created_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var (
		a            Appointment
		tID          *uuid.UUID
		diagnosis    *string
		prescription *string
		notes        *string
		tCreatedAt   *time.Time
	)
	err := row.Scan(
		&a.ID, &a.PatientID, &a.PatientName, &a.PatientEmail, &a.DoctorID, &a.DoctorName, &a.DepartmentName,
		&a.Date, &a.Time, &a.Reason, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&tID, &diagnosis, &prescription, &notes, &tCreatedAt,
	)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tID != nil {
		a.Treatment = &Treatment{
			ID:            *tID,
			AppointmentID: a.ID,
			Diagnosis:     deref(diagnosis),
			Prescription:  deref(prescription),
			Notes:         deref(notes),
		}
		if tCreatedAt != nil {
			a.Treatment.CreatedAt = *tCreatedAt
		}
	}
	return &a, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, appointment_date, appointment_time, reason, status)
		VALUES ($1, $2, $3, $4::date, $5::time, NULLIF($6, ''), $7)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time, a.Reason, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, bookedSlotIndex) {
		return ErrSlotTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM `+apptFrom+` WHERE a.id = $1`, id))
}

func (r *repoPG) SlotBooked(ctx context.Context, doctorID uuid.UUID, date, clock string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE doctor_id = $1 AND appointment_date = $2::date AND appointment_time = $3::time AND status = $4
		)`, doctorID, date, clock, StatusBooked).Scan(&exists)
	return exists, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var orderClauses = map[Order]string{
	OrderLatest:  "a.appointment_date DESC, a.appointment_time DESC, a.id",
	OrderSoonest: "a.appointment_date ASC, a.appointment_time ASC, a.id",
	OrderCreated: "a.created_at DESC, a.id",
}

func applyFilter(qb *db.SearchQuery, f Filter) {
	if f.PatientID != nil {
		qb.AddEquals("a.patient_id", *f.PatientID)
	}
	if f.DoctorID != nil {
		qb.AddEquals("a.doctor_id", *f.DoctorID)
	}
	if f.Status != "" {
		qb.AddEquals("a.status", f.Status)
	}
	qb.AddRange("a.appointment_date", f.From, f.To, "::date")
	qb.OrderBy(orderClauses[f.Order])
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	qb := db.NewSearchQuery(apptFrom, apptCols)
	applyFilter(qb, f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Count(ctx context.Context, f Filter) (int, error) {
	qb := db.NewSearchQuery("appointment a", "a.id")
	applyFilter(qb, f)
	var total int
	err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total)
	return total, err
}

func (r *repoPG) CreateTreatment(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO treatment (id, appointment_id, diagnosis, prescription, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING created_at`,
		t.ID, t.AppointmentID, t.Diagnosis, t.Prescription, t.Notes,
	).Scan(&t.CreatedAt)
	if db.IsUniqueViolation(err, "treatment_appointment_id_key") {
		return ErrInvalidTransition
	}
	return err
}

func (r *repoPG) AssignedPatients(ctx context.Context, doctorID uuid.UUID) ([]*AssignedPatient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.full_name, p.phone, COUNT(a.id)
		FROM appointment a JOIN patient p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		GROUP BY p.id, p.full_name, p.phone
		ORDER BY p.full_name, p.id`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AssignedPatient
	for rows.Next() {
		var p AssignedPatient
		if err := rows.Scan(&p.ID, &p.FullName, &p.Phone, &p.Appointments); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
