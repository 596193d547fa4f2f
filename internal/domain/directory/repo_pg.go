package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healflow/healflow/internal/platform/db"
)

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

func notFound(err error) error {
	if db.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func execOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// -- Departments --

const deptCols = `id, name, COALESCE(description, ''), created_at`

func scanDept(row pgx.Row) (*Department, error) {
	var d Department
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *repoPG) CreateDepartment(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO department (id, name, description)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING created_at`,
		d.ID, d.Name, d.Description,
	).Scan(&d.CreatedAt)
	if db.IsUniqueViolation(err, "department_name_key") {
		return ErrDuplicateDepartment
	}
	return err
}

func (r *repoPG) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	return scanDept(r.conn(ctx).QueryRow(ctx, `SELECT `+deptCols+` FROM department WHERE id = $1`, id))
}

func (r *repoPG) ListDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+deptCols+` FROM department ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Department
	for rows.Next() {
		d, err := scanDept(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// -- Doctors --

const doctorFrom = `doctor d
	JOIN app_user u ON u.id = d.user_id
	JOIN department dep ON dep.id = d.department_id`

const doctorCols = `d.id, d.user_id, u.username, u.email, d.department_id, dep.name,
	d.full_name, d.phone, d.qualification, d.experience_years, d.consultation_fee::float8,
	d.created_at, d.updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID, &d.UserID, &d.Username, &d.Email, &d.DepartmentID, &d.DepartmentName,
		&d.FullName, &d.Phone, &d.Qualification, &d.ExperienceYears, &d.ConsultationFee,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *repoPG) CreateDoctor(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor (id, user_id, department_id, full_name, phone, qualification, experience_years, consultation_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.DepartmentID, d.FullName, d.Phone, d.Qualification, d.ExperienceYears, d.ConsultationFee,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *repoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM `+doctorFrom+` WHERE d.id = $1`, id))
}

func (r *repoPG) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM `+doctorFrom+` WHERE d.user_id = $1`, userID))
}

func (r *repoPG) UpdateDoctor(ctx context.Context, d *Doctor) error {
	return execOne(r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET department_id = $2, full_name = $3, phone = $4, qualification = $5,
			experience_years = $6, consultation_fee = $7, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.DepartmentID, d.FullName, d.Phone, d.Qualification, d.ExperienceYears, d.ConsultationFee,
	))
}

func (r *repoPG) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return execOne(r.conn(ctx).Exec(ctx, `DELETE FROM doctor WHERE id = $1`, id))
}

func (r *repoPG) SearchDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	qb := db.NewSearchQuery(doctorFrom, doctorCols)
	qb.AddContains(f.Search, "d.full_name", "dep.name")
	if f.DepartmentID != nil {
		qb.AddEquals("d.department_id", *f.DepartmentID)
	}
	qb.OrderBy("d.full_name, d.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CountDoctors(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&n)
	return n, err
}

// -- Patients --

const patientFrom = `patient p JOIN app_user u ON u.id = p.user_id`

const patientCols = `p.id, p.user_id, u.username, u.email, p.full_name, p.phone,
	to_char(p.date_of_birth, 'YYYY-MM-DD'), p.gender, COALESCE(p.address, ''), COALESCE(p.blood_group, ''),
	p.created_at, p.updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.UserID, &p.Username, &p.Email, &p.FullName, &p.Phone,
		&p.DateOfBirth, &p.Gender, &p.Address, &p.BloodGroup,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *repoPG) CreatePatient(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, user_id, full_name, phone, date_of_birth, gender, address, blood_group)
		VALUES ($1, $2, $3, $4, $5::date, $6, NULLIF($7, ''), NULLIF($8, ''))
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.FullName, p.Phone, p.DateOfBirth, p.Gender, p.Address, p.BloodGroup,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM `+patientFrom+` WHERE p.id = $1`, id))
}

func (r *repoPG) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM `+patientFrom+` WHERE p.user_id = $1`, userID))
}

func (r *repoPG) UpdatePatient(ctx context.Context, p *Patient) error {
	return execOne(r.conn(ctx).Exec(ctx, `
		UPDATE patient SET full_name = $2, phone = $3, date_of_birth = $4::date, gender = $5,
			address = NULLIF($6, ''), blood_group = NULLIF($7, ''), updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.Phone, p.DateOfBirth, p.Gender, p.Address, p.BloodGroup,
	))
}

func (r *repoPG) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return execOne(r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id))
}

func (r *repoPG) SearchPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	qb := db.NewSearchQuery(patientFrom, patientCols)
	qb.AddContains(search, "p.full_name", "p.phone", "u.email")
	qb.OrderBy("p.full_name, p.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CountPatients(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&n)
	return n, err
}

// -- Availability --

const availCols = `id, doctor_id, to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'),
	to_char(end_time, 'HH24:MI'), is_available, created_at`

func (r *repoPG) CreateAvailability(ctx context.Context, a *Availability) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_availability (id, doctor_id, date, start_time, end_time, is_available)
		VALUES ($1, $2, $3::date, $4::time, $5::time, $6)
		RETURNING created_at`,
		a.ID, a.DoctorID, a.Date, a.StartTime, a.EndTime, a.IsAvailable,
	).Scan(&a.CreatedAt)
}

func (r *repoPG) ListAvailability(ctx context.Context, doctorID uuid.UUID, from, to string, onlyAvailable bool) ([]*Availability, error) {
	qb := db.NewSearchQuery("doctor_availability", availCols)
	qb.AddEquals("doctor_id", doctorID)
	qb.AddRange("date", from, to, "::date")
	if onlyAvailable {
		qb.Add("is_available = TRUE")
	}
	qb.OrderBy("date, start_time, id")

	rows, err := r.conn(ctx).Query(ctx, qb.ListSQL(), qb.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Availability
	for rows.Next() {
		var a Availability
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.Date, &a.StartTime, &a.EndTime, &a.IsAvailable, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
