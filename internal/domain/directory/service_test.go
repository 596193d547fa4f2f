package directory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/internal/platform/notification"
	"github.com/healflow/healflow/internal/platform/validate"
)

// -- mock repository --

type mockRepo struct {
	departments  map[uuid.UUID]*Department
	doctors      map[uuid.UUID]*Doctor
	patients     map[uuid.UUID]*Patient
	availability map[uuid.UUID]*Availability
	accounts     *mockAccounts
}

func newMockRepo(accounts *mockAccounts) *mockRepo {
	return &mockRepo{
		departments:  make(map[uuid.UUID]*Department),
		doctors:      make(map[uuid.UUID]*Doctor),
		patients:     make(map[uuid.UUID]*Patient),
		availability: make(map[uuid.UUID]*Availability),
		accounts:     accounts,
	}
}

func (m *mockRepo) CreateDepartment(_ context.Context, d *Department) error {
	for _, existing := range m.departments {
		if existing.Name == d.Name {
			return ErrDuplicateDepartment
		}
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.departments[d.ID] = d
	return nil
}

func (m *mockRepo) GetDepartment(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) ListDepartments(_ context.Context) ([]*Department, error) {
	var out []*Department
	for _, d := range m.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// joinedDoctor fills the account and department fields the SQL join provides.
func (m *mockRepo) joinedDoctor(d *Doctor) *Doctor {
	cp := *d
	if acct, ok := m.accounts.users[d.UserID]; ok {
		cp.Username, cp.Email = acct.username, acct.email
	}
	if dep, ok := m.departments[d.DepartmentID]; ok {
		cp.DepartmentName = dep.Name
	}
	return &cp
}

func (m *mockRepo) CreateDoctor(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.joinedDoctor(d), nil
}

func (m *mockRepo) GetDoctorByUserID(_ context.Context, userID uuid.UUID) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.UserID == userID {
			return m.joinedDoctor(d), nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) UpdateDoctor(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.ID]; !ok {
		return ErrNotFound
	}
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockRepo) DeleteDoctor(_ context.Context, id uuid.UUID) error {
	if _, ok := m.doctors[id]; !ok {
		return ErrNotFound
	}
	delete(m.doctors, id)
	return nil
}

func (m *mockRepo) SearchDoctors(_ context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	var all []*Doctor
	for _, d := range m.doctors {
		j := m.joinedDoctor(d)
		if term != "" && !strings.Contains(strings.ToLower(j.FullName), term) &&
			!strings.Contains(strings.ToLower(j.DepartmentName), term) {
			continue
		}
		if f.DepartmentID != nil && j.DepartmentID != *f.DepartmentID {
			continue
		}
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].FullName < all[k].FullName })
	return page(all, limit, offset), len(all), nil
}

func (m *mockRepo) CountDoctors(_ context.Context) (int, error) {
	return len(m.doctors), nil
}

func (m *mockRepo) joinedPatient(p *Patient) *Patient {
	cp := *p
	if acct, ok := m.accounts.users[p.UserID]; ok {
		cp.Username, cp.Email = acct.username, acct.email
	}
	return &cp
}

func (m *mockRepo) CreatePatient(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetPatient(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.joinedPatient(p), nil
}

func (m *mockRepo) GetPatientByUserID(_ context.Context, userID uuid.UUID) (*Patient, error) {
	for _, p := range m.patients {
		if p.UserID == userID {
			return m.joinedPatient(p), nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) UpdatePatient(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) DeletePatient(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) SearchPatients(_ context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	term := strings.ToLower(strings.TrimSpace(search))
	var all []*Patient
	for _, p := range m.patients {
		j := m.joinedPatient(p)
		if term != "" && !strings.Contains(strings.ToLower(j.FullName), term) &&
			!strings.Contains(strings.ToLower(j.Phone), term) &&
			!strings.Contains(strings.ToLower(j.Email), term) {
			continue
		}
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].FullName < all[k].FullName })
	return page(all, limit, offset), len(all), nil
}

func (m *mockRepo) CountPatients(_ context.Context) (int, error) {
	return len(m.patients), nil
}

func (m *mockRepo) CreateAvailability(_ context.Context, a *Availability) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.availability[a.ID] = a
	return nil
}

func (m *mockRepo) ListAvailability(_ context.Context, doctorID uuid.UUID, from, to string, onlyAvailable bool) ([]*Availability, error) {
	var out []*Availability
	for _, a := range m.availability {
		if a.DoctorID != doctorID || a.Date < from || a.Date > to {
			continue
		}
		if onlyAvailable && !a.IsAvailable {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// -- mock accounts --

type account struct {
	username, email, password, role string
}

type mockAccounts struct {
	users map[uuid.UUID]*account
}

func newMockAccounts() *mockAccounts {
	return &mockAccounts{users: make(map[uuid.UUID]*account)}
}

func (m *mockAccounts) CreateAccount(_ context.Context, username, email, password, role string) (uuid.UUID, error) {
	for _, a := range m.users {
		if a.username == username || a.email == email {
			return uuid.Nil, ErrDuplicateUser
		}
	}
	id := uuid.New()
	m.users[id] = &account{username: username, email: email, password: password, role: role}
	return id, nil
}

func (m *mockAccounts) UpdateAccount(_ context.Context, userID uuid.UUID, email, password string) error {
	a, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id != userID && other.email == email {
			return ErrEmailTaken
		}
	}
	a.email = email
	if password != "" {
		a.password = password
	}
	return nil
}

func (m *mockAccounts) DeleteAccount(_ context.Context, userID uuid.UUID) error {
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	delete(m.users, userID)
	return nil
}

// -- tx and notifier --

type passthroughTx struct{ calls int }

func (p *passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type mockNotifier struct {
	registered []*Patient
	err        error
}

func (n *mockNotifier) PatientRegistered(_ context.Context, p *Patient) error {
	n.registered = append(n.registered, p)
	return n.err
}

// slowNotifier takes longer than any request deadline used in these tests.
type slowNotifier struct {
	delay time.Duration
	done  chan error
}

func (n *slowNotifier) PatientRegistered(ctx context.Context, _ *Patient) error {
	select {
	case <-time.After(n.delay):
		n.done <- nil
		return nil
	case <-ctx.Done():
		n.done <- ctx.Err()
		return ctx.Err()
	}
}

type inlineDispatcher struct {
	failed []string
}

func (d *inlineDispatcher) Go(ctx context.Context, event, _ string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		d.failed = append(d.failed, event)
	}
}

// -- helpers --

var fixedNow = time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	svc      *Service
	repo     *mockRepo
	accounts *mockAccounts
	tx       *passthroughTx
}

func newTestEnv() *testEnv {
	accounts := newMockAccounts()
	repo := newMockRepo(accounts)
	tx := &passthroughTx{}
	svc := NewService(repo, accounts, tx)
	svc.now = func() time.Time { return fixedNow }
	return &testEnv{svc: svc, repo: repo, accounts: accounts, tx: tx}
}

func newTestService() *Service {
	return newTestEnv().svc
}

func (e *testEnv) department(t *testing.T, name string) *Department {
	t.Helper()
	d := &Department{Name: name}
	if err := e.svc.CreateDepartment(context.Background(), d); err != nil {
		t.Fatalf("create department: %v", err)
	}
	return d
}

func (e *testEnv) doctor(t *testing.T, username, fullName string, deptID uuid.UUID) *Doctor {
	t.Helper()
	d, err := e.svc.CreateDoctor(context.Background(), &NewDoctor{
		Username:        username,
		Email:           username + "@hospital.com",
		FullName:        fullName,
		DepartmentID:    deptID,
		Phone:           "555-0100",
		Qualification:   "MBBS, MD",
		ExperienceYears: 10,
		ConsultationFee: 500,
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d
}

func validRegistration(username string) *Registration {
	return &Registration{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "patient123",
		ConfirmPassword: "patient123",
		FullName:        "Test Patient",
		Phone:           "555-0200",
		DateOfBirth:     "1990-05-15",
		Gender:          GenderFemale,
		BloodGroup:      "O+",
	}
}

// -- departments --

func TestService_CreateDepartment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	d := &Department{Name: "  Cardiology ", Description: "Heart"}
	if err := env.svc.CreateDepartment(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Cardiology" {
		t.Errorf("expected trimmed name, got %q", d.Name)
	}

	if err := env.svc.CreateDepartment(ctx, &Department{Name: "Cardiology"}); !errors.Is(err, ErrDuplicateDepartment) {
		t.Errorf("expected ErrDuplicateDepartment, got %v", err)
	}
	if err := env.svc.CreateDepartment(ctx, &Department{Name: "  "}); !validate.IsError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := env.svc.CreateDepartment(ctx, &Department{Name: strings.Repeat("x", 101)}); !validate.IsError(err) {
		t.Errorf("expected validation error for long name, got %v", err)
	}

	list, _ := env.svc.ListDepartments(ctx)
	if len(list) != 1 {
		t.Errorf("expected 1 department, got %d", len(list))
	}
}

// -- doctors --

func TestService_CreateDoctor(t *testing.T) {
	env := newTestEnv()
	dept := env.department(t, "Cardiology")

	d := env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", dept.ID)
	if d.ID == uuid.Nil || d.UserID == uuid.Nil {
		t.Fatal("expected ids to be set")
	}
	if d.DepartmentName != "Cardiology" || d.Username != "dr_sharma" {
		t.Errorf("expected joined fields, got %+v", d)
	}
	acct := env.accounts.users[d.UserID]
	if acct.role != auth.RoleDoctor {
		t.Errorf("expected doctor role, got %s", acct.role)
	}
	if acct.password != DefaultDoctorPassword {
		t.Errorf("expected default password, got %q", acct.password)
	}
	if env.tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", env.tx.calls)
	}
}

func TestService_CreateDoctor_ExplicitPassword(t *testing.T) {
	env := newTestEnv()
	dept := env.department(t, "Neurology")

	d, err := env.svc.CreateDoctor(context.Background(), &NewDoctor{
		Username: "dr_gupta", Email: "gupta@hospital.com", Password: "s3cret!",
		FullName: "Dr. Amit Gupta", DepartmentID: dept.ID, Phone: "555", Qualification: "MD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.accounts.users[d.UserID].password != "s3cret!" {
		t.Error("expected the given password to be used")
	}
}

func TestService_CreateDoctor_Rejections(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	dept := env.department(t, "Cardiology")
	env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", dept.ID)

	base := func() *NewDoctor {
		return &NewDoctor{
			Username: "dr_new", Email: "new@hospital.com", FullName: "Dr. New",
			DepartmentID: dept.ID, Phone: "555", Qualification: "MD",
		}
	}

	dup := base()
	dup.Username = "dr_sharma"
	if _, err := env.svc.CreateDoctor(ctx, dup); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("expected ErrDuplicateUser, got %v", err)
	}

	noDept := base()
	noDept.DepartmentID = uuid.New()
	if _, err := env.svc.CreateDoctor(ctx, noDept); !validate.IsError(err) {
		t.Errorf("expected validation error for unknown department, got %v", err)
	}

	noName := base()
	noName.FullName = ""
	if _, err := env.svc.CreateDoctor(ctx, noName); !validate.IsError(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	negFee := base()
	negFee.ConsultationFee = -1
	if _, err := env.svc.CreateDoctor(ctx, negFee); !validate.IsError(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	if len(env.repo.doctors) != 1 || len(env.accounts.users) != 1 {
		t.Errorf("rejected creates must not write: doctors=%d accounts=%d", len(env.repo.doctors), len(env.accounts.users))
	}
}

func TestService_UpdateDoctor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	cardio := env.department(t, "Cardiology")
	neuro := env.department(t, "Neurology")
	d := env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", cardio.ID)

	updated, err := env.svc.UpdateDoctor(ctx, d.ID, &DoctorUpdate{
		Email: "sharma@new.com", FullName: "Dr. R. Sharma", DepartmentID: neuro.ID,
		Phone: "555-9999", Qualification: "MD, DM", ExperienceYears: 16, ConsultationFee: 900,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.DepartmentName != "Neurology" || updated.Email != "sharma@new.com" || updated.ExperienceYears != 16 {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if env.accounts.users[d.UserID].password != DefaultDoctorPassword {
		t.Error("blank password must keep the current one")
	}

	_, err = env.svc.UpdateDoctor(ctx, d.ID, &DoctorUpdate{
		Email: "sharma@new.com", Password: "newpass1", FullName: "Dr. R. Sharma", DepartmentID: neuro.ID,
		Phone: "555", Qualification: "MD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.accounts.users[d.UserID].password != "newpass1" {
		t.Error("expected password to change")
	}

	if _, err := env.svc.UpdateDoctor(ctx, uuid.New(), &DoctorUpdate{
		Email: "x@y.com", FullName: "X", DepartmentID: neuro.ID, Phone: "1", Qualification: "MD",
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.svc.UpdateDoctor(ctx, d.ID, &DoctorUpdate{
		Email: "x@y.com", Password: "123", FullName: "X", DepartmentID: neuro.ID, Phone: "1", Qualification: "MD",
	}); !validate.IsError(err) {
		t.Errorf("expected validation error for short password, got %v", err)
	}
}

func TestService_DeleteDoctor_RemovesAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	dept := env.department(t, "Cardiology")
	d := env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", dept.ID)

	if err := env.svc.DeleteDoctor(ctx, d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := env.repo.doctors[d.ID]; ok {
		t.Error("expected doctor to be deleted")
	}
	if _, ok := env.accounts.users[d.UserID]; ok {
		t.Error("expected backing account to be deleted")
	}
	if err := env.svc.DeleteDoctor(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_SearchDoctors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	cardio := env.department(t, "Cardiology")
	neuro := env.department(t, "Neurology")
	env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", cardio.ID)
	env.doctor(t, "dr_patel", "Dr. Priya Patel", neuro.ID)

	byName, total, _ := env.svc.SearchDoctors(ctx, DoctorFilter{Search: "SHARMA"}, 20, 0)
	if total != 1 || byName[0].FullName != "Dr. Rajesh Sharma" {
		t.Errorf("expected Sharma by name, got %d", total)
	}
	byDept, total, _ := env.svc.SearchDoctors(ctx, DoctorFilter{Search: "neuro"}, 20, 0)
	if total != 1 || byDept[0].FullName != "Dr. Priya Patel" {
		t.Errorf("expected Patel by department name, got %d", total)
	}
	_, total, _ = env.svc.SearchDoctors(ctx, DoctorFilter{DepartmentID: &cardio.ID}, 20, 0)
	if total != 1 {
		t.Errorf("expected 1 cardiology doctor, got %d", total)
	}
	_, total, _ = env.svc.SearchDoctors(ctx, DoctorFilter{}, 20, 0)
	if total != 2 {
		t.Errorf("expected 2 doctors, got %d", total)
	}
}

func TestService_FindDoctorsWithAvailability(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	dept := env.department(t, "Cardiology")
	d := env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", dept.ID)

	// today, in window, closed, and beyond the window
	env.repo.CreateAvailability(ctx, &Availability{DoctorID: d.ID, Date: "2024-01-08", StartTime: "09:00", EndTime: "17:00", IsAvailable: true})
	env.repo.CreateAvailability(ctx, &Availability{DoctorID: d.ID, Date: "2024-01-15", StartTime: "09:00", EndTime: "12:00", IsAvailable: true})
	env.repo.CreateAvailability(ctx, &Availability{DoctorID: d.ID, Date: "2024-01-10", StartTime: "09:00", EndTime: "12:00", IsAvailable: false})
	env.repo.CreateAvailability(ctx, &Availability{DoctorID: d.ID, Date: "2024-01-16", StartTime: "09:00", EndTime: "12:00", IsAvailable: true})
	env.repo.CreateAvailability(ctx, &Availability{DoctorID: d.ID, Date: "2024-01-07", StartTime: "09:00", EndTime: "12:00", IsAvailable: true})

	doctors, total, err := env.svc.FindDoctorsWithAvailability(ctx, DoctorFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 doctor, got %d", total)
	}
	avail := doctors[0].Availability
	if len(avail) != 2 {
		t.Fatalf("expected 2 open windows in [today, today+7], got %d", len(avail))
	}
	if avail[0].Date != "2024-01-08" || avail[1].Date != "2024-01-15" {
		t.Errorf("unexpected windows: %s, %s", avail[0].Date, avail[1].Date)
	}
}

// -- patients --

func TestService_RegisterPatient(t *testing.T) {
	env := newTestEnv()
	notifier := &mockNotifier{}
	env.svc.SetNotifier(notifier, &inlineDispatcher{})

	p, err := env.svc.RegisterPatient(context.Background(), validRegistration("rahul"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username != "rahul" || p.Email != "rahul@example.com" {
		t.Errorf("expected joined account fields, got %+v", p)
	}
	if env.accounts.users[p.UserID].role != auth.RolePatient {
		t.Error("expected patient role")
	}
	if len(notifier.registered) != 1 {
		t.Errorf("expected welcome notification, got %d", len(notifier.registered))
	}
}

func TestService_RegisterPatient_NotifierFailureIgnored(t *testing.T) {
	env := newTestEnv()
	dispatch := &inlineDispatcher{}
	env.svc.SetNotifier(&mockNotifier{err: errors.New("smtp down")}, dispatch)

	if _, err := env.svc.RegisterPatient(context.Background(), validRegistration("rahul")); err != nil {
		t.Fatalf("mail failure must not fail registration: %v", err)
	}
	if len(env.repo.patients) != 1 {
		t.Error("expected patient to be stored")
	}
	if len(dispatch.failed) != 1 || dispatch.failed[0] != "patient_registered" {
		t.Errorf("expected the failed welcome mail to reach the dispatcher, got %v", dispatch.failed)
	}
}

func TestService_RegisterPatient_SlowMailOutlivesRequest(t *testing.T) {
	env := newTestEnv()
	notifier := &slowNotifier{delay: 100 * time.Millisecond, done: make(chan error, 1)}
	dispatch := notification.NewDispatcher(time.Second, 4, zerolog.Nop())
	env.svc.SetNotifier(notifier, dispatch)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := env.svc.RegisterPatient(ctx, validRegistration("rahul")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 100*time.Millisecond {
		t.Errorf("expected registration not to wait for the mail, took %v", elapsed)
	}

	<-ctx.Done()
	if err := dispatch.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := <-notifier.done; err != nil {
		t.Errorf("expected the welcome mail to finish after the request ended, got %v", err)
	}
}

func TestService_RegisterPatient_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *Registration)
	}{
		{"short username", func(r *Registration) { r.Username = "ab" }},
		{"short password", func(r *Registration) { r.Password, r.ConfirmPassword = "12345", "12345" }},
		{"password mismatch", func(r *Registration) { r.ConfirmPassword = "different" }},
		{"missing name", func(r *Registration) { r.FullName = "" }},
		{"long phone", func(r *Registration) { r.Phone = strings.Repeat("1", 21) }},
		{"bad dob", func(r *Registration) { r.DateOfBirth = "15/05/1990" }},
		{"bad gender", func(r *Registration) { r.Gender = "Unknown" }},
		{"bad blood group", func(r *Registration) { r.BloodGroup = "C+" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistration("rahul")
			tt.mutate(r)
			if _, err := env.svc.RegisterPatient(ctx, r); !validate.IsError(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if len(env.repo.patients) != 0 || len(env.accounts.users) != 0 {
		t.Error("rejected registrations must not write")
	}
}

func TestService_RegisterPatient_Duplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.RegisterPatient(ctx, validRegistration("rahul")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.svc.RegisterPatient(ctx, validRegistration("rahul")); !errors.Is(err, ErrDuplicateUser) {
		t.Errorf("expected ErrDuplicateUser, got %v", err)
	}
	if len(env.repo.patients) != 1 {
		t.Errorf("expected 1 patient, got %d", len(env.repo.patients))
	}
}

func TestService_UpdateProfile(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p, _ := env.svc.RegisterPatient(ctx, validRegistration("rahul"))
	env.svc.RegisterPatient(ctx, validRegistration("priya"))

	updated, err := env.svc.UpdateProfile(ctx, p.UserID, &ProfileUpdate{
		FullName: "Rahul Verma", Email: "rahul@new.com", Phone: "555-1234",
		DateOfBirth: "1990-05-15", Gender: GenderMale, Address: "12 MG Road",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.FullName != "Rahul Verma" || updated.Email != "rahul@new.com" || updated.BloodGroup != "" {
		t.Errorf("unexpected profile: %+v", updated)
	}

	_, err = env.svc.UpdateProfile(ctx, p.UserID, &ProfileUpdate{
		FullName: "Rahul Verma", Email: "priya@example.com", Phone: "555",
		DateOfBirth: "1990-05-15", Gender: GenderMale,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := env.svc.UpdateProfile(ctx, uuid.New(), &ProfileUpdate{
		FullName: "X", Email: "x@example.com", Phone: "1", DateOfBirth: "1990-01-01", Gender: GenderOther,
	}); !errors.Is(err, ErrNoProfile) {
		t.Errorf("expected ErrNoProfile, got %v", err)
	}
}

func TestService_DeletePatient_RemovesAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p, _ := env.svc.RegisterPatient(ctx, validRegistration("rahul"))

	if err := env.svc.DeletePatient(ctx, p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := env.accounts.users[p.UserID]; ok {
		t.Error("expected backing account to be deleted")
	}
	if err := env.svc.DeletePatient(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_SearchPatients(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	r := validRegistration("rahul")
	r.FullName = "Rahul Verma"
	r.Phone = "98765"
	env.svc.RegisterPatient(ctx, r)
	env.svc.RegisterPatient(ctx, validRegistration("priya"))

	for _, term := range []string{"verma", "9876", "rahul@example"} {
		_, total, _ := env.svc.SearchPatients(ctx, term, 20, 0)
		if total != 1 {
			t.Errorf("search %q: expected 1 match, got %d", term, total)
		}
	}
	_, total, _ := env.svc.SearchPatients(ctx, "", 20, 0)
	if total != 2 {
		t.Errorf("expected 2 patients, got %d", total)
	}
}

// -- availability --

func TestService_AddAvailability(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	dept := env.department(t, "Cardiology")
	d := env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", dept.ID)

	a, err := env.svc.AddAvailability(ctx, d.UserID, &NewAvailability{Date: "2024-01-09", StartTime: "09:00:00", EndTime: "17:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.DoctorID != d.ID || a.StartTime != "09:00" || !a.IsAvailable {
		t.Errorf("unexpected availability: %+v", a)
	}

	if _, err := env.svc.AddAvailability(ctx, d.UserID, &NewAvailability{Date: "2024-01-09", StartTime: "17:00", EndTime: "09:00"}); !validate.IsError(err) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}
	if _, err := env.svc.AddAvailability(ctx, d.UserID, &NewAvailability{Date: "2024-01-09", StartTime: "09:00", EndTime: "09:00"}); !validate.IsError(err) {
		t.Errorf("expected validation error for empty range, got %v", err)
	}
	if _, err := env.svc.AddAvailability(ctx, d.UserID, &NewAvailability{Date: "tomorrow", StartTime: "09:00", EndTime: "10:00"}); !validate.IsError(err) {
		t.Errorf("expected validation error for bad date, got %v", err)
	}
	if _, err := env.svc.AddAvailability(ctx, uuid.New(), &NewAvailability{Date: "2024-01-09", StartTime: "09:00", EndTime: "10:00"}); !errors.Is(err, ErrNoProfile) {
		t.Errorf("expected ErrNoProfile, got %v", err)
	}
}

func TestService_UpcomingAndOpenAvailability(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	dept := env.department(t, "Cardiology")
	d := env.doctor(t, "dr_sharma", "Dr. Rajesh Sharma", dept.ID)

	env.repo.CreateAvailability(ctx, &Availability{DoctorID: d.ID, Date: "2024-01-09", StartTime: "14:00", EndTime: "17:00", IsAvailable: true})
	env.repo.CreateAvailability(ctx, &Availability{DoctorID: d.ID, Date: "2024-01-09", StartTime: "09:00", EndTime: "12:00", IsAvailable: false})

	own, _ := env.svc.UpcomingAvailability(ctx, d.ID)
	if len(own) != 2 || own[0].StartTime != "09:00" {
		t.Errorf("expected both windows ordered by start time, got %d", len(own))
	}
	open, _ := env.svc.OpenAvailability(ctx, d.ID)
	if len(open) != 1 || open[0].StartTime != "14:00" {
		t.Errorf("expected only the open window, got %d", len(open))
	}
	if _, err := env.svc.OpenAvailability(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown doctor, got %v", err)
	}
}
