package main

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/healflow/healflow/internal/domain/appointment"
	"github.com/healflow/healflow/internal/domain/directory"
	"github.com/healflow/healflow/internal/domain/identity"
	"github.com/healflow/healflow/internal/domain/labcart"
)

// accountAdapter adapts identity.Service to directory.Accounts so the
// directory package never imports identity.
type accountAdapter struct {
	svc *identity.Service
}

func (a *accountAdapter) CreateAccount(ctx context.Context, username, email, password, role string) (uuid.UUID, error) {
	u, err := a.svc.CreateUser(ctx, username, email, password, role)
	if err != nil {
		return uuid.Nil, translateAccountErr(err)
	}
	return u.ID, nil
}

func (a *accountAdapter) UpdateAccount(ctx context.Context, userID uuid.UUID, email, password string) error {
	if err := a.svc.UpdateEmail(ctx, userID, email); err != nil {
		return translateAccountErr(err)
	}
	if password == "" {
		return nil
	}
	return translateAccountErr(a.svc.SetPassword(ctx, userID, password))
}

func (a *accountAdapter) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return translateAccountErr(a.svc.DeleteUser(ctx, userID))
}

func translateAccountErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrDuplicateUser):
		return directory.ErrDuplicateUser
	case errors.Is(err, identity.ErrEmailTaken):
		return directory.ErrEmailTaken
	case errors.Is(err, identity.ErrNotFound):
		return directory.ErrNotFound
	default:
		return err
	}
}

// profileAdapter resolves accounts to doctor and patient profiles for the
// appointment and lab cart services. noProfile is the caller package's
// sentinel for an account without a profile.
type profileAdapter struct {
	dir       *directory.Service
	noProfile error
}

func newAppointmentProfiles(dir *directory.Service) *profileAdapter {
	return &profileAdapter{dir: dir, noProfile: appointment.ErrNoProfile}
}

func newLabcartPatients(dir *directory.Service) *profileAdapter {
	return &profileAdapter{dir: dir, noProfile: labcart.ErrNoProfile}
}

func (p *profileAdapter) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	d, err := p.dir.GetDoctorByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, p.translate(err)
	}
	return d.ID, nil
}

func (p *profileAdapter) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	pat, err := p.dir.GetPatientByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, p.translate(err)
	}
	return pat.ID, nil
}

func (p *profileAdapter) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := p.dir.GetDoctor(ctx, id)
	return exists(err)
}

func (p *profileAdapter) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := p.dir.GetPatient(ctx, id)
	return exists(err)
}

func (p *profileAdapter) translate(err error) error {
	if errors.Is(err, directory.ErrNoProfile) {
		return p.noProfile
	}
	return err
}

func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, directory.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
