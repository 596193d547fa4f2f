package directory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/internal/platform/validate"
	"github.com/healflow/healflow/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/register", h.RegisterPatient)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/departments", h.ListDepartments)
	admin.POST("/departments", h.CreateDepartment)
	admin.GET("/doctors", h.SearchDoctors)
	admin.POST("/doctors", h.CreateDoctor)
	admin.GET("/doctors/:id", h.GetDoctor)
	admin.PUT("/doctors/:id", h.UpdateDoctor)
	admin.DELETE("/doctors/:id", h.DeleteDoctor)
	admin.GET("/patients", h.SearchPatients)
	admin.DELETE("/patients/:id", h.DeletePatient)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/availability", h.ListOwnAvailability)
	doctor.POST("/availability", h.AddAvailability)

	patient := api.Group("/patient", auth.RequireRole(auth.RolePatient))
	patient.GET("/profile", h.GetProfile)
	patient.PUT("/profile", h.UpdateProfile)
	patient.GET("/doctors", h.FindDoctors)
	patient.GET("/doctors/:id/availability", h.DoctorAvailability)
}

func bindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(v)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Departments --

type departmentRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	var req departmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d := &Department{Name: req.Name, Description: req.Description}
	if err := h.svc.CreateDepartment(c.Request().Context(), d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	depts, err := h.svc.ListDepartments(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if depts == nil {
		depts = []*Department{}
	}
	return c.JSON(http.StatusOK, depts)
}

// -- Doctors --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req NewDoctor
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req DoctorUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func doctorFilter(c echo.Context) (DoctorFilter, error) {
	f := DoctorFilter{Search: c.QueryParam("search")}
	if raw := c.QueryParam("department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid department_id")
		}
		f.DepartmentID = &id
	}
	return f, nil
}

func (h *Handler) SearchDoctors(c echo.Context) error {
	f, err := doctorFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.SearchDoctors(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
}

// FindDoctors is the patient-facing doctor search; results include each
// doctor's open windows for the coming week.
func (h *Handler) FindDoctors(c echo.Context) error {
	f, err := doctorFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.FindDoctorsWithAvailability(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
}

func (h *Handler) DoctorAvailability(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	avail, err := h.svc.OpenAvailability(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if avail == nil {
		avail = []*Availability{}
	}
	return c.JSON(http.StatusOK, avail)
}

// -- Patients --

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req Registration
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.svc.RegisterPatient(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.SearchPatients(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.svc.GetPatientByUserID(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var req ProfileUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.UpdateProfile(ctx, auth.UserIDFromContext(ctx), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// -- Availability --

func (h *Handler) AddAvailability(c echo.Context) error {
	var req NewAvailability
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.AddAvailability(ctx, auth.UserIDFromContext(ctx), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListOwnAvailability(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.GetDoctorByUserID(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	avail, err := h.svc.UpcomingAvailability(ctx, d.ID)
	if err != nil {
		return httpError(err)
	}
	if avail == nil {
		avail = []*Availability{}
	}
	return c.JSON(http.StatusOK, avail)
}

func httpError(err error) error {
	switch {
	case validate.IsError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateDepartment), errors.Is(err, ErrDuplicateUser), errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoProfile):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
