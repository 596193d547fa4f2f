package appointment

import (
	"errors"
	"fmt"
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
	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/appointments", h.ListAll)

	doctor := api.Group("/doctor", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/appointments", h.ListForDoctor)
	doctor.GET("/appointments/upcoming", h.UpcomingForDoctor)
	doctor.POST("/appointments/:id/complete", h.Complete)
	doctor.POST("/appointments/:id/cancel", h.Cancel)
	doctor.GET("/patients/:id/history", h.PatientHistory)

	patient := api.Group("/patient", auth.RequireRole(auth.RolePatient))
	patient.POST("/appointments", h.Book)
	patient.GET("/appointments", h.ListForPatient)
	patient.GET("/appointments/upcoming", h.UpcomingForPatient)
	patient.POST("/appointments/:id/cancel", h.Cancel)
	patient.GET("/history", h.HistoryForPatient)

	api.GET("/appointments/:id/treatment", h.GetTreatment,
		auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient))
	api.GET("/appointments/:id/summary.pdf", h.Summary,
		auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
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

func actor(c echo.Context) Actor {
	id, _ := auth.IdentityFromContext(c.Request().Context())
	return ActorFrom(id)
}

// filterFromQuery reads the status, from and to query parameters.
func filterFromQuery(c echo.Context) Filter {
	return Filter{
		Status: c.QueryParam("status"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	}
}

func page(c echo.Context, items []*Appointment, total int, pg pagination.Params) error {
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// -- Lifecycle --

func (h *Handler) Book(c echo.Context) error {
	var req BookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.Book(ctx, auth.UserIDFromContext(ctx), &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req TreatmentInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.Complete(ctx, auth.UserIDFromContext(ctx), id, &req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// Cancel serves both the doctor and the patient routes; ownership is
// checked against the caller's role.
func (h *Handler) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Cancel(c.Request().Context(), actor(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetTreatment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTreatment(c.Request().Context(), actor(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Summary(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pdf, filename, err := h.svc.Summary(c.Request().Context(), actor(c), id)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// -- Lists --

func (h *Handler) ListAll(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := filterFromQuery(c)
	f.Order = OrderLatest
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return page(c, items, total, pg)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListForDoctor(ctx, auth.UserIDFromContext(ctx), filterFromQuery(c), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return page(c, items, total, pg)
}

func (h *Handler) UpcomingForDoctor(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.UpcomingForDoctor(ctx, auth.UserIDFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return page(c, items, total, pg)
}

func (h *Handler) PatientHistory(c echo.Context) error {
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.PatientHistoryForDoctor(ctx, auth.UserIDFromContext(ctx), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return page(c, items, total, pg)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListForPatient(ctx, auth.UserIDFromContext(ctx), filterFromQuery(c), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return page(c, items, total, pg)
}

func (h *Handler) UpcomingForPatient(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.UpcomingForPatient(ctx, auth.UserIDFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return page(c, items, total, pg)
}

func (h *Handler) HistoryForPatient(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.HistoryForPatient(ctx, auth.UserIDFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return page(c, items, total, pg)
}

func httpError(err error) error {
	switch {
	case validate.IsError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotCompleted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrNoProfile):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTreatmentNotFound),
		errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
