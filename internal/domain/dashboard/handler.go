package dashboard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healflow/healflow/internal/domain/directory"
	"github.com/healflow/healflow/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/admin/dashboard", h.Admin, auth.RequireRole(auth.RoleAdmin))
	api.GET("/doctor/dashboard", h.Doctor, auth.RequireRole(auth.RoleDoctor))
	api.GET("/patient/dashboard", h.Patient, auth.RequireRole(auth.RolePatient))
}

func (h *Handler) Admin(c echo.Context) error {
	d, err := h.svc.Admin(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Doctor(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.Doctor(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Patient(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.svc.Patient(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func httpError(err error) error {
	if errors.Is(err, directory.ErrNoProfile) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}
