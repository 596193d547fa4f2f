package labcart

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/internal/platform/validate"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(env.svc), env, e
}

func asUser(req *http.Request, userID uuid.UUID, role string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID, Role: role}))
}

func expectHTTPStatus(t *testing.T, err error, want int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != want {
		t.Errorf("expected status %d, got %d (%v)", want, he.Code, he.Message)
	}
}

func TestHandler_CartFlow(t *testing.T) {
	h, env, e := newTestHandler()
	user := env.patient()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patient/cart", strings.NewReader(`{"test_name":"Liver Function Test","price":400}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.AddToCart(e.NewContext(asUser(req, user, auth.RolePatient), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var b Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = httptest.NewRecorder()
	if err := h.GetCart(e.NewContext(asUser(httptest.NewRequest(http.MethodGet, "/", nil), user, auth.RolePatient), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cart Cart
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cart.Total != 400 || len(cart.Items) != 1 {
		t.Errorf("unexpected cart: %s", rec.Body.String())
	}

	c := e.NewContext(asUser(httptest.NewRequest(http.MethodDelete, "/", nil), env.patient(), auth.RolePatient), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())
	err := h.RemoveFromCart(c)
	expectHTTPStatus(t, err, http.StatusForbidden)
	if he := err.(*echo.HTTPError); he.Message != "Access denied" {
		t.Errorf("unexpected message: %v", he.Message)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(asUser(httptest.NewRequest(http.MethodDelete, "/", nil), user, auth.RolePatient), rec)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())
	if err := h.RemoveFromCart(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_AddToCart_Invalid(t *testing.T) {
	h, env, e := newTestHandler()
	user := env.patient()

	for _, body := range []string{`{`, `{"test_name":"CBC"}`, `{"test_name":"","price":10}`, `{"test_name":"CBC","price":-1}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		expectHTTPStatus(t, h.AddToCart(e.NewContext(asUser(req, user, auth.RolePatient), httptest.NewRecorder())), http.StatusBadRequest)
	}
}

func TestHandler_RoleGates(t *testing.T) {
	h, env, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))
	user := env.patient()

	tests := []struct {
		path, role string
		userID     uuid.UUID
		want       int
	}{
		{"/api/v1/patient/lab-tests/catalog", auth.RolePatient, user, http.StatusOK},
		{"/api/v1/patient/lab-tests/catalog", auth.RoleDoctor, uuid.New(), http.StatusForbidden},
		{"/api/v1/patient/cart", auth.RoleAdmin, uuid.New(), http.StatusForbidden},
		{"/api/v1/patient/cart", auth.RolePatient, user, http.StatusOK},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, tt.path, nil), tt.userID, tt.role))
		if rec.Code != tt.want {
			t.Errorf("GET %s as %s: expected %d, got %d", tt.path, tt.role, tt.want, rec.Code)
		}
	}
}
