package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func noop(c echo.Context) error { return nil }

func newTestGenerator() (*echo.Echo, *Generator) {
	e := echo.New()
	api := e.Group("/api/v1")
	api.POST("/auth/login", noop)
	api.GET("/auth/me", noop)
	api.POST("/patient/appointments", noop)
	api.POST("/patient/appointments/:id/cancel", noop)
	api.GET("/appointments/:id/summary.pdf", noop)
	api.DELETE("/patient/cart/:id", noop)
	e.GET("/health", noop)

	g := NewGenerator(e.Routes, "/api/v1", "1.2.3")
	g.RegisterRoutes(api)
	return e, g
}

func TestGenerateSpec_Structure(t *testing.T) {
	_, g := newTestGenerator()
	spec := g.GenerateSpec()

	if spec["openapi"] != "3.0.3" {
		t.Errorf("expected openapi 3.0.3, got %v", spec["openapi"])
	}
	info := spec["info"].(map[string]interface{})
	if info["title"] != "HealFlow API" || info["version"] != "1.2.3" {
		t.Errorf("unexpected info: %v", info)
	}
	servers := spec["servers"].([]map[string]string)
	if len(servers) != 1 || servers[0]["url"] != "/api/v1" {
		t.Errorf("unexpected servers: %v", servers)
	}
}

func TestGenerateSpec_Paths(t *testing.T) {
	_, g := newTestGenerator()
	paths := g.GenerateSpec()["paths"].(map[string]map[string]interface{})

	if _, ok := paths["/health"]; ok {
		t.Error("routes outside the prefix are not documented")
	}
	if _, ok := paths["/openapi.json"]; ok {
		t.Error("the document does not describe itself")
	}

	cancel, ok := paths["/patient/appointments/{id}/cancel"]
	if !ok {
		t.Fatalf("cancel path missing, have %v", keys(paths))
	}
	op := cancel["post"].(map[string]interface{})
	if op["operationId"] != "postPatientAppointmentsIdCancel" {
		t.Errorf("operationId = %v", op["operationId"])
	}
	params := op["parameters"].([]map[string]interface{})
	if len(params) != 1 || params[0]["name"] != "id" || params[0]["in"] != "path" {
		t.Errorf("unexpected params: %v", params)
	}
	if tags := op["tags"].([]string); tags[0] != "patient" {
		t.Errorf("tag = %v", tags)
	}
	if _, ok := op["requestBody"]; !ok {
		t.Error("POST operations carry a request body")
	}

	pdf := paths["/appointments/{id}/summary.pdf"]["get"].(map[string]interface{})
	if pdf["operationId"] != "getAppointmentsIdSummaryPdf" {
		t.Errorf("operationId = %v", pdf["operationId"])
	}
}

func TestGenerateSpec_PublicRoutesHaveNoSecurity(t *testing.T) {
	_, g := newTestGenerator()
	paths := g.GenerateSpec()["paths"].(map[string]map[string]interface{})

	login := paths["/auth/login"]["post"].(map[string]interface{})
	sec, ok := login["security"].([]map[string][]string)
	if !ok || len(sec) != 0 {
		t.Errorf("login should override security with an empty list, got %v", login["security"])
	}
	if _, ok := login["responses"].(map[string]interface{})["401"]; ok {
		t.Error("public routes do not answer 401")
	}

	me := paths["/auth/me"]["get"].(map[string]interface{})
	if _, ok := me["security"]; ok {
		t.Error("protected routes inherit the global bearer requirement")
	}
	if _, ok := me["responses"].(map[string]interface{})["403"]; !ok {
		t.Error("protected routes document 403")
	}
}

func TestRegisterRoutes(t *testing.T) {
	e, _ := newTestGenerator()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := doc["paths"].(map[string]interface{})["/patient/cart/{id}"]; !ok {
		t.Error("cart path missing from served document")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/docs", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swagger-ui") {
		t.Fatalf("docs page: %d", rec.Code)
	}
}

func keys(m map[string]map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
