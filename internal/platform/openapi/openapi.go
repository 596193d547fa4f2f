// Package openapi describes the HTTP API as an OpenAPI 3.0 document built
// from the routes registered on the echo server.
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/healflow/healflow/internal/platform/auth"
)

// Generator builds the document from the live route table, so it always
// matches what the server actually serves.
type Generator struct {
	routes  func() []*echo.Route
	prefix  string
	version string
}

// NewGenerator documents every route under prefix (for example "/api/v1").
func NewGenerator(routes func() []*echo.Route, prefix, version string) *Generator {
	return &Generator{routes: routes, prefix: prefix, version: version}
}

var documentedMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodDelete: true,
}

// GenerateSpec produces the OpenAPI document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]map[string]interface{})
	tagSet := make(map[string]bool)

	for _, r := range g.routes() {
		if !documentedMethods[r.Method] || !strings.HasPrefix(r.Path, g.prefix+"/") {
			continue
		}
		rel := strings.TrimPrefix(r.Path, g.prefix)
		if rel == "/openapi.json" || rel == "/docs" {
			continue
		}
		oaPath, params := convertPath(rel)
		tag := tagFor(rel)
		tagSet[tag] = true

		op := map[string]interface{}{
			"summary":     r.Method + " " + oaPath,
			"operationId": operationID(r.Method, rel),
			"tags":        []string{tag},
			"responses":   responsesFor(r.Method, auth.IsPublicPath(r.Path)),
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			op["requestBody"] = map[string]interface{}{
				"required": true,
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]string{"type": "object"},
					},
				},
			}
		}
		if auth.IsPublicPath(r.Path) {
			op["security"] = []map[string][]string{}
		}

		if paths[oaPath] == nil {
			paths[oaPath] = make(map[string]interface{})
		}
		paths[oaPath][strings.ToLower(r.Method)] = op
	}

	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	tagList := make([]map[string]string, 0, len(tags))
	for _, t := range tags {
		tagList = append(tagList, map[string]string{"name": t})
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "HealFlow API",
			"version":     g.version,
			"description": "Hospital appointment booking: directory, appointments, treatments and lab cart",
		},
		"servers": []map[string]string{{"url": g.prefix}},
		"tags":    tagList,
		"paths":   paths,
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]string{
					"type":         "http",
					"scheme":       "bearer",
					"bearerFormat": "JWT",
				},
			},
			"schemas": map[string]interface{}{
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"message": map[string]string{"type": "string"},
					},
				},
			},
		},
		"security": []map[string][]string{{"bearerAuth": {}}},
	}
}

// convertPath rewrites echo's ":id" segments to "{id}" and returns the
// matching path parameters.
func convertPath(p string) (string, []map[string]interface{}) {
	segs := strings.Split(p, "/")
	var params []map[string]interface{}
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		name := strings.TrimPrefix(s, ":")
		segs[i] = "{" + name + "}"
		params = append(params, map[string]interface{}{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]string{"type": "string", "format": "uuid"},
		})
	}
	return strings.Join(segs, "/"), params
}

func tagFor(rel string) string {
	seg := strings.SplitN(strings.TrimPrefix(rel, "/"), "/", 2)[0]
	if seg == "" {
		return "default"
	}
	return seg
}

// operationID turns "POST /patient/appointments/:id/cancel" into
// "postPatientAppointmentsIdCancel".
func operationID(method, rel string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, s := range strings.Split(rel, "/") {
		s = strings.TrimPrefix(s, ":")
		for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '.' }) {
			b.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return b.String()
}

func errorResponse(desc string) map[string]interface{} {
	return map[string]interface{}{
		"description": desc,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/Error"},
			},
		},
	}
}

func responsesFor(method string, public bool) map[string]interface{} {
	resp := map[string]interface{}{
		"200": map[string]string{"description": "Success"},
		"400": errorResponse("Invalid request"),
		"404": errorResponse("Not found"),
	}
	if method == http.MethodPost {
		resp["201"] = map[string]string{"description": "Created"}
	}
	if method == http.MethodPost || method == http.MethodPut {
		resp["409"] = errorResponse("Conflict with the current state")
	}
	if !public {
		resp["401"] = errorResponse("Missing, invalid or revoked token")
		resp["403"] = errorResponse("Role not allowed or not the owner")
	}
	return resp
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>HealFlow API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [
        SwaggerUIBundle.presets.apis,
        SwaggerUIBundle.SwaggerUIStandalonePreset
      ],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`

// RegisterRoutes serves the document and a Swagger UI page.
func (g *Generator) RegisterRoutes(api *echo.Group) {
	api.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	api.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
