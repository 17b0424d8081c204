package handlers

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapiDoc []byte

const openapiPath = "/openapi.yaml"

var swaggerPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}} {{.Version}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: {{.DocURL}},
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
      deepLinking: true,
    });
  </script>
</body>
</html>`))

// docInfo is the part of the OpenAPI document the docs page shows.
type docInfo struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
}

// renderDocs builds the Swagger UI page once, titled from the embedded
// document.
var renderDocs = sync.OnceValues(func() ([]byte, error) {
	var doc docInfo
	if err := yaml.Unmarshal(openapiDoc, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi.yaml: %w", err)
	}
	var buf bytes.Buffer
	err := swaggerPage.Execute(&buf, map[string]string{
		"Title":   doc.Info.Title,
		"Version": doc.Info.Version,
		"DocURL":  openapiPath,
	})
	if err != nil {
		return nil, fmt.Errorf("render docs: %w", err)
	}
	return buf.Bytes(), nil
})

// OpenAPIDocument handles GET /openapi.yaml.
func OpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(openapiDoc)
}

// Docs handles GET /docs with a Swagger UI page pointed at the document.
func Docs(w http.ResponseWriter, r *http.Request) {
	page, err := renderDocs()
	if err != nil {
		slog.ErrorContext(r.Context(), "docs page", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
