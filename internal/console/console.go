// Package console serves the browser console for the inventory: one HTML
// page plus embedded script and stylesheet that talk to /api/servers.
package console

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

//go:embed assets/index.html.tmpl assets/console.js assets/console.css
var assets embed.FS

// Console renders the index page and serves the static assets.
type Console struct {
	index  *template.Template
	static http.Handler

	// Settings is called once per index render. It defaults to
	// DefaultSettings.
	Settings func() Settings
}

// New parses the embedded index template.
func New() (*Console, error) {
	tmpl, err := template.ParseFS(assets, "assets/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse console template: %w", err)
	}
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		return nil, fmt.Errorf("console assets: %w", err)
	}
	return &Console{
		index:    tmpl,
		static:   http.StripPrefix("/assets/", http.FileServerFS(sub)),
		Settings: DefaultSettings,
	}, nil
}

// Register mounts the console on mux at / and /assets/.
func (c *Console) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.Index)
	mux.Handle("GET /assets/", c.static)
}

// Index handles GET /.
func (c *Console) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := c.index.Execute(&buf, c.Settings()); err != nil {
		slog.ErrorContext(r.Context(), "render console", "error", err)
		http.Error(w, "failed to render console", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}
