package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/models"
)

const maxBodyBytes = 64 * 1024

// Store is the persistence the handlers need. *db.DB satisfies it.
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, q models.ListQuery) (*models.ServerPage, error)
	GetByID(ctx context.Context, id string) (*models.Server, error)
	Create(ctx context.Context, f models.Fields) (*models.Server, error)
	Update(ctx context.Context, id string, f models.Fields) (*models.Server, error)
	Delete(ctx context.Context, id string) error
}

var _ Store = (*db.DB)(nil)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	DB      Store
	Version string
	Commit  string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps an error from the store or from request validation onto a
// response. Store failures, a duplicate id included, are 500s carrying the
// driver message so an operator can see what went wrong.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.ErrorContext(r.Context(), "store error", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeObject reads a JSON object body, keeping numbers as json.Number.
// It writes the error response itself and reports whether decoding succeeded.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	return body, true
}

// Health handles GET /health. Returns 500 if the database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": h.Version,
		"commit":  h.Commit,
	})
}

// ListServers handles GET /api/servers.
func (h *Handler) ListServers(w http.ResponseWriter, r *http.Request) {
	q := models.ParseListQuery(r.URL.Query())
	page, err := h.DB.List(r.Context(), q)
	if err != nil {
		fail(w, r, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetServer handles GET /api/servers/{id}.
func (h *Handler) GetServer(w http.ResponseWriter, r *http.Request) {
	server, err := h.DB.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, server)
}

// CreateServer handles POST /api/servers.
func (h *Handler) CreateServer(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}
	fields, err := models.ForCreate(body)
	if err != nil {
		fail(w, r, "create", err)
		return
	}
	server, err := h.DB.Create(r.Context(), fields)
	if err != nil {
		fail(w, r, "create", err)
		return
	}
	slog.InfoContext(r.Context(), "server created", "id", server.ID)
	writeJSON(w, http.StatusCreated, server)
}

// UpdateServer handles PUT /api/servers/{id}. Keys outside the update
// allow-list are ignored.
func (h *Handler) UpdateServer(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}
	fields, err := models.ForUpdate(body)
	if err != nil {
		fail(w, r, "update", err)
		return
	}
	server, err := h.DB.Update(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		fail(w, r, "update", err)
		return
	}
	slog.InfoContext(r.Context(), "server updated", "id", server.ID, "columns", fields.Columns)
	writeJSON(w, http.StatusOK, server)
}

// DeleteServer handles DELETE /api/servers/{id}.
func (h *Handler) DeleteServer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.DB.Delete(r.Context(), id); err != nil {
		fail(w, r, "delete", err)
		return
	}
	slog.InfoContext(r.Context(), "server deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}
