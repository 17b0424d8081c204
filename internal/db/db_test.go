package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/models"
)

// newTestDB opens a fresh in-memory SQLite database for each test.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func str(s string) *string { return &s }

// seed inserts a server with the given id, name, location and status.
func seed(t *testing.T, d *db.DB, id, name, location, status string) *models.Server {
	t.Helper()
	f, err := models.ForCreate(map[string]any{
		"id":                 id,
		"server_name":        name,
		"ip_address":         "10.0.0." + id,
		"application_name":   "app-" + name,
		"location":           location,
		"system_environment": "PRD",
		"status":             status,
		"power_state":        "Power On",
		"critical_app":       "No",
		"pttep_server_owner": "ops",
	})
	if err != nil {
		t.Fatalf("ForCreate: %v", err)
	}
	s, err := d.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("Create %q: %v", id, err)
	}
	return s
}

func list(t *testing.T, d *db.DB, v url.Values) *models.ServerPage {
	t.Helper()
	page, err := d.List(context.Background(), models.ParseListQuery(v))
	if err != nil {
		t.Fatalf("List(%v): %v", v, err)
	}
	return page
}

func TestNew(t *testing.T) {
	d := newTestDB(t)
	if err := d.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if d.Dialect() != "sqlite" {
		t.Errorf("Dialect: got %q, want sqlite", d.Dialect())
	}
}

func TestNew_MigrationIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/inv.db"
	for i := 0; i < 2; i++ {
		d, err := db.New(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		d.Close()
	}
}

func TestCreate_GetByID_RoundTrip(t *testing.T) {
	d := newTestDB(t)
	days := int64(14)
	want := &models.Server{
		ID:                "srv-001",
		ServerName:        str("web01"),
		IPAddress:         str("10.1.2.3"),
		DNSName:           str("web01.corp"),
		Location:          str("HQ"),
		SystemEnvironment: str("PRD"),
		Status:            str("Operation"),
		PowerState:        str("Power On"),
		CriticalApp:       str("Yes"),
		PTTEPServerOwner:  str("infra"),
		DecomDurationDays: &days,
		Remark:            str("primary"),
	}
	f, err := models.ForCreate(map[string]any{
		"id":                  "srv-001",
		"server_name":         "web01",
		"ip_address":          "10.1.2.3",
		"dns_name":            "web01.corp",
		"location":            "HQ",
		"system_environment":  "PRD",
		"status":              "Operation",
		"power_state":         "Power On",
		"critical_app":        "Yes",
		"pttep_server_owner":  "infra",
		"decom_duration_days": "14",
		"remark":              "primary",
	})
	if err != nil {
		t.Fatalf("ForCreate: %v", err)
	}

	created, err := d.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Errorf("Create returned (-want +got):\n%s", diff)
	}

	got, err := d.GetByID(context.Background(), "srv-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetByID (-want +got):\n%s", diff)
	}
	// omitted optional columns come back NULL
	if got.OS != nil || got.ZoneLV != nil || got.TicketIDRequestForPTTDigital != nil {
		t.Errorf("expected omitted columns to be nil: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	d := newTestDB(t)
	_, err := d.GetByID(context.Background(), "does-not-exist")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "dup-1", "original", "HQ", "Operation")

	f, _ := models.ForCreate(map[string]any{"id": "dup-1", "server_name": "impostor", "ip_address": "1.1.1.1"})
	_, err := d.Create(context.Background(), f)
	if !errors.Is(err, db.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	got, err := d.GetByID(context.Background(), "dup-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if *got.ServerName != "original" {
		t.Errorf("original row modified: server_name = %q", *got.ServerName)
	}
}

func TestCreate_RejectsUnlistedColumn(t *testing.T) {
	d := newTestDB(t)
	f := models.Fields{Columns: []string{"id", "server_name; --"}, Values: []any{"x", "y"}}
	if _, err := d.Create(context.Background(), f); err == nil {
		t.Error("expected error for unlisted column")
	}
}

func TestList_Empty(t *testing.T) {
	d := newTestDB(t)
	page := list(t, d, url.Values{})
	if len(page.Items) != 0 {
		t.Errorf("expected empty list, got %d items", len(page.Items))
	}
	if page.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
	if page.Meta.TotalPages != 1 || page.Meta.TotalItems != 0 {
		t.Errorf("meta: got %+v", page.Meta)
	}
}

func TestList_LocationFilterAndPagination(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "1", "alpha", "A", "Operation")
	seed(t, d, "2", "bravo", "A", "Operation")
	seed(t, d, "3", "charlie", "B", "Operation")

	page := list(t, d, url.Values{"location": {"A"}, "page": {"1"}, "limit": {"2"}})
	if len(page.Items) != 2 {
		t.Fatalf("items: got %d, want 2", len(page.Items))
	}
	want := models.PageMeta{Page: 1, Limit: 2, TotalItems: 2, TotalPages: 1}
	if diff := cmp.Diff(want, page.Meta); diff != "" {
		t.Errorf("meta (-want +got):\n%s", diff)
	}
	for _, it := range page.Items {
		if *it.Location != "A" {
			t.Errorf("unexpected location %q", *it.Location)
		}
	}
}

func TestList_AllSentinelIsSuperset(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "1", "alpha", "A", "Operation")
	seed(t, d, "2", "bravo", "B", "Maintenance")
	seed(t, d, "3", "charlie", "B", "Decommissioning")

	all := list(t, d, url.Values{"status": {"ALL"}})
	if all.Meta.TotalItems != 3 {
		t.Fatalf("ALL: got %d, want 3", all.Meta.TotalItems)
	}
	for _, s := range []string{"Operation", "Maintenance", "Decommissioning", "Unknown"} {
		got := list(t, d, url.Values{"status": {s}})
		if got.Meta.TotalItems > all.Meta.TotalItems {
			t.Errorf("status=%s returned more rows (%d) than ALL (%d)", s, got.Meta.TotalItems, all.Meta.TotalItems)
		}
	}
}

func TestList_Search(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "1", "WebFront", "A", "Operation")
	seed(t, d, "2", "db-main", "A", "Operation")
	seed(t, d, "3", "cache", "A", "Operation")
	seed(t, d, "4", "ÉCOLE-SRV", "A", "Operation")

	tests := []struct {
		q    string
		want int
	}{
		{"web", 1},       // server_name, case-insensitive
		{"10.0.0.2", 1},  // ip_address
		{"APP-CACHE", 1}, // application_name
		{"10.0.0", 4},
		{"%", 0}, // wildcards match literally
		{"nothing", 0},
		{"école", 1}, // non-ASCII folds too
		{"ÉCOLE-SRV", 1},
		{"app-école", 1},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			page := list(t, d, url.Values{"q": {tt.q}})
			if page.Meta.TotalItems != tt.want {
				t.Errorf("q=%q: got %d, want %d", tt.q, page.Meta.TotalItems, tt.want)
			}
		})
	}
}

func TestList_CombinedFilters(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "1", "alpha", "A", "Operation")
	seed(t, d, "2", "bravo", "A", "Maintenance")
	seed(t, d, "3", "charlie", "B", "Operation")

	page := list(t, d, url.Values{"location": {"A"}, "status": {"Operation"}, "env": {"PRD"}, "power": {"ALL"}})
	if page.Meta.TotalItems != 1 || page.Items[0].ID != "1" {
		t.Errorf("got %+v", page)
	}
}

func TestList_SortAndPages(t *testing.T) {
	d := newTestDB(t)
	names := []string{"echo", "alpha", "delta", "charlie", "bravo"}
	for i, n := range names {
		seed(t, d, fmt.Sprint(i+1), n, "A", "Operation")
	}

	asc := list(t, d, url.Values{"limit": {"2"}, "page": {"1"}})
	if got := []string{*asc.Items[0].ServerName, *asc.Items[1].ServerName}; !cmp.Equal(got, []string{"alpha", "bravo"}) {
		t.Errorf("asc page 1: got %v", got)
	}
	if !asc.Meta.HasNextPage || asc.Meta.HasPrevPage || asc.Meta.TotalPages != 3 {
		t.Errorf("asc page 1 meta: %+v", asc.Meta)
	}

	last := list(t, d, url.Values{"limit": {"2"}, "page": {"3"}})
	if len(last.Items) != 1 || *last.Items[0].ServerName != "echo" {
		t.Errorf("page 3: got %+v", last.Items)
	}
	if last.Meta.HasNextPage || !last.Meta.HasPrevPage {
		t.Errorf("page 3 meta: %+v", last.Meta)
	}

	desc := list(t, d, url.Values{"sortDir": {"DESC"}, "limit": {"1"}})
	if *desc.Items[0].ServerName != "echo" {
		t.Errorf("desc first: got %q", *desc.Items[0].ServerName)
	}

	evil := list(t, d, url.Values{"sortBy": {"id; DROP TABLE server_inventory"}, "limit": {"1"}})
	if *evil.Items[0].ServerName != "alpha" {
		t.Errorf("adversarial sortBy should fall back to server_name: got %q", *evil.Items[0].ServerName)
	}
	if total := list(t, d, url.Values{}).Meta.TotalItems; total != 5 {
		t.Errorf("table damaged: total = %d", total)
	}

	beyond := list(t, d, url.Values{"page": {"10"}})
	if len(beyond.Items) != 0 || beyond.Meta.Page != 10 {
		t.Errorf("page past the end: %+v", beyond)
	}
}

func TestUpdate(t *testing.T) {
	d := newTestDB(t)
	before := seed(t, d, "upd-1", "web01", "HQ", "Operation")

	f, err := models.ForUpdate(map[string]any{"status": "Maintenance", "remark": "patching", "id": "hijack", "bogus": true})
	if err != nil {
		t.Fatalf("ForUpdate: %v", err)
	}
	updated, err := d.Update(context.Background(), "upd-1", f)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := *before
	want.Status = str("Maintenance")
	want.Remark = str("patching")
	if diff := cmp.Diff(&want, updated); diff != "" {
		t.Errorf("Update returned (-want +got):\n%s", diff)
	}

	got, err := d.GetByID(context.Background(), "upd-1")
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("after update (-want +got):\n%s", diff)
	}
}

func TestUpdate_SetNull(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "n-1", "web01", "HQ", "Operation")
	f, _ := models.ForUpdate(map[string]any{"location": nil})
	got, err := d.Update(context.Background(), "n-1", f)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Location != nil {
		t.Errorf("Location: got %q, want nil", *got.Location)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	d := newTestDB(t)
	f, _ := models.ForUpdate(map[string]any{"status": "Operation"})
	_, err := d.Update(context.Background(), "ghost", f)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdate_NoFields(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "e-1", "web01", "HQ", "Operation")
	_, err := d.Update(context.Background(), "e-1", models.Fields{})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "del-1", "web01", "HQ", "Operation")

	if err := d.Delete(context.Background(), "del-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := d.GetByID(context.Background(), "del-1")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	d := newTestDB(t)
	err := d.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	d := newTestDB(t)
	seed(t, d, "1", "a", "A", "Operation")
	seed(t, d, "2", "b", "A", "Operation")
	seed(t, d, "3", "c", "A", "Maintenance")
	f, _ := models.ForCreate(map[string]any{"id": "4", "server_name": "d", "ip_address": "10.9.9.9"})
	if _, err := d.Create(context.Background(), f); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := d.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	want := map[string]int{"Operation": 2, "Maintenance": 1, "unknown": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CountByStatus (-want +got):\n%s", diff)
	}
}
