package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/handlers"
	"github.com/tphummel/server_inventory/internal/models"
)

// newAPI runs the real service over an in-memory database and returns its URL.
func newAPI(t *testing.T) string {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	mux := http.NewServeMux()
	(&handlers.Handler{DB: d}).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

// run executes invctl with args against endpoint and returns stdout.
func run(t *testing.T, endpoint string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--endpoint", endpoint}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, endpoint string, args ...string) string {
	t.Helper()
	out, err := run(t, endpoint, args...)
	if err != nil {
		t.Fatalf("invctl %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestCreateGetUpdateDelete(t *testing.T) {
	api := newAPI(t)

	out := mustRun(t, api, "create", "--id", "srv-1",
		"--set", "server_name=web01",
		"--set", "ip_address=10.0.0.1",
		"--set", "location=HQ",
		"--set", "decom_duration_days=30")
	var created models.Server
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("create output is not a record: %v\n%s", err, out)
	}
	if created.ID != "srv-1" || created.DecomDurationDays == nil || *created.DecomDurationDays != 30 {
		t.Errorf("created: %+v", created)
	}

	out = mustRun(t, api, "update", "srv-1", "--set", "status=Maintenance", "--null", "location")
	var updated models.Server
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatalf("update output: %v\n%s", err, out)
	}
	if updated.Status == nil || *updated.Status != "Maintenance" || updated.Location != nil {
		t.Errorf("updated: status=%v location=%v", updated.Status, updated.Location)
	}

	out = mustRun(t, api, "get", "srv-1")
	if !strings.Contains(out, `"status": "Maintenance"`) {
		t.Errorf("get output: %s", out)
	}

	out = mustRun(t, api, "delete", "srv-1")
	if strings.TrimSpace(out) != "deleted srv-1" {
		t.Errorf("delete output: %q", out)
	}

	if _, err := run(t, api, "get", "srv-1"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("get after delete: got %v, want not found", err)
	}
	if _, err := run(t, api, "delete", "srv-1"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("second delete: got %v, want 404", err)
	}
}

func TestCreate_DefaultsToUUID(t *testing.T) {
	api := newAPI(t)
	out := mustRun(t, api, "create", "--set", "server_name=a", "--set", "ip_address=10.0.0.9")
	var created models.Server
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(created.ID); err != nil {
		t.Errorf("id %q is not a UUID", created.ID)
	}
}

func TestCreate_ServiceRejection(t *testing.T) {
	api := newAPI(t)
	_, err := run(t, api, "create", "--set", "server_name=a")
	if err == nil || !strings.Contains(err.Error(), "are required") {
		t.Errorf("got %v, want required-field error from the service", err)
	}
}

func TestList_FiltersAndTable(t *testing.T) {
	api := newAPI(t)
	mustRun(t, api, "create", "--id", "1", "--set", "server_name=alpha", "--set", "ip_address=10.0.0.1", "--set", "location=HQ")
	mustRun(t, api, "create", "--id", "2", "--set", "server_name=bravo", "--set", "ip_address=10.0.0.2", "--set", "location=GBS")

	out := mustRun(t, api, "list", "--location", "GBS")
	var page models.ServerPage
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("list output: %v\n%s", err, out)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "2" {
		t.Errorf("items: %+v", page.Items)
	}

	out = mustRun(t, api, "list", "-o", "table", "--sort-by", "server_name", "--sort-dir", "desc")
	if strings.Index(out, "bravo") > strings.Index(out, "alpha") {
		t.Errorf("table not sorted desc:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 1, 2 servers") {
		t.Errorf("table footer missing:\n%s", out)
	}
}

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		sets    []string
		nulls   []string
		wantErr string
	}{
		{"missing equals", []string{"status"}, nil, "column=value"},
		{"unknown column", []string{"colour=red"}, nil, "unknown"},
		{"id is read-only", []string{"id=x"}, nil, "read-only"},
		{"unknown null", nil, []string{"colour"}, "unknown"},
		{"set and null", []string{"remark=x"}, []string{"remark"}, "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAssignments(tt.sets, tt.nulls, models.UpdatableColumns)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}

	body, err := parseAssignments([]string{"remark=a=b"}, []string{"os"}, models.UpdatableColumns)
	if err != nil {
		t.Fatal(err)
	}
	if body["remark"] != "a=b" || body["os"] != nil {
		t.Errorf("body: %v", body)
	}
	if _, ok := body["os"]; !ok {
		t.Error("nulled column missing from body")
	}
}

func TestUpdate_NothingToDo(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:0", "update", "srv-1")
	if err == nil || !strings.Contains(err.Error(), "nothing to update") {
		t.Errorf("got %v", err)
	}
}
