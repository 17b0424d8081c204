package console

import (
	"github.com/google/uuid"

	"github.com/tphummel/server_inventory/internal/models"
)

// Option is one choice in a filter drop-down.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Filter describes one categorical filter: the query parameter it sets and
// the choices offered. The sentinel choice is added by the client.
type Filter struct {
	Param    string   `json:"param"`
	Label    string   `json:"label"`
	AllLabel string   `json:"allLabel"`
	Options  []Option `json:"options"`
}

// Column is a list column.
type Column struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Width    string `json:"width"`
	Sortable bool   `json:"sortable"`
}

// Section groups detail fields under a heading.
type Section struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// Settings is everything the browser needs to drive the console. It is
// rendered into the index page so allow-lists stay defined in one place.
type Settings struct {
	Title         string            `json:"title"`
	APIBase       string            `json:"apiBase"`
	Sentinel      string            `json:"sentinel"`
	PageSize      int               `json:"pageSize"`
	DefaultSortBy string            `json:"defaultSortBy"`
	Filters       []Filter          `json:"filters"`
	Columns       []Column          `json:"columns"`
	Sections      []Section         `json:"sections"`
	Labels        map[string]string `json:"labels"`
	Editable      []string          `json:"editable"`
	Creatable     []string          `json:"creatable"`
	Required      []string          `json:"required"`
	Integer       []string          `json:"integer"`
	RowHeight     int               `json:"rowHeight"`
	Overscan      int               `json:"overscan"`
	NewID         string            `json:"newId"`
}

var labels = map[string]string{
	"id":                                "ID",
	"server_name":                       "Server Name",
	"ip_address":                        "IP Address",
	"dns_name":                          "DNS Name",
	"power_state":                       "Power State",
	"create_date":                       "Create Date",
	"location":                          "Location",
	"zone_lv":                           "Zone LV",
	"application_name":                  "Application Name",
	"system_environment":                "Environment",
	"function":                          "Function",
	"status":                            "Status",
	"decommission_date":                 "Decommission Date",
	"decom_duration_days":               "Decom Duration (days)",
	"need_terminate_process":            "Need Terminate Process",
	"terminated_date":                   "Terminated Date",
	"os":                                "OS",
	"os_version":                        "OS Version",
	"service_pack":                      "Service Pack",
	"cpu":                               "CPU",
	"memory":                            "Memory",
	"disk":                              "Disk",
	"update_patch_project":              "Update Patch Project",
	"veritas_backup":                    "Backup (Veritas)",
	"test_dr":                           "Test DR",
	"critical_app":                      "Critical Application",
	"pttep_server_owner":                "Server Owner",
	"pttep_application_owner":           "Application Owner",
	"application_support_department":    "Support Department",
	"application_support_name":          "Support Name",
	"application_support_email":         "Support Email",
	"server_focal_point":                "Server Focal Point",
	"request_channel_for_pttep":         "Request Channel",
	"ticket_id_request_for_ptt_digital": "Ticket ID",
	"remark":                            "Remark",
}

var filters = []Filter{
	{Param: "location", Label: "Location", AllLabel: "All Locations", Options: []Option{
		{"ART", "ART"}, {"GBS", "GBS"}, {"HQ", "HQ"}, {"GBN", "GBN"},
	}},
	{Param: "env", Label: "System Environment", AllLabel: "All Environments", Options: []Option{
		{"PRD", "PRD"}, {"DEV", "DEV"}, {"QAS", "QAS"}, {"UAT", "UAT"}, {"POC", "POC"}, {"Test", "Test"},
	}},
	{Param: "status", Label: "Status", AllLabel: "All Statuses", Options: []Option{
		{"Operation", "Operation"}, {"Decommissioning", "Decommissioning"}, {"Maintenance", "Maintenance"},
	}},
	{Param: "power", Label: "Power State", AllLabel: "All States", Options: []Option{
		{"Power On", "On"}, {"Power Off", "Off"},
	}},
	{Param: "critical", Label: "Critical App", AllLabel: "All", Options: []Option{
		{"Yes", "Yes"}, {"No", "No"},
	}},
}

var columns = []Column{
	{Key: "server_name", Width: "200px"},
	{Key: "ip_address", Width: "170px"},
	{Key: "application_name", Width: "220px"},
	{Key: "location", Width: "120px"},
	{Key: "system_environment", Width: "140px"},
	{Key: "status", Width: "170px"},
	{Key: "power_state", Width: "140px"},
	{Key: "critical_app", Width: "120px"},
	{Key: "pttep_server_owner", Width: "140px"},
}

var sections = []Section{
	{Title: "Basic Information", Fields: []string{
		"server_name", "ip_address", "dns_name", "application_name", "function",
		"location", "zone_lv", "system_environment", "status", "power_state", "create_date",
	}},
	{Title: "System", Fields: []string{
		"os", "os_version", "service_pack", "cpu", "memory", "disk",
	}},
	{Title: "Lifecycle", Fields: []string{
		"decommission_date", "decom_duration_days", "need_terminate_process",
		"terminated_date", "update_patch_project",
	}},
	{Title: "Ownership", Fields: []string{
		"pttep_server_owner", "pttep_application_owner", "application_support_department",
		"application_support_name", "application_support_email", "server_focal_point",
	}},
	{Title: "Other", Fields: []string{
		"critical_app", "veritas_backup", "test_dr", "request_channel_for_pttep",
		"ticket_id_request_for_ptt_digital", "remark",
	}},
}

// DefaultSettings returns the console settings with a fresh id for the
// create form.
func DefaultSettings() Settings {
	cols := make([]Column, len(columns))
	for i, c := range columns {
		c.Label = labels[c.Key]
		c.Sortable = models.SortColumns[c.Key]
		cols[i] = c
	}
	integer := make([]string, 0, len(models.IntegerColumns))
	for _, c := range models.Columns {
		if models.IntegerColumns[c] {
			integer = append(integer, c)
		}
	}
	return Settings{
		Title:         "Server Inventory",
		APIBase:       "/api/servers",
		Sentinel:      models.FilterAll,
		PageSize:      models.DefaultLimit,
		DefaultSortBy: models.DefaultSortBy,
		Filters:       filters,
		Columns:       cols,
		Sections:      sections,
		Labels:        labels,
		Editable:      models.EditableColumns,
		Creatable:     models.Columns,
		Required:      models.ConsoleRequired,
		Integer:       integer,
		RowHeight:     56,
		Overscan:      10,
		NewID:         uuid.NewString(),
	}
}
