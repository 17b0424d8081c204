package models

// Server is one row of the server_inventory table. Every column other than
// id is nullable; a nil pointer is stored as NULL and encoded as JSON null.
type Server struct {
	ID                           string  `json:"id"`
	ServerName                   *string `json:"server_name"`
	IPAddress                    *string `json:"ip_address"`
	DNSName                      *string `json:"dns_name"`
	PowerState                   *string `json:"power_state"`
	CreateDate                   *string `json:"create_date"`
	Location                     *string `json:"location"`
	ZoneLV                       *string `json:"zone_lv"`
	ApplicationName              *string `json:"application_name"`
	SystemEnvironment            *string `json:"system_environment"`
	Function                     *string `json:"function"`
	Status                       *string `json:"status"`
	DecommissionDate             *string `json:"decommission_date"`
	DecomDurationDays            *int64  `json:"decom_duration_days"`
	NeedTerminateProcess         *string `json:"need_terminate_process"`
	TerminatedDate               *string `json:"terminated_date"`
	OS                           *string `json:"os"`
	OSVersion                    *string `json:"os_version"`
	ServicePack                  *string `json:"service_pack"`
	CPU                          *string `json:"cpu"`
	Memory                       *string `json:"memory"`
	Disk                         *string `json:"disk"`
	UpdatePatchProject           *string `json:"update_patch_project"`
	VeritasBackup                *string `json:"veritas_backup"`
	TestDR                       *string `json:"test_dr"`
	CriticalApp                  *string `json:"critical_app"`
	PTTEPServerOwner             *string `json:"pttep_server_owner"`
	PTTEPApplicationOwner        *string `json:"pttep_application_owner"`
	ApplicationSupportDepartment *string `json:"application_support_department"`
	ApplicationSupportName       *string `json:"application_support_name"`
	ApplicationSupportEmail      *string `json:"application_support_email"`
	ServerFocalPoint             *string `json:"server_focal_point"`
	RequestChannelForPTTEP       *string `json:"request_channel_for_pttep"`
	TicketIDRequestForPTTDigital *string `json:"ticket_id_request_for_ptt_digital"`
	Remark                       *string `json:"remark"`
}

// ServerSummary is the projection returned by the list endpoint.
type ServerSummary struct {
	ID                string  `json:"id"`
	ServerName        *string `json:"server_name"`
	IPAddress         *string `json:"ip_address"`
	ApplicationName   *string `json:"application_name"`
	Location          *string `json:"location"`
	SystemEnvironment *string `json:"system_environment"`
	Status            *string `json:"status"`
	PowerState        *string `json:"power_state"`
	CriticalApp       *string `json:"critical_app"`
	PTTEPServerOwner  *string `json:"pttep_server_owner"`
}

// Columns lists every column of server_inventory in table order. The order
// matches the field order of Server.
var Columns = []string{
	"id",
	"server_name",
	"ip_address",
	"dns_name",
	"power_state",
	"create_date",
	"location",
	"zone_lv",
	"application_name",
	"system_environment",
	"function",
	"status",
	"decommission_date",
	"decom_duration_days",
	"need_terminate_process",
	"terminated_date",
	"os",
	"os_version",
	"service_pack",
	"cpu",
	"memory",
	"disk",
	"update_patch_project",
	"veritas_backup",
	"test_dr",
	"critical_app",
	"pttep_server_owner",
	"pttep_application_owner",
	"application_support_department",
	"application_support_name",
	"application_support_email",
	"server_focal_point",
	"request_channel_for_pttep",
	"ticket_id_request_for_ptt_digital",
	"remark",
}

// SummaryColumns is the list projection, in ServerSummary field order.
var SummaryColumns = []string{
	"id",
	"server_name",
	"ip_address",
	"application_name",
	"location",
	"system_environment",
	"status",
	"power_state",
	"critical_app",
	"pttep_server_owner",
}

// IntegerColumns holds the columns stored as INTEGER. Everything else is TEXT.
var IntegerColumns = map[string]bool{
	"decom_duration_days": true,
}

// UpdatableColumns is the allow-list for PUT /api/servers/{id}: every column
// except id.
var UpdatableColumns = columnSet(Columns[1:]...)

// CreatableColumns is the allow-list for POST /api/servers.
var CreatableColumns = columnSet(Columns...)

// RequiredOnCreate are the columns the service refuses to insert without.
var RequiredOnCreate = []string{"id", "server_name", "ip_address"}

// ConsoleRequired are the fields the console's create form insists on before
// it lets the operator submit.
var ConsoleRequired = []string{
	"server_name",
	"ip_address",
	"location",
	"system_environment",
	"status",
	"power_state",
	"critical_app",
	"pttep_server_owner",
}

// EditableColumns is the subset of UpdatableColumns an operator may change
// from the console's detail view.
var EditableColumns = []string{
	"server_name",
	"ip_address",
	"dns_name",
	"application_name",
	"location",
	"system_environment",
	"status",
	"power_state",
	"critical_app",
	"os",
	"os_version",
	"cpu",
	"memory",
	"disk",
	"pttep_server_owner",
	"pttep_application_owner",
	"application_support_department",
	"application_support_name",
	"application_support_email",
	"veritas_backup",
	"test_dr",
	"remark",
}

func columnSet(cols ...string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}
