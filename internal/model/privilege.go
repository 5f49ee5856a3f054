package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "shift:close"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Close Shift"
}

// Privilege codes checked by the router
const (
	PrivUserView   = "user:view"
	PrivUserCreate = "user:create"
	PrivUserUpdate = "user:update"
	PrivUserDelete = "user:delete"

	PrivStationView   = "station:view"
	PrivStationManage = "station:manage"

	PrivShiftView  = "shift:view"
	PrivShiftOpen  = "shift:open"
	PrivShiftClose = "shift:close"
	PrivMeterEntry = "meter:record"
	PrivShiftAdmin = "shift:correct"

	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionVoid   = "transaction:void"
	PrivTransactionDelete = "transaction:delete"

	PrivOwnerView   = "owner:view"
	PrivOwnerManage = "owner:manage"
	PrivOwnerMerge  = "owner:merge"

	PrivDailyRecordManage = "daily_record:manage"
	PrivDailyRecordDelete = "daily_record:delete"

	PrivReportView    = "report:view"
	PrivReportExport  = "report:export"
	PrivReportArchive = "report:archive"

	PrivAuditView = "audit:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	// Stations
	{Code: PrivStationView, Name: "View Station"},
	{Code: PrivStationManage, Name: "Manage Station"},
	// Shift workflow
	{Code: PrivShiftView, Name: "View Shift"},
	{Code: PrivShiftOpen, Name: "Open Shift"},
	{Code: PrivShiftClose, Name: "Close Shift"},
	{Code: PrivMeterEntry, Name: "Record Meter And Gauge"},
	{Code: PrivShiftAdmin, Name: "Correct Closed Shift"},
	// Sales
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Create Transaction"},
	{Code: PrivTransactionVoid, Name: "Void Transaction"},
	{Code: PrivTransactionDelete, Name: "Delete Transaction"},
	// Credit customers
	{Code: PrivOwnerView, Name: "View Owner"},
	{Code: PrivOwnerManage, Name: "Manage Owner And Truck"},
	{Code: PrivOwnerMerge, Name: "Merge Owners"},
	// Daily records
	{Code: PrivDailyRecordManage, Name: "Manage Daily Record"},
	{Code: PrivDailyRecordDelete, Name: "Delete Daily Record"},
	// Reports
	{Code: PrivReportView, Name: "View Reports"},
	{Code: PrivReportExport, Name: "Export Reports"},
	{Code: PrivReportArchive, Name: "Archive Reports"},
	// Audit
	{Code: PrivAuditView, Name: "View Audit Log"},
}

// adminOnlyPrivileges are withheld from MANAGER
var adminOnlyPrivileges = map[string]bool{
	PrivUserCreate:        true,
	PrivUserUpdate:        true,
	PrivUserDelete:        true,
	PrivStationManage:     true,
	PrivShiftAdmin:        true,
	PrivTransactionDelete: true,
	PrivOwnerMerge:        true,
	PrivDailyRecordDelete: true,
	PrivReportArchive:     true,
	PrivAuditView:         true,
}

// staffPrivileges is the forecourt staff set
var staffPrivileges = map[string]bool{
	PrivStationView:       true,
	PrivShiftView:         true,
	PrivShiftOpen:         true,
	PrivShiftClose:        true,
	PrivMeterEntry:        true,
	PrivTransactionView:   true,
	PrivTransactionCreate: true,
	PrivOwnerView:         true,
}

// PrivilegesForRole filters all privileges down to what a role gets by default
func PrivilegesForRole(roleCode string, all []Privilege) []Privilege {
	out := []Privilege{}
	for _, p := range all {
		switch roleCode {
		case RoleAdmin:
			out = append(out, p)
		case RoleManager:
			if !adminOnlyPrivileges[p.Code] {
				out = append(out, p)
			}
		case RoleStaff:
			if staffPrivileges[p.Code] {
				out = append(out, p)
			}
		}
	}
	return out
}
