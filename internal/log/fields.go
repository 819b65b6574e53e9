package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldSuccess       = "success"
	FieldTransactionID = "transaction_id"
	FieldType          = "transaction_type"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldKey           = "storage_key"
	FieldPrefix        = "storage_prefix"
	FieldVersion       = "schema_version"
	FieldBackupCount   = "backup_count"
	FieldCount         = "count"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldClientIP      = "client_ip"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentConfig  = "config"
	ComponentStorage = "storage"
	ComponentTracker = "tracker"
	ComponentBackup  = "backup"
	ComponentHTTP    = "http"
	ComponentKV      = "kv"
)
