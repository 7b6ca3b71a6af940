package logger

const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status_code"
	FieldDuration  = "duration_ms"
	FieldClientIP  = "client_ip"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldUserID    = "user_id"
	FieldEntity    = "entity"
	FieldRecordID  = "record_id"
	FieldBackend   = "backend"
	FieldCount     = "count"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentAuth    = "auth"
	ComponentStorage = "storage"
	ComponentCache   = "cache"
	ComponentEvents  = "events"
	ComponentAMQP    = "amqp"
	ComponentReports = "reports"
)

const (
	OpCreate   = "create"
	OpList     = "list"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpLogin    = "login"
	OpSignup   = "signup"
	OpLogout   = "logout"
	OpExport   = "export"
	OpMigrate  = "migrate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
