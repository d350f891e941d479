package log

// Attribute keys shared by every component.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldCommitteeID   = "committee_id"
	FieldInstallmentID = "installment_id"
	FieldMemberID      = "member_id"
	FieldPaymentID     = "payment_id"
	FieldPeriod        = "period"
	FieldSlot          = "slot"
	FieldStatus        = "status"
	FieldAmountCents   = "amount_cents"
	FieldEntityID      = "entity_id"
	FieldEventID       = "event_id"
	FieldEventType     = "type"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentAlerts    = "alerts"
	ComponentCLI       = "cli"
)

// Operation names used in error logs.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpRecord   = "record"
	OpClear    = "clear"
	OpToggle   = "toggle"
	OpMove     = "move"
	OpScan     = "scan"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
