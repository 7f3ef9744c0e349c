package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldReport    = "report"
	FieldDimension = "dimension"
	FieldMetric    = "metric"
	FieldBackend   = "backend"
	FieldPeriod    = "period"
	FieldRecords   = "records"
	FieldRows      = "rows"
	FieldSkipped   = "skipped"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldFile      = "file"
	FieldSheetsRef = "sheets_ref"
	FieldCacheKey  = "cache_key"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentAnalytics = "analytics"
	ComponentReports   = "reports"
	ComponentSheets    = "sheets"
	ComponentCSV       = "csv"
	ComponentCache     = "cache"
	ComponentConfig    = "config"
)

// Operations defines standard operation names
const (
	OpLoad      = "load"
	OpNormalize = "normalize"
	OpAggregate = "aggregate"
	OpCompare   = "compare"
	OpRank      = "rank"
	OpValidate  = "validate"
	OpParse     = "parse"
	OpRender    = "render"
	OpStartup   = "startup"
)
