package logger

// Standard field names for consistent structured logging across qlint.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldAnalysisID = "analysis_id"
	FieldProjectKey = "project_key"

	// Components
	FieldComponent = "component"
	FieldContainer = "container"
	FieldPlugin    = "plugin"
	FieldType      = "type"

	// Extensions
	FieldExtension = "extension"
	FieldOwner     = "owner"
	FieldActive    = "active"
	FieldRoles     = "roles"

	// Rules and profiles
	FieldLanguage  = "language"
	FieldProfile   = "profile"
	FieldRuleKey   = "rule_key"
	FieldRuleCount = "rule_count"

	// Server and versions
	FieldServerVersion = "server_version"
	FieldProtocol      = "protocol"
	FieldVersion       = "version"
	FieldMinVersion    = "min_version"

	// Operations
	FieldOperation = "operation"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldState     = "state"

	// Counts
	FieldCount = "count"

	// Errors
	FieldError = "error"
)
