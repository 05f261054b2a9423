package constants

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyClaims    = "claims"
	ContextKeyRequestID = "request_id"
	ContextKeyWorkspace = "workspace"
	ContextKeyMember    = "workspace_member"
	ContextKeyProject   = "project"
	ContextKeyTask      = "task"
)

// HeaderRequestID is echoed back on every response.
const HeaderRequestID = "X-Request-ID"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Registration defaults
const (
	DefaultWorkspaceSuffix      = " Workspace"
	DefaultWorkspaceDescription = "Default workspace"
	DefaultProjectName          = "My First Project"
	DefaultProjectDescription   = "Default project"
	DefaultProjectColor         = "#3B82F6"
)

// Analytics
const (
	WeeklySeriesDays = 7
	DayLabelLayout   = "Mon"
	DateLayout       = "2006-01-02"
)

// AI
const (
	MaxAIGeneratedTasks = 20
	MaxAIInputLength    = 10000
)
