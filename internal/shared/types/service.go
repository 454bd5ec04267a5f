package types

// Category represents service categories
type Category string

const (
	CategoryDocuments Category = "documents"
	CategoryMedia     Category = "media"
	CategorySystem    Category = "system"
)

// Service describes a registered provider and its tools, as served by /services
type Service struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Category     Category    `json:"category"`
	Capabilities []string    `json:"capabilities"`
	Tools        []Tool      `json:"tools"`
	DataModels   []DataModel `json:"data_models,omitempty"`
}

// Tool represents a service tool
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// DataModel names the fields of a payload shape returned by tools
type DataModel struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

// Context identifies the caller of a tool
type Context struct {
	AppID   *string `json:"app_id,omitempty"`
	TraceID *string `json:"trace_id,omitempty"`
}

// Result is the outcome of one tool call. Kind names the failure kind when Success is false.
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
	Kind    string                 `json:"kind,omitempty"`
	Trace   string                 `json:"trace,omitempty"`
}
