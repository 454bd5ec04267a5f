package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID string                 `json:"tool_id" binding:"required"`
	Params map[string]interface{} `json:"params"`
	AppID  *string                `json:"app_id,omitempty"`
}

// PickerMessage is exchanged with the picker host over the WebSocket.
// Outbound types are "launch" and "view"; inbound are "result" and "ping".
type PickerMessage struct {
	Type          string   `json:"type"`
	RequestCode   int64    `json:"request_code,omitempty"`
	Action        string   `json:"action,omitempty"`
	InitialURI    string   `json:"initial_uri,omitempty"`
	URI           string   `json:"uri,omitempty"`
	Title         string   `json:"title,omitempty"`
	MimeTypes     []string `json:"mime_types,omitempty"`
	MimeType      string   `json:"mime_type,omitempty"`
	SuggestedName string   `json:"suggested_name,omitempty"`
	Flags         int      `json:"flags,omitempty"`
	OK            bool     `json:"ok,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// PickerResultRequest is the HTTP fallback body for delivering a picker result.
type PickerResultRequest struct {
	RequestCode int64  `json:"request_code"`
	OK          bool   `json:"ok"`
	URI         string `json:"uri"`
	Flags       int    `json:"flags"`
}

// DiscoverRequest asks the registry to rank services for a query.
type DiscoverRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}
