package http

// APIResponse is the standard response envelope. Every endpoint wraps
// its payload so clients can rely on a uniform status/message shape.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one failed field in a rejected request.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"property_id"`
	Message string                 `json:"message,omitempty" example:"PropertyID is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse wraps list endpoints with a total row count.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}
