package http

// ErrorBody is the JSON shape of every error response: {"error": "..."}.
type ErrorBody struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"id"`
	Message string                 `json:"message,omitempty" example:"ID is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
