package model

// Envelope is the standard JSON response shape for every endpoint:
// {"success": bool, "data": ..., "error": "..."}. Error strings are short
// and non-technical; diagnostic detail stays in server logs.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

// Err wraps a user-facing message in a failure envelope.
func Err(message string) Envelope {
	return Envelope{Success: false, Error: message}
}
