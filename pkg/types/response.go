package types

// Ack is embedded by every success payload so the front end can branch on
// `success` without unwrapping a data envelope.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func OK(message string) Ack {
	return Ack{Success: true, Message: message}
}

type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// PageEnvelope wraps cursor-paginated listings.
type PageEnvelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data"`
	NextCursor string `json:"nextCursor,omitempty"`
}
