package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// OutcomeBody is the data payload of a handler result the caller must
// surface to the shopper, such as a queued change or a partial success.
type OutcomeBody struct {
	Outcome  string `json:"outcome"`
	Message  string `json:"message,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
	Result   any    `json:"result,omitempty"`
}
