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

// PartialEnvelope reports a mutation that was applied in memory but whose
// snapshot save failed. Data holds the applied result.
type PartialEnvelope struct {
	Data  any      `json:"data"`
	Error APIError `json:"error"`
}
