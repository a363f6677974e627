// Package types defines the JSON envelopes every API handler responds with:
// a success payload under "data", a failure under "error".
package types

// DataEnvelope wraps a successful response payload.
type DataEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody is the machine-readable error inside an ErrorEnvelope. Message is
// the client-facing text, in Portuguese for domain errors.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps a failed response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
