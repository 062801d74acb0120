package catalogapi

import (
	"encoding/json"

	"github.com/JourneyJu/dsg-sub010/types"
)

// Response codes carried in the envelope
const (
	CodeOK                = 0
	CodeBadRequest        = 400
	CodeSourceNotFound    = 404
	CodeModeConflict      = 409
	CodeInvalidSubmission = 422
	CodeUpstream          = 502
	CodeInternal          = 500
)

// Envelope wraps every JSON response body: {code, message, data}.
// Code 0 means success.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is the typed form of Envelope used when writing responses
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success builds a success response
func Success(data interface{}) Response {
	return Response{Code: CodeOK, Message: "success", Data: data}
}

// Failure builds an error response
func Failure(code int, message string) Response {
	return Response{Code: code, Message: message}
}

// RecordsPayload is the body of a record set fetch
type RecordsPayload struct {
	SourceID string            `json:"source_id"`
	Records  []types.RawRecord `json:"records"`
}

// SubmitPayload is the body of a record set submission
type SubmitPayload struct {
	Records []types.SubmittedRecord `json:"records"`
}
