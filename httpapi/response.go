package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/jlim0255-workship/AWS-EventBookingApp/types"
)

const internalErrorMessage = "Internal server error"

// errorBody is the JSON body of every error response.
type errorBody struct {
	Message string     `json:"message"`
	Code    types.Code `json:"code,omitempty"`
}

// messageBody is the JSON body of responses that only carry a message.
type messageBody struct {
	Message string `json:"message"`
}

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Methods":     "OPTIONS, POST, GET, PUT, DELETE",
	"Access-Control-Allow-Headers":     "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token,X-Requested-With",
	"Access-Control-Allow-Credentials": "true",
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes err as a JSON error response. Errors without a code are
// reported with a generic message; their details only reach the logs.
func writeError(w http.ResponseWriter, err error) {
	code := types.GetCode(err)

	message := internalErrorMessage
	if code != types.CodeInternal {
		message = types.Message(err, http.StatusText(statusFor(code)))
	}

	writeJSON(w, statusFor(code), errorBody{Message: message, Code: code})
}

func statusFor(code types.Code) int {
	switch code {
	case types.CodeValidation:
		return http.StatusBadRequest
	case types.CodeNotFound:
		return http.StatusNotFound
	case types.CodeDuplicateRSVP:
		return http.StatusConflict
	case types.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
