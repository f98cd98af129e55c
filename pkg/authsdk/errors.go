package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// Error codes carried in APIError.Code.
const (
	CodeInvalidRequest    = "invalid-request"
	CodeUnauthenticated   = "unauthenticated"
	CodeInvalidToken      = "invalid-token"
	CodeInternalError     = "internal-error"
	CodeTooManyRequests   = "too-many-requests"
	CodeEmailAlreadyInUse = "email-already-in-use"
)

// APIError is the error body of every non-2xx response.
type APIError struct {
	Status  int               `json:"status"`
	Code    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.Status, e)
}

func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

var (
	ErrInvalidRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidRequest,
		Message: "The request payload is malformed",
	}

	// ErrUnauthenticated is the single body used for every credential, code,
	// ticket and refresh token failure.
	ErrUnauthenticated = &APIError{
		Status:  http.StatusUnauthorized,
		Code:    CodeUnauthenticated,
		Message: "Authentication failed",
	}

	ErrInternal = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "Internal server error",
	}
)

// parseErrorResponse decodes an APIError body, falling back to the raw text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode
		}
		return &apiErr
	}
	return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: string(body)}
}
