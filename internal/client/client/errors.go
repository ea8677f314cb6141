package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/memora/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// GenericMessage is shown when no better description of a failure exists.
const GenericMessage = "Request failed. Check your connection and try again."

// APIError is a non-2xx response. Message is the server's own description,
// if it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match auth failures against ErrUnauthorized and gateway
// failures against ErrUnavailable.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrUnavailable:
		return e.StatusCode == http.StatusBadGateway ||
			e.StatusCode == http.StatusServiceUnavailable ||
			e.StatusCode == http.StatusGatewayTimeout
	}
	return false
}

const maxPlainMessage = 200

// parseAPIError builds an APIError from a response body. JSON bodies carry
// the message in "error" (or "detail"); short plain-text bodies are used as is.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}

	var payload struct {
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			e.Message = payload.Error
		case payload.Message != "":
			e.Message = payload.Message
		default:
			if s, ok := payload.Detail.(string); ok {
				e.Message = s
			}
		}
		return e
	}

	text := strings.TrimSpace(string(body))
	if text != "" && utf8.ValidString(text) && len(text) <= maxPlainMessage && !strings.HasPrefix(text, "<") {
		e.Message = text
	}
	return e
}

var localMessages = []struct {
	err error
	msg string
}{
	{common.ErrUploadBusy, "An upload is already in progress."},
	{common.ErrNoDraft, "There is no failed upload to retry."},
	{common.ErrNoPendingChallenge, "No verification is in progress. Log in again."},
	{common.ErrEmptyInput, "Please fill in all fields."},
	{common.ErrDuplicatePhotoID, "The server returned an inconsistent photo list."},
	{common.ErrMalformedPayload, "The server returned an unexpected response."},
	{ErrUnauthorized, "Your session is no longer valid. Please log in again."},
	{ErrUnavailable, "Could not reach the server. Check your connection and try again."},
}

// UserMessage describes err for the user: the server's message verbatim when
// present, a fixed message for known local conditions, otherwise
// GenericMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	for _, m := range localMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return GenericMessage
}
