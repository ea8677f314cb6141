package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/memora/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"Invalid credentials"}`, "Invalid credentials"},
		{"detail field", `{"detail":"Unsupported format"}`, "Unsupported format"},
		{"message field", `{"message":"nope"}`, "nope"},
		{"structured detail ignored", `{"detail":[{"loc":["body"]}]}`, ""},
		{"plain text", "rate limited\n", "rate limited"},
		{"html ignored", "<html><body>502</body></html>", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseAPIError(http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.want, e.Message)
			assert.Equal(t, http.StatusBadRequest, e.StatusCode)
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	assert.ErrorIs(t, &APIError{StatusCode: 401}, ErrUnauthorized)
	assert.ErrorIs(t, &APIError{StatusCode: 403}, ErrUnauthorized)
	assert.ErrorIs(t, &APIError{StatusCode: 503}, ErrUnavailable)
	assert.NotErrorIs(t, &APIError{StatusCode: 500}, ErrUnavailable)
	assert.NotErrorIs(t, &APIError{StatusCode: 400}, ErrUnauthorized)

	wrapped := fmt.Errorf("%w: %w", common.ErrCredentials, &APIError{StatusCode: 401, Message: "Invalid code"})
	assert.ErrorIs(t, wrapped, ErrUnauthorized)
	assert.Equal(t, "Invalid code", UserMessage(wrapped))
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "server returned 404 Not Found", (&APIError{StatusCode: 404}).Error())
	assert.Equal(t, "server returned 400: bad", (&APIError{StatusCode: 400, Message: "bad"}).Error())
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, GenericMessage, UserMessage(errors.New("boom")))
	assert.Equal(t, "An upload is already in progress.", UserMessage(common.ErrUploadBusy))
	assert.Equal(t, "There is no failed upload to retry.", UserMessage(fmt.Errorf("x: %w", common.ErrNoDraft)))
	assert.Equal(t, "Please fill in all fields.", UserMessage(common.ErrEmptyInput))
}
