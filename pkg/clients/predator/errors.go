package predator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrOutputNotFound = errors.New("output not found in response")
	ErrInvalidConfig  = errors.New("invalid predator client config")
)

// InferenceServerError is returned when the server answers with a non 2xx status
type InferenceServerError struct {
	StatusCode int
	Message    string
}

func (e *InferenceServerError) Error() string {
	if len(e.Message) == 0 {
		return fmt.Sprintf("inference server returned status %d", e.StatusCode)
	}
	return e.Message
}

// newInferenceServerError pulls the "error" field out of a failure body and falls back
// to the raw body, then to the status text.
func newInferenceServerError(statusCode int, body []byte) *InferenceServerError {
	message := ""
	if gjson.ValidBytes(body) {
		message = gjson.GetBytes(body, "error").String()
	}
	if len(message) == 0 {
		message = strings.TrimSpace(string(body))
	}
	if len(message) == 0 {
		message = http.StatusText(statusCode)
	}
	return &InferenceServerError{StatusCode: statusCode, Message: message}
}
