package probe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/clients/predator"
)

// ConnectionError means the client could not be constructed
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to create client for %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ServerError wraps any failed call to the inference server
type ServerError struct {
	Op  string
	Err error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message())
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// Message is the server supplied message when there is one, the transport error otherwise
func (e *ServerError) Message() string {
	var serverErr *predator.InferenceServerError
	if errors.As(e.Err, &serverErr) {
		return serverErr.Message
	}
	return e.Err.Error()
}

// StatusCode is the HTTP status of the failed call, 0 when no response was received
func (e *ServerError) StatusCode() int {
	var serverErr *predator.InferenceServerError
	if errors.As(e.Err, &serverErr) {
		return serverErr.StatusCode
	}
	return 0
}

// MissingOutputError lists requested outputs absent from a response
type MissingOutputError struct {
	Names []string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("missing outputs in response: %s", strings.Join(e.Names, ", "))
}

// ValidationError means the statistics did not hold the expected number of records
type ValidationError struct {
	Model    string
	Expected int
	Actual   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("expected %d statistics records for model %s, got %d", e.Expected, e.Model, e.Actual)
}
