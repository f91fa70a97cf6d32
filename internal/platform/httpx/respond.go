// Package httpx provides the JSON response envelope shared by API handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// Envelope wraps every API response.
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a successful envelope.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created sends a 201 envelope with an optional message.
func Created(w http.ResponseWriter, data any, message string) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: message})
}

// Message sends a successful envelope that carries only a message.
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// Error sends a failed envelope.
func Error(w http.ResponseWriter, status int, msg string, details ...string) {
	JSON(w, status, Envelope{Success: false, Error: msg, Details: details})
}

// DecodeJSON decodes a JSON request body into target, rejecting unknown fields
// and trailing data.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", ErrBadRequest)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", ErrBadRequest)
	}
	return nil
}
