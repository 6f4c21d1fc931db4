// Package provider implements the workers management REST API client.
package provider

import (
	"fmt"
	"strings"
)

// Binding is a named value injected into a deployed worker's runtime
// environment.
type Binding struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// PlainTextBinding exposes text to the worker under the given name.
func PlainTextBinding(name, text string) Binding {
	return Binding{Type: "plain_text", Name: name, Text: text}
}

// Metadata is the JSON part of a script upload. MainModule names which
// multipart part carries the module entry point.
type Metadata struct {
	MainModule string    `json:"main_module"`
	Bindings   []Binding `json:"bindings"`
}

// APIMessage is one entry of the provider's errors/messages lists.
type APIMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope is the provider's JSON response wrapper. The Success flag gates
// the outcome regardless of HTTP status.
type Envelope struct {
	Success  bool         `json:"success"`
	Errors   []APIMessage `json:"errors"`
	Messages []APIMessage `json:"messages"`
}

// APIError reports a non-success provider response.
type APIError struct {
	StatusCode int
	Errors     []APIMessage
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, msg := range e.Errors {
		parts = append(parts, fmt.Sprintf("%d: %s", msg.Code, msg.Message))
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}
