package types

import "net/http"

// Channel defines the interface for an incoming chat platform webhook.
type Channel interface {
	Name() string
	ValidateRequest(r *http.Request) error
	// ParseRequest decodes the request body into a raw payload object.
	ParseRequest(r *http.Request) (map[string]any, error)
}
