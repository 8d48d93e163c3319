package channel

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const maxBodySize = 1 << 20 // 1 MB

// JivoChannel validates and decodes webhook calls from the Jivo chat platform.
// It checks method and Content-Type, enforces a 1MB body limit and decodes
// the body into a JSON object.
type JivoChannel struct {
	name string
}

// NewJivoChannel creates a JivoChannel with the given name.
func NewJivoChannel(name string) *JivoChannel {
	return &JivoChannel{name: name}
}

func (j *JivoChannel) Name() string {
	return j.name
}

func (j *JivoChannel) ValidateRequest(r *http.Request) error {
	if r.Method != http.MethodPost {
		return fmt.Errorf("method %s not allowed, expected POST", r.Method)
	}

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("unsupported Content-Type %q, expected application/json", ct)
	}
	return nil
}

func (j *JivoChannel) ParseRequest(r *http.Request) (map[string]any, error) {
	limited := io.LimitReader(r.Body, maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("request body exceeds 1MB limit")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	if payload == nil {
		return nil, fmt.Errorf("request body must be a JSON object")
	}
	return payload, nil
}
