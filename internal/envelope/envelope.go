// Package envelope defines the canonical result shape returned to callers
// regardless of which upstream provider was queried, plus constructors for
// every outcome class: success, validation failure, missing credentials,
// transport/decode failure, domain not-found, and upstream error passthrough.
package envelope

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// previewLimit bounds how much raw upstream text is echoed back in errors.
const previewLimit = 200

// NotFoundMessage is the uniform message for the domain not-found outcome.
const NotFoundMessage = "No records were found matching your request"

// Error is the typed error payload embedded in an Envelope.
type Error struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	// Status carries the original upstream status when the envelope
	// remaps it (not-found normalization, error passthrough).
	Status int `json:"status,omitempty"`
	// Received echoes the criteria the caller sent, for debugging
	// validation failures.
	Received any `json:"received,omitempty"`
	// Preview is a bounded slice of an undecodable upstream body.
	Preview string `json:"responsePreview,omitempty"`
}

// Envelope is the canonical `{status, error, data}` result. Status doubles
// as the HTTP status the envelope is written with; remapped outcomes keep
// the original upstream status inside Error.Status.
type Envelope struct {
	Status int             `json:"status"`
	Error  *Error          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

// Write serializes the envelope with its own status as the HTTP status.
func Write(w http.ResponseWriter, env *Envelope) {
	if env.Error != nil && env.Status != http.StatusOK {
		slog.Error("request failed", "status", env.Status, "type", env.Error.Type, "error", env.Error.Message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status)
	json.NewEncoder(w).Encode(env)
}

// Success wraps an upstream body that needs no further normalization.
func Success(data []byte) *Envelope {
	return &Envelope{Status: http.StatusOK, Data: json.RawMessage(data)}
}

// NotFound is the canonical domain not-found outcome. origStatus records the
// upstream status that signaled no match, or 0 when the signal was an empty
// record set on a 200.
func NotFound(origStatus int) *Envelope {
	return &Envelope{
		Status: http.StatusOK,
		Error: &Error{
			Type:    "not_found",
			Message: NotFoundMessage,
			Status:  origStatus,
		},
	}
}

// Validation reports a 400-class criteria failure detected before any
// network call.
func Validation(errType, message, hint string) *Envelope {
	return &Envelope{
		Status: http.StatusBadRequest,
		Error:  &Error{Type: errType, Message: message, Hint: hint},
	}
}

// MissingCredentials reports absent process configuration for a provider.
func MissingCredentials(message, hint string) *Envelope {
	return &Envelope{
		Status: http.StatusBadRequest,
		Error:  &Error{Type: "missing_credentials", Message: message, Hint: hint},
	}
}

// UpstreamError surfaces a provider's own error while keeping the canonical
// 200 status, so callers never branch on raw transport status.
func UpstreamError(message string, origStatus int) *Envelope {
	if message == "" {
		message = "Request failed"
	}
	return &Envelope{
		Status: http.StatusOK,
		Error:  &Error{Type: "upstream_error", Message: message, Status: origStatus},
	}
}

// DecodeFailure reports undecodable upstream content for a mode that
// requires structured output.
func DecodeFailure(provider string, origStatus int, raw []byte) *Envelope {
	return &Envelope{
		Status: http.StatusInternalServerError,
		Error: &Error{
			Type:    "upstream_decode",
			Message: provider + " returned non-JSON content. This usually means authentication failed or the wrong endpoint was called.",
			Hint:    "Check your API credentials and ensure they are correct",
			Status:  origStatus,
			Preview: Preview(raw),
		},
	}
}

// RawPassthrough carries undecodable upstream text through with the original
// status, for providers where debuggability beats a synthetic 500.
func RawPassthrough(origStatus int, raw []byte) *Envelope {
	msg := Preview(raw)
	if msg == "" {
		msg = "Upstream returned non-JSON content"
	}
	return &Envelope{
		Status: origStatus,
		Error:  &Error{Type: "upstream_non_json", Message: msg, Status: origStatus},
	}
}

// Unreachable reports a failed outbound call.
func Unreachable(err error) *Envelope {
	return &Envelope{
		Status: http.StatusInternalServerError,
		Error:  &Error{Type: "upstream_unreachable", Message: err.Error()},
	}
}

// Preview returns a whitespace-collapsed, bounded slice of raw for embedding
// in error payloads.
func Preview(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	if len(clean) <= previewLimit {
		return clean
	}
	return clean[:previewLimit] + "..."
}
