package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/disclose/pkg/plan"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "extract" | "extract_batch" | "verify" | "profiles" | "close"
	Payload json.RawMessage `json:"payload"`
}

// TranscriptPayload is a transcript in the transcript file format plus a source label.
type TranscriptPayload struct {
	Source   string `json:"source"`
	Sent     string `json:"sent"`
	Received string `json:"received"`
	Encoding string `json:"encoding,omitempty"` // "" | "text" | "base64"
}

// ExtractPayload is the payload for "extract" requests. With no profiles, profiles
// are chosen by the keys present in the response.
type ExtractPayload struct {
	TranscriptPayload
	Profiles []string `json:"profiles,omitempty"`
}

// ExtractBatchPayload is the payload for "extract_batch" requests
type ExtractBatchPayload struct {
	Items    []TranscriptPayload `json:"items"`
	Profiles []string            `json:"profiles,omitempty"`
}

// VerifyPayload is the payload for "verify" requests
type VerifyPayload struct {
	TranscriptPayload
	Plan *plan.Plan `json:"plan"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | request type | "decode" | "unknown"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version  string `json:"version"`
	Profiles int    `json:"profiles"`
}

// ProfileInfo describes one profile in a "profiles" response
type ProfileInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
