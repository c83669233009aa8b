// Package transcript holds the sent and received halves of an HTTP session and
// loads them from disk.
package transcript

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/praetorian-inc/disclose/pkg/types"
)

var (
	// ErrTooLarge is returned when a direction exceeds its limit.
	ErrTooLarge = errors.New("transcript exceeds size limit")
	// ErrEmpty is returned when a transcript file has neither direction.
	ErrEmpty = errors.New("transcript has no sent or received data")
)

// Transcript is both directions of one session.
type Transcript struct {
	ID       types.TranscriptID
	Source   string // file path or other origin, informational
	Sent     []byte
	Received []byte
}

// New creates a transcript and computes its ID.
func New(source string, sent, received []byte) *Transcript {
	return &Transcript{
		ID:       types.ComputeTranscriptID(sent, received),
		Source:   source,
		Sent:     sent,
		Received: received,
	}
}

// Data returns the bytes of one direction.
func (t *Transcript) Data(dir types.Direction) []byte {
	if dir == types.DirectionSent {
		return t.Sent
	}
	return t.Received
}

// Limits caps the size of each direction. Zero means unlimited.
type Limits struct {
	MaxSentData int
	MaxRecvData int
}

// DefaultLimits matches the default notarization session limits.
var DefaultLimits = Limits{MaxSentData: 4096, MaxRecvData: 16384}

// Check returns ErrTooLarge if either direction is over its limit.
func (l Limits) Check(t *Transcript) error {
	if l.MaxSentData > 0 && len(t.Sent) > l.MaxSentData {
		return fmt.Errorf("sent %d bytes, limit %d: %w", len(t.Sent), l.MaxSentData, ErrTooLarge)
	}
	if l.MaxRecvData > 0 && len(t.Received) > l.MaxRecvData {
		return fmt.Errorf("received %d bytes, limit %d: %w", len(t.Received), l.MaxRecvData, ErrTooLarge)
	}
	return nil
}

// file is the JSON transcript format. With Encoding "base64" both directions are
// base64; otherwise they are plain strings.
type file struct {
	Sent     string `json:"sent"`
	Received string `json:"received"`
	Encoding string `json:"encoding,omitempty"`
}

// Decode parses a JSON transcript.
func Decode(source string, data []byte) (*Transcript, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	if f.Sent == "" && f.Received == "" {
		return nil, ErrEmpty
	}

	switch f.Encoding {
	case "", "text":
		return New(source, []byte(f.Sent), []byte(f.Received)), nil
	case "base64":
		sent, err := base64.StdEncoding.DecodeString(f.Sent)
		if err != nil {
			return nil, fmt.Errorf("decoding sent: %w", err)
		}
		received, err := base64.StdEncoding.DecodeString(f.Received)
		if err != nil {
			return nil, fmt.Errorf("decoding received: %w", err)
		}
		return New(source, sent, received), nil
	default:
		return nil, fmt.Errorf("unknown transcript encoding %q", f.Encoding)
	}
}

// Encode renders t in the JSON transcript format using plain strings.
func Encode(t *Transcript) ([]byte, error) {
	return json.MarshalIndent(file{Sent: string(t.Sent), Received: string(t.Received)}, "", "  ")
}

// LoadFile reads a JSON transcript file.
func LoadFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	t, err := Decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadRaw reads the two directions from separate raw files. Either path may be empty.
func LoadRaw(sentPath, receivedPath string) (*Transcript, error) {
	read := func(path string) ([]byte, error) {
		if path == "" {
			return nil, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		return data, nil
	}

	sent, err := read(sentPath)
	if err != nil {
		return nil, err
	}
	received, err := read(receivedPath)
	if err != nil {
		return nil, err
	}

	source := sentPath
	if source == "" {
		source = receivedPath
	}
	return New(source, sent, received), nil
}
