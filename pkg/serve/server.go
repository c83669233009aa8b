// Package serve runs the extraction core as an NDJSON server over a pair of streams.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/verify"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server manages the streaming extractor
type Server struct {
	core    *extract.Core
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new streaming server
func NewServer(core *extract.Core, in io.Reader, out io.Writer) *Server {
	return &Server{
		core:    core,
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until input closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(ctx, req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(ctx, req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(ctx context.Context, req Request) bool {
	switch req.Type {
	case "extract":
		s.handleExtract(ctx, req.Payload)
	case "extract_batch":
		s.handleExtractBatch(ctx, req.Payload)
	case "verify":
		s.handleVerify(ctx, req.Payload)
	case "profiles":
		s.handleProfiles()
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version, Profiles: len(s.core.Profiles())})
}

func (s *Server) handleExtract(ctx context.Context, payload json.RawMessage) {
	var p ExtractPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("extract", err.Error())
		return
	}

	t, err := p.transcript()
	if err != nil {
		s.sendError("extract", err.Error())
		return
	}

	result, err := s.core.Extract(ctx, t, p.Profiles...)
	if err != nil {
		s.sendError("extract", err.Error())
		return
	}
	s.send("extract", result)
}

func (s *Server) handleExtractBatch(ctx context.Context, payload json.RawMessage) {
	var p ExtractBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("extract_batch", err.Error())
		return
	}

	items := make([]*transcript.Transcript, 0, len(p.Items))
	for i, item := range p.Items {
		t, err := item.transcript()
		if err != nil {
			s.sendError("extract_batch", fmt.Sprintf("item %d: %v", i, err))
			return
		}
		items = append(items, t)
	}

	result, err := s.core.ExtractBatch(ctx, items, p.Profiles...)
	if err != nil {
		s.sendError("extract_batch", err.Error())
		return
	}
	s.send("extract_batch", result)
}

func (s *Server) handleVerify(ctx context.Context, payload json.RawMessage) {
	var p VerifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("verify", err.Error())
		return
	}
	if p.Plan == nil {
		s.sendError("verify", "plan is required")
		return
	}

	t, err := p.transcript()
	if err != nil {
		s.sendError("verify", err.Error())
		return
	}

	results, err := verify.Plan(ctx, t, p.Plan)
	if err != nil {
		s.sendError("verify", err.Error())
		return
	}
	s.send("verify", results)
}

func (s *Server) handleProfiles() {
	profiles := s.core.Profiles()
	infos := make([]ProfileInfo, len(profiles))
	for i, p := range profiles {
		infos[i] = ProfileInfo{ID: p.ID, Name: p.Name, Description: strings.TrimSpace(p.Description)}
	}
	s.send("profiles", infos)
}

func (s *Server) send(respType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    respType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}

// transcript decodes the payload's transcript fields.
func (p TranscriptPayload) transcript() (*transcript.Transcript, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return transcript.Decode(p.Source, data)
}
