//go:build wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
	"github.com/praetorian-inc/disclose/pkg/verify"
)

var (
	extractors   = make(map[int]*extract.Core)
	extractorsMu sync.RWMutex
	nextID       int
)

// newExtractor creates an extractor from a JSONC profiles document, or the builtin
// profiles for "builtin" and "".
// JS: DiscloseNewExtractor(profilesJSON) -> {handle} or {error}
func newExtractor(this js.Value, args []js.Value) interface{} {
	var profiles []*types.Profile
	if len(args) > 0 && args[0].Type() == js.TypeString {
		if doc := args[0].String(); doc != "" && doc != "builtin" {
			var err error
			profiles, err = profile.NewLoader().LoadProfiles([]byte(doc), profile.FormatJSONC)
			if err != nil {
				return map[string]interface{}{"error": "failed to load profiles: " + err.Error()}
			}
		}
	}

	core, err := extract.NewCore(extract.Config{Profiles: profiles, Limits: transcript.DefaultLimits})
	if err != nil {
		return map[string]interface{}{"error": "failed to create extractor: " + err.Error()}
	}

	extractorsMu.Lock()
	id := nextID
	nextID++
	extractors[id] = core
	extractorsMu.Unlock()

	return map[string]interface{}{"handle": id}
}

func lookup(handle int) (*extract.Core, bool) {
	extractorsMu.RLock()
	defer extractorsMu.RUnlock()
	core, ok := extractors[handle]
	return core, ok
}

// extractTranscript builds plans for one transcript in the JSON transcript format.
// Remaining arguments name profiles; with none, profiles are chosen by the response.
// JS: DiscloseExtract(handle, transcriptJSON, source, ...profileIDs) -> JSON result or {error}
func extractTranscript(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and transcriptJSON arguments required"}
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid extractor handle"}
	}

	source := ""
	if len(args) > 2 {
		source = args[2].String()
	}
	var ids []string
	for _, a := range args[min(len(args), 3):] {
		ids = append(ids, a.String())
	}

	t, err := transcript.Decode(source, []byte(args[1].String()))
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	result, err := core.Extract(context.Background(), t, ids...)
	if err != nil {
		return map[string]interface{}{"error": "extract failed: " + err.Error()}
	}
	return marshal(result)
}

// extractBatch builds plans for a JSON array of transcripts, each carrying an
// optional "source".
// JS: DiscloseExtractBatch(handle, itemsJSON) -> JSON batch result or {error}
func extractBatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and itemsJSON arguments required"}
	}

	core, ok := lookup(args[0].Int())
	if !ok {
		return map[string]interface{}{"error": "invalid extractor handle"}
	}

	items, err := decodeItems([]byte(args[1].String()))
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	batch, err := core.ExtractBatch(context.Background(), items)
	if err != nil {
		return map[string]interface{}{"error": "batch extract failed: " + err.Error()}
	}
	return marshal(batch)
}

// verifyPlan re-checks a plan against the transcript it was built from.
// JS: DiscloseVerify(transcriptJSON, planJSON) -> JSON results or {error}
func verifyPlan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "transcriptJSON and planJSON arguments required"}
	}

	var p plan.Plan
	if err := json.Unmarshal([]byte(args[1].String()), &p); err != nil {
		return map[string]interface{}{"error": "failed to parse plan JSON: " + err.Error()}
	}
	t, err := transcript.Decode("", []byte(args[0].String()))
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	results, err := verify.Plan(context.Background(), t, &p)
	if err != nil {
		return map[string]interface{}{"error": "verify failed: " + err.Error()}
	}
	return marshal(results)
}

// closeExtractor releases an extractor.
// JS: DiscloseCloseExtractor(handle)
func closeExtractor(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "handle argument required"}
	}

	handle := args[0].Int()

	extractorsMu.Lock()
	core, ok := extractors[handle]
	if ok {
		delete(extractors, handle)
	}
	extractorsMu.Unlock()

	if !ok {
		return map[string]interface{}{"error": "invalid extractor handle"}
	}

	core.Close()
	return nil
}

// getBuiltinProfiles returns the builtin profiles as JSON.
// JS: DiscloseGetBuiltinProfiles() -> JSON profiles array
func getBuiltinProfiles(this js.Value, args []js.Value) interface{} {
	profiles, err := extract.BuiltinProfiles()
	if err != nil {
		return map[string]interface{}{"error": "failed to load builtin profiles: " + err.Error()}
	}
	return marshal(profiles)
}

// decodeItems decodes a JSON array of transcripts.
func decodeItems(data []byte) ([]*transcript.Transcript, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse items JSON: %w", err)
	}

	items := make([]*transcript.Transcript, 0, len(raw))
	for i, r := range raw {
		var head struct {
			Source string `json:"source"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		t, err := transcript.Decode(head.Source, r)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, t)
	}
	return items, nil
}

func marshal(v any) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal results: " + err.Error()}
	}
	return string(jsonBytes)
}
