package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "disclose"
	ToolVersion = "0.1.0"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule represents a disclosure profile
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
	HelpURI          string           `json:"helpUri,omitempty"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single disclosed region
type Result struct {
	RuleID     string     `json:"ruleId"`
	Level      string     `json:"level"`
	Message    Message    `json:"message"`
	Locations  []Location `json:"locations"`
	Properties Properties `json:"properties"`
}

// Properties carries the disclosure labels
type Properties struct {
	DisclosureID string `json:"disclosureId"`
	Direction    string `json:"direction"`
	Kind         string `json:"kind"`
	Field        string `json:"field"`
	Fingerprint  string `json:"fingerprint,omitempty"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column and byte range
type Region struct {
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn"`
	EndLine     int      `json:"endLine"`
	EndColumn   int      `json:"endColumn"`
	ByteOffset  int64    `json:"byteOffset"`
	ByteLength  int64    `json:"byteLength"`
	Snippet     *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the disclosed text
type Snippet struct {
	Text string `json:"text"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds a disclosure profile to the report. Profiles already present are skipped.
func (r *Report) AddRule(p *types.Profile) {
	driver := &r.Runs[0].Tool.Driver
	for _, existing := range driver.Rules {
		if existing.ID == p.ID {
			return
		}
	}

	driver.Rules = append(driver.Rules, Rule{
		ID:   p.ID,
		Name: p.Name,
		ShortDescription: ShortDescription{
			Text: strings.TrimSpace(p.Description),
		},
	})
}

// AddResult adds a disclosed region. source is the transcript file, data the bytes of
// the disclosure's direction; the snippet is omitted when data is nil.
func (r *Report) AddResult(profileID string, d *types.Disclosure, source string, data []byte) {
	region := Region{
		StartLine:   d.Location.Source.Start.Line,
		StartColumn: d.Location.Source.Start.Column,
		EndLine:     d.Location.Source.End.Line,
		EndColumn:   d.Location.Source.End.Column,
		ByteOffset:  d.Location.Offset.Start,
		ByteLength:  d.Location.Offset.Len(),
	}

	if snippet := d.Location.Offset.Slice(data); len(snippet) > 0 {
		region.Snippet = &Snippet{Text: string(snippet)}
	}

	result := Result{
		RuleID: profileID,
		Level:  "note",
		Message: Message{
			Text: string(d.Kind) + " " + d.Field,
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: formatFileURI(source) + "#" + string(d.Direction),
					},
					Region: region,
				},
			},
		},
		Properties: Properties{
			DisclosureID: d.ID,
			Direction:    string(d.Direction),
			Kind:         string(d.Kind),
			Field:        d.Field,
			Fingerprint:  d.Fingerprint,
		},
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// AddPlan adds every disclosure of pl. t supplies snippets and the artifact URI and
// may be nil, as for plans read back from a store.
func (r *Report) AddPlan(pl *plan.Plan, t *transcript.Transcript) {
	source := "transcript/" + pl.TranscriptID.Hex()
	if t != nil && t.Source != "" {
		source = t.Source
	}
	for _, d := range pl.Disclosures() {
		var data []byte
		if t != nil {
			data = t.Data(d.Direction)
		}
		r.AddResult(pl.ProfileID, d, source, data)
	}
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
