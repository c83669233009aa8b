package extract

import (
	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// Result is the extraction result for one transcript.
type Result struct {
	Source       string             `json:"source"`
	TranscriptID types.TranscriptID `json:"transcript_id"`
	Plans        []*plan.Plan       `json:"plans"`
	Error        string             `json:"error,omitempty"`
}

// BatchResult is the result of ExtractBatch.
type BatchResult struct {
	Results []*Result `json:"results"`
	Total   int       `json:"total"` // plans across all results
}
