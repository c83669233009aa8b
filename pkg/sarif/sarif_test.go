package sarif

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

func disclosure() *types.Disclosure {
	d := &types.Disclosure{
		Direction: types.DirectionReceived,
		Kind:      types.KindKeypath,
		Field:     "price",
		Location: types.Location{
			Offset: types.OffsetSpan{Start: 7, End: 24},
			Source: types.SourceSpan{
				Start: types.SourcePoint{Line: 1, Column: 8},
				End:   types.SourcePoint{Line: 1, Column: 25},
			},
		},
		Fingerprint: "abc",
	}
	d.ID = d.ComputeID()
	return d
}

func TestNewReport(t *testing.T) {
	report := NewReport()

	assert.Equal(t, SchemaURI, report.Schema)
	assert.Equal(t, Version, report.Version)
	assert.Len(t, report.Runs, 1)
	assert.Equal(t, ToolName, report.Runs[0].Tool.Driver.Name)
	assert.Equal(t, ToolVersion, report.Runs[0].Tool.Driver.Version)
}

func TestAddRule(t *testing.T) {
	report := NewReport()

	p := &types.Profile{ID: "binance.avgprice", Name: "Binance average price", Description: "Average price.\n"}
	report.AddRule(p)
	report.AddRule(p)

	require.Len(t, report.Runs[0].Tool.Driver.Rules, 1)
	rule := report.Runs[0].Tool.Driver.Rules[0]
	assert.Equal(t, "binance.avgprice", rule.ID)
	assert.Equal(t, "Binance average price", rule.Name)
	assert.Equal(t, "Average price.", rule.ShortDescription.Text)
}

func TestAddResult(t *testing.T) {
	report := NewReport()
	data := []byte(`{"a":1,"price":"3500.12"}`)

	report.AddResult("binance.avgprice", disclosure(), "/path/to/t.json", data)

	require.Len(t, report.Runs[0].Results, 1)
	result := report.Runs[0].Results[0]
	assert.Equal(t, "binance.avgprice", result.RuleID)
	assert.Equal(t, "note", result.Level)
	assert.Equal(t, "keypath price", result.Message.Text)
	assert.Equal(t, "received", result.Properties.Direction)
	assert.Equal(t, "abc", result.Properties.Fingerprint)

	loc := result.Locations[0].PhysicalLocation
	assert.Equal(t, "file:///path/to/t.json#received", loc.ArtifactLocation.URI)
	assert.Equal(t, 1, loc.Region.StartLine)
	assert.Equal(t, 8, loc.Region.StartColumn)
	assert.Equal(t, int64(7), loc.Region.ByteOffset)
	assert.Equal(t, int64(17), loc.Region.ByteLength)
	require.NotNil(t, loc.Region.Snippet)
	assert.Equal(t, `"price":"3500.12"`, loc.Region.Snippet.Text)
}

func TestAddResult_NoData(t *testing.T) {
	report := NewReport()
	report.AddResult("p", disclosure(), "relative/t.json", nil)

	loc := report.Runs[0].Results[0].Locations[0].PhysicalLocation
	assert.Equal(t, "relative/t.json#received", loc.ArtifactLocation.URI)
	assert.Nil(t, loc.Region.Snippet)
}

func TestAddPlan(t *testing.T) {
	tr := transcript.New("t.json",
		[]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"),
		[]byte("HTTP/1.1 200 OK\r\n\r\n"+`{"ok":true}`))
	p, err := plan.Build(context.Background(), tr, &types.Profile{
		ID:       "example",
		Sent:     types.Selection{Headers: []string{"Host"}},
		Received: types.Selection{Keypaths: []string{"ok"}},
	}, plan.Options{})
	require.NoError(t, err)

	report := NewReport()
	report.AddPlan(p, tr)
	require.Len(t, report.Runs[0].Results, 3)
	assert.Equal(t, "GET / HTTP/1.1", report.Runs[0].Results[0].Locations[0].PhysicalLocation.Region.Snippet.Text)
	assert.Equal(t, `"ok":true`, report.Runs[0].Results[2].Locations[0].PhysicalLocation.Region.Snippet.Text)

	stored := NewReport()
	stored.AddPlan(p, nil)
	assert.Equal(t, "transcript/"+tr.ID.Hex()+"#sent", stored.Runs[0].Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestToJSON(t *testing.T) {
	report := NewReport()
	report.AddRule(&types.Profile{ID: "p", Name: "P"})
	report.AddResult("p", disclosure(), "/t.json", nil)

	jsonBytes, err := report.ToJSON()
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBytes, &parsed))
	assert.Equal(t, SchemaURI, parsed["$schema"])
	assert.Equal(t, Version, parsed["version"])
	assert.NotContains(t, string(jsonBytes), `"snippet"`)
}
