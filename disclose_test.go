package disclose

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/store"
	"github.com/praetorian-inc/disclose/pkg/types"
)

const sent = "GET /api/v3/avgPrice?symbol=ETHUSDC HTTP/1.1\r\nhost: api.binance.com\r\n\r\n"

const received = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n" +
	`{"mins":5,"price":"3500.12","closeTime":1700000000000}`

func slices(data string, spans []OffsetSpan) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = string(s.Slice([]byte(data)))
	}
	return out
}

func TestNewExtractor(t *testing.T) {
	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	assert.GreaterOrEqual(t, ex.ProfileCount(), 3, "should have loaded the builtin profiles")
}

func TestExtract(t *testing.T) {
	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.Extract(context.Background(), []byte(sent), []byte(received), "binance.avgprice")
	require.NoError(t, err)
	require.Len(t, result.Plans, 1)

	p := result.Plans[0]
	assert.Equal(t, "binance.avgprice", p.ProfileID)
	assert.Equal(t, []string{`"mins":5`, `"price":"3500.12"`, `"closeTime":1700000000000`},
		slices(received, p.Received.Ranges))
	assert.Empty(t, p.Received.Error)
}

func TestExtract_Prefiltered(t *testing.T) {
	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.Extract(context.Background(), []byte(sent), []byte(received))
	require.NoError(t, err)

	var ids []string
	for _, p := range result.Plans {
		ids = append(ids, p.ProfileID)
	}
	assert.Contains(t, ids, "binance.avgprice")
}

func TestExtract_Limits(t *testing.T) {
	ex, err := NewExtractor(WithLimits(Limits{MaxRecvData: 10}))
	require.NoError(t, err)
	defer ex.Close()

	_, err = ex.Extract(context.Background(), []byte(sent), []byte(received), "binance.avgprice")
	assert.ErrorContains(t, err, "size limit")
}

func TestWithCustomProfiles(t *testing.T) {
	custom := []*Profile{{
		ID:       "custom.price",
		Name:     "Price only",
		Received: types.Selection{Keypaths: []string{"price"}},
	}}

	ex, err := NewExtractor(WithProfiles(custom))
	require.NoError(t, err)
	defer ex.Close()

	assert.Equal(t, 1, ex.ProfileCount())

	result, err := ex.Extract(context.Background(), []byte(sent), []byte(received), "custom.price")
	require.NoError(t, err)
	require.Len(t, result.Plans, 1)
	assert.Equal(t, []string{`"price":"3500.12"`}, slices(received, result.Plans[0].Received.Ranges))
}

func TestWithStore(t *testing.T) {
	s := store.NewMemory()
	ex, err := NewExtractor(WithStore(s))
	require.NoError(t, err)

	result, err := ex.Extract(context.Background(), []byte(sent), []byte(received), "binance.avgprice")
	require.NoError(t, err)

	plans, err := s.GetPlansForTranscript(result.TranscriptID)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	require.NoError(t, ex.Close())
	require.NoError(t, ex.Close(), "second close is a no-op")

	_, err = ex.Extract(context.Background(), []byte(sent), []byte(received))
	assert.ErrorContains(t, err, "closed")
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binance.json")
	content := `{"sent":"GET /api/v3/avgPrice?symbol=ETHUSDC HTTP/1.1\r\nhost: api.binance.com\r\n\r\n",` +
		`"received":"HTTP/1.1 200 OK\r\n\r\n{\"price\":\"1\"}"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.ExtractFile(context.Background(), path, "binance.avgprice")
	require.NoError(t, err)
	assert.Equal(t, path, result.Source)
	require.Len(t, result.Plans, 1)
	assert.Len(t, result.Plans[0].Received.Disclosures, 1)

	_, err = ex.ExtractFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestVerifyAndRedact(t *testing.T) {
	ex, err := NewExtractor(WithVerifyWorkers(2))
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.Extract(context.Background(), []byte(sent), []byte(received), "binance.avgprice")
	require.NoError(t, err)
	p := result.Plans[0]

	tr := &Transcript{ID: result.TranscriptID, Sent: []byte(sent), Received: []byte(received)}
	results, err := ex.Verify(context.Background(), tr, p)
	require.NoError(t, err)
	require.Len(t, results, len(p.Disclosures()))
	for _, r := range results {
		assert.Equal(t, StatusVerified, r.Status, r.Field)
	}

	redacted := string(Redact(tr, p, types.DirectionReceived, 'X'))
	assert.Len(t, redacted, len(received))
	assert.Contains(t, redacted, `"price":"3500.12"`)
	assert.NotContains(t, redacted, "Content-Type")
}

func TestRequestRanges(t *testing.T) {
	got, err := RequestRanges([]byte(sent), nil, []string{"host"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /api/v3/avgPrice?symbol=ETHUSDC HTTP/1.1", "host: api.binance.com"},
		slices(sent, got))

	_, err = RequestRanges([]byte("GET / HTTP/1.1\r\n"), nil, nil)
	assert.Error(t, err)
}

func TestResponseRanges(t *testing.T) {
	got, err := ResponseRanges([]byte(received), []string{"price", "mins"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`"mins":5`, `"price":"3500.12"`}, slices(received, got))

	got, err = ResponseRanges([]byte(received), []string{"missing"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadBuiltinProfiles(t *testing.T) {
	profiles, err := LoadBuiltinProfiles()
	require.NoError(t, err)

	var ids []string
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "binance.avgprice")
	assert.Contains(t, ids, "revolut.transaction")
	assert.Contains(t, ids, "httpbin.json")
}

func TestLoadProfilesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yml")
	content := "profiles:\n  - id: test.one\n    name: Test\n    received:\n      keypaths: [a]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	profiles, err := LoadProfilesFromFile(path)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "test.one", profiles[0].ID)
}

func TestProfilesReturnsCopy(t *testing.T) {
	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	profiles := ex.Profiles()
	profiles[0] = nil
	assert.NotNil(t, ex.Profiles()[0])
}
