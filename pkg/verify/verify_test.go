package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

const sent = "GET /api/v3/avgPrice?symbol=ETHUSDC HTTP/1.1\r\n" +
	"host: api.binance.com\r\n" +
	"\r\n"

const received = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: application/json\r\n" +
	"\r\n" +
	`{"mins": 5, "price": "3500.12", "closeTime": 1700000000000}`

func binance() *types.Profile {
	return &types.Profile{
		ID:       "binance.avgprice",
		Sent:     types.Selection{Headers: []string{"host"}, Query: []string{"symbol"}},
		Received: types.Selection{Keypaths: []string{"price", "mins", "closeTime"}},
		Extract: []types.ExtractRule{
			{Field: "symbol", Direction: types.DirectionSent, Pattern: `symbol=([A-Z0-9]+)`, Required: true},
			{Field: "price", Direction: types.DirectionReceived, Pattern: `"price": "([0-9.]+)"`, Required: true},
			{Field: "mins", Direction: types.DirectionReceived, Pattern: `"mins": (\d+)`},
		},
	}
}

func build(t *testing.T) (*transcript.Transcript, *plan.Plan) {
	t.Helper()
	tr := transcript.New("", []byte(sent), []byte(received))
	p, err := plan.Build(context.Background(), tr, binance(), plan.Options{})
	require.NoError(t, err)
	return tr, p
}

func TestPlan_Verified(t *testing.T) {
	tr, p := build(t)

	results, err := Plan(context.Background(), tr, p)
	require.NoError(t, err)
	require.Len(t, results, len(p.Disclosures()))

	for i, r := range results {
		assert.Equal(t, p.Disclosures()[i].ID, r.DisclosureID)
		assert.Equal(t, types.StatusVerified, r.Status, "%s: %s", r.Field, r.Message)
	}
	assert.Equal(t, map[types.VerificationStatus]int{types.StatusVerified: 6}, Summary(results))
}

func TestPlan_TranscriptMismatch(t *testing.T) {
	_, p := build(t)
	other := transcript.New("", []byte(sent), nil)

	_, err := Plan(context.Background(), other, p)
	assert.ErrorIs(t, err, ErrTranscriptMismatch)
}

func TestPlan_TamperedSpan(t *testing.T) {
	tr, p := build(t)
	d := p.Received.Disclosures[0]
	d.Location.Offset.Start++
	d.Fingerprint = ""

	results, err := NewEngine(1).Plan(context.Background(), tr, p)
	require.NoError(t, err)

	got := results[len(p.Sent.Disclosures)]
	assert.Equal(t, types.StatusMismatch, got.Status)
}

func TestPlan_Fingerprint(t *testing.T) {
	tr, p := build(t)
	p.Sent.Disclosures[0].Fingerprint = plan.Fingerprint([]byte("something else"))

	results, err := Plan(context.Background(), tr, p)
	require.NoError(t, err)
	assert.Equal(t, types.StatusMismatch, results[0].Status)
	assert.Contains(t, results[0].Message, "fingerprint")
}

func TestPlan_OutOfRange(t *testing.T) {
	tr, p := build(t)
	p.Sent.Disclosures[0].Location.Offset = types.Span(0, 10000)

	results, err := Plan(context.Background(), tr, p)
	require.NoError(t, err)
	assert.Equal(t, types.StatusMismatch, results[0].Status)
}

func TestPlan_NoChecker(t *testing.T) {
	tr, p := build(t)

	results, err := NewEngine(2, HeaderChecker{}).Plan(context.Background(), tr, p)
	require.NoError(t, err)
	summary := Summary(results)
	assert.Equal(t, 1, summary[types.StatusVerified])
	assert.Equal(t, 5, summary[types.StatusUndetermined])
}

func TestKeypathChecker(t *testing.T) {
	tests := []struct {
		name   string
		slice  string
		field  string
		status types.VerificationStatus
	}{
		{"string", `"price":"1.5"`, "price", types.StatusVerified},
		{"nested keypath", `"iban":"GB00"`, "account.iban", types.StatusVerified},
		{"spaced", `"a" : [1, 2]`, "a", types.StatusVerified},
		{"wrong key", `"prices":"1.5"`, "price", types.StatusMismatch},
		{"truncated", `"price":"1.5`, "price", types.StatusMismatch},
		{"two entries", `"price":1,"x":2`, "price", types.StatusMismatch},
		{"dotted key", `"a.b":1`, "a.b", types.StatusVerified},
		{"dotted key nested", `"b.c":1`, "a.b.c", types.StatusVerified},
		{"escaped key", `"a\"b":1`, `a\"b`, types.StatusVerified},
		{"suffix without dot", `"b":1`, "ab", types.StatusMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &types.Disclosure{Kind: types.KindKeypath, Field: tt.field}
			assert.Equal(t, tt.status, KeypathChecker{}.Check([]byte(tt.slice), d).Status)
		})
	}
}

func TestPlan_VerifiesUnusualKeys(t *testing.T) {
	body := `{"a.b":1,"a\"b":"q","x":{"y":true}}`
	tr := transcript.New("", []byte(sent), []byte("HTTP/1.1 200 OK\r\n\r\n"+body))
	prof := &types.Profile{
		ID:       "unusual.keys",
		Received: types.Selection{Keypaths: []string{"a.b", `a\"b`, "x.y"}},
	}
	p, err := plan.Build(context.Background(), tr, prof, plan.Options{})
	require.NoError(t, err)
	require.Len(t, p.Received.Disclosures, 3)

	results, err := Plan(context.Background(), tr, p)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, types.StatusVerified, r.Status, "%s: %s", r.Field, r.Message)
	}
}

func TestPrefixCheckers(t *testing.T) {
	header := &types.Disclosure{Kind: types.KindHeader, Field: "host"}
	assert.Equal(t, types.StatusVerified, HeaderChecker{}.Check([]byte("host: x"), header).Status)
	assert.Equal(t, types.StatusMismatch, HeaderChecker{}.Check([]byte("hostname: x"), header).Status)

	param := &types.Disclosure{Kind: types.KindQueryParam, Field: "symbol"}
	assert.Equal(t, types.StatusVerified, QueryParamChecker{}.Check([]byte("symbol=BTC"), param).Status)
	assert.Equal(t, types.StatusMismatch, QueryParamChecker{}.Check([]byte("sym=BTC"), param).Status)

	line := &types.Disclosure{Kind: types.KindRequestLine, Field: "GET"}
	assert.Equal(t, types.StatusVerified, RequestLineChecker{}.Check([]byte("GET / HTTP/1.1"), line).Status)
	assert.Equal(t, types.StatusMismatch, RequestLineChecker{}.Check([]byte("POST / HTTP/1.1"), line).Status)
	assert.Equal(t, types.StatusMismatch, RequestLineChecker{}.Check([]byte("GET /"), line).Status)
}
