package serve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_ExtractUnmarshal(t *testing.T) {
	input := `{"type":"extract","payload":{"source":"s","sent":"c2VudA==","received":"","encoding":"base64","profiles":["a","b"]}}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(input), &req))
	assert.Equal(t, "extract", req.Type)

	var payload ExtractPayload
	require.NoError(t, json.Unmarshal(req.Payload, &payload))
	assert.Equal(t, "s", payload.Source)
	assert.Equal(t, []string{"a", "b"}, payload.Profiles)

	tr, err := payload.transcript()
	require.NoError(t, err)
	assert.Equal(t, "sent", string(tr.Sent))
	assert.Equal(t, "s", tr.Source)
}

func TestResponse_Marshal(t *testing.T) {
	data, err := json.Marshal(Response{Success: true, Type: "ready"})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"success":true`)
	assert.Contains(t, string(data), `"type":"ready"`)
	assert.NotContains(t, string(data), `"error"`)
}
