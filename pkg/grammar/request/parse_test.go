package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/grammar"
	"github.com/praetorian-inc/disclose/pkg/types"
)

const getRequest = "GET /api/v3/avgPrice?symbol=ETHUSDC&x HTTP/1.1\r\n" +
	"Host: api.binance.com\r\n" +
	"Accept: */*\r\n" +
	"\r\n"

func TestParse_GetRequest(t *testing.T) {
	root, err := Parse(getRequest)
	require.NoError(t, err)

	assert.Equal(t, Request, root.Rule())
	assert.Equal(t, getRequest, root.Text())
	require.Len(t, root.Inner(), 3)

	line := root.Inner()[0]
	assert.Equal(t, RequestLine, line.Rule())
	assert.Equal(t, "GET /api/v3/avgPrice?symbol=ETHUSDC&x HTTP/1.1", line.Text())
	assert.Equal(t, "GET", line.Find(Method).Text())
	assert.Equal(t, "HTTP/1.1", line.Find(Version).Text())

	target := line.Find(Target)
	require.NotNil(t, target)
	assert.Equal(t, "/api/v3/avgPrice", target.Find(Path).Text())

	params := target.Inner()[1:]
	require.Len(t, params, 2)
	assert.Equal(t, "symbol=ETHUSDC", params[0].Text())
	assert.Equal(t, "symbol", params[0].Find(ParamName).Text())
	assert.Equal(t, "ETHUSDC", params[0].Find(ParamValue).Text())
	assert.Equal(t, "x", params[1].Text())
	assert.Equal(t, "", params[1].Find(ParamValue).Text())

	host := root.Inner()[1]
	assert.Equal(t, Header, host.Rule())
	assert.Equal(t, "Host: api.binance.com", host.Text())
}

func TestParse_JSONBody(t *testing.T) {
	input := "POST /t HTTP/1.1\r\nContent-Type: application/json\r\n\r\n{\"amount\": 10}"
	root, err := Parse(input)
	require.NoError(t, err)

	body := root.Inner()[len(root.Inner())-1]
	assert.Equal(t, Object, body.Rule())
	assert.Equal(t, `{"amount": 10}`, body.Text())
}

func TestParse_RawBody(t *testing.T) {
	input := "POST /t HTTP/1.1\r\n\r\na=1&b=2"
	root, err := Parse(input)
	require.NoError(t, err)

	body := root.Inner()[len(root.Inner())-1]
	assert.Equal(t, Body, body.Rule())
	assert.Equal(t, types.RuleOther, body.Rule().Classify())
	assert.Equal(t, "a=1&b=2", body.Text())
}

func TestParse_Rejects(t *testing.T) {
	inputs := map[string]string{
		"no version":        "GET /\r\n\r\n",
		"no blank line":     "GET / HTTP/1.1\r\nHost: x\r\n",
		"bad header":        "GET / HTTP/1.1\r\nHost x\r\n\r\n",
		"broken json":       "POST / HTTP/1.1\r\n\r\n{\"a\":",
		"json then garbage": "POST / HTTP/1.1\r\n\r\n{} tail",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			var syntaxErr *grammar.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, GrammarName, syntaxErr.Grammar)
		})
	}
}

func TestRule_Classify(t *testing.T) {
	assert.Equal(t, types.RuleObject, Object.Classify())
	assert.Equal(t, types.RuleArray, Array.Classify())
	assert.Equal(t, types.RuleString, String.Classify())
	assert.Equal(t, types.RuleNumber, Number.Classify())
	assert.Equal(t, types.RuleBoolean, Boolean.Classify())
	assert.Equal(t, types.RuleNull, Null.Classify())
	assert.Equal(t, types.RuleOther, Entry.Classify())
	assert.Equal(t, types.RuleOther, Header.Classify())
	assert.Equal(t, "query_param", QueryParam.String())
	assert.Equal(t, "unknown", Rule(99).String())
}
