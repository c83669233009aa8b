package verify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/praetorian-inc/disclose/pkg/types"
)

// KeypathChecker requires a `"key":value` fragment whose raw key text is the keypath
// or a dot-bounded suffix of it. Keys may themselves contain dots or escapes, so the
// comparison is on source text. Fallback disclosures are held to the same shape.
type KeypathChecker struct{}

func (KeypathChecker) Name() string { return "keypath" }

func (KeypathChecker) CanCheck(kind types.DisclosureKind) bool {
	return kind == types.KindKeypath || kind == types.KindFallback
}

func (KeypathChecker) Check(slice []byte, d *types.Disclosure) *types.VerificationResult {
	wrapped := make([]byte, 0, len(slice)+2)
	wrapped = append(wrapped, '{')
	wrapped = append(wrapped, slice...)
	wrapped = append(wrapped, '}')

	if !gjson.ValidBytes(wrapped) {
		return types.NewVerificationResult(d, types.StatusMismatch, "not a JSON object entry")
	}

	var value gjson.Result
	entries := 0
	gjson.ParseBytes(wrapped).ForEach(func(_, v gjson.Result) bool {
		value = v
		entries++
		return true
	})
	if entries != 1 {
		return types.NewVerificationResult(d, types.StatusMismatch, fmt.Sprintf("expected one entry, found %d", entries))
	}

	key, ok := rawKey(slice)
	if !ok || !keyEndsPath(d.Field, key) {
		return types.NewVerificationResult(d, types.StatusMismatch, fmt.Sprintf("key %q does not end keypath %q", key, d.Field))
	}
	return types.NewVerificationResult(d, types.StatusVerified, value.Type.String())
}

// rawKey returns the text between the first pair of unescaped quotes in slice.
func rawKey(slice []byte) (string, bool) {
	start := bytes.IndexByte(slice, '"')
	if start < 0 {
		return "", false
	}
	for i := start + 1; i < len(slice); i++ {
		switch slice[i] {
		case '\\':
			i++
		case '"':
			return string(slice[start+1 : i]), true
		}
	}
	return "", false
}

// keyEndsPath reports whether key is keypath or a suffix of it starting after a dot.
func keyEndsPath(keypath, key string) bool {
	if keypath == key {
		return true
	}
	return strings.HasSuffix(keypath, "."+key)
}

// HeaderChecker requires `Name:` at the start of the slice.
type HeaderChecker struct{}

func (HeaderChecker) Name() string { return "header" }

func (HeaderChecker) CanCheck(kind types.DisclosureKind) bool {
	return kind == types.KindHeader
}

func (HeaderChecker) Check(slice []byte, d *types.Disclosure) *types.VerificationResult {
	return prefixed(slice, d, d.Field+":")
}

// QueryParamChecker requires `name=` at the start of the slice.
type QueryParamChecker struct{}

func (QueryParamChecker) Name() string { return "query_param" }

func (QueryParamChecker) CanCheck(kind types.DisclosureKind) bool {
	return kind == types.KindQueryParam
}

func (QueryParamChecker) Check(slice []byte, d *types.Disclosure) *types.VerificationResult {
	return prefixed(slice, d, d.Field+"=")
}

// RequestLineChecker requires `METHOD target HTTP/x`.
type RequestLineChecker struct{}

func (RequestLineChecker) Name() string { return "request_line" }

func (RequestLineChecker) CanCheck(kind types.DisclosureKind) bool {
	return kind == types.KindRequestLine
}

func (RequestLineChecker) Check(slice []byte, d *types.Disclosure) *types.VerificationResult {
	if bytes.ContainsAny(slice, "\r\n") {
		return types.NewVerificationResult(d, types.StatusMismatch, "request line spans more than one line")
	}
	parts := bytes.Split(slice, []byte{' '})
	if len(parts) != 3 || !bytes.HasPrefix(parts[2], []byte("HTTP/")) {
		return types.NewVerificationResult(d, types.StatusMismatch, "not a request line")
	}
	if string(parts[0]) != d.Field {
		return types.NewVerificationResult(d, types.StatusMismatch, fmt.Sprintf("method %q, want %q", parts[0], d.Field))
	}
	return types.NewVerificationResult(d, types.StatusVerified, "")
}

func prefixed(slice []byte, d *types.Disclosure, prefix string) *types.VerificationResult {
	if !bytes.HasPrefix(slice, []byte(prefix)) {
		return types.NewVerificationResult(d, types.StatusMismatch, fmt.Sprintf("does not start with %q", prefix))
	}
	return types.NewVerificationResult(d, types.StatusVerified, "")
}
