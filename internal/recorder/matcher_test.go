package recorder

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getSecret(headers map[string]string) *Request {
	return NewRequest(MethodGet, "/secrets/foo?api-version=7.0", headers, BytesBody(nil))
}

func requireMismatch(t *testing.T, err error, kind MismatchKind) *MismatchError {
	t.Helper()
	var m *MismatchError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, kind, m.Kind)
	assert.ErrorIs(t, err, ErrMockFramework)
	return m
}

func TestMatcher_Equal(t *testing.T) {
	m := NewMatcher()
	live := getSecret(map[string]string{"Accept": "application/json"})
	expected := getSecret(map[string]string{"Accept": "application/json"})
	assert.NoError(t, m.Compare(live, expected))
}

func TestMatcher_URIMismatch(t *testing.T) {
	m := NewMatcher()
	live := NewRequest(MethodGet, "/secrets/foo?api-version=7.0", nil, BytesBody(nil))
	expected := NewRequest(MethodGet, "/secrets/bar?api-version=7.0", nil, BytesBody(nil))

	mm := requireMismatch(t, m.Compare(live, expected), MismatchURI)
	assert.Contains(t, mm.Message, "/secrets/foo?api-version=7.0")
	assert.Contains(t, mm.Message, "/secrets/bar?api-version=7.0")
}

func TestMatcher_QueryOrderMatters(t *testing.T) {
	m := NewMatcher()
	live := NewRequest(MethodGet, "/secrets?a=1&b=2", nil, BytesBody(nil))
	expected := NewRequest(MethodGet, "/secrets?b=2&a=1", nil, BytesBody(nil))
	requireMismatch(t, m.Compare(live, expected), MismatchURI)
}

func TestMatcher_HeaderRules(t *testing.T) {
	tests := []struct {
		name     string
		live     map[string]string
		expected map[string]string
		kind     MismatchKind
		contains []string
	}{
		{
			name:     "missing header",
			live:     map[string]string{},
			expected: map[string]string{"Accept": "application/json"},
			kind:     MismatchMissingHeader,
			contains: []string{"missing header", "Accept"},
		},
		{
			name:     "unexpected extra header",
			live:     map[string]string{"X-Trace": "1"},
			expected: map[string]string{},
			kind:     MismatchExtraHeader,
			contains: []string{"unexpected extra header", "X-Trace"},
		},
		{
			name:     "value mismatch",
			live:     map[string]string{"Accept": "text/plain"},
			expected: map[string]string{"Accept": "application/json"},
			kind:     MismatchHeaderValue,
			contains: []string{"Accept", "text/plain", "application/json"},
		},
		{
			// Same size, different names: only a union walk catches both sides.
			name:     "equal size different names",
			live:     map[string]string{"B-Header": "1"},
			expected: map[string]string{"A-Header": "1"},
			kind:     MismatchMissingHeader,
			contains: []string{"A-Header"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMatcher().Compare(getSecret(tt.live), getSecret(tt.expected))
			mm := requireMismatch(t, err, tt.kind)
			for _, s := range tt.contains {
				assert.Contains(t, mm.Message, s)
			}
		})
	}
}

func TestMatcher_ExclusionIsSymmetric(t *testing.T) {
	m := NewMatcher()

	// Excluded header only on the live side: ignored.
	live := getSecret(map[string]string{"Authorization": "Bearer abc", "x-ms-date": "now"})
	expected := getSecret(map[string]string{})
	assert.NoError(t, m.Compare(live, expected))

	// Excluded header only on the recorded side: ignored too.
	assert.NoError(t, m.Compare(expected, live))

	// The same header without an exclusion is reported as missing.
	strict := &Matcher{excluded: map[string]struct{}{}}
	requireMismatch(t, strict.Compare(expected, live), MismatchMissingHeader)
}

func TestMatcher_HeaderNamesAreCaseInsensitive(t *testing.T) {
	m := NewMatcher()

	live := getSecret(map[string]string{"content-type": "application/json", "USER-AGENT": "sdk/1.0"})
	expected := getSecret(map[string]string{"Content-Type": "application/json", "User-Agent": "sdk/0.9"})
	assert.NoError(t, m.Compare(live, expected))

	assert.True(t, m.Excludes("DATE"))
	assert.True(t, m.Excludes("X-Ms-Date"))
	assert.False(t, m.Excludes("Accept"))
}

func TestMatcher_ExtraExclusions(t *testing.T) {
	m := NewMatcher("x-ms-client-request-id")
	live := getSecret(map[string]string{"X-Ms-Client-Request-Id": "a"})
	expected := getSecret(map[string]string{"X-Ms-Client-Request-Id": "b"})
	assert.NoError(t, m.Compare(live, expected))
}

func TestMatcher_MethodMismatch(t *testing.T) {
	live := NewRequest(MethodPost, "/secrets/foo", nil, BytesBody(nil))
	expected := NewRequest(MethodPut, "/secrets/foo", nil, BytesBody(nil))

	mm := requireMismatch(t, NewMatcher().Compare(live, expected), MismatchMethod)
	assert.Contains(t, mm.Message, "POST")
	assert.Contains(t, mm.Message, "PUT")
}

func TestMatcher_BodyMismatch(t *testing.T) {
	live := NewRequest(MethodPut, "/secrets/foo", nil, BytesBody([]byte(`{"a":1}`)))
	expected := NewRequest(MethodPut, "/secrets/foo", nil, BytesBody([]byte(`{"a":2}`)))

	mm := requireMismatch(t, NewMatcher().Compare(live, expected), MismatchBody)
	assert.Contains(t, mm.Message, `{\"a\":1}`)
	assert.Contains(t, mm.Message, `{\"a\":2}`)

	same := NewRequest(MethodPut, "/secrets/foo", nil, BytesBody([]byte(`{"a":2}`)))
	assert.NoError(t, NewMatcher().Compare(same, expected))
}

func TestMatcher_StreamingBodyIsUnsupported(t *testing.T) {
	live := NewRequest(MethodPut, "/blob", nil, StreamBody(strings.NewReader("x")))
	expected := NewRequest(MethodPut, "/blob", nil, BytesBody([]byte("x")))

	err := NewMatcher().Compare(live, expected)
	assert.ErrorIs(t, err, ErrStreamingBody)
	var mm *MismatchError
	assert.False(t, errors.As(err, &mm))
}

func TestMatcher_ChecksRunInOrder(t *testing.T) {
	// Everything differs; the URI is reported first.
	live := NewRequest(MethodPost, "/a", map[string]string{"X": "1"}, BytesBody([]byte("1")))
	expected := NewRequest(MethodGet, "/b", map[string]string{"X": "2"}, BytesBody([]byte("2")))
	requireMismatch(t, NewMatcher().Compare(live, expected), MismatchURI)

	// Same URI: headers come before method and body.
	expected = NewRequest(MethodGet, "/a", map[string]string{"X": "2"}, BytesBody([]byte("2")))
	requireMismatch(t, NewMatcher().Compare(live, expected), MismatchHeaderValue)

	// Same headers: method before body.
	expected = NewRequest(MethodGet, "/a", map[string]string{"X": "1"}, BytesBody([]byte("2")))
	requireMismatch(t, NewMatcher().Compare(live, expected), MismatchMethod)
}

func TestMatcher_StripAndFingerprint(t *testing.T) {
	m := NewMatcher()
	req := getSecret(map[string]string{"Authorization": "Bearer secret", "Accept": "application/json"})

	stripped := m.Strip(req)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, stripped.Headers())
	assert.Contains(t, req.Headers(), "Authorization")

	a, err := m.Fingerprint(req)
	require.NoError(t, err)
	b, err := m.Fingerprint(stripped)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	other, err := m.Fingerprint(getSecret(map[string]string{"Accept": "text/plain"}))
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestMatcher_CaseCollidingHeadersCompareDeterministically(t *testing.T) {
	m := NewMatcher()
	expected := getSecret(map[string]string{"Accept": "application/json, text/plain"})

	for i := 0; i < 100; i++ {
		live := getSecret(map[string]string{"accept": "text/plain", "Accept": "application/json"})
		require.NoError(t, m.Compare(live, expected))
	}
}
