package recorder

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/textproto"
)

// DefaultExcludedHeaders are headers whose values change on every call and are
// therefore ignored when comparing requests.
var DefaultExcludedHeaders = []string{"Date", "x-ms-date", "authorization", "user-agent"}

// Matcher compares live requests with recorded ones. Header names are
// compared case-insensitively, both for exclusion and for equality.
type Matcher struct {
	excluded map[string]struct{}
}

// NewMatcher returns a matcher excluding DefaultExcludedHeaders plus extra.
func NewMatcher(extra ...string) *Matcher {
	m := &Matcher{excluded: make(map[string]struct{}, len(DefaultExcludedHeaders)+len(extra))}
	for _, name := range DefaultExcludedHeaders {
		m.excluded[textproto.CanonicalMIMEHeaderKey(name)] = struct{}{}
	}
	for _, name := range extra {
		m.excluded[textproto.CanonicalMIMEHeaderKey(name)] = struct{}{}
	}
	return m
}

// Excludes reports whether name is ignored during comparison.
func (m *Matcher) Excludes(name string) bool {
	_, ok := m.excluded[textproto.CanonicalMIMEHeaderKey(name)]
	return ok
}

// Compare checks live against expected and returns the first difference.
// Checks run in order: path and query, headers, method, body.
func (m *Matcher) Compare(live, expected *Request) error {
	if live.PathAndQuery() != expected.PathAndQuery() {
		return mismatch(MismatchURI, "path and query mismatch: got %q, expected %q",
			live.PathAndQuery(), expected.PathAndQuery())
	}

	if err := m.compareHeaders(live.headers, expected.headers); err != nil {
		return err
	}

	if live.Method() != expected.Method() {
		return mismatch(MismatchMethod, "method mismatch: got %s, expected %s", live.Method(), expected.Method())
	}

	return compareBodies(live.Body(), expected.Body())
}

func (m *Matcher) compareHeaders(live, expected map[string]string) error {
	liveCanon := m.comparable(live)
	expectedCanon := m.comparable(expected)

	union := make(map[string]string, len(liveCanon)+len(expectedCanon))
	for name := range liveCanon {
		union[name] = ""
	}
	for name := range expectedCanon {
		union[name] = ""
	}

	for _, name := range sortedNames(union) {
		actual, inLive := liveCanon[name]
		want, inExpected := expectedCanon[name]
		switch {
		case inExpected && !inLive:
			return mismatch(MismatchMissingHeader, "missing header %q", name)
		case inLive && !inExpected:
			return mismatch(MismatchExtraHeader, "unexpected extra header %q", name)
		case actual != want:
			return mismatch(MismatchHeaderValue, "header %q value mismatch: got %q, expected %q", name, actual, want)
		}
	}
	return nil
}

// comparable canonicalizes header names and drops excluded ones.
func (m *Matcher) comparable(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for name, value := range h {
		canon := textproto.CanonicalMIMEHeaderKey(name)
		if _, skip := m.excluded[canon]; skip {
			continue
		}
		out[canon] = value
	}
	return out
}

func compareBodies(live, expected Body) error {
	liveData, err := live.Bytes()
	if err != nil {
		return fmt.Errorf("live request body: %w", err)
	}
	expectedData, err := expected.Bytes()
	if err != nil {
		return fmt.Errorf("recorded request body: %w", err)
	}
	if !bytes.Equal(liveData, expectedData) {
		return mismatch(MismatchBody, "body mismatch: got %v (%q), expected %v (%q)",
			liveData, liveData, expectedData, expectedData)
	}
	return nil
}

// Strip returns a copy of req without the excluded headers. Recorded
// fixtures are stripped so credentials never reach disk.
func (m *Matcher) Strip(req *Request) *Request {
	kept := make(map[string]string, len(req.headers))
	for name, value := range req.headers {
		if m.Excludes(name) {
			continue
		}
		kept[name] = value
	}
	return &Request{method: req.method, path: req.path, headers: kept, body: req.body}
}

type fingerprintInfo struct {
	Method  Method            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body"`
}

// Fingerprint computes a hash of the comparable part of req. Two requests the
// matcher considers equal have the same fingerprint.
func (m *Matcher) Fingerprint(req *Request) (string, error) {
	body, err := req.body.Bytes()
	if err != nil {
		return "", err
	}
	// Marshal request to JSON for hashing
	jsonData, err := json.Marshal(fingerprintInfo{
		Method:  req.method,
		Path:    req.path,
		Headers: m.comparable(req.headers),
		Body:    body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:]), nil
}
