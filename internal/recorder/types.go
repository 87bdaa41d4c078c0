package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// Method is an HTTP method understood by the fixture format.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodOptions Method = http.MethodOptions
)

// ParseMethod converts a method name into a Method. Net/http treats an empty
// method as GET, so this does too.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(s)); m {
	case "":
		return MethodGet, nil
	case MethodGet, MethodHead, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodOptions:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported http method: %q", s)
	}
}

// Body is the payload of a request. It is either a fully buffered byte slice
// or a stream; only the buffered form can be compared or written to a fixture.
type Body struct {
	data   []byte
	stream io.Reader
}

// BytesBody returns a buffered body. A nil slice means no body.
func BytesBody(data []byte) Body {
	return Body{data: data}
}

// StreamBody returns a streaming body.
func StreamBody(r io.Reader) Body {
	return Body{stream: r}
}

// IsStream reports whether the body is the streaming variant.
func (b Body) IsStream() bool {
	return b.stream != nil
}

// Bytes returns a copy of the buffered content, or ErrStreamingBody for a
// stream.
func (b Body) Bytes() ([]byte, error) {
	if b.stream != nil {
		return nil, ErrStreamingBody
	}
	if b.data == nil {
		return nil, nil
	}
	return append([]byte{}, b.data...), nil
}

// Request is the canonical form of an HTTP request, shared by fixtures and
// live traffic so both sides of a comparison look the same.
type Request struct {
	method  Method
	path    string
	headers map[string]string
	body    Body
}

// NewRequest builds a canonical request. pathAndQuery is the escaped path
// followed by the raw query, e.g. "/secrets/foo?api-version=7.0". Header
// names differing only in case are merged, see mergeHeaders.
func NewRequest(method Method, pathAndQuery string, headers map[string]string, body Body) *Request {
	return &Request{
		method:  method,
		path:    pathAndQuery,
		headers: mergeHeaders(headers),
		body:    body,
	}
}

func (r *Request) Method() Method       { return r.method }
func (r *Request) PathAndQuery() string { return r.path }
func (r *Request) Body() Body           { return r.body }

// Headers returns a copy of the request headers.
func (r *Request) Headers() map[string]string {
	return copyHeaders(r.headers)
}

type requestJSON struct {
	Method  Method            `json:"method"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body"`
}

// MarshalJSON encodes the request in fixture form. Streaming bodies cannot be
// recorded.
func (r *Request) MarshalJSON() ([]byte, error) {
	body, err := r.body.Bytes()
	if err != nil {
		return nil, err
	}
	return json.Marshal(requestJSON{
		Method:  r.method,
		Path:    r.path,
		Headers: nonNilHeaders(r.headers),
		Body:    body,
	})
}

// FromHTTPRequest converts a live request. Bodies with a known length (or a
// GetBody func) are buffered and put back on req so it can still be sent;
// anything else is kept as a stream.
func FromHTTPRequest(req *http.Request) (*Request, error) {
	method, err := ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}

	body := BytesBody(nil)
	if req.Body != nil && req.Body != http.NoBody {
		if req.ContentLength > 0 || req.GetBody != nil {
			data, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read request body: %w", err)
			}
			_ = req.Body.Close()
			req.Body = io.NopCloser(bytes.NewReader(data))
			body = BytesBody(data)
		} else {
			body = StreamBody(req.Body)
		}
	}

	return &Request{
		method:  method,
		path:    req.URL.RequestURI(),
		headers: flattenHeader(req.Header),
		body:    body,
	}, nil
}

// Response is the canonical form of a recorded HTTP response.
type Response struct {
	status  int
	headers map[string]string
	body    []byte
}

// NewResponse builds a canonical response.
func NewResponse(status int, headers map[string]string, body []byte) *Response {
	return &Response{status: status, headers: copyHeaders(headers), body: body}
}

func (r *Response) Status() int { return r.status }

// Headers returns a copy of the response headers.
func (r *Response) Headers() map[string]string {
	return copyHeaders(r.headers)
}

// Body returns a copy of the response body.
func (r *Response) Body() []byte {
	if r.body == nil {
		return nil
	}
	return append([]byte(nil), r.body...)
}

type responseJSON struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body"`
}

func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseJSON{
		Status:  r.status,
		Headers: nonNilHeaders(r.headers),
		Body:    r.body,
	})
}

// ToHTTP converts the recorded response into the response handed back to the
// caller of the pipeline.
func (r *Response) ToHTTP(req *http.Request) *http.Response {
	header := make(http.Header, len(r.headers))
	for name, value := range r.headers {
		header.Set(name, value)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.status, http.StatusText(r.status)),
		StatusCode:    r.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body())),
		ContentLength: int64(len(r.body)),
		Request:       req,
	}
}

// FromHTTPResponse captures a live response for recording. The body is read
// fully and replaced so the caller can still consume it.
func FromHTTPResponse(resp *http.Response) (*Response, error) {
	var data []byte
	if resp.Body != nil && resp.Body != http.NoBody {
		var err error
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(data))
	}
	return &Response{
		status:  resp.StatusCode,
		headers: flattenHeader(resp.Header),
		body:    data,
	}, nil
}

// DecodeRequest parses a request fixture. subject names the fixture in errors.
func DecodeRequest(subject string, data []byte) (*Request, error) {
	var raw requestJSON
	if err := decodeStrict(data, &raw); err != nil {
		return nil, &ParseError{Subject: subject, Body: data, Err: err}
	}
	method, err := ParseMethod(string(raw.Method))
	if err != nil || raw.Method == "" {
		if err == nil {
			err = fmt.Errorf("missing method")
		}
		return nil, &ParseError{Subject: subject, Body: data, Err: err}
	}
	if raw.Path == "" {
		return nil, &ParseError{Subject: subject, Body: data, Err: fmt.Errorf("missing path")}
	}
	if a, b, ok := collidingHeaders(raw.Headers); ok {
		return nil, &ParseError{Subject: subject, Body: data, Err: fmt.Errorf("headers %q and %q differ only in case", a, b)}
	}
	return &Request{
		method:  method,
		path:    raw.Path,
		headers: nonNilHeaders(raw.Headers),
		body:    BytesBody(raw.Body),
	}, nil
}

// DecodeResponse parses a response fixture. subject names the fixture in errors.
func DecodeResponse(subject string, data []byte) (*Response, error) {
	var raw responseJSON
	if err := decodeStrict(data, &raw); err != nil {
		return nil, &ParseError{Subject: subject, Body: data, Err: err}
	}
	if raw.Status < 100 || raw.Status > 599 {
		return nil, &ParseError{Subject: subject, Body: data, Err: fmt.Errorf("invalid status code %d", raw.Status)}
	}
	if a, b, ok := collidingHeaders(raw.Headers); ok {
		return nil, &ParseError{Subject: subject, Body: data, Err: fmt.Errorf("headers %q and %q differ only in case", a, b)}
	}
	return &Response{
		status:  raw.Status,
		headers: nonNilHeaders(raw.Headers),
		body:    raw.Body,
	}, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after fixture object")
	}
	return nil
}

// flattenHeader joins multi-valued headers with ", ".
func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return mergeHeaders(out)
}

// mergeHeaders returns a copy of h in which names that differ only in case
// are folded into their canonical form. The values of such a group are joined
// with ", " in sorted order of the original names. Names without a clash are
// kept as given.
func mergeHeaders(h map[string]string) map[string]string {
	groups := make(map[string][]string, len(h))
	for name := range h {
		canon := textproto.CanonicalMIMEHeaderKey(name)
		groups[canon] = append(groups[canon], name)
	}

	out := make(map[string]string, len(groups))
	for canon, names := range groups {
		if len(names) == 1 {
			out[names[0]] = h[names[0]]
			continue
		}
		sort.Strings(names)
		values := make([]string, len(names))
		for i, name := range names {
			values[i] = h[name]
		}
		out[canon] = strings.Join(values, ", ")
	}
	return out
}

// collidingHeaders finds two names in h that differ only in case. The
// result is the sorted first such pair.
func collidingHeaders(h map[string]string) (string, string, bool) {
	seen := make(map[string]string, len(h))
	for _, name := range sortedNames(h) {
		canon := textproto.CanonicalMIMEHeaderKey(name)
		if prev, ok := seen[canon]; ok {
			return prev, name, true
		}
		seen[canon] = name
	}
	return "", "", false
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for name, value := range h {
		out[name] = value
	}
	return out
}

func nonNilHeaders(h map[string]string) map[string]string {
	if h == nil {
		return map[string]string{}
	}
	return h
}

// sortedNames returns the keys of h in sorted order.
func sortedNames(h map[string]string) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
