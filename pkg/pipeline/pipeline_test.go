package pipeline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/manishiitg/cloud-sdk-go/internal/testing"
)

func okTerminal(body string) Policy {
	return PolicyFunc(func(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	})
}

func TestPipeline_RunsPoliciesInOrder(t *testing.T) {
	var order []string
	mark := func(name string) Policy {
		return PolicyFunc(func(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
			order = append(order, name)
			return Next(ctx, req, next)
		})
	}

	p := New(mark("first"), mark("second"), okTerminal("done"))
	req := httptest.NewRequest(http.MethodGet, "https://example.test/a", nil)

	resp, err := p.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "done", string(body))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPipeline_NoTerminal(t *testing.T) {
	p := New(Headers(map[string]string{"X-A": "1"}))
	req := httptest.NewRequest(http.MethodGet, "https://example.test/a", nil)

	_, err := p.Do(req)
	assert.ErrorIs(t, err, ErrNoTerminal)
}

func TestPipeline_RoundTripWorksOnAClone(t *testing.T) {
	var seen string
	p := New(Headers(map[string]string{"X-Added": "yes"}), PolicyFunc(func(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
		seen = req.Header.Get("X-Added")
		return okTerminal("").Send(ctx, req, next)
	}))

	req, err := http.NewRequest(http.MethodGet, "https://example.test/a", nil)
	require.NoError(t, err)

	_, err = p.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, "yes", seen)
	assert.Empty(t, req.Header.Get("X-Added"), "caller's request must not be modified")
}

func TestPipeline_HTTPClient(t *testing.T) {
	client := New(okTerminal("hello")).HTTPClient()

	resp, err := client.Get("https://example.test/anything")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello", string(body))
}

func TestTransport_SendsOverNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/secrets/foo", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	p := New(Transport(server.Client().Transport))
	req, err := http.NewRequest(http.MethodGet, server.URL+"/secrets/foo", nil)
	require.NoError(t, err)

	resp, err := p.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestTransport_MustBeLast(t *testing.T) {
	p := New(Transport(nil), okTerminal(""))
	req := httptest.NewRequest(http.MethodGet, "https://example.test/a", nil)

	assert.Panics(t, func() { _, _ = p.Do(req) })
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := testutil.NewSimpleLogger(&buf, "debug")

	p := New(Logging(logger), okTerminal(""))
	req := httptest.NewRequest(http.MethodDelete, "https://example.test/secrets/foo?api-version=7.0", nil)
	_, err := p.Do(req)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "DELETE /secrets/foo?api-version=7.0")
	assert.Contains(t, buf.String(), "200")

	buf.Reset()
	p = New(Logging(logger))
	_, err = p.Do(req)
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "[ERROR]")
}
