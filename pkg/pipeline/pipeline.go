// Package pipeline runs outbound HTTP requests through an ordered chain of
// policies. The last policy is the terminal stage that produces the response:
// either the live transport or a playback policy.
package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// ErrNoTerminal is returned when a request runs off the end of the chain
// without any policy producing a response.
var ErrNoTerminal = errors.New("pipeline: no terminal policy")

// Policy is one stage of the pipeline. next holds the policies that follow
// this one; a non-terminal policy hands the request on with Next.
type Policy interface {
	Send(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error)

func (f PolicyFunc) Send(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
	return f(ctx, req, next)
}

// Next sends req to the first policy of next.
func Next(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
	if len(next) == 0 {
		return nil, ErrNoTerminal
	}
	return next[0].Send(ctx, req, next[1:])
}

// Pipeline is an ordered chain of policies.
type Pipeline struct {
	policies []Policy
}

// New creates a pipeline. The last policy must be terminal.
func New(policies ...Policy) *Pipeline {
	return &Pipeline{policies: append([]Policy(nil), policies...)}
}

// Do runs req through the pipeline. Pipeline satisfies the azcore
// policy.Transporter interface, so Azure clients can use it as their transport.
func (p *Pipeline) Do(req *http.Request) (*http.Response, error) {
	return Next(req.Context(), req, p.policies)
}

// RoundTrip implements http.RoundTripper. Policies may modify the request, so
// they work on a clone.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	return p.Do(req.Clone(req.Context()))
}

// HTTPClient returns an http.Client whose transport is the pipeline.
func (p *Pipeline) HTTPClient() *http.Client {
	return &http.Client{Transport: p}
}

var (
	_ policy.Transporter = (*Pipeline)(nil)
	_ http.RoundTripper  = (*Pipeline)(nil)
)
