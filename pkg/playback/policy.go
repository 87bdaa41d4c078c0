// Package playback replays recorded HTTP traffic in place of the network and
// records live traffic into fixtures.
package playback

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/manishiitg/cloud-sdk-go/interfaces"
	"github.com/manishiitg/cloud-sdk-go/internal/recorder"
	"github.com/manishiitg/cloud-sdk-go/pkg/pipeline"
)

// Policy is the terminal pipeline stage that answers requests from the
// fixtures of one transaction. Every request must match the recorded request
// of the current step; the cursor only advances on a match.
type Policy struct {
	mu      sync.Mutex
	tx      *recorder.Transaction
	matcher *recorder.Matcher
	logger  interfaces.Logger
	emitter interfaces.EventEmitter
}

// Option configures a Policy or a Recorder.
type Option func(*options)

type options struct {
	matcher *recorder.Matcher
	extra   []string
	logger  interfaces.Logger
	emitter interfaces.EventEmitter
}

// WithMatcher replaces the default matcher.
func WithMatcher(m *recorder.Matcher) Option {
	return func(o *options) { o.matcher = m }
}

// WithExcludedHeaders adds header names to the default exclusion set. It is
// ignored when WithMatcher is also given.
func WithExcludedHeaders(names ...string) Option {
	return func(o *options) { o.extra = append(o.extra, names...) }
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEventEmitter sets the event emitter.
func WithEventEmitter(emitter interfaces.EventEmitter) Option {
	return func(o *options) { o.emitter = emitter }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.matcher == nil {
		o.matcher = recorder.NewMatcher(o.extra...)
	}
	if o.logger == nil {
		o.logger = noopLogger{}
	}
	if o.emitter == nil {
		o.emitter = noopEmitter{}
	}
	return o
}

// New returns a playback policy for tx. The policy owns the transaction
// cursor from here on.
func New(tx *recorder.Transaction, opts ...Option) *Policy {
	o := buildOptions(opts)
	return &Policy{
		tx:      tx,
		matcher: o.matcher,
		logger:  o.logger,
		emitter: o.emitter,
	}
}

// Send replays the response recorded for the current step. It must be the
// last policy of the pipeline; anything following it is a wiring bug and
// panics.
func (p *Policy) Send(ctx context.Context, req *http.Request, next []pipeline.Policy) (*http.Response, error) {
	if len(next) != 0 {
		panic(fmt.Sprintf("playback: policy must be the last in the pipeline, %d policies follow it", len(next)))
	}
	// Nothing is sent, so the request body is consumed here on every path.
	defer closeBody(req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	live, err := recorder.FromHTTPRequest(req)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	step := p.tx.Number()
	event := interfaces.StepEvent{
		Transaction: p.tx.Name(),
		Step:        step,
		Method:      string(live.Method()),
		Path:        live.PathAndQuery(),
	}

	expectedReq, expectedResp, err := p.tx.LoadStep(ctx)
	if err != nil {
		p.logger.Errorf("playback %s step %d: %v", p.tx.Name(), step, err)
		p.emitter.EmitStepMismatch(event, err)
		return nil, err
	}

	if err := p.matcher.Compare(live, expectedReq); err != nil {
		p.logger.Errorf("playback %s step %d: %v", p.tx.Name(), step, err)
		p.emitter.EmitStepMismatch(event, err)
		return nil, err
	}

	// Cancellation after the comparison still leaves the cursor in place.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.tx.IncrementNumber()

	event.Status = expectedResp.Status()
	p.logger.Debugf("playback %s step %d: %s %s -> %d", p.tx.Name(), step, live.Method(), live.PathAndQuery(), expectedResp.Status())
	p.emitter.EmitStepReplayed(event)

	return expectedResp.ToHTTP(req), nil
}

// Number returns the step the next request will be compared against.
func (p *Policy) Number() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tx.Number()
}

// Verify fails when recorded steps remain that were never replayed.
func (p *Policy) Verify() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tx.HasStep(p.tx.Number()) {
		return fmt.Errorf("%w: transaction %q has unreplayed steps starting at %d",
			recorder.ErrMockFramework, p.tx.Name(), p.tx.Number())
	}
	return nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

type noopLogger struct{}

func (noopLogger) Infof(format string, v ...any)             {}
func (noopLogger) Errorf(format string, v ...any)            {}
func (noopLogger) Debugf(format string, args ...interface{}) {}

type noopEmitter struct{}

func (noopEmitter) EmitStepReplayed(interfaces.StepEvent)        {}
func (noopEmitter) EmitStepMismatch(interfaces.StepEvent, error) {}
func (noopEmitter) EmitStepRecorded(interfaces.StepEvent)        {}

var _ pipeline.Policy = (*Policy)(nil)
