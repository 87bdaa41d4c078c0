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

// Recorder forwards requests to the rest of the pipeline and writes every
// request/response pair as the next step of a transaction. Excluded headers
// are left out of the fixtures.
type Recorder struct {
	mu      sync.Mutex
	tx      *recorder.Transaction
	matcher *recorder.Matcher
	logger  interfaces.Logger
	emitter interfaces.EventEmitter
}

// NewRecorder returns a recording policy for tx. Recording starts at the
// transaction's current cursor. Saving step 1 first removes every fixture
// the transaction already held, so a shorter re-recording leaves no stale
// steps behind.
func NewRecorder(tx *recorder.Transaction, opts ...Option) *Recorder {
	o := buildOptions(opts)
	return &Recorder{
		tx:      tx,
		matcher: o.matcher,
		logger:  o.logger,
		emitter: o.emitter,
	}
}

// Send records the exchange. At least one policy must follow the recorder.
func (r *Recorder) Send(ctx context.Context, req *http.Request, next []pipeline.Policy) (*http.Response, error) {
	if len(next) == 0 {
		panic("playback: recorder needs a transport policy after it")
	}

	live, err := recorder.FromHTTPRequest(req)
	if err != nil {
		return nil, err
	}
	if live.Body().IsStream() {
		return nil, fmt.Errorf("cannot record %s %s: %w", live.Method(), live.PathAndQuery(), recorder.ErrStreamingBody)
	}

	resp, err := pipeline.Next(ctx, req, next)
	if err != nil {
		return nil, err
	}

	captured, err := recorder.FromHTTPResponse(resp)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	step := r.tx.Number()
	if step == 1 {
		// A fresh recording replaces whatever the transaction held before.
		if err := r.tx.Truncate(1); err != nil {
			return nil, fmt.Errorf("failed to record %s step %d: %w", r.tx.Name(), step, err)
		}
	}
	if err := r.tx.SaveStep(r.matcher.Strip(live), captured); err != nil {
		return nil, fmt.Errorf("failed to record %s step %d: %w", r.tx.Name(), step, err)
	}
	r.tx.IncrementNumber()

	r.logger.Debugf("recorded %s step %d: %s %s -> %d", r.tx.Name(), step, live.Method(), live.PathAndQuery(), captured.Status())
	r.emitter.EmitStepRecorded(interfaces.StepEvent{
		Transaction: r.tx.Name(),
		Step:        step,
		Method:      string(live.Method()),
		Path:        live.PathAndQuery(),
		Status:      captured.Status(),
	})

	return resp, nil
}

// Number returns the step the next exchange will be written to.
func (r *Recorder) Number() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tx.Number()
}

var _ pipeline.Policy = (*Recorder)(nil)
