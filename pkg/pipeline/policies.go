package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/manishiitg/cloud-sdk-go/interfaces"
)

// Transport returns the terminal policy that sends requests over the network
// with rt. A nil rt uses http.DefaultTransport.
func Transport(rt http.RoundTripper) Policy {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return PolicyFunc(func(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
		if len(next) != 0 {
			panic(fmt.Sprintf("pipeline: transport must be the last policy, %d policies follow it", len(next)))
		}
		return rt.RoundTrip(req.WithContext(ctx))
	})
}

// Headers returns a policy that sets static headers on every request.
func Headers(headers map[string]string) Policy {
	fixed := make(map[string]string, len(headers))
	for name, value := range headers {
		fixed[name] = value
	}
	return PolicyFunc(func(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
		for name, value := range fixed {
			req.Header.Set(name, value)
		}
		return Next(ctx, req, next)
	})
}

// Logging returns a policy that logs each request and its outcome.
func Logging(logger interfaces.Logger) Policy {
	return PolicyFunc(func(ctx context.Context, req *http.Request, next []Policy) (*http.Response, error) {
		start := time.Now()
		logger.Debugf("-> %s %s", req.Method, req.URL.RequestURI())

		resp, err := Next(ctx, req, next)
		if err != nil {
			logger.Errorf("%s %s failed after %s: %v", req.Method, req.URL.RequestURI(), time.Since(start), err)
			return nil, err
		}

		logger.Debugf("<- %s %s %d (%s)", req.Method, req.URL.RequestURI(), resp.StatusCode, time.Since(start))
		return resp, nil
	})
}
