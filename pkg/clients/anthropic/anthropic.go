// Package anthropic builds Anthropic API clients on top of a shared HTTP client.
package anthropic

import (
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultBaseURL is the public Anthropic endpoint.
const DefaultBaseURL = "https://api.anthropic.com/"

// VolatileHeaders are request headers that differ between recording and
// replay, plus the API key header.
var VolatileHeaders = []string{
	"X-Api-Key",
	"Idempotency-Key",
	"X-Stainless-Arch",
	"X-Stainless-Lang",
	"X-Stainless-Os",
	"X-Stainless-Package-Version",
	"X-Stainless-Retry-Count",
	"X-Stainless-Runtime",
	"X-Stainless-Runtime-Version",
	"X-Stainless-Timeout",
}

// Config holds the client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates an Anthropic client with retries disabled.
func NewClient(config Config) *anthropic.Client {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	}
	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)
	return &client
}
