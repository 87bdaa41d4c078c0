// Package openai builds OpenAI API clients on top of a shared HTTP client.
package openai

import (
	"net/http"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com/v1/"

// VolatileHeaders are request headers the SDK derives from the host, the
// retry loop or a random source. They differ between recording and replay.
var VolatileHeaders = []string{
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

// NewClient creates an OpenAI client. Retries are disabled so every SDK call
// is exactly one HTTP exchange.
func NewClient(config Config) *openaisdk.Client {
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

	client := openaisdk.NewClient(opts...)
	return &client
}
