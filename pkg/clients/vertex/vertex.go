// Package vertex builds Google GenAI clients (Gemini API or Vertex AI) on top
// of a shared HTTP client.
package vertex

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/auth"
	"google.golang.org/genai"
)

// VolatileHeaders are request headers that differ between recording and
// replay, plus the API key header.
var VolatileHeaders = []string{
	"X-Goog-Api-Client",
	"X-Goog-Api-Key",
}

// Config holds the client settings. A non-empty Project selects the Vertex AI
// backend; otherwise the Gemini API is used with APIKey.
type Config struct {
	APIKey     string
	Project    string
	Location   string
	BaseURL    string
	HTTPClient *http.Client
	// TokenProvider supplies Vertex AI access tokens. When nil on the Vertex
	// backend the SDK uses Application Default Credentials.
	TokenProvider auth.TokenProvider
}

// NewClient creates a GenAI client.
func NewClient(ctx context.Context, config Config) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		HTTPClient: config.HTTPClient,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	if config.Project != "" {
		cc.Backend = genai.BackendVertexAI
		cc.Project = config.Project
		cc.Location = config.Location
		if cc.Location == "" {
			cc.Location = "us-central1"
		}
		if config.TokenProvider != nil {
			cc.Credentials = auth.NewCredentials(&auth.CredentialsOptions{
				TokenProvider: config.TokenProvider,
			})
		}
	} else {
		if config.APIKey == "" {
			return nil, fmt.Errorf("api key is required for the Gemini API backend")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = config.APIKey
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// StaticTokenProvider returns the same bearer token forever. Recorded traffic
// has its Authorization header excluded, so any value replays.
type StaticTokenProvider struct {
	Value string
}

// Token implements auth.TokenProvider.
func (p StaticTokenProvider) Token(context.Context) (*auth.Token, error) {
	return &auth.Token{
		Value:  p.Value,
		Type:   "Bearer",
		Expiry: time.Now().Add(time.Hour),
	}, nil
}
