// Package bedrock builds AWS Bedrock runtime clients on top of a shared HTTP
// client.
package bedrock

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// VolatileHeaders are the SigV4 and SDK bookkeeping headers that change on
// every call.
var VolatileHeaders = []string{
	"Amz-Sdk-Invocation-Id",
	"Amz-Sdk-Request",
	"X-Amz-Date",
	"X-Amz-Security-Token",
	"X-Amz-User-Agent",
}

// Config holds the client settings.
type Config struct {
	Region     string
	BaseURL    string
	HTTPClient *http.Client
	// StaticCredentials replaces the default credential chain with fixed
	// dummy keys. Playback never needs real credentials.
	StaticCredentials bool
}

// NewClient creates a Bedrock runtime client with retries disabled.
func NewClient(ctx context.Context, config Config) (*bedrockruntime.Client, error) {
	region := config.Region
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(1),
	}
	if config.StaticCredentials {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("playback", "playback", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// The HTTP client is set on the service options, not on LoadOptions: the
	// shared config loader rejects a plain *http.Client when AWS_CA_BUNDLE
	// is set.
	return bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if config.HTTPClient != nil {
			o.HTTPClient = config.HTTPClient
		}
		if config.BaseURL != "" {
			o.BaseEndpoint = aws.String(config.BaseURL)
		}
	}), nil
}
