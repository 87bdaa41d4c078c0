// Package azureblob builds Azure Blob Storage clients whose transport is a
// pipeline.
package azureblob

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// VolatileHeaders are request headers azcore fills per call.
var VolatileHeaders = []string{
	"X-Ms-Client-Request-Id",
	"Traceparent",
}

// NewClient creates an anonymous blob client for serviceURL that sends every
// request through transport. azcore retries are disabled.
func NewClient(serviceURL string, transport policy.Transporter) (*azblob.Client, error) {
	client, err := azblob.NewClientWithNoCredential(serviceURL, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: transport,
			Retry:     policy.RetryOptions{MaxRetries: -1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("azureblob: create client: %w", err)
	}
	return client, nil
}
