// Package storage checks the blob containers that back blob datasources.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
)

const defaultSampleSize = 5

// ContainerClient is the subset of *container.Client the prober uses.
type ContainerClient interface {
	GetProperties(ctx context.Context, options *container.GetPropertiesOptions) (container.GetPropertiesResponse, error)
	NewListBlobsFlatPager(options *container.ListBlobsFlatOptions) *runtime.Pager[container.ListBlobsFlatResponse]
}

// ContainerFactory returns a client for the named container.
type ContainerFactory func(name string) ContainerClient

// Config selects how the prober authenticates.
type Config struct {
	// ConnectionString takes precedence over AccountURL.
	ConnectionString string
	// AccountURL is used with the default Azure credential chain.
	AccountURL string
	// SampleSize caps the blob names returned by Probe.
	SampleSize int
}

// ProbeResult describes a container as seen with local credentials.
type ProbeResult struct {
	Container    string     `json:"container"`
	Exists       bool       `json:"exists"`
	AccessDenied bool       `json:"access_denied"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	SampleBlobs  []string   `json:"sample_blobs,omitempty"`
	// Truncated is set when more blobs exist than SampleBlobs holds.
	Truncated bool `json:"truncated"`
}

// ContainerProber inspects blob containers.
type ContainerProber struct {
	containers ContainerFactory
	sampleSize int
	logger     infralogger.Logger
}

// NewContainerProber builds a prober from cfg.
func NewContainerProber(cfg Config, log infralogger.Logger) (*ContainerProber, error) {
	var (
		client *azblob.Client
		err    error
	)

	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create blob client from connection string: %w", err)
		}
	case cfg.AccountURL != "":
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("create default azure credential: %w", credErr)
		}
		client, err = azblob.NewClient(cfg.AccountURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create blob client: %w", err)
		}
	default:
		return nil, errors.New("storage connection string or account URL is required")
	}

	factory := func(name string) ContainerClient {
		return client.ServiceClient().NewContainerClient(name)
	}
	return NewContainerProberWithFactory(factory, cfg.SampleSize, log), nil
}

// NewContainerProberWithFactory builds a prober over an arbitrary client source.
func NewContainerProberWithFactory(factory ContainerFactory, sampleSize int, log infralogger.Logger) *ContainerProber {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	if log == nil {
		log = infralogger.NewNop()
	}
	return &ContainerProber{containers: factory, sampleSize: sampleSize, logger: log}
}

// Probe fetches container properties and a sample of blob names. A missing
// container or denied access is reported in the result, not as an error.
func (p *ContainerProber) Probe(ctx context.Context, name string) (*ProbeResult, error) {
	if name == "" {
		return nil, errors.New("container name is required")
	}

	result := &ProbeResult{Container: name}
	client := p.containers(name)

	props, err := client.GetProperties(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusNotFound:
				p.logger.Debug("Container not found", infralogger.String("container", name))
				return result, nil
			case http.StatusForbidden, http.StatusUnauthorized:
				result.AccessDenied = true
				return result, nil
			}
		}
		return nil, fmt.Errorf("get container properties %s: %w", name, err)
	}

	result.Exists = true
	result.LastModified = props.LastModified

	maxResults := int32(p.sampleSize) //nolint:gosec // sample size is small
	pager := client.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{MaxResults: &maxResults})
	if pager.More() {
		page, pageErr := pager.NextPage(ctx)
		if pageErr != nil {
			return nil, fmt.Errorf("list blobs in %s: %w", name, pageErr)
		}
		if page.Segment != nil {
			for _, item := range page.Segment.BlobItems {
				if item.Name != nil && len(result.SampleBlobs) < p.sampleSize {
					result.SampleBlobs = append(result.SampleBlobs, *item.Name)
				}
			}
		}
		result.Truncated = page.NextMarker != nil && *page.NextMarker != ""
	}

	return result, nil
}
