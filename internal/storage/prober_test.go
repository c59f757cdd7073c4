package storage_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aisearch/internal/storage"
)

type fakeContainer struct {
	propsErr   error
	modified   time.Time
	names      []string
	nextMarker string
	listErr    error
}

func (f *fakeContainer) GetProperties(context.Context, *container.GetPropertiesOptions) (container.GetPropertiesResponse, error) {
	if f.propsErr != nil {
		return container.GetPropertiesResponse{}, f.propsErr
	}
	return container.GetPropertiesResponse{LastModified: &f.modified}, nil
}

func (f *fakeContainer) NewListBlobsFlatPager(*container.ListBlobsFlatOptions) *runtime.Pager[container.ListBlobsFlatResponse] {
	return runtime.NewPager(runtime.PagingHandler[container.ListBlobsFlatResponse]{
		More: func(container.ListBlobsFlatResponse) bool { return false },
		Fetcher: func(context.Context, *container.ListBlobsFlatResponse) (container.ListBlobsFlatResponse, error) {
			if f.listErr != nil {
				return container.ListBlobsFlatResponse{}, f.listErr
			}
			items := make([]*container.BlobItem, 0, len(f.names))
			for i := range f.names {
				items = append(items, &container.BlobItem{Name: &f.names[i]})
			}
			resp := container.ListBlobsFlatResponse{}
			resp.Segment = &container.BlobFlatListSegment{BlobItems: items}
			if f.nextMarker != "" {
				resp.NextMarker = &f.nextMarker
			}
			return resp, nil
		},
	})
}

func proberFor(fake *fakeContainer, sample int) *storage.ContainerProber {
	return storage.NewContainerProberWithFactory(func(string) storage.ContainerClient { return fake }, sample, nil)
}

func TestProbe_ExistingContainer(t *testing.T) {
	t.Parallel()

	modified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := &fakeContainer{modified: modified, names: []string{"a.pdf", "b.pdf"}, nextMarker: "m1"}

	res, err := proberFor(fake, 2).Probe(context.Background(), "docs")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.False(t, res.AccessDenied)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, res.SampleBlobs)
	assert.True(t, res.Truncated)
	require.NotNil(t, res.LastModified)
	assert.True(t, res.LastModified.Equal(modified))
}

func TestProbe_MissingContainer(t *testing.T) {
	t.Parallel()

	fake := &fakeContainer{propsErr: &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ContainerNotFound"}}

	res, err := proberFor(fake, 0).Probe(context.Background(), "docs")
	require.NoError(t, err)
	assert.False(t, res.Exists)
	assert.False(t, res.AccessDenied)
}

func TestProbe_AccessDenied(t *testing.T) {
	t.Parallel()

	fake := &fakeContainer{propsErr: &azcore.ResponseError{StatusCode: http.StatusForbidden, ErrorCode: "AuthorizationFailure"}}

	res, err := proberFor(fake, 0).Probe(context.Background(), "docs")
	require.NoError(t, err)
	assert.False(t, res.Exists)
	assert.True(t, res.AccessDenied)
}

func TestProbe_OtherErrors(t *testing.T) {
	t.Parallel()

	fake := &fakeContainer{propsErr: errors.New("dial tcp: no such host")}
	_, err := proberFor(fake, 0).Probe(context.Background(), "docs")
	require.Error(t, err)

	_, err = proberFor(&fakeContainer{}, 0).Probe(context.Background(), "")
	require.Error(t, err)
}

func TestNewContainerProber_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := storage.NewContainerProber(storage.Config{}, nil)
	require.Error(t, err)
}
