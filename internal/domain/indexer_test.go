package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

func TestNewIndexer_DefaultPayload(t *testing.T) {
	t.Parallel()

	ix := domain.NewIndexer("blob-indexer", "blob-ds", "docs", false)
	raw, err := json.Marshal(ix)
	require.NoError(t, err)

	want := `{
		"name": "blob-indexer",
		"dataSourceName": "blob-ds",
		"targetIndexName": "docs",
		"parameters": {
			"configuration": {"dataToExtract": "contentAndMetadata", "parsingMode": "default"}
		},
		"fieldMappings": [
			{"sourceFieldName": "content", "targetFieldName": "content"},
			{"sourceFieldName": "id", "targetFieldName": "id"},
			{"sourceFieldName": "title", "targetFieldName": "title"}
		]
	}`
	assert.JSONEq(t, want, string(raw))
}

func TestNewIndexer_MinimalPayload(t *testing.T) {
	t.Parallel()

	ix := domain.NewIndexer("blob-indexer", "blob-ds", "docs", true)
	raw, err := json.Marshal(ix)
	require.NoError(t, err)

	want := `{
		"name": "blob-indexer",
		"dataSourceName": "blob-ds",
		"targetIndexName": "docs",
		"fieldMappings": [{"sourceFieldName": "id", "targetFieldName": "id"}]
	}`
	assert.JSONEq(t, want, string(raw))
}

func TestDataSource_RedactedCredentials(t *testing.T) {
	t.Parallel()

	body := `{
		"name": "blob-ds",
		"type": "azureblob",
		"credentials": {"connectionString": null},
		"container": {"name": "docs", "query": null},
		"@odata.etag": "\"0x8DC\""
	}`

	var ds domain.DataSource
	require.NoError(t, json.Unmarshal([]byte(body), &ds))

	require.NotNil(t, ds.Credentials)
	assert.Nil(t, ds.Credentials.ConnectionString)
	require.NotNil(t, ds.Container)
	assert.Equal(t, "docs", ds.Container.Name)
	assert.Equal(t, `"0x8DC"`, ds.ETag)
	assert.True(t, domain.IsBlobStorage(ds.Type))
}

func TestIndex_KeyField(t *testing.T) {
	t.Parallel()

	idx := domain.Index{Fields: []domain.IndexField{
		{Name: "content", Type: "Edm.String"},
		{Name: "id", Type: "Edm.String", Key: true},
	}}

	assert.Equal(t, "id", idx.KeyField())
	assert.True(t, idx.HasField("content"))
	assert.False(t, idx.HasField("title"))
}

func TestDiagnosis_Worst(t *testing.T) {
	t.Parallel()

	d := domain.NewDiagnosis(domain.ResourceDataSource, "blob-ds")
	assert.Equal(t, domain.SeverityOK, d.Worst())

	d.Add("type", domain.SeverityOK, "azureblob")
	d.Add("credentials", domain.SeverityWarn, "redacted")
	assert.Equal(t, domain.SeverityWarn, d.Worst())
	assert.True(t, d.Healthy())

	d.Add("test", domain.SeverityFail, "connection failed")
	assert.Equal(t, domain.SeverityFail, d.Worst())
	assert.False(t, d.Healthy())
}

func TestItemIssue_Text(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", domain.ItemIssue{ErrorMessage: "boom", Message: "other"}.Text())
	assert.Equal(t, "other", domain.ItemIssue{Message: "other"}.Text())
}
