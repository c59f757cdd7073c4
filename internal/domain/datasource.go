package domain

// Datasource types accepted by the service.
const (
	DataSourceTypeAzureBlob  = "azureblob"
	DataSourceTypeADLSGen2   = "adlsgen2"
	DataSourceTypeAzureSQL   = "azuresql"
	DataSourceTypeCosmosDB   = "cosmosdb"
	DataSourceTypeAzureTable = "azuretable"
	DataSourceTypeMySQL      = "mysql"
)

// KnownDataSourceTypes lists every type this tool recognises.
var KnownDataSourceTypes = []string{
	DataSourceTypeAzureBlob,
	DataSourceTypeADLSGen2,
	DataSourceTypeAzureSQL,
	DataSourceTypeCosmosDB,
	DataSourceTypeAzureTable,
	DataSourceTypeMySQL,
}

// IsBlobStorage reports whether t is backed by a blob container.
func IsBlobStorage(t string) bool {
	return t == DataSourceTypeAzureBlob || t == DataSourceTypeADLSGen2
}

// DataSourceCredentials is redacted by the service on read: ConnectionString
// comes back nil.
type DataSourceCredentials struct {
	ConnectionString *string `json:"connectionString"`
}

// DataContainer names the table, collection or blob container to index.
type DataContainer struct {
	Name  string `json:"name"`
	Query string `json:"query,omitempty"`
}

// DataSource is a datasource definition.
type DataSource struct {
	Name                        string                 `json:"name"`
	Description                 string                 `json:"description,omitempty"`
	Type                        string                 `json:"type"`
	Credentials                 *DataSourceCredentials `json:"credentials,omitempty"`
	Container                   *DataContainer         `json:"container,omitempty"`
	DataChangeDetectionPolicy   map[string]any         `json:"dataChangeDetectionPolicy,omitempty"`
	DataDeletionDetectionPolicy map[string]any         `json:"dataDeletionDetectionPolicy,omitempty"`
	ETag                        string                 `json:"@odata.etag,omitempty"`
}

// NewBlobDataSource builds an azureblob datasource for container.
func NewBlobDataSource(name, connectionString, container, query string) *DataSource {
	return &DataSource{
		Name: name,
		Type: DataSourceTypeAzureBlob,
		Credentials: &DataSourceCredentials{
			ConnectionString: &connectionString,
		},
		Container: &DataContainer{Name: container, Query: query},
	}
}

// Redacted returns a copy with the connection string cleared, the way the
// service returns it on read.
func (ds *DataSource) Redacted() *DataSource {
	out := *ds
	if ds.Credentials != nil {
		out.Credentials = &DataSourceCredentials{}
	}
	return &out
}
