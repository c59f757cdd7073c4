// Package domain holds the resource shapes exchanged with the search service
// control plane and the result types produced on top of them.
package domain

import "time"

// Default indexer configuration values.
const (
	DataToExtractContentAndMetadata = "contentAndMetadata"
	ParsingModeDefault              = "default"
)

// FieldMapping maps a datasource field onto an index field.
type FieldMapping struct {
	SourceFieldName string           `json:"sourceFieldName"`
	TargetFieldName string           `json:"targetFieldName,omitempty"`
	MappingFunction *MappingFunction `json:"mappingFunction,omitempty"`
}

// MappingFunction transforms a field value during indexing (e.g. base64Encode).
type MappingFunction struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// IndexingSchedule runs an indexer periodically. Interval is an ISO 8601 duration.
type IndexingSchedule struct {
	Interval  string     `json:"interval"`
	StartTime *time.Time `json:"startTime,omitempty"`
}

// IndexerParameters tunes indexer execution.
type IndexerParameters struct {
	BatchSize              *int           `json:"batchSize,omitempty"`
	MaxFailedItems         *int           `json:"maxFailedItems,omitempty"`
	MaxFailedItemsPerBatch *int           `json:"maxFailedItemsPerBatch,omitempty"`
	Configuration          map[string]any `json:"configuration,omitempty"`
}

// Indexer is an indexer definition as accepted by PUT /indexers/{name}.
type Indexer struct {
	Name                string             `json:"name"`
	Description         string             `json:"description,omitempty"`
	DataSourceName      string             `json:"dataSourceName"`
	TargetIndexName     string             `json:"targetIndexName"`
	SkillsetName        string             `json:"skillsetName,omitempty"`
	Schedule            *IndexingSchedule  `json:"schedule,omitempty"`
	Parameters          *IndexerParameters `json:"parameters,omitempty"`
	FieldMappings       []FieldMapping     `json:"fieldMappings,omitempty"`
	OutputFieldMappings []FieldMapping     `json:"outputFieldMappings,omitempty"`
	Disabled            *bool              `json:"disabled,omitempty"`
	ETag                string             `json:"@odata.etag,omitempty"`
}

// DefaultFieldMappings maps content, id and title straight through.
func DefaultFieldMappings() []FieldMapping {
	return []FieldMapping{
		{SourceFieldName: "content", TargetFieldName: "content"},
		{SourceFieldName: "id", TargetFieldName: "id"},
		{SourceFieldName: "title", TargetFieldName: "title"},
	}
}

// MinimalFieldMappings maps only the document key.
func MinimalFieldMappings() []FieldMapping {
	return []FieldMapping{
		{SourceFieldName: "id", TargetFieldName: "id"},
	}
}

// DefaultIndexerParameters extracts content and metadata with the default parser.
func DefaultIndexerParameters() *IndexerParameters {
	return &IndexerParameters{
		Configuration: map[string]any{
			"dataToExtract": DataToExtractContentAndMetadata,
			"parsingMode":   ParsingModeDefault,
		},
	}
}

// NewIndexer builds the standard indexer definition. minimal selects the
// key-only mapping without parameters.
func NewIndexer(name, dataSourceName, targetIndexName string, minimal bool) *Indexer {
	ix := &Indexer{
		Name:            name,
		DataSourceName:  dataSourceName,
		TargetIndexName: targetIndexName,
	}
	if minimal {
		ix.FieldMappings = MinimalFieldMappings()
		return ix
	}
	ix.FieldMappings = DefaultFieldMappings()
	ix.Parameters = DefaultIndexerParameters()
	return ix
}

// IndexerExecutionStatus values reported in lastResult.status.
const (
	ExecutionStatusSuccess           = "success"
	ExecutionStatusTransientFailure  = "transientFailure"
	ExecutionStatusPersistentFailure = "persistentFailure"
	ExecutionStatusInProgress        = "inProgress"
	ExecutionStatusReset             = "reset"
)

// ItemIssue is an error or warning attached to an execution.
type ItemIssue struct {
	Key          string `json:"key,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Message      string `json:"message,omitempty"`
	StatusCode   int    `json:"statusCode,omitempty"`
	Name         string `json:"name,omitempty"`
	Details      string `json:"details,omitempty"`
}

// Text returns whichever message field the service populated.
func (i ItemIssue) Text() string {
	if i.ErrorMessage != "" {
		return i.ErrorMessage
	}
	return i.Message
}

// IndexerExecutionResult describes one indexer run.
type IndexerExecutionResult struct {
	Status         string      `json:"status"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
	StartTime      *time.Time  `json:"startTime,omitempty"`
	EndTime        *time.Time  `json:"endTime,omitempty"`
	ItemsProcessed int         `json:"itemsProcessed"`
	ItemsFailed    int         `json:"itemsFailed"`
	Errors         []ItemIssue `json:"errors,omitempty"`
	Warnings       []ItemIssue `json:"warnings,omitempty"`
}

// IndexerStatus is the body of GET /indexers/{name}/status.
type IndexerStatus struct {
	Status           string                   `json:"status"`
	LastResult       *IndexerExecutionResult  `json:"lastResult,omitempty"`
	ExecutionHistory []IndexerExecutionResult `json:"executionHistory,omitempty"`
	Limits           map[string]any           `json:"limits,omitempty"`
}
