package domain

import "time"

// OperationType names a mutating control-plane operation recorded in the journal.
type OperationType string

const (
	OperationCreateIndexer    OperationType = "create_indexer"
	OperationDeleteIndexer    OperationType = "delete_indexer"
	OperationRunIndexer       OperationType = "run_indexer"
	OperationResetIndexer     OperationType = "reset_indexer"
	OperationPutDataSource    OperationType = "put_datasource"
	OperationDeleteDataSource OperationType = "delete_datasource"
)

// OperationStatus tracks a journal entry through its lifecycle.
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
)

// Resource kinds.
const (
	ResourceIndexer    = "indexer"
	ResourceDataSource = "datasource"
	ResourceIndex      = "index"
	ResourceService    = "service"
)

// Operation is one journal entry.
type Operation struct {
	ID           int64           `json:"id"`
	Type         OperationType   `json:"type"`
	ResourceKind string          `json:"resource_kind"`
	ResourceName string          `json:"resource_name"`
	Status       OperationStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
