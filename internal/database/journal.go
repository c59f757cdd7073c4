package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

// ErrOperationNotFound is returned when finishing an unknown journal entry.
var ErrOperationNotFound = errors.New("operation not found")

// maxErrorMessageLen caps stored error text.
const maxErrorMessageLen = 2000

// JournalRepository records mutating control-plane operations.
type JournalRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewJournalRepository creates a repository over db.
func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db, now: time.Now}
}

// Begin inserts a pending entry and returns its id.
func (r *JournalRepository) Begin(ctx context.Context, op *domain.Operation) (int64, error) {
	query := `
		INSERT INTO operation_history
		(operation, resource_kind, resource_name, status, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	createdAt := r.now().UTC()
	var requestID sql.NullString
	if op.RequestID != "" {
		requestID = sql.NullString{String: op.RequestID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		string(op.Type),
		op.ResourceKind,
		op.ResourceName,
		string(domain.OperationStatusPending),
		requestID,
		createdAt,
	).Scan(&op.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to record operation: %w", err)
	}

	op.Status = domain.OperationStatusPending
	op.CreatedAt = createdAt
	return op.ID, nil
}

// Finish marks an entry completed, or failed when opErr is non-nil.
func (r *JournalRepository) Finish(ctx context.Context, id int64, opErr error) error {
	query := `
		UPDATE operation_history
		SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4
	`

	status := domain.OperationStatusCompleted
	var message sql.NullString
	if opErr != nil {
		status = domain.OperationStatusFailed
		text := opErr.Error()
		if len(text) > maxErrorMessageLen {
			cut := maxErrorMessageLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		message = sql.NullString{String: text, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, string(status), message, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish operation %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrOperationNotFound, id)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (r *JournalRepository) List(ctx context.Context, limit int) ([]domain.Operation, error) {
	query := `
		SELECT id, operation, resource_kind, resource_name, status,
		       error_message, request_id, created_at, completed_at
		FROM operation_history
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	ops := make([]domain.Operation, 0, limit)
	for rows.Next() {
		var (
			op          domain.Operation
			opType      string
			status      string
			message     sql.NullString
			requestID   sql.NullString
			completedAt sql.NullTime
		)
		if scanErr := rows.Scan(
			&op.ID, &opType, &op.ResourceKind, &op.ResourceName, &status,
			&message, &requestID, &op.CreatedAt, &completedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", scanErr)
		}

		op.Type = domain.OperationType(opType)
		op.Status = domain.OperationStatus(status)
		op.ErrorMessage = message.String
		op.RequestID = requestID.String
		if completedAt.Valid {
			t := completedAt.Time
			op.CompletedAt = &t
		}
		ops = append(ops, op)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", rowsErr)
	}
	return ops, nil
}
