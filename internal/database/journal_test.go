//nolint:testpackage // Testing internal repository requires same package access
package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*JournalRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewJournalRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestJournalRepository_Begin(t *testing.T) {
	t.Helper()

	repo, mock := newTestRepo(t)

	mock.ExpectQuery("INSERT INTO operation_history").
		WithArgs("create_indexer", "indexer", "blob-indexer", "pending", "req-1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	op := &domain.Operation{
		Type:         domain.OperationCreateIndexer,
		ResourceKind: domain.ResourceIndexer,
		ResourceName: "blob-indexer",
		RequestID:    "req-1",
	}
	id, err := repo.Begin(context.Background(), op)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if id != 42 || op.ID != 42 {
		t.Errorf("Begin() id = %d, op.ID = %d, want 42", id, op.ID)
	}
	if op.Status != domain.OperationStatusPending {
		t.Errorf("status = %q, want pending", op.Status)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestJournalRepository_FinishFailed(t *testing.T) {
	t.Helper()

	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE operation_history").
		WithArgs("failed", "search unavailable", fixedNow, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), 7, errors.New("search unavailable")); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestJournalRepository_FinishTruncatesMessage(t *testing.T) {
	t.Helper()

	repo, mock := newTestRepo(t)
	long := strings.Repeat("x", maxErrorMessageLen+10)

	mock.ExpectExec("UPDATE operation_history").
		WithArgs("failed", long[:maxErrorMessageLen], fixedNow, int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), 8, errors.New(long)); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestJournalRepository_FinishTruncatesOnRuneBoundary(t *testing.T) {
	t.Helper()

	repo, mock := newTestRepo(t)
	// One ASCII byte shifts every two-byte rune so the cap lands mid-rune.
	long := "x" + strings.Repeat("é", maxErrorMessageLen/2)
	want := "x" + strings.Repeat("é", maxErrorMessageLen/2-1)

	if !utf8.ValidString(want) || len(want) > maxErrorMessageLen {
		t.Fatalf("bad fixture: len %d", len(want))
	}

	mock.ExpectExec("UPDATE operation_history").
		WithArgs("failed", want, fixedNow, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), 10, errors.New(long)); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestJournalRepository_FinishUnknown(t *testing.T) {
	t.Helper()

	repo, mock := newTestRepo(t)

	mock.ExpectExec("UPDATE operation_history").
		WithArgs("completed", nil, fixedNow, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finish(context.Background(), 9, nil)
	if !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("Finish() error = %v, want ErrOperationNotFound", err)
	}
}

func TestJournalRepository_List(t *testing.T) {
	t.Helper()

	repo, mock := newTestRepo(t)
	completed := fixedNow.Add(time.Second)

	rows := sqlmock.NewRows([]string{
		"id", "operation", "resource_kind", "resource_name", "status",
		"error_message", "request_id", "created_at", "completed_at",
	}).
		AddRow(2, "delete_indexer", "indexer", "ix", "failed", "boom", nil, fixedNow, completed).
		AddRow(1, "create_indexer", "indexer", "ix", "pending", nil, "req-1", fixedNow, nil)

	mock.ExpectQuery("SELECT (.+) FROM operation_history").
		WithArgs(10).
		WillReturnRows(rows)

	ops, err := repo.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("List() len = %d, want 2", len(ops))
	}
	if ops[0].Type != domain.OperationDeleteIndexer || ops[0].ErrorMessage != "boom" {
		t.Errorf("ops[0] = %+v", ops[0])
	}
	if ops[0].CompletedAt == nil || !ops[0].CompletedAt.Equal(completed) {
		t.Errorf("ops[0].CompletedAt = %v, want %v", ops[0].CompletedAt, completed)
	}
	if ops[1].CompletedAt != nil || ops[1].RequestID != "req-1" {
		t.Errorf("ops[1] = %+v", ops[1])
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}
