package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docudeep/internal/model"
	"docudeep/internal/repository"
)

// CasePostgres is a PostgreSQL implementation of repository.CaseRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type CasePostgres struct {
	db *sql.DB
}

// NewCasePostgres creates a new CasePostgres repository.
func NewCasePostgres(db *sql.DB) *CasePostgres {
	return &CasePostgres{db: db}
}

var _ repository.CaseRepository = (*CasePostgres)(nil)

// Create inserts the case row and one row per document inside a single transaction.
func (r *CasePostgres) Create(ctx context.Context, rec *model.CaseRecord) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w; rollback failed: %v", err, rbErr)
			}
		}
	}()

	const qCase = `
		INSERT INTO cases (case_id, created_at, document_count)
		VALUES ($1, $2, $3)
	`
	if _, err = tx.ExecContext(ctx, qCase, rec.CaseID, rec.CreatedAt, len(rec.Documents)); err != nil {
		return fmt.Errorf("insert case: %w", err)
	}

	const qDoc = `
		INSERT INTO case_documents (document_id, case_id, position, name, type, size, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, d := range rec.Documents {
		if _, err = tx.ExecContext(ctx, qDoc,
			d.DocumentID,
			rec.CaseID,
			i,
			d.Name,
			string(d.Type),
			d.Size,
			d.Status,
		); err != nil {
			return fmt.Errorf("insert document %s: %w", d.DocumentID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteAll empties both catalog tables.
func (r *CasePostgres) DeleteAll(ctx context.Context) error {
	const q = `TRUNCATE TABLE case_documents, cases`
	_, err := r.db.ExecContext(ctx, q)
	return err
}
