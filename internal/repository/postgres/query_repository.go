package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/repository"
)

const (
	defaultQueryMaxRows  = 1000
	readOnlyQueryTimeout = 15 * time.Second
	// server side bound, below the client timeout
	statementTimeout = "SET LOCAL statement_timeout = '10s'"
)

type readOnlyQuerier struct {
	db *DB
}

// NewReadOnlyQuerier runs ad hoc analytics SQL inside read-only transactions.
func NewReadOnlyQuerier(db *DB) repository.ReadOnlyQuerier {
	return &readOnlyQuerier{db: db}
}

func (q *readOnlyQuerier) QueryReadOnly(ctx context.Context, query string, maxRows int) (*domain.QueryResult, error) {
	if maxRows <= 0 {
		maxRows = defaultQueryMaxRows
	}

	ctx, cancel := context.WithTimeout(ctx, readOnlyQueryTimeout)
	defer cancel()

	if err := q.db.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer q.db.sem.Release(1)

	tx, err := q.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("error starting read-only transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, statementTimeout); err != nil {
		return nil, fmt.Errorf("error setting statement timeout: %w", err)
	}

	rows, err := tx.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error running query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}

	result := &domain.QueryResult{Columns: columns, Rows: [][]interface{}{}}
	for rows.Next() {
		if len(result.Rows) == maxRows {
			result.Truncated = true
			break
		}
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// normalizeValues turns driver byte slices (numeric, text) into strings so rows
// encode as readable JSON.
func normalizeValues(values []interface{}) []interface{} {
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values
}
