package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequence is the store-wide counter that orders messages and LLM events.
// Two messages appended in the same clock tick still get distinct values.
type sequence struct {
	mu sync.Mutex
	db *sql.DB
}

func openSequence(ctx context.Context, db *sql.DB) (*sequence, error) {
	query, args := builder().Insert(globalSequenceTable.Name).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.DoNothing()).
		Query()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequence{db: db}, nil
}

// Next reserves and returns the next value.
func (q *sequence) Next(ctx context.Context) (n int64, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sequence tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	sel, args := builder().Select("next_val").
		From(entsql.Table(globalSequenceTable.Name)).
		Where(entsql.EQ("id", 1)).
		Query()
	if err = tx.QueryRowContext(ctx, sel, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}

	upd, args := builder().Update(globalSequenceTable.Name).
		Set("next_val", n+1).
		Where(entsql.EQ("id", 1)).
		Query()
	if _, err = tx.ExecContext(ctx, upd, args...); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sequence: %w", err)
	}
	return n, nil
}
