package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/factstore/internal/ir"
)

// Insert appends one fact and returns it with its assigned ordinal.
//
// The fact is written exactly as given; callers fill in defaults
// (timestamp, type, factId) beforehand. Failures wrap ErrWrite.
func (d *Drive) Insert(ctx context.Context, f ir.Fact) (ir.Fact, error) {
	if err := validateFact(f); err != nil {
		return ir.Fact{}, fmt.Errorf("insert fact: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ir.Fact{}, fmt.Errorf("insert fact: %w: %w", ErrWrite, ErrClosed)
	}

	ordinal, err := execInsert(ctx, d.insert, f)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("insert fact: %w: %w", ErrWrite, err)
	}
	f.Ordinal = ordinal
	return f, nil
}

// InsertBatch appends facts in one transaction. Either every fact is stored
// or none is. The returned facts carry their ordinals, in input order.
func (d *Drive) InsertBatch(ctx context.Context, facts []ir.Fact) ([]ir.Fact, error) {
	if len(facts) == 0 {
		return []ir.Fact{}, nil
	}
	for i, f := range facts {
		if err := validateFact(f); err != nil {
			return nil, fmt.Errorf("insert batch: fact %d: %w", i, err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("insert batch: %w: %w", ErrWrite, ErrClosed)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("insert batch: begin tx: %w: %w", ErrWrite, err)
	}
	defer tx.Rollback() // No-op if committed

	stmt := tx.StmtContext(ctx, d.insert)
	defer stmt.Close()

	stored := make([]ir.Fact, len(facts))
	for i, f := range facts {
		ordinal, err := execInsert(ctx, stmt, f)
		if err != nil {
			return nil, fmt.Errorf("insert batch: fact %d: %w: %w", i, ErrWrite, err)
		}
		f.Ordinal = ordinal
		stored[i] = f
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("insert batch: commit: %w: %w", ErrWrite, err)
	}

	d.logger.Debug("batch committed", "facts", len(stored),
		"first_ordinal", stored[0].Ordinal, "last_ordinal", stored[len(stored)-1].Ordinal)
	return stored, nil
}

func execInsert(ctx context.Context, stmt *sql.Stmt, f ir.Fact) (int64, error) {
	result, err := stmt.ExecContext(ctx,
		f.FactID,
		f.ItemID,
		f.Attribute,
		f.Value,
		f.NumericValue,
		string(f.Type),
		int64(f.Flags),
		f.Timestamp,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// validateFact rejects facts that cannot be addressed by any lookup.
func validateFact(f ir.Fact) error {
	switch {
	case f.ItemID == "":
		return fmt.Errorf("%w: empty itemId", ErrWrite)
	case f.Attribute == "":
		return fmt.Errorf("%w: empty attribute", ErrWrite)
	case f.Timestamp == "":
		return fmt.Errorf("%w: empty timestamp", ErrWrite)
	}
	return nil
}
