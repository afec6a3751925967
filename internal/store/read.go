package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/queryir"
)

// Fetch runs q against this drive using the prepared statement of its shape.
//
// Returns an empty collection (not nil) when nothing matches. Unsupported
// filter combinations fail with queryir.ErrUnsupportedQueryShape before any
// statement runs.
func (d *Drive) Fetch(ctx context.Context, q queryir.Query) (*ir.FactsCollection, error) {
	shape, err := queryir.Plan(q)
	if err != nil {
		return nil, err
	}
	args, err := queryir.Args(q, shape)
	if err != nil {
		return nil, err
	}
	facts, err := d.query(ctx, shape, args)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", shape, d.name, err)
	}
	return ir.NewFactsCollection(facts...), nil
}

// MostRecent returns the newest fact for (itemID, attribute), breaking
// timestamp ties by ordinal. Returns ErrNotFound when none exists.
func (d *Drive) MostRecent(ctx context.Context, itemID, attribute string) (ir.Fact, error) {
	facts, err := d.query(ctx, queryir.ShapeMostRecent, []any{itemID, attribute})
	if err != nil {
		return ir.Fact{}, fmt.Errorf("most recent %s.%s from %s: %w", itemID, attribute, d.name, err)
	}
	if len(facts) == 0 {
		return ir.Fact{}, fmt.Errorf("most recent %s.%s from %s: %w", itemID, attribute, d.name, ErrNotFound)
	}
	return facts[0], nil
}

// query executes the statement of shape and scans every row.
func (d *Drive) query(ctx context.Context, shape queryir.Shape, args []any) ([]ir.Fact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	stmt, ok := d.stmts[shape]
	if !ok {
		return nil, fmt.Errorf("no statement for shape %s", shape)
	}
	return scanAll(ctx, stmt, args...)
}

// After returns the facts appended after ordinal, oldest first.
func (d *Drive) After(ctx context.Context, ordinal int64) (*ir.FactsCollection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	facts, err := scanAll(ctx, d.after, ordinal)
	if err != nil {
		return nil, fmt.Errorf("facts after %d from %s: %w", ordinal, d.name, err)
	}
	return ir.NewFactsCollection(facts...), nil
}

// LastOrdinal returns the highest ordinal assigned so far, or 0 when the
// drive is empty.
func (d *Drive) LastOrdinal(ctx context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}

	var last int64
	if err := d.last.QueryRowContext(ctx).Scan(&last); err != nil {
		return 0, fmt.Errorf("last ordinal of %s: %w", d.name, err)
	}
	return last, nil
}

// scanAll runs stmt and scans every row. The caller holds d.mu.
func scanAll(ctx context.Context, stmt *sql.Stmt, args ...any) ([]ir.Fact, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	facts := []ir.Fact{}
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return facts, nil
}

// scanFact reads one row in querysql.Columns order.
func scanFact(rows *sql.Rows) (ir.Fact, error) {
	var (
		f        ir.Fact
		factType string
		flags    int64
	)
	err := rows.Scan(
		&f.Ordinal,
		&f.FactID,
		&f.ItemID,
		&f.Attribute,
		&f.Value,
		&f.NumericValue,
		&factType,
		&flags,
		&f.Timestamp,
	)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("scan fact: %w", err)
	}
	f.Type = ir.FactType(factType)
	f.Flags = ir.Flags(flags)
	return f, nil
}

// Debug exposes administrative operations that bypass the append-only
// contract. Only tooling should call it.
func (d *Drive) Debug() *Debug {
	return &Debug{d: d}
}

// Debug is the administrative surface of a drive.
type Debug struct {
	d *Drive
}

// AllFacts returns every fact in the drive, newest ordinal first.
func (x *Debug) AllFacts(ctx context.Context) (*ir.FactsCollection, error) {
	all, err := x.d.After(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("all facts: %w", err)
	}
	facts := all.Facts()
	slices.Reverse(facts)
	return ir.NewFactsCollection(facts...), nil
}

// RemoveByOrdinal physically deletes one fact. Returns ErrNotFound if no
// fact has that ordinal. The ordinal is not reused afterwards.
func (x *Debug) RemoveByOrdinal(ctx context.Context, ordinal int64) error {
	d := x.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	result, err := d.remove.ExecContext(ctx, ordinal)
	if err != nil {
		return fmt.Errorf("remove ordinal %d from %s: %w", ordinal, d.name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove ordinal %d from %s: %w", ordinal, d.name, err)
	}
	if n == 0 {
		return fmt.Errorf("remove ordinal %d from %s: %w", ordinal, d.name, ErrNotFound)
	}
	d.logger.Debug("fact removed by ordinal", "ordinal", ordinal)
	return nil
}
