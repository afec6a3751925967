package itemstore

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/queryir"
	"github.com/roach88/factstore/internal/store"
)

func formatNow(c Clock) string {
	return ir.FormatTimestamp(c.Now())
}

// prepare fills the defaults of a fact about to be written.
func (s *Store) prepare(f ir.Fact, now string) ir.Fact {
	f.Ordinal = 0
	if f.Timestamp == "" {
		f.Timestamp = now
	}
	if f.Type == "" {
		f.Type = ir.TypeString
	}
	if f.FactID == "" {
		f.FactID = s.ids.Generate()
	}
	return f
}

// InsertFact writes one fact to drive and returns it as stored.
//
// An empty Timestamp is set from the store clock, an empty Type becomes
// string and an empty FactID gets a fresh id. Failures wrap ErrWrite.
func (s *Store) InsertFact(ctx context.Context, drive DriveName, f ir.Fact) (ir.Fact, error) {
	d, err := s.Drive(drive)
	if err != nil {
		return ir.Fact{}, fmt.Errorf("insert fact: %w", err)
	}

	stored, err := d.Insert(ctx, s.prepare(f, formatNow(s.clock)))
	if err != nil {
		return ir.Fact{}, err
	}

	s.logger.Debug("fact inserted", "drive", drive, "item", stored.ItemID,
		"attribute", stored.Attribute, "ordinal", stored.Ordinal)
	s.notify.publish(ChangeEvent{Drive: drive, Facts: []ir.Fact{stored}})
	return stored, nil
}

// InsertFacts writes facts to drive as one all-or-nothing batch.
//
// Defaults are filled as in InsertFact, except that facts without a
// timestamp share one clock reading and facts without a factId share one
// fresh id. Subscribers get a single event for the whole batch.
func (s *Store) InsertFacts(ctx context.Context, drive DriveName, facts []ir.Fact) ([]ir.Fact, error) {
	d, err := s.Drive(drive)
	if err != nil {
		return nil, fmt.Errorf("insert facts: %w", err)
	}
	if len(facts) == 0 {
		return []ir.Fact{}, nil
	}

	now := formatNow(s.clock)
	var factID string
	batch := make([]ir.Fact, len(facts))
	for i, f := range facts {
		if f.FactID == "" {
			if factID == "" {
				factID = s.ids.Generate()
			}
			f.FactID = factID
		}
		batch[i] = s.prepare(f, now)
	}

	stored, err := d.InsertBatch(ctx, batch)
	if err != nil {
		return nil, err
	}

	s.notify.publish(ChangeEvent{Drive: drive, Facts: stored})
	return stored, nil
}

// FetchFacts returns the facts matching every non-nil filter from both
// drives, merged newest first. itemId with value but no attribute is
// rejected with ErrUnsupportedQueryShape.
func (s *Store) FetchFacts(ctx context.Context, itemID, attribute, value *string) (*ir.FactsCollection, error) {
	return s.Fetch(ctx, queryir.FactQuery{ItemID: itemID, Attribute: attribute, Value: value})
}

// FetchFactsByValueRange returns facts whose numericValue is within
// [min, max], optionally narrowed by itemId and attribute.
func (s *Store) FetchFactsByValueRange(ctx context.Context, itemID, attribute *string, min, max float64) (*ir.FactsCollection, error) {
	return s.Fetch(ctx, queryir.ValueRangeQuery{ItemID: itemID, Attribute: attribute, Min: min, Max: max})
}

// FetchFactsByDate returns facts with timestamps in [atOrAfter, atOrBefore].
// Both bounds are required.
func (s *Store) FetchFactsByDate(ctx context.Context, atOrAfter, atOrBefore *string) (*ir.FactsCollection, error) {
	return s.Fetch(ctx, queryir.DateRangeQuery{AtOrAfter: atOrAfter, AtOrBefore: atOrBefore})
}

// Fetch runs q against both drives concurrently and merges the results.
func (s *Store) Fetch(ctx context.Context, q queryir.Query) (*ir.FactsCollection, error) {
	if _, err := queryir.Plan(q); err != nil {
		return nil, err
	}

	var user, system *ir.FactsCollection
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		user, err = s.user.Fetch(egCtx, q)
		return err
	})
	eg.Go(func() error {
		var err error
		system, err = s.system.Fetch(egCtx, q)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return ir.Merge(user, system), nil
}

// FetchMostRecentFact returns the newest fact for (itemID, attribute)
// across both drives. On a timestamp tie between drives the user drive
// wins. Returns ErrNotFound when neither drive has one.
func (s *Store) FetchMostRecentFact(ctx context.Context, itemID, attribute string) (ir.Fact, error) {
	var results [2]ir.Fact
	var found [2]bool

	eg, egCtx := errgroup.WithContext(ctx)
	for i, d := range []*store.Drive{s.user, s.system} {
		i, d := i, d
		eg.Go(func() error {
			f, err := d.MostRecent(egCtx, itemID, attribute)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i], found[i] = f, true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return ir.Fact{}, err
	}

	switch {
	case found[0] && found[1]:
		if results[1].Timestamp > results[0].Timestamp {
			return results[1], nil
		}
		return results[0], nil
	case found[0]:
		return results[0], nil
	case found[1]:
		return results[1], nil
	}
	return ir.Fact{}, fmt.Errorf("most recent %s.%s: %w", itemID, attribute, ErrNotFound)
}

// FactsAfter returns the facts of drive appended after ordinal, oldest
// first. Ordinals are per drive, so the result is never merged.
func (s *Store) FactsAfter(ctx context.Context, drive DriveName, ordinal int64) (*ir.FactsCollection, error) {
	d, err := s.Drive(drive)
	if err != nil {
		return nil, fmt.Errorf("facts after: %w", err)
	}
	return d.After(ctx, ordinal)
}

// LastOrdinal returns the highest ordinal written to drive, or 0.
func (s *Store) LastOrdinal(ctx context.Context, drive DriveName) (int64, error) {
	d, err := s.Drive(drive)
	if err != nil {
		return 0, fmt.Errorf("last ordinal: %w", err)
	}
	return d.LastOrdinal(ctx)
}
