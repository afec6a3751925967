package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
)

// Result counts the facts written per drive.
type Result struct {
	Written map[itemstore.DriveName]int
}

// Total returns the number of facts written across drives.
func (r Result) Total() int {
	n := 0
	for _, c := range r.Written {
		n += c
	}
	return n
}

// Import validates every record, then writes the facts of each drive as
// one batch. Nothing is written if any record is invalid. Drives are
// written user first; a failure on the system drive leaves the user batch
// committed.
//
// Each record is its own edit: a record without a factId gets a fresh one,
// so removing one imported fact leaves the others live.
func Import(ctx context.Context, s *itemstore.Store, records []Record, defaultDrive itemstore.DriveName, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res := Result{Written: map[itemstore.DriveName]int{}}
	if _, err := itemstore.ParseDriveName(string(defaultDrive)); err != nil {
		return res, err
	}

	drives := make([]itemstore.DriveName, len(records))
	facts := make([]ir.Fact, len(records))
	for i, rec := range records {
		drive, f, err := rec.Fact(defaultDrive)
		if err != nil {
			return res, &RecordError{Source: "import", Index: i, Err: err}
		}
		drives[i], facts[i] = drive, f
	}

	batches := map[itemstore.DriveName][]ir.Fact{}
	for i, f := range facts {
		if f.FactID == "" {
			f.FactID = s.NewID()
		}
		batches[drives[i]] = append(batches[drives[i]], f)
	}

	for _, drive := range itemstore.Drives {
		batch := batches[drive]
		if len(batch) == 0 {
			continue
		}
		stored, err := s.InsertFacts(ctx, drive, batch)
		if err != nil {
			return res, fmt.Errorf("import into %s: %w", drive, err)
		}
		res.Written[drive] = len(stored)
		logger.Debug("seed batch written", "drive", drive, "facts", len(stored))
	}
	return res, nil
}
