package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/factstore/internal/ir"
)

// createTestDrive opens a file-backed drive in a temp dir.
func createTestDrive(t *testing.T) *Drive {
	t.Helper()
	return createTestDriveWithEngine(t, EngineCGO)
}

func createTestDriveWithEngine(t *testing.T, engine Engine) *Drive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user.sqlite")
	d, err := Open(context.Background(), "user", path, Options{Engine: engine})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// testFact creates a string fact with the minimal required fields.
func testFact(itemID, attribute, value, timestamp string) ir.Fact {
	return ir.Fact{
		FactID:    "fact-" + itemID + "-" + attribute,
		ItemID:    itemID,
		Attribute: attribute,
		Value:     value,
		Type:      ir.TypeString,
		Timestamp: timestamp,
	}
}

func numberFact(itemID, attribute string, n float64, timestamp string) ir.Fact {
	f := testFact(itemID, attribute, "", timestamp)
	ir.Number(n).Apply(&f)
	return f
}

func mustInsert(t *testing.T, d *Drive, f ir.Fact) ir.Fact {
	t.Helper()
	stored, err := d.Insert(context.Background(), f)
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	return stored
}

func ordinals(c *ir.FactsCollection) []int64 {
	out := make([]int64, 0, c.Len())
	for _, f := range c.Facts() {
		out = append(out, f.Ordinal)
	}
	return out
}
