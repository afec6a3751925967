package seed

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/roach88/factstore/internal/ir"
)

// Export writes one canonical JSON line per fact, oldest ordinal first, so
// that importing the stream into an empty drive reproduces its order.
func Export(w io.Writer, c *ir.FactsCollection) (int, error) {
	facts := slices.Clone(c.Facts())
	slices.SortStableFunc(facts, func(a, b ir.Fact) int {
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})

	bw := bufio.NewWriter(w)
	for i, f := range facts {
		line, err := ir.MarshalExport(f)
		if err != nil {
			return i, fmt.Errorf("export %s: %w", f, err)
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(facts), nil
}

// exportLine mirrors the keys written by ir.MarshalExport.
type exportLine struct {
	Attribute    string  `json:"attribute"`
	FactID       string  `json:"fact_id"`
	Flags        int     `json:"flags"`
	ItemID       string  `json:"item_id"`
	NumericValue float64 `json:"numeric_value"`
	Timestamp    string  `json:"timestamp"`
	Type         string  `json:"type"`
	Value        string  `json:"value"`
	Digest       string  `json:"digest"`
}

// LoadExport reads an export stream. Every line's digest is recomputed and
// compared; records come back without a drive.
func LoadExport(r io.Reader, source string) ([]Record, error) {
	records := []Record{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for lineNo := 1; sc.Scan(); lineNo++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		var line exportLine
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w: %w", source, lineNo, ErrInvalidRecord, err)
		}

		f := ir.Fact{
			FactID:       line.FactID,
			ItemID:       line.ItemID,
			Attribute:    line.Attribute,
			Value:        line.Value,
			NumericValue: line.NumericValue,
			Type:         ir.FactType(line.Type),
			Flags:        ir.Flags(line.Flags),
			Timestamp:    line.Timestamp,
		}
		digest, err := ir.FactDigest(f)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
		if digest != line.Digest {
			return nil, fmt.Errorf("%s:%d: %w: have %s, computed %s", source, lineNo, ErrDigestMismatch, line.Digest, digest)
		}
		records = append(records, RecordOf("", f))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return records, nil
}
