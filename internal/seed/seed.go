// Package seed loads facts from seed files and writes export streams.
//
// Three input formats are accepted, chosen by file extension:
//
//	.yaml, .yml  a top-level facts: list of records
//	.cue         the same list under a facts field
//	.jsonl       an export stream produced by Export
//
// Export lines are canonical JSON with a content digest; LoadExport
// rejects any line whose digest does not match its fields.
package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
)

var (
	// ErrInvalidRecord indicates a seed record that cannot become a fact.
	ErrInvalidRecord = errors.New("invalid seed record")

	// ErrDigestMismatch indicates an export line whose digest does not
	// match its canonical content.
	ErrDigestMismatch = errors.New("digest mismatch")

	// ErrUnknownFormat indicates a file extension with no loader.
	ErrUnknownFormat = errors.New("unknown seed format")
)

// Record is one fact as written in a seed file. Drive may be empty, in
// which case the importer's default drive is used.
type Record struct {
	Drive     string  `yaml:"drive" json:"drive"`
	FactID    string  `yaml:"factId" json:"factId"`
	ItemID    string  `yaml:"itemId" json:"itemId"`
	Attribute string  `yaml:"attribute" json:"attribute"`
	Value     string  `yaml:"value" json:"value"`
	Number    float64 `yaml:"number" json:"number"`
	Type      string  `yaml:"type" json:"type"`
	Flags     int     `yaml:"flags" json:"flags"`
	Timestamp string  `yaml:"timestamp" json:"timestamp"`
}

// file is the document shape shared by YAML and CUE seeds.
type file struct {
	Facts []Record `yaml:"facts" json:"facts"`
}

// RecordError locates a bad record within its source.
type RecordError struct {
	Source string
	Index  int
	Pos    token.Pos // set for CUE sources
	Err    error
}

func (e *RecordError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: facts[%d]: %v", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Index, e.Err)
	}
	return fmt.Sprintf("%s: facts[%d]: %v", e.Source, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Fact converts r into a fact bound for a drive. An empty Drive resolves
// to defaultDrive. Ordinal is left zero; the drive assigns it.
func (r Record) Fact(defaultDrive itemstore.DriveName) (itemstore.DriveName, ir.Fact, error) {
	drive := defaultDrive
	if r.Drive != "" {
		d, err := itemstore.ParseDriveName(r.Drive)
		if err != nil {
			return "", ir.Fact{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		drive = d
	}
	if r.ItemID == "" {
		return "", ir.Fact{}, fmt.Errorf("%w: itemId is required", ErrInvalidRecord)
	}
	if r.Attribute == "" {
		return "", ir.Fact{}, fmt.Errorf("%w: attribute is required", ErrInvalidRecord)
	}
	typ := ir.FactType(r.Type)
	if typ == "" {
		typ = ir.TypeString
	}
	if !typ.Valid() {
		return "", ir.Fact{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRecord, r.Type)
	}
	if r.Timestamp != "" {
		if _, err := ir.ParseTimestamp(r.Timestamp); err != nil {
			return "", ir.Fact{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
	}
	return drive, ir.Fact{
		FactID:       r.FactID,
		ItemID:       r.ItemID,
		Attribute:    r.Attribute,
		Value:        r.Value,
		NumericValue: r.Number,
		Type:         typ,
		Flags:        ir.Flags(r.Flags),
		Timestamp:    r.Timestamp,
	}, nil
}

// RecordOf is the inverse of Record.Fact.
func RecordOf(drive itemstore.DriveName, f ir.Fact) Record {
	return Record{
		Drive:     string(drive),
		FactID:    f.FactID,
		ItemID:    f.ItemID,
		Attribute: f.Attribute,
		Value:     f.Value,
		Number:    f.NumericValue,
		Type:      string(f.Type),
		Flags:     int(f.Flags),
		Timestamp: f.Timestamp,
	}
}

// LoadFile reads records from path, picking the loader by extension.
func LoadFile(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open seed: %w", err)
		}
		defer f.Close()
		return LoadYAML(f, path)
	case ".cue":
		return LoadCUE(path)
	case ".jsonl", ".ndjson":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open seed: %w", err)
		}
		defer f.Close()
		return LoadExport(f, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}
