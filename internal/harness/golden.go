package harness

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/factstore/internal/ir"
)

// FormatTrace renders a trace for golden comparison.
//
// Each event is one canonical JSON line. Facts the event wrote or
// returned follow it, indented, in canonical export form, which leaves
// out the drive-local ordinal.
func FormatTrace(trace []TraceEvent) ([]byte, error) {
	var buf bytes.Buffer
	for _, ev := range trace {
		line, err := ir.MarshalCanonicalObject(eventFields(ev))
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')

		for _, f := range ev.Facts {
			fact, err := ir.MarshalCanonical(f)
			if err != nil {
				return nil, err
			}
			buf.WriteString("  ")
			buf.Write(fact)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// eventFields flattens ev into the keys of its golden line. Unset step
// fields are left out.
func eventFields(ev TraceEvent) map[string]any {
	s := ev.Step
	m := map[string]any{
		"seq":     int64(ev.Seq),
		"phase":   ev.Phase,
		"op":      s.Op,
		"outcome": ev.Outcome,
	}
	set := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	set("drive", s.Drive)
	set("item", s.Item)
	set("attribute", s.Attribute)
	set("type", s.Type)
	set("fact_id", s.FactID)
	set("timestamp", s.Timestamp)
	set("after", s.After)
	set("before", s.Before)
	set("from", s.From)
	set("to", s.To)
	set("relationship", s.Relationship)
	set("successor", s.Successor)
	if len(s.Attributes) > 0 {
		pairs := make([]string, 0, len(s.Attributes))
		names := make([]string, 0, len(s.Attributes))
		for name := range s.Attributes {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			pairs = append(pairs, name+"="+s.Attributes[name])
		}
		m["attributes"] = strings.Join(pairs, ",")
	}
	if s.Value != nil {
		m["value"] = *s.Value
	}
	if s.Min != nil {
		m["min"] = *s.Min
	}
	if s.Max != nil {
		m["max"] = *s.Max
	}
	if s.Live {
		m["live"] = true
	}
	if len(ev.IDs) > 0 {
		m["ids"] = strings.Join(ev.IDs, ",")
	}
	if ev.Outcome == OutcomeOK && ev.Count >= 0 {
		m["count"] = int64(ev.Count)
	}
	return m
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against the golden file
// for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	trace, err := FormatTrace(result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, trace)
	return nil
}
