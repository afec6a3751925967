package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factstore/internal/ir"
)

func TestGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"todo_lifecycle", "relationships", "item_lifecycle"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestFormatTrace_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/todo_lifecycle.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := FormatTrace(first.Trace)
	require.NoError(t, err)
	b, err := FormatTrace(second.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestFormatTrace_Event(t *testing.T) {
	trace := []TraceEvent{
		{
			Seq: 1, Phase: "flow", Outcome: OutcomeOK, Count: 1,
			Step: Step{Op: OpRecent, Item: "i1", Attribute: "name"},
			Facts: []ir.Fact{{
				Ordinal: 9, FactID: "f-1", ItemID: "i1", Attribute: "name", Value: "A&B",
				Type: ir.TypeString, Timestamp: "2024-01-01 09:00:00",
			}},
		},
		{
			Seq: 2, Phase: "flow", Outcome: OutcomeNotFound, Count: -1,
			Step: Step{Op: OpRecent, Item: "i1", Attribute: "age"},
		},
	}

	got, err := FormatTrace(trace)
	require.NoError(t, err)
	want := `{"attribute":"name","count":1,"item":"i1","op":"recent","outcome":"ok","phase":"flow","seq":1}
  {"attribute":"name","fact_id":"f-1","flags":0,"item_id":"i1","numeric_value":0,"timestamp":"2024-01-01 09:00:00","type":"string","value":"A&B"}
{"attribute":"age","item":"i1","op":"recent","outcome":"not_found","phase":"flow","seq":2}
`
	assert.Equal(t, want, string(got))
}
