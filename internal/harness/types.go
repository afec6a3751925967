package harness

import (
	"fmt"

	"github.com/roach88/factstore/internal/ir"
)

// Outcome values recorded in the trace.
const (
	OutcomeOK             = "ok"
	OutcomeNotFound       = "not_found"
	OutcomeUnsupported    = "unsupported_shape"
	OutcomeWrite          = "write"
	OutcomeUnknownDrive   = "unknown_drive"
	OutcomeInvalidEdge    = "invalid_edge"
	OutcomeNoFilters      = "no_filters"
	OutcomeBadValue       = "bad_value"
	OutcomeUnknownFailure = "error"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq     int
	Phase   string // "setup" or "flow"
	Step    Step   // with bindings substituted
	Outcome string
	IDs     []string
	Facts   []ir.Fact
	Count   int // facts or ids returned by a query; -1 for writes
}

// Result holds the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	Trace  []TraceEvent
	Errors []string

	// Bindings maps "as" names to the ids they captured.
	Bindings map[string]string
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Bindings: make(map[string]string),
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
