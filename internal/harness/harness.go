package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/relation"
	"github.com/roach88/factstore/internal/store"
	"github.com/roach88/factstore/internal/testutil"
)

// Options tune a scenario run.
type Options struct {
	// Engine selects the SQLite driver. Empty means the default engine.
	Engine store.Engine

	// Logger receives store debug events. Nil discards them.
	Logger *slog.Logger
}

// Run executes a scenario against a fresh in-memory store.
//
// Expectation and assertion failures are collected in the Result. The
// returned error is reserved for runs that could not proceed: an invalid
// scenario, a store that would not open or a failing setup step.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), scenario, Options{})
}

// RunWithOptions is Run with an explicit context and options.
func RunWithOptions(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s, err := itemstore.Open(ctx, itemstore.Options{
		InMemory: true,
		Engine:   opts.Engine,
		Clock:    testutil.NewDeterministicClock(),
		IDs:      testutil.NewSequenceGenerator("id"),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	defer s.Close()

	r := &runner{
		ctx:    ctx,
		store:  s,
		graph:  relation.New(s),
		result: NewResult(),
	}

	for i, step := range scenario.Setup {
		ev := r.exec("setup", step)
		if ev.Outcome != OutcomeOK {
			return nil, fmt.Errorf("setup[%d] %s failed: %s", i, step.Op, ev.Outcome)
		}
	}
	for i, step := range scenario.Flow {
		ev := r.exec("flow", step)
		r.checkExpect(i, ev)
	}
	for i, a := range scenario.Assertions {
		r.assert(i, r.bindAssertion(a))
	}
	return r.result, nil
}

type runner struct {
	ctx    context.Context
	store  *itemstore.Store
	graph  *relation.Graph
	result *Result
	seq    int
}

// stepOutput is what a successful step produced.
type stepOutput struct {
	ids   []string
	facts []ir.Fact
	count int
}

func (r *runner) exec(phase string, raw Step) TraceEvent {
	step := r.bindStep(raw)
	r.seq++

	out, err := r.apply(step)
	ev := TraceEvent{
		Seq:     r.seq,
		Phase:   phase,
		Step:    step,
		Outcome: classify(err),
		Count:   -1,
	}
	if err == nil {
		ev.IDs = out.ids
		ev.Facts = out.facts
		ev.Count = out.count
		if step.As != "" && len(out.ids) > 0 {
			r.result.Bindings[step.As] = out.ids[0]
		}
	} else if ev.Outcome == OutcomeUnknownFailure {
		r.result.AddError("%s #%d %s: %v", phase, ev.Seq, step.Op, err)
	}
	r.result.Trace = append(r.result.Trace, ev)
	return ev
}

func (r *runner) apply(step Step) (stepOutput, error) {
	ctx := r.ctx
	drive := itemstore.DriveName(step.Drive)
	write := func(f ir.Fact, err error) (stepOutput, error) {
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{facts: []ir.Fact{f}, count: -1}, nil
	}
	read := func(c *ir.FactsCollection, err error) (stepOutput, error) {
		if err != nil {
			return stepOutput{}, err
		}
		if step.Live {
			if c, err = r.store.Live(ctx, c); err != nil {
				return stepOutput{}, err
			}
		}
		return stepOutput{facts: c.Facts(), count: c.Len()}, nil
	}

	switch step.Op {
	case OpInsert, OpDefine:
		v, err := stepValue(step)
		if err != nil {
			return stepOutput{}, err
		}
		if step.Op == OpDefine {
			return write(r.store.Define(ctx, drive, step.Item, step.Attribute, v))
		}
		f := ir.Fact{FactID: step.FactID, ItemID: step.Item, Attribute: step.Attribute, Timestamp: step.Timestamp}
		v.Apply(&f)
		return write(r.store.InsertFact(ctx, drive, f))

	case OpCreate:
		item := itemstore.NewItem{ID: step.Item, Type: step.Type}
		if len(step.Attributes) > 0 {
			item.Attributes = make(map[string]ir.TypedValue, len(step.Attributes))
			for name, v := range step.Attributes {
				item.Attributes[name] = ir.String(v)
			}
		}
		if step.From != "" {
			item.Reference = &itemstore.Reference{From: step.From, Type: step.Relationship}
		}
		created, err := r.store.Create(ctx, drive, item)
		if err != nil {
			return stepOutput{}, err
		}
		ids := []string{created.ItemID}
		if created.RelationshipID != "" {
			ids = append(ids, created.RelationshipID)
		}
		return stepOutput{ids: ids, count: -1}, nil

	case OpRemove:
		latest, err := r.store.FetchMostRecentFact(ctx, step.Item, step.Attribute)
		if err != nil {
			return stepOutput{}, err
		}
		return write(r.store.RemoveFact(ctx, drive, latest))

	case OpRestore:
		latest, err := r.store.FetchMostRecentFact(ctx, step.Item, step.Attribute)
		if err != nil {
			return stepOutput{}, err
		}
		if !latest.Removed() {
			return stepOutput{}, fmt.Errorf("%s.%s is not removed: %w", step.Item, step.Attribute, itemstore.ErrNotFound)
		}
		return write(r.store.RemoveFact(ctx, drive, latest))

	case OpDelete:
		stored, err := r.store.DeleteItem(ctx, drive, step.Item, step.Successor)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{ids: []string{stored[0].FactID}, count: -1}, nil

	case OpRelate:
		id, err := r.graph.Relate(ctx, drive, step.From, step.To, step.Relationship)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{ids: []string{id}, count: -1}, nil

	case OpFetch:
		return read(r.store.FetchFacts(ctx, optional(step.Item), optional(step.Attribute), step.Value))

	case OpRange:
		return read(r.store.FetchFactsByValueRange(ctx, optional(step.Item), optional(step.Attribute), *step.Min, *step.Max))

	case OpDates:
		return read(r.store.FetchFactsByDate(ctx, optional(step.After), optional(step.Before)))

	case OpRecent:
		f, err := r.store.FetchMostRecentFact(ctx, step.Item, step.Attribute)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{facts: []ir.Fact{f}, count: 1}, nil

	case OpFindRel:
		ids, err := r.graph.FindRel(ctx, relation.Filter{
			FromItemID:       optional(step.From),
			ToItemID:         optional(step.To),
			RelationshipType: optional(step.Relationship),
		})
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{ids: ids, count: len(ids)}, nil
	}
	return stepOutput{}, fmt.Errorf("unknown op %q", step.Op)
}

func (r *runner) checkExpect(i int, ev TraceEvent) {
	want := ev.Step.Expect
	wantErr := ""
	if want != nil {
		wantErr = want.Error
	}

	switch {
	case wantErr == "" && ev.Outcome != OutcomeOK:
		if ev.Outcome != OutcomeUnknownFailure {
			r.result.AddError("flow[%d] %s: unexpected %s", i, ev.Step.Op, ev.Outcome)
		}
		return
	case wantErr != "" && ev.Outcome != wantErr:
		r.result.AddError("flow[%d] %s: expected %s, got %s", i, ev.Step.Op, wantErr, ev.Outcome)
		return
	case want == nil || wantErr != "":
		return
	}

	if want.Count != nil && ev.Count != *want.Count {
		r.result.AddError("flow[%d] %s: expected count %d, got %d", i, ev.Step.Op, *want.Count, ev.Count)
	}
	if want.Values != nil {
		got := make([]string, len(ev.Facts))
		for j, f := range ev.Facts {
			got[j] = displayValue(f)
		}
		if !slices.Equal(want.Values, got) {
			r.result.AddError("flow[%d] %s: expected values %q, got %q", i, ev.Step.Op, want.Values, got)
		}
	}
	if want.IDs != nil && !slices.Equal(want.IDs, ev.IDs) {
		r.result.AddError("flow[%d] %s: expected ids %q, got %q", i, ev.Step.Op, want.IDs, ev.IDs)
	}
}

// classify maps a step error to its outcome name.
func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, relation.ErrInvalidEdge):
		return OutcomeInvalidEdge
	case errors.Is(err, relation.ErrNoFilters):
		return OutcomeNoFilters
	case errors.Is(err, itemstore.ErrUnknownDrive):
		return OutcomeUnknownDrive
	case errors.Is(err, itemstore.ErrUnsupportedQueryShape):
		return OutcomeUnsupported
	case errors.Is(err, itemstore.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, itemstore.ErrWrite):
		return OutcomeWrite
	case errors.Is(err, ir.ErrBadValue):
		return OutcomeBadValue
	}
	return OutcomeUnknownFailure
}

// bindStep substitutes ${name} references in a copy of step.
func (r *runner) bindStep(step Step) Step {
	b := r.binder()
	step.Item = b.Replace(step.Item)
	step.Attribute = b.Replace(step.Attribute)
	step.FactID = b.Replace(step.FactID)
	step.From = b.Replace(step.From)
	step.To = b.Replace(step.To)
	step.Relationship = b.Replace(step.Relationship)
	step.Successor = b.Replace(step.Successor)
	if step.Attributes != nil {
		attrs := make(map[string]string, len(step.Attributes))
		for name, v := range step.Attributes {
			attrs[name] = b.Replace(v)
		}
		step.Attributes = attrs
	}
	if step.Value != nil {
		v := b.Replace(*step.Value)
		step.Value = &v
	}
	if step.Expect != nil {
		e := *step.Expect
		e.Values = replaceAll(b, e.Values)
		e.IDs = replaceAll(b, e.IDs)
		step.Expect = &e
	}
	return step
}

func (r *runner) bindAssertion(a Assertion) Assertion {
	b := r.binder()
	a.Item = b.Replace(a.Item)
	a.Attribute = b.Replace(a.Attribute)
	a.Value = b.Replace(a.Value)
	a.From = b.Replace(a.From)
	a.To = b.Replace(a.To)
	a.Relationship = b.Replace(a.Relationship)
	return a
}

func (r *runner) binder() *strings.Replacer {
	pairs := make([]string, 0, 2*len(r.result.Bindings))
	for name, id := range r.result.Bindings {
		pairs = append(pairs, "${"+name+"}", id)
	}
	return strings.NewReplacer(pairs...)
}

func replaceAll(b *strings.Replacer, in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = b.Replace(s)
	}
	return out
}

func stepValue(step Step) (ir.TypedValue, error) {
	typ := ir.FactType(step.Type)
	if typ == "" {
		typ = ir.TypeString
	}
	text := ""
	if step.Value != nil {
		text = *step.Value
	}
	return ir.ParseTypedValue(typ, text)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// displayValue renders a fact's value the way scenarios spell it.
func displayValue(f ir.Fact) string {
	if f.Type == ir.TypeNumber {
		return strconv.FormatFloat(f.NumericValue, 'g', -1, 64)
	}
	return f.Value
}
