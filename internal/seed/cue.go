package seed

import (
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadCUE evaluates a CUE seed file and decodes its facts list.
// The file may use any CUE feature (definitions, defaults, comprehensions)
// as long as facts evaluates to a concrete list of records.
func LoadCUE(path string) ([]Record, error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: filepath.Dir(path)}
	instances := load.Instances([]string{filepath.Base(path)}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("load %s: no CUE instances loaded", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load %s: %w", path, inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}

	factsVal := value.LookupPath(cue.ParsePath("facts"))
	if !factsVal.Exists() {
		return []Record{}, nil
	}

	iter, err := factsVal.List()
	if err != nil {
		return nil, fmt.Errorf("%s: facts must be a list: %w", path, err)
	}

	records := []Record{}
	for i := 0; iter.Next(); i++ {
		elem := iter.Value()
		var rec Record
		if err := elem.Decode(&rec); err != nil {
			return nil, &RecordError{Source: path, Index: i, Pos: elem.Pos(), Err: fmt.Errorf("%w: %w", ErrInvalidRecord, err)}
		}
		records = append(records, rec)
	}
	return records, nil
}
