package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
)

// optionalString returns the flag value only if the user set it, so that
// "--value ''" filters on the empty string while an absent flag does not.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

func parseDrive(s string) (itemstore.DriveName, error) {
	d, err := itemstore.ParseDriveName(s)
	if err != nil {
		return "", usageError("--drive %q: want user or system", s)
	}
	return d, nil
}

// parseTypedValue builds a TypedValue from its textual form.
// null takes no text; all other types require one.
func parseTypedValue(typ string, text *string) (ir.TypedValue, error) {
	t := ir.FactType(typ)
	if !t.Valid() {
		return ir.TypedValue{}, usageError("--type %q: unknown fact type", typ)
	}
	if t == ir.TypeNull {
		return ir.Null(), nil
	}
	if text == nil {
		return ir.TypedValue{}, usageError("a value is required for type %s", typ)
	}

	v, err := ir.ParseTypedValue(t, *text)
	if err != nil {
		return ir.TypedValue{}, usageError("%v", err)
	}
	return v, nil
}

// stringAttributes parses repeated name=value flags into string values.
func stringAttributes(pairs []string) (map[string]ir.TypedValue, error) {
	assignments, err := parseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ir.TypedValue, len(assignments))
	for _, a := range assignments {
		out[a.Attribute] = ir.String(a.Value)
	}
	return out, nil
}
