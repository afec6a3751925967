package seed

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes a YAML seed document. source names the input in errors.
// Unknown keys are rejected so that typos do not silently drop fields.
func LoadYAML(r io.Reader, source string) ([]Record, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	if doc.Facts == nil {
		return []Record{}, nil
	}
	return doc.Facts, nil
}
