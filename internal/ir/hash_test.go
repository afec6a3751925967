package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactDigestDeterministic(t *testing.T) {
	f := sampleFact()
	d1, err := FactDigest(f)
	require.NoError(t, err)
	d2, err := FactDigest(f)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestFactDigestIgnoresOrdinal(t *testing.T) {
	a := sampleFact()
	b := sampleFact()
	b.Ordinal = a.Ordinal + 100
	assert.Equal(t, MustFactDigest(a), MustFactDigest(b))
}

func TestFactDigestSensitiveToContent(t *testing.T) {
	base := sampleFact()

	tests := []struct {
		name   string
		mutate func(*Fact)
	}{
		{"value", func(f *Fact) { f.Value = "Bob" }},
		{"flags", func(f *Fact) { f.Flags = FlagRemoved }},
		{"timestamp", func(f *Fact) { f.Timestamp = "2024-01-01 10:00:01" }},
		{"fact id", func(f *Fact) { f.FactID = "f-2" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			assert.NotEqual(t, MustFactDigest(base), MustFactDigest(f))
		})
	}
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain("a", data), hashWithDomain("b", data))
	// "ab"+0x00+"" differs from "a"+0x00+"b".
	assert.NotEqual(t, hashWithDomain("ab", nil), hashWithDomain("a", []byte("b")))
}

func TestMarshalExport(t *testing.T) {
	f := sampleFact()
	line, err := MarshalExport(f)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.Equal(t, MustFactDigest(f), decoded["digest"])
	assert.Equal(t, "Alice", decoded["value"])

	// digest sorts between attribute and fact_id.
	assert.Regexp(t, `^\{"attribute":"name","digest":"[0-9a-f]{64}","fact_id"`, string(line))
}
