package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedGenerator_InOrder(t *testing.T) {
	gen := NewFixedGenerator("r1", "r2")

	assert.Equal(t, "r1", gen.Generate())
	assert.Equal(t, "r2", gen.Generate())
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedGenerator("only")
	gen.Generate()

	assert.PanicsWithValue(t, "FixedGenerator: all ids exhausted", func() {
		gen.Generate()
	})
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("fact")
	assert.Equal(t, "fact-1", gen.Generate())
	assert.Equal(t, "fact-2", gen.Generate())

	assert.Equal(t, "id-1", NewSequenceGenerator("").Generate())
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGenerator("t")

	done := make(chan string)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 99; j++ {
				gen.Generate()
			}
			done <- gen.Generate()
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
	assert.Equal(t, "t-1001", gen.Generate())
}
