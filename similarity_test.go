package asg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSimilarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "abc", 1},
		{"abc", "", 0},
		{"kitten", "sitting", 1 - 3.0/7},
		{"héllo", "hello", 0.8},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, StringSimilarity(tt.a, tt.b), 1e-9, "%q vs %q", tt.a, tt.b)
		assert.InDelta(t, tt.want, StringSimilarity(tt.b, tt.a), 1e-9, "symmetric")
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()
	f := New()
	a := f.NewMethod("abcd", MethodKindFunction)
	b := f.NewMethod("abcx", MethodKindFunction)

	// Seven attributes, six equal and the names 0.75 alike.
	assert.InDelta(t, 6.75*0.9/7+0.1, Similarity(a, b), 1e-9)
	assert.InDelta(t, 1.0, Similarity(a, a), 1e-9)

	b.SetStatic(true)
	assert.InDelta(t, 5.75*0.9/7+0.1, Similarity(a, b), 1e-9)

	assert.Zero(t, Similarity(a, f.NewClass("abcd", ClassKindClass)), "different kinds")
	assert.Zero(t, Similarity(a, nil))
}

func TestSimilarity_MinForStrings(t *testing.T) {
	t.Parallel()
	f := New()
	a := f.NewMethod("abc", MethodKindFunction)
	b := f.NewMethod("xyz", MethodKindFunction)

	strict := SimilarityOptions{Minimum: 0.1, MinForStrings: 0.9}
	assert.Zero(t, strict.Similarity(a, b))
	assert.InDelta(t, 6*0.9/7+0.1, DefaultSimilarity.Similarity(a, b), 1e-9)

	// Across factories.
	g := New()
	c := g.NewMethod("abc", MethodKindFunction)
	assert.InDelta(t, 1.0, strict.Similarity(a, c), 1e-9)
}
