package rag

import (
	"testing"
)

func TestSampleConceptsDeterministic(t *testing.T) {
	results := []SearchResult{
		{Concepts: []string{"shadow", "ego", "individuation"}},
		{Concepts: []string{"anima", "shadow", "archetype"}},
		{Concepts: []string{"dream", "symbol"}},
	}

	a := SampleConcepts(results, 4, 42)
	b := SampleConcepts(results, 4, 42)

	if len(a) != 4 {
		t.Fatalf("got %d concepts, want 4", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different samples: %v vs %v", a, b)
		}
	}

	seen := make(map[string]struct{})
	for _, c := range a {
		if _, dup := seen[c]; dup {
			t.Errorf("duplicate concept %q in sample", c)
		}
		seen[c] = struct{}{}
	}
}

func TestSampleConceptsBounds(t *testing.T) {
	results := []SearchResult{{Concepts: []string{"shadow", "ego"}}}

	if got := SampleConcepts(results, 5, 1); len(got) != 2 {
		t.Errorf("sample larger than pool: got %d, want 2", len(got))
	}
	if got := SampleConcepts(results, 0, 1); got != nil {
		t.Errorf("n=0 should return nil, got %v", got)
	}
	if got := SampleConcepts(nil, 3, 1); got != nil {
		t.Errorf("no concepts should return nil, got %v", got)
	}
	if got := SampleConcepts([]SearchResult{{Concepts: []string{""}}}, 3, 1); got != nil {
		t.Errorf("empty tags should be skipped, got %v", got)
	}
}
