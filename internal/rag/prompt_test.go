package rag

import (
	"fmt"
	"strings"
	"testing"
)

func TestAssembleContextNumbering(t *testing.T) {
	results := []SearchResult{
		{Text: "The shadow personifies everything the subject refuses to acknowledge.", WorkTitle: "Aion", Chapter: "Chapter II: The Shadow", Score: 0.9},
		{Text: "The meeting with oneself is, at first, the meeting with one's own shadow.", WorkTitle: "Archetypes of the Collective Unconscious (CW 9i)", Score: 0.84},
		{Text: "Everyone carries a shadow.", WorkTitle: "Psychology and Religion", Chapter: "Lecture I", Score: 0.78},
	}

	block, citations := AssembleContext(results)

	if len(citations) != len(results) {
		t.Fatalf("got %d citations, want %d", len(citations), len(results))
	}

	for i, c := range citations {
		if c.Ref != i+1 {
			t.Errorf("citation[%d].Ref = %d, want %d (1-based positional)", i, c.Ref, i+1)
		}
		if c.WorkTitle != results[i].WorkTitle {
			t.Errorf("citation[%d].WorkTitle = %q, want %q", i, c.WorkTitle, results[i].WorkTitle)
		}

		// The block header for this citation must use the same number.
		header := fmt.Sprintf("[%d] %s", c.Ref, c.WorkTitle)
		if results[i].Chapter != "" {
			header += ", " + results[i].Chapter
		}
		if !strings.Contains(block, header) {
			t.Errorf("instruction block missing header %q", header)
		}
		if !strings.Contains(block, results[i].Text) {
			t.Errorf("instruction block missing text of result %d", i)
		}
	}

	// Blocks appear in input order.
	if strings.Index(block, "[1]") > strings.Index(block, "[2]") ||
		strings.Index(block, "[2]") > strings.Index(block, "[3]") {
		t.Error("instruction block numbering is not in input order")
	}

	if !strings.Contains(block, blockDelimiter) {
		t.Error("instruction block missing the passage delimiter")
	}
}

func TestAssembleContextChapterOptional(t *testing.T) {
	block, citations := AssembleContext([]SearchResult{
		{Text: "body", WorkTitle: "The Red Book: A Reader's Edition", Score: 0.95},
	})

	if !strings.Contains(block, "[1] The Red Book: A Reader's Edition\nbody") {
		t.Error("header with no chapter should be title only")
	}
	if citations[0].Chapter != "" {
		t.Errorf("citation chapter = %q, want empty", citations[0].Chapter)
	}
}

func TestAssembleContextEmptyFallsBack(t *testing.T) {
	block, citations := AssembleContext(nil)

	if block != FallbackInstruction {
		t.Error("empty context should return the fallback instruction")
	}
	if citations != nil {
		t.Errorf("empty context returned %d citations, want none", len(citations))
	}
	if strings.Contains(FallbackInstruction, "[1]") {
		t.Error("fallback instruction must not reference citation numbers")
	}
}
