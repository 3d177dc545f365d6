package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEvaluateTextCleanProse(t *testing.T) {
	text := paragraph(200) + "\n\n" + paragraph(200) + "\n\n" + paragraph(200)
	r := EvaluateText("Aion.txt", text)

	if r.Score < GoodScore {
		t.Errorf("clean prose scored %d, want >= %d (issues: %v)", r.Score, GoodScore, r.Issues)
	}
	if len(r.Issues) != 0 {
		t.Errorf("unexpected issues: %v", r.Issues)
	}
	if r.Paragraphs != 3 {
		t.Errorf("Paragraphs = %d, want 3", r.Paragraphs)
	}
}

func TestEvaluateTextEmptyFile(t *testing.T) {
	r := EvaluateText("blank.txt", "  \n\n  ")
	if r.Score != 0 {
		t.Errorf("empty file scored %d, want 0", r.Score)
	}
}

func TestEvaluateTextSingleLineBlob(t *testing.T) {
	r := EvaluateText("blob.txt", strings.Repeat("word ", 400))
	if r.Score > 50 {
		t.Errorf("single-line blob scored %d, want heavy penalty", r.Score)
	}
	if len(r.Issues) == 0 {
		t.Error("expected issues for a single-line blob")
	}
}

func TestEvaluateTextTocRemnants(t *testing.T) {
	var toc []string
	for i := 0; i < 8; i++ {
		toc = append(toc, "Chapter 1 ... 23")
	}
	text := paragraph(200) + "\n\n" + strings.Join(toc, "\n")

	r := EvaluateText("toc.txt", text)
	found := false
	for _, issue := range r.Issues {
		if strings.Contains(issue, "table-of-contents") {
			found = true
		}
	}
	if !found {
		t.Errorf("TOC remnants not flagged, issues: %v", r.Issues)
	}
}

func TestEvaluateTextFrontMatter(t *testing.T) {
	text := "Copyright 1959. All rights reserved.\n\n" + paragraph(200)
	r := EvaluateText("front.txt", text)

	found := false
	for _, issue := range r.Issues {
		if strings.Contains(issue, "front matter") {
			found = true
		}
	}
	if !found {
		t.Errorf("front matter not flagged, issues: %v", r.Issues)
	}
}

func TestEvaluateDirectorySortsBestFirst(t *testing.T) {
	dir := t.TempDir()
	clean := paragraph(200) + "\n\n" + paragraph(200)
	if err := os.WriteFile(filepath.Join(dir, "clean.txt"), []byte(clean), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "blob.txt"), []byte(strings.Repeat("word ", 400)), 0o644); err != nil {
		t.Fatal(err)
	}

	reports, err := EvaluateDirectory(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Name != "clean.txt" {
		t.Errorf("best report is %q, want clean.txt", reports[0].Name)
	}
	if reports[0].Score < reports[1].Score {
		t.Error("reports are not sorted best first")
	}
}

func TestEvaluateDirectoryEmpty(t *testing.T) {
	if _, err := EvaluateDirectory(t.TempDir()); err == nil {
		t.Fatal("expected an error for a directory without volumes")
	}
}
