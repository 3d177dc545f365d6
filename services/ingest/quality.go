package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// QualityReport summarizes cleanliness checks for one volume file. Score
// starts at 100 and each detected issue subtracts a penalty; 70 and above
// is considered good enough to chunk.
type QualityReport struct {
	Name       string
	Chars      int
	Lines      int
	Paragraphs int
	AvgParaLen int
	Issues     []string
	Score      int
}

// GoodScore is the minimum score at which a file is counted as clean
const GoodScore = 70

var (
	tocLineRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*[IVXLCDM]+\.\s*\d+\s*$`),
		regexp.MustCompile(`(?i)^\s*Chapter\s+\d+\s*\.+\s*\d+\s*$`),
	}
	bareNumberRe   = regexp.MustCompile(`^\d{1,4}$`)
	sentenceMarkRe = regexp.MustCompile(`[.!?]`)

	frontMatterMarkers = []string{"copyright", "isbn", "all rights reserved", "library of congress"}
)

// EvaluateText scores one cleaned text for chunking readiness
func EvaluateText(name, text string) QualityReport {
	report := QualityReport{Name: name, Score: 100}

	if strings.TrimSpace(text) == "" {
		report.Issues = append(report.Issues, "empty file")
		report.Score = 0
		return report
	}

	lines := strings.Split(text, "\n")
	var nonEmpty []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	report.Chars = len(text)
	report.Lines = len(nonEmpty)
	report.Paragraphs = len(paragraphs)

	penalize := func(issue string, penalty int) {
		report.Issues = append(report.Issues, issue)
		report.Score -= penalty
	}

	if len(nonEmpty) == 1 && len(text) > 1000 {
		penalize("single line, no paragraph breaks", 50)
	}

	if len(paragraphs) > 0 {
		total := 0
		for _, p := range paragraphs {
			total += len(p)
		}
		avg := total / len(paragraphs)
		report.AvgParaLen = avg
		if avg > 5000 {
			penalize(fmt.Sprintf("paragraphs too long (avg %d chars)", avg), 20)
		} else if avg < 50 {
			penalize(fmt.Sprintf("paragraphs too short (avg %d chars)", avg), 10)
		}
	} else {
		penalize("no paragraphs detected", 30)
	}

	tocLines := 0
	for _, l := range lines {
		for _, re := range tocLineRes {
			if re.MatchString(l) {
				tocLines++
				break
			}
		}
	}
	if tocLines > 5 {
		penalize(fmt.Sprintf("table-of-contents remnants (%d lines)", tocLines), 10)
	}

	pageNumbers := 0
	for _, l := range lines {
		if bareNumberRe.MatchString(strings.TrimSpace(l)) {
			pageNumbers++
		}
	}
	if pageNumbers > 20 {
		penalize(fmt.Sprintf("page numbers (%d lines)", pageNumbers), 5)
	}

	head := strings.ToLower(text)
	if len(head) > 2000 {
		head = head[:2000]
	}
	for _, marker := range frontMatterMarkers {
		if strings.Contains(head, marker) {
			penalize("front matter remnants", 5)
			break
		}
	}

	proseLines := 0
	for _, l := range nonEmpty {
		if len(l) > 60 && sentenceMarkRe.MatchString(l) {
			proseLines++
		}
	}
	proseRatio := float64(proseLines) / float64(len(nonEmpty))
	if proseRatio < 0.3 {
		penalize(fmt.Sprintf("low prose ratio (%.0f%%)", proseRatio*100), 15)
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

// EvaluateDirectory scores every .txt file under dir, best first
func EvaluateDirectory(dir string) ([]QualityReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var reports []QualityReport
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		reports = append(reports, EvaluateText(e.Name(), string(raw)))
	}

	if len(reports) == 0 {
		return nil, fmt.Errorf("no .txt files found in %s", dir)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].Score > reports[j].Score
	})
	return reports, nil
}
