package ingest

import (
	"regexp"
	"strings"
)

// The cleaner strips scanner and publisher noise from extracted volume
// text while preserving the author's prose and paragraph structure.

var (
	pageMarkerRe   = regexp.MustCompile(`\[PAGE\s+\d+\]`)
	chapterBreakRe = regexp.MustCompile(`---CHAPTER BREAK---`)
	watermarkRe    = regexp.MustCompile(`(?i)Copyrighted Material\s*`)
	hyphenBreakRe  = regexp.MustCompile(`(\w)-\s*\n\s*(\w)`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	superscriptRe  = regexp.MustCompile(`[¹²³⁴⁵⁶⁷⁸⁹⁰]+`)
	footnoteRefRe  = regexp.MustCompile(`\[\d+\]`)

	// Standalone lines that are page furniture, not prose
	headerFooterRes = []*regexp.Regexp{
		regexp.MustCompile(`^\d+$`),
		regexp.MustCompile(`^[-—]\s*\d+\s*[-—]$`),
		regexp.MustCompile(`(?i)^(chapter|part)\s+[IVXLCDM\d]+$`),
		regexp.MustCompile(`^C\.?\s*G\.?\s*JUNG$`),
		regexp.MustCompile(`^CARL\s+JUNG$`),
		regexp.MustCompile(`^THE\s+COLLECTED\s+WORKS$`),
	}

	// Section headers that open editorial back matter
	backMatterRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^index$`),
		regexp.MustCompile(`(?i)^(subject|name|general)\s+index$`),
		regexp.MustCompile(`(?i)^bibliography$`),
		regexp.MustCompile(`(?i)^works\s+cited$`),
	}
)

// CleanText normalizes extracted volume text: OCR artifacts, page
// markers, running headers and footnote reference numbers are removed,
// paragraph breaks are preserved.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = watermarkRe.ReplaceAllString(text, "")
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	text = pageMarkerRe.ReplaceAllString(text, "\n")
	text = chapterBreakRe.ReplaceAllString(text, "\n\n")
	text = superscriptRe.ReplaceAllString(text, "")
	text = footnoteRefRe.ReplaceAllString(text, "")
	text = multiSpaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isHeaderFooter(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}

	kept = trimBackMatter(kept)

	text = strings.Join(kept, "\n")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func isHeaderFooter(line string) bool {
	if line == "" {
		return false
	}
	for _, re := range headerFooterRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// trimBackMatter drops everything from a trailing index or bibliography
// header onward. Only the last 15% of the document is considered so a
// chapter that merely mentions "index" is never cut.
func trimBackMatter(lines []string) []string {
	if len(lines) < 100 {
		return lines
	}

	searchStart := len(lines) * 85 / 100
	for i := len(lines) - 1; i > searchStart; i-- {
		for _, re := range backMatterRes {
			if re.MatchString(lines[i]) {
				return lines[:i]
			}
		}
	}
	return lines
}
