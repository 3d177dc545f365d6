package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Chunk size bounds, in estimated tokens. Passages aim for
// targetTokens; paragraphs above maxTokens are split at sentence
// boundaries; fragments below minTokens are dropped unless they are
// the only content.
const (
	targetTokens = 400
	maxTokens    = 600
	minTokens    = 80
)

// Chunk is one embeddable passage with its provenance.
type Chunk struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	SourceFile  string   `json:"source_file"`
	WorkTitle   string   `json:"work_title"`
	Chapter     string   `json:"chapter,omitempty"`
	ChunkIndex  int      `json:"chunk_index"`
	TotalChunks int      `json:"total_chunks"`
	TokenCount  int      `json:"token_count"`
	Concepts    []string `json:"concepts,omitempty"`
}

// estimateTokens uses the four-characters-per-token heuristic. It
// tracks the real tokenizer closely enough for sizing prose chunks.
func estimateTokens(text string) int {
	return len(text) / 4
}

var chapterMarkerRe = regexp.MustCompile(`^(CHAPTER|Chapter|PART|Part|SECTION|Section|LECTURE|Lecture|Seminar)\s+([IVXLCDM\d]+)[\s:.]*(.*)$`)

// concept patterns used for tagging, keyed by canonical concept name
var conceptRes = map[string]*regexp.Regexp{
	"anima":                  regexp.MustCompile(`(?i)\banima\b`),
	"animus":                 regexp.MustCompile(`(?i)\banimus\b`),
	"shadow":                 regexp.MustCompile(`(?i)\bshadow\b`),
	"self":                   regexp.MustCompile(`\bSelf\b`),
	"ego":                    regexp.MustCompile(`(?i)\bego\b`),
	"individuation":          regexp.MustCompile(`(?i)\bindividuation\b`),
	"archetype":              regexp.MustCompile(`(?i)\barchetype`),
	"collective_unconscious": regexp.MustCompile(`(?i)collective unconscious`),
	"personal_unconscious":   regexp.MustCompile(`(?i)personal unconscious`),
	"complex":                regexp.MustCompile(`(?i)\bcomplex(es)?\b`),
	"persona":                regexp.MustCompile(`(?i)\bpersona\b`),
	"synchronicity":          regexp.MustCompile(`(?i)\bsynchronicity\b`),
	"mandala":                regexp.MustCompile(`(?i)\bmandala`),
	"projection":             regexp.MustCompile(`(?i)\bprojection\b`),
	"transference":           regexp.MustCompile(`(?i)\btransference\b`),
	"libido":                 regexp.MustCompile(`(?i)\blibido\b`),
	"introversion":           regexp.MustCompile(`(?i)\bintroversion\b`),
	"extraversion":           regexp.MustCompile(`(?i)\bextraversion\b`),
	"alchemy":                regexp.MustCompile(`(?i)\balchem`),
	"dream":                  regexp.MustCompile(`(?i)\bdream(s|ing)?\b`),
	"symbol":                 regexp.MustCompile(`(?i)\bsymbol`),
	"myth":                   regexp.MustCompile(`(?i)\bmyth`),
	"religion":               regexp.MustCompile(`(?i)\breligio(n|us)\b`),
	"transformation":         regexp.MustCompile(`(?i)\btransformation\b`),
	"rebirth":                regexp.MustCompile(`(?i)\brebirth\b`),
	"trickster":              regexp.MustCompile(`(?i)\btrickster\b`),
}

// conceptOrder keeps tagging output deterministic
var conceptOrder = []string{
	"anima", "animus", "shadow", "self", "ego", "individuation",
	"archetype", "collective_unconscious", "personal_unconscious",
	"complex", "persona", "synchronicity", "mandala", "projection",
	"transference", "libido", "introversion", "extraversion",
	"alchemy", "dream", "symbol", "myth", "religion",
	"transformation", "rebirth", "trickster",
}

// DetectConcepts returns the canonical concept tags present in text
func DetectConcepts(text string) []string {
	var concepts []string
	for _, name := range conceptOrder {
		if conceptRes[name].MatchString(text) {
			concepts = append(concepts, name)
		}
	}
	return concepts
}

var (
	abbrevRe       = regexp.MustCompile(`\b(Dr|Mr|Mrs|Ms|Prof|Jr|Sr|vs|etc|i\.e|e\.g|vol|Vol|cf|Cf)\.\s+`)
	sentenceEndRe  = regexp.MustCompile(`(?s)([.!?])\s+([A-Z"'])`)
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
)

// splitSentences splits prose into sentences, keeping common
// abbreviations intact.
func splitSentences(text string) []string {
	guarded := abbrevRe.ReplaceAllString(text, "$1<ABBR> ")
	marked := sentenceEndRe.ReplaceAllString(guarded, "$1\x00$2")

	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, "<ABBR>", ".")
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// TitleFromFilename derives a human-readable work title from a source
// file name.
func TitleFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.ReplaceAll(name, "_", " ")
	name = regexp.MustCompile(`\s*\(\d{4}\)\s*$`).ReplaceAllString(name, "")
	name = regexp.MustCompile(`(?i)\s*-\s*(Princeton|Routledge|Norton|Vintage).*$`).ReplaceAllString(name, "")
	name = regexp.MustCompile(`\s+`).ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// CreateChunks splits cleaned text into passage chunks. Paragraphs are
// accumulated until the target size; a paragraph larger than the max is
// split at sentence boundaries; a chapter marker always starts a new
// chunk so no passage spans two chapters.
func CreateChunks(text, sourceFile string) []Chunk {
	workTitle := TitleFromFilename(sourceFile)

	var chunks []Chunk
	var current []string
	currentTokens := 0
	currentChapter := ""

	save := func() {
		if len(current) == 0 {
			return
		}
		content := strings.Join(current, "\n\n")
		tokens := estimateTokens(content)
		if tokens < minTokens && len(chunks) > 0 {
			current = nil
			currentTokens = 0
			return
		}

		sum := md5.Sum([]byte(fmt.Sprintf("%s:%s:%d", sourceFile, content[:min(32, len(content))], len(chunks))))
		chunks = append(chunks, Chunk{
			ID:         hex.EncodeToString(sum[:])[:16],
			Text:       content,
			SourceFile: sourceFile,
			WorkTitle:  workTitle,
			Chapter:    currentChapter,
			ChunkIndex: len(chunks),
			TokenCount: tokens,
			Concepts:   DetectConcepts(content),
		})
		current = nil
		currentTokens = 0
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A chapter heading closes the running chunk and labels what follows
		if m := chapterMarkerRe.FindStringSubmatch(firstLine(para)); m != nil {
			save()
			currentChapter = formatChapter(m)
		}

		paraTokens := estimateTokens(para)

		if currentTokens+paraTokens > targetTokens && len(current) > 0 {
			save()
		}

		if paraTokens > maxTokens {
			save()
			for _, piece := range splitOversized(para) {
				current = append(current, piece)
				currentTokens = estimateTokens(piece)
				save()
			}
			continue
		}

		current = append(current, para)
		currentTokens += paraTokens
	}
	save()

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

// splitOversized breaks one paragraph into target-sized pieces at
// sentence boundaries.
func splitOversized(para string) []string {
	sentences := splitSentences(para)

	var pieces []string
	var current []string
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := estimateTokens(sent)
		if currentTokens+sentTokens > targetTokens && len(current) > 0 {
			pieces = append(pieces, strings.Join(current, " "))
			current = nil
			currentTokens = 0
		}
		current = append(current, sent)
		currentTokens += sentTokens
	}
	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, " "))
	}
	return pieces
}

func firstLine(para string) string {
	if i := strings.IndexByte(para, '\n'); i >= 0 {
		return strings.TrimSpace(para[:i])
	}
	return strings.TrimSpace(para)
}

func formatChapter(m []string) string {
	kind := strings.ToLower(m[1])
	kind = strings.ToUpper(kind[:1]) + kind[1:]
	label := kind + " " + m[2]
	if title := strings.TrimSpace(m[3]); title != "" {
		label += ": " + title
	}
	return label
}
