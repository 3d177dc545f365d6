package rag

import (
	"fmt"
	"strings"
)

// blockDelimiter separates passage blocks inside the context section.
const blockDelimiter = "\n\n---\n\n"

const instructionPreamble = `You are a knowledgeable, conversational guide to the collected works of C. G. Jung. Answer in a warm, plain-spoken tone.

Rules:
- Keep answers to 2-4 sentences unless the user explicitly asks you to elaborate.
- Ground your answer in the source passages below. When you quote a passage directly, cite it with its bracketed number, e.g. [1]. Never attach a citation number to paraphrase or general knowledge.
- If the passages do not cover the question, say so rather than speculating.

Source passages:

`

// FallbackInstruction is used when no retrieved passage passed the
// relevance filter. It must never be paired with a citation list.
const FallbackInstruction = `You are a knowledgeable, conversational guide to the collected works of C. G. Jung. Answer in a warm, plain-spoken tone.

No source passages were found for this question. Answer from general knowledge in 2-4 sentences, say that you are not drawing on a specific passage, and do not invent citations or bracketed source numbers.`

// AssembleContext renders the filtered retrieval context into the system
// instruction block and the matching citation list. Each kept chunk becomes
// a numbered block:
//
//	[i] Work Title, Chapter
//	<text>
//
// Numbering is 1-based and positional, and the returned citations use the
// exact same numbers; the generator is instructed to reuse them verbatim.
// Callers must use FallbackInstruction instead when results is empty.
func AssembleContext(results []SearchResult) (string, []Citation) {
	if len(results) == 0 {
		return FallbackInstruction, nil
	}

	blocks := make([]string, 0, len(results))
	citations := make([]Citation, 0, len(results))

	for i, r := range results {
		ref := i + 1
		header := fmt.Sprintf("[%d] %s", ref, r.WorkTitle)
		if r.Chapter != "" {
			header += ", " + r.Chapter
		}
		blocks = append(blocks, header+"\n"+r.Text)
		citations = append(citations, Citation{
			Ref:       ref,
			WorkTitle: r.WorkTitle,
			Chapter:   r.Chapter,
		})
	}

	return instructionPreamble + strings.Join(blocks, blockDelimiter), citations
}
