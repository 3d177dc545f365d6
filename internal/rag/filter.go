package rag

// Default retrieval tuning: fetch more candidates than the prompt will
// use, then keep only the ones above the score threshold. Overridable
// through config (RETRIEVAL_* env vars).
const (
	DefaultTopK           = 6
	DefaultScoreThreshold = 0.7
	DefaultMaxContext     = 3
)

// FilterRelevant narrows raw search results to the subset usable as
// grounding context: keeps only results with Score strictly above
// threshold, preserves the input order (assumed descending by score), and
// truncates to at most max entries. A nil or empty result is valid and
// triggers the no-context fallback downstream.
func FilterRelevant(results []SearchResult, threshold float64, max int) []SearchResult {
	if max <= 0 {
		return nil
	}
	kept := make([]SearchResult, 0, max)
	for _, r := range results {
		if r.Score <= threshold {
			continue
		}
		kept = append(kept, r)
		if len(kept) == max {
			break
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
