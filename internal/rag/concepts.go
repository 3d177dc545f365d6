package rag

import "math/rand"

// SampleConcepts picks up to n distinct concept tags from the retrieval
// context for the "related concepts" display. Sampling is seeded rather
// than truly random so a given request replays identically in tests; the
// caller derives the seed from the request.
func SampleConcepts(results []SearchResult, n int, seed int64) []string {
	if n <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var pool []string
	for _, r := range results {
		for _, c := range r.Concepts {
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}
