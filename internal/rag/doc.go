// Package rag holds the retrieval-augmented generation core: the domain
// types shared by the provider adapters and the query pipeline, plus the
// pure functions that decide which retrieved passages become grounding
// context and how they are rendered into a prompt.
//
// Everything here is deterministic and free of I/O; the external calls
// (embedding, vector search, generation) live behind the capability
// interfaces defined in types.go.
package rag
