// Package domain contains the core business entities and rules for
// semantic document search: documents, segments, the status lifecycle,
// and the vector math shared by the index and embedding adapters.
// It has no dependencies on infrastructure.
package domain
