// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding services, the vector index,
// the metadata store, format parsers and the tokenizer.
package driven
