// Package domain defines the core business entities for wikichunk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record: One article row read from an input file
//   - Document: A record after markup normalisation
//   - Chunk: A byte-bounded piece of normalised text
//   - ExtractedField: A key/value pair taken from an infobox template
//   - JobUnit / JobOutcome: The unit of parallel dispatch and its result
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
