// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RecordSource: Reads article rows from columnar input files
//   - MarkupParser: Strips article markup and parses template blocks
//   - PipelineFactory: Builds the chunking post-processor pipeline
//   - ChunkSinkFactory: Opens a destination for chunk reports
//
// # Mode-specific Interfaces
//
// These are only needed by the matching processing mode:
//
//   - FieldStoreFactory: Per-input storage for infobox fields
//   - LinkStoreFactory: Per-input storage for link-graph edges
//   - PageLookupFactory: Optional title to document id resolution
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, normaliser or postprocessor package
package driven
