// Package output provides ChunkSink implementations: a human-readable
// chunk report, a JSON-lines writer for per-unit chunk files, and a
// sink that discards everything.
package output
