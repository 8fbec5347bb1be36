package output

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure JSONLSink implements the interface.
var _ driven.ChunkSink = (*JSONLSink)(nil)

// ChunkLine is one line of a chunk file.
type ChunkLine struct {
	DocID    int64  `json:"doc_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Bytes    int    `json:"bytes"`
	Text     string `json:"text"`
}

// JSONLSink writes one JSON object per chunk.
//
// Lines go to a temporary file next to the target. Commit renames it over the
// target; Close without Commit removes it, so a failed unit never replaces
// or truncates an earlier chunk file.
type JSONLSink struct {
	path  string
	tmp   *os.File
	buf   *bufio.Writer
	enc   *json.Encoder
	title string
	done  bool
}

// CreateJSONLSink prepares a chunk file at path, creating its directory.
func CreateJSONLSink(path string) (*JSONLSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating chunk file: %w", err)
	}
	buf := bufio.NewWriter(tmp)
	return &JSONLSink{path: path, tmp: tmp, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Begin remembers the title for the chunk lines that follow.
func (s *JSONLSink) Begin(_ context.Context, doc *domain.Document, _ int) error {
	s.title = doc.Title
	return nil
}

// Chunk writes one line.
func (s *JSONLSink) Chunk(_ context.Context, c domain.Chunk, _ driven.Throughput) error {
	return s.enc.Encode(ChunkLine{
		DocID:    c.DocumentID,
		Title:    s.title,
		Position: c.Position,
		Bytes:    c.Bytes(),
		Text:     c.Content,
	})
}

// End is a no-op.
func (s *JSONLSink) End(context.Context, domain.ChunkSet, driven.Throughput) error {
	return nil
}

// Commit flushes the buffered lines and moves the file into place.
func (s *JSONLSink) Commit() error {
	if s.done {
		return fmt.Errorf("chunk file %s already closed", s.path)
	}
	s.done = true

	err := s.buf.Flush()
	if err == nil {
		err = s.tmp.Chmod(0o644)
	}
	if cerr := s.tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(s.tmp.Name(), s.path)
	}
	if err != nil {
		_ = os.Remove(s.tmp.Name())
		return fmt.Errorf("writing chunk file: %w", err)
	}
	return nil
}

// Close discards uncommitted lines. It is a no-op after Commit.
func (s *JSONLSink) Close() error {
	if s.done {
		return nil
	}
	s.done = true

	_ = s.tmp.Close()
	if err := os.Remove(s.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing chunk file: %w", err)
	}
	return nil
}
