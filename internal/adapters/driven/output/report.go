package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure ReportSink implements the interface.
var _ driven.ChunkSink = (*ReportSink)(nil)

// PreviewChars is the number of characters of each chunk shown in a report.
const PreviewChars = 512

const rule = "================================================================================"

// ReportSink writes a human-readable report of every chunk.
type ReportSink struct {
	w io.Writer
}

// NewReportSink creates a report sink writing to w.
func NewReportSink(w io.Writer) *ReportSink {
	return &ReportSink{w: w}
}

// Begin writes the article header.
func (s *ReportSink) Begin(_ context.Context, doc *domain.Document, chunkCount int) error {
	_, err := fmt.Fprintf(s.w, "\n%s\nArticle: %s (Document ID: %d)\nText length: %s characters\nNumber of chunks: %d\n%s\n",
		rule, doc.Title, doc.ID, humanize.Comma(int64(utf8.RuneCountInString(doc.Content))), chunkCount, rule)
	return err
}

// Chunk writes one chunk with its size, preview and the running rate.
func (s *ReportSink) Chunk(_ context.Context, c domain.Chunk, progress driven.Throughput) error {
	_, err := fmt.Fprintf(s.w, "\n--- Chunk %d ---\nSize: %d bytes\n%s\nProcessing speed: %.2f KB/sec\n",
		c.Position+1, c.Bytes(), Preview(c.Content, PreviewChars), progress.KBPerSecond())
	return err
}

// End writes the article summary.
func (s *ReportSink) End(_ context.Context, set domain.ChunkSet, progress driven.Throughput) error {
	total := set.Bytes()
	_, err := fmt.Fprintf(s.w, "\nSummary: %d chunks, %s bytes total (%.2f KB) in %s\n",
		len(set.Chunks), humanize.Comma(int64(total)), float64(total)/1024, progress.Elapsed.Round(time.Millisecond))
	return err
}

// Commit is a no-op; report lines are written as they arrive.
func (s *ReportSink) Commit() error {
	return nil
}

// Close is a no-op; the writer belongs to the caller.
func (s *ReportSink) Close() error {
	return nil
}

// Preview returns the first n characters of text, with "..." appended when truncated.
func Preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	var b strings.Builder
	for i, r := range []rune(text) {
		if i == n {
			break
		}
		b.WriteRune(r)
	}
	b.WriteString("...")
	return b.String()
}
