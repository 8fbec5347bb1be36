// Package chunker provides a sentence-aware, byte-bounded text chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

// DefaultMaxBytes is the default chunk limit in UTF-8 encoded bytes.
const DefaultMaxBytes = 512

// sentenceDelimiter is the naive sentence boundary. Abbreviations and
// decimal numbers are deliberately not special-cased.
const sentenceDelimiter = ". "

// Processor splits document content into byte-bounded chunks.
// It implements the PostProcessor interface.
type Processor struct {
	maxBytes int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxBytes sets the chunk limit in bytes.
func WithMaxBytes(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxBytes: DefaultMaxBytes,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// MaxBytes returns the configured chunk limit.
func (p *Processor) MaxBytes() int {
	return p.maxBytes
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	texts := Split(doc.Content, p.maxBytes)
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Position:   i,
			Content:    text,
		})
	}

	return chunks, nil
}

// Split partitions text into chunks of at most maxBytes encoded bytes.
//
// Text that already fits is returned unchanged as the only element.
// Otherwise the text is split on ". " and sentences are packed greedily;
// a sentence that does not fit on its own is packed word by word.
// A single word longer than maxBytes becomes its own oversized chunk.
// Every other chunk is trimmed and non-empty.
func Split(text string, maxBytes int) []string {
	if len(text) <= maxBytes {
		return []string{text}
	}

	s := &splitter{maxBytes: maxBytes}
	sentences := strings.Split(text, sentenceDelimiter)
	last := len(sentences) - 1

	for i, sentence := range sentences {
		piece := sentence
		if i < last {
			piece += sentenceDelimiter
		}

		if len(s.current)+len(piece) <= maxBytes {
			s.current += piece
			continue
		}

		s.flush()
		if len(piece) <= maxBytes {
			s.current = piece
			continue
		}
		s.packWords(piece)
	}
	s.flush()

	return s.chunks
}

// splitter holds the running buffer of one Split call.
type splitter struct {
	maxBytes int
	current  string
	chunks   []string
}

// packWords greedily packs the words of an oversized sentence.
// The tail stays in the buffer so the next sentence can join it.
func (s *splitter) packWords(sentence string) {
	for _, word := range strings.Fields(sentence) {
		candidate := s.current + word + " "
		if len(candidate) <= s.maxBytes {
			s.current = candidate
			continue
		}
		s.flush()
		s.current = word + " "
	}
}

func (s *splitter) flush() {
	if chunk := strings.TrimSpace(s.current); chunk != "" {
		s.chunks = append(s.chunks, chunk)
	}
	s.current = ""
}
