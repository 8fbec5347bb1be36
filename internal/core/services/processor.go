package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
	"github.com/custodia-labs/wikichunk/internal/logger"
)

// Ensure RecordProcessor implements the interface.
var _ driving.RecordProcessor = (*RecordProcessor)(nil)

// InfoboxPrefix marks templates whose parameters are extracted as fields.
const InfoboxPrefix = "Infobox"

// RecordProcessor drives normalisation, chunking and field extraction
// for single records. It is safe for concurrent use.
type RecordProcessor struct {
	parser    driven.MarkupParser
	pipelines driven.PipelineFactory

	mu    sync.Mutex
	cache map[int]driven.PostProcessorPipeline
}

// NewRecordProcessor creates a record processor.
func NewRecordProcessor(parser driven.MarkupParser, pipelines driven.PipelineFactory) *RecordProcessor {
	return &RecordProcessor{
		parser:    parser,
		pipelines: pipelines,
		cache:     make(map[int]driven.PostProcessorPipeline),
	}
}

// Normalise parses the record's markup into a document.
func (p *RecordProcessor) Normalise(rec domain.Record) *domain.Document {
	parsed := p.parser.Parse(rec.Text)
	return &domain.Document{
		ID:        rec.ID,
		Title:     rec.Title,
		Content:   parsed.Text,
		Templates: parsed.Templates,
		Links:     parsed.Links,
	}
}

// Chunk runs the chunking pipeline for maxBytes and reports each chunk to sink.
func (p *RecordProcessor) Chunk(
	ctx context.Context,
	doc *domain.Document,
	maxBytes int,
	sink driven.ChunkSink,
) (domain.ChunkSet, error) {
	set := domain.ChunkSet{DocumentID: doc.ID, Title: doc.Title}

	pipeline, err := p.pipeline(maxBytes)
	if err != nil {
		return set, err
	}

	start := time.Now()
	chunks, err := pipeline.Process(ctx, doc)
	if err != nil {
		return set, fmt.Errorf("chunk document %d: %w", doc.ID, err)
	}
	set.Chunks = chunks

	if err := sink.Begin(ctx, doc, len(chunks)); err != nil {
		return set, fmt.Errorf("report document %d: %w", doc.ID, err)
	}

	progress := driven.Throughput{}
	for _, c := range chunks {
		progress.Bytes += int64(c.Bytes())
		progress.Elapsed = time.Since(start)
		if err := sink.Chunk(ctx, c, progress); err != nil {
			return set, fmt.Errorf("report chunk %d/%d: %w", doc.ID, c.Position, err)
		}
	}

	progress.Elapsed = time.Since(start)
	if err := sink.End(ctx, set, progress); err != nil {
		return set, fmt.Errorf("report document %d: %w", doc.ID, err)
	}
	return set, nil
}

// pipeline returns the cached pipeline for maxBytes, building it on first use.
func (p *RecordProcessor) pipeline(maxBytes int) (driven.PostProcessorPipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pl, ok := p.cache[maxBytes]; ok {
		return pl, nil
	}
	pl, err := p.pipelines.Pipeline(maxBytes)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	p.cache[maxBytes] = pl
	return pl, nil
}

// ExtractFields collects Infobox parameters in first-seen key order.
// A template that cannot be read is skipped without affecting the others.
func (p *RecordProcessor) ExtractFields(doc *domain.Document) []domain.ExtractedField {
	var fields []domain.ExtractedField
	index := make(map[string]int)

	for _, tpl := range doc.Templates {
		if !strings.HasPrefix(tpl.Name, InfoboxPrefix) {
			continue
		}
		collectParams(doc.ID, tpl, &fields, index)
	}
	return fields
}

// collectParams merges one template's parameters into fields.
func collectParams(docID int64, tpl domain.Template, fields *[]domain.ExtractedField, index map[string]int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("skipping template %q of document %d: %v", tpl.Name, docID, r)
		}
	}()

	for _, param := range tpl.Params {
		key := strings.TrimSpace(param.Name)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			(*fields)[i].Value = param.Value
			continue
		}
		index[key] = len(*fields)
		*fields = append(*fields, domain.ExtractedField{DocumentID: docID, Key: key, Value: param.Value})
	}
}

// ExtractLinks returns one unresolved link per distinct target in document order.
func (p *RecordProcessor) ExtractLinks(doc *domain.Document) []domain.Link {
	seen := make(map[string]bool, len(doc.Links))
	links := make([]domain.Link, 0, len(doc.Links))
	for _, target := range doc.Links {
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		links = append(links, domain.Link{SourceID: doc.ID, Target: target})
	}
	return links
}
