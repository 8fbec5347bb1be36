package domain

// Param is a single template parameter. Positional parameters are
// named by their 1-based position ("1", "2", ...).
type Param struct {
	Name  string
	Value string
}

// Template is a parsed {{...}} block from article markup.
type Template struct {
	// Name is the trimmed template name (e.g. "Infobox person").
	Name string

	// Params are the parameters in source order, values markup-stripped.
	Params []Param
}

// ParsedMarkup is the output of the markup normaliser for one article.
type ParsedMarkup struct {
	// Text is the plain text with markup removed.
	Text string

	// Templates are the template blocks in document order,
	// outer templates before the templates nested inside them.
	Templates []Template

	// Links are the wikilink targets in document order.
	Links []string
}

// Document is a record after normalisation.
// It is the canonical representation handed to the chunking pipeline.
type Document struct {
	// ID is the document identifier copied from the record.
	ID int64

	// Title is the article title.
	Title string

	// Content is the full plain text before chunking.
	Content string

	// Templates are the parsed template blocks.
	Templates []Template

	// Links are the wikilink targets.
	Links []string
}

// Chunk is a contiguous piece of a document's normalised content.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID int64

	// Position is the 0-based ordinal position within the document.
	Position int

	// Content is the text content of this chunk.
	Content string
}

// Bytes returns the UTF-8 encoded size of the chunk content.
func (c Chunk) Bytes() int {
	return len(c.Content)
}

// ChunkSet is the ordered sequence of chunks produced for one record.
type ChunkSet struct {
	DocumentID int64
	Title      string
	Chunks     []Chunk
}

// Bytes returns the total encoded size of all chunks.
func (s ChunkSet) Bytes() int {
	total := 0
	for _, c := range s.Chunks {
		total += c.Bytes()
	}
	return total
}

// ExtractedField is one infobox key/value pair of a document.
// Storage is keyed by (DocumentID, Key).
type ExtractedField struct {
	DocumentID int64
	Key        string
	Value      string
}

// Link is a directed edge from one article to a link target.
type Link struct {
	// SourceID is the document that contains the link.
	SourceID int64

	// Target is the normalised title of the linked article.
	Target string

	// TargetID is the linked document's id, nil when it could not be resolved.
	TargetID *int64
}
