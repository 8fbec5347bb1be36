package domain

import "strings"

// RedirectMarker prefixes the text of records that only point at another article.
const RedirectMarker = "#REDIRECT"

// Record is one article row as stored in a columnar input file.
// Records are read-only; the core never mutates them.
type Record struct {
	// ID is the document identifier (the page id).
	ID int64

	// Title is the article title.
	Title string

	// Text is the raw, markup-laden article body.
	Text string
}

// IsRedirect reports whether the record is a redirect page.
func (r Record) IsRedirect() bool {
	return strings.HasPrefix(r.Text, RedirectMarker)
}

// RecordFilter selects which rows a record source yields.
type RecordFilter struct {
	// DocID restricts output to a single document. Zero means no filter.
	DocID int64

	// ExcludeRedirects drops rows whose text starts with RedirectMarker.
	ExcludeRedirects bool
}

// Matches reports whether the record passes the filter.
func (f RecordFilter) Matches(r Record) bool {
	if f.DocID != 0 && r.ID != f.DocID {
		return false
	}
	if f.ExcludeRedirects && r.IsRedirect() {
		return false
	}
	return true
}
