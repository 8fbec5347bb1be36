// Package wikitext provides a MarkupParser implementation for MediaWiki
// article markup. It extracts readable text, strips templates, tables,
// embedded HTML and link syntax, and parses template blocks into
// name/parameter pairs so infobox fields can be collected.
//
// Parsing is best effort. Unbalanced markup is kept as text rather
// than reported as an error.
package wikitext
