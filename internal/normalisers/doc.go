// Package normalisers holds the markup normalisers that turn raw article
// source into plain text. Each normaliser implements driven.MarkupParser.
package normalisers
