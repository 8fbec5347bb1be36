package wikitext

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
	"github.com/custodia-labs/wikichunk/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.MarkupParser = (*Normaliser)(nil)

// DefaultMaxDepth bounds template nesting that is parsed into blocks.
const DefaultMaxDepth = 16

// Normaliser handles MediaWiki markup.
type Normaliser struct {
	maxDepth int
}

// New creates a new wikitext normaliser.
func New() *Normaliser {
	return &Normaliser{maxDepth: DefaultMaxDepth}
}

// Pre-compiled regular expressions for markup stripping.
var (
	htmlComments        = regexp.MustCompile(`(?s)<!--.*?-->`)
	innermostLink       = regexp.MustCompile(`\[\[([^\[\]]*)\]\]`)
	externalLinkLabeled = regexp.MustCompile(`\[(?:https?:|ftp:)?//[^\s\]]+\s+([^\]]*)\]`)
	externalLinkBare    = regexp.MustCompile(`\[(?:https?:|ftp:)?//[^\s\]]+\]`)
	boldItalic          = regexp.MustCompile(`'{2,5}`)
	headings            = regexp.MustCompile(`(?m)^=+[ \t]*(.*?)[ \t]*=+[ \t]*$`)
	listMarkers         = regexp.MustCompile(`(?m)^[*#:;]+[ \t]*`)
	horizontalRules     = regexp.MustCompile(`(?m)^-{4,}`)
	behaviourSwitches   = regexp.MustCompile(`__[A-Z]+__`)
	multiSpaces         = regexp.MustCompile(`[ \t]+`)
)

// droppedElements are HTML elements whose content is not article prose.
var droppedElements = map[string]bool{
	"ref":             true,
	"math":            true,
	"gallery":         true,
	"timeline":        true,
	"score":           true,
	"syntaxhighlight": true,
	"templatedata":    true,
	"script":          true,
	"style":           true,
}

// hiddenNamespaces are link namespaces that render no inline text.
var hiddenNamespaces = map[string]bool{
	"file":     true,
	"image":    true,
	"media":    true,
	"category": true,
}

// Parse strips markup from raw and collects templates and link targets.
func (n *Normaliser) Parse(raw string) (out domain.ParsedMarkup) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("wikitext: falling back to raw text after parser fault: %v", r)
			out = domain.ParsedMarkup{Text: cleanWhitespace(raw)}
		}
	}()

	src := htmlComments.ReplaceAllString(raw, "")
	text, templates := n.strip(src, 0)

	return domain.ParsedMarkup{
		Text:      norm.NFC.String(text),
		Templates: templates,
		Links:     extractLinks(src),
	}
}

// strip converts one markup fragment to plain text.
func (n *Normaliser) strip(s string, depth int) (string, []domain.Template) {
	s, templates := n.removeTemplates(s, depth)
	s = removeTables(s)
	s = stripTags(s)
	s = replaceLinks(s)
	s = externalLinkLabeled.ReplaceAllString(s, "$1")
	s = externalLinkBare.ReplaceAllString(s, "")
	s = boldItalic.ReplaceAllString(s, "")
	s = headings.ReplaceAllString(s, "$1")
	s = listMarkers.ReplaceAllString(s, "")
	s = horizontalRules.ReplaceAllString(s, "")
	s = behaviourSwitches.ReplaceAllString(s, "")
	return cleanWhitespace(s), templates
}

// removeTemplates cuts every top-level {{...}} block out of s and parses it.
// An unbalanced opening brace pair is kept as text.
func (n *Normaliser) removeTemplates(s string, depth int) (string, []domain.Template) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	var b strings.Builder
	var templates []domain.Template
	for i := 0; i < len(s); {
		if !strings.HasPrefix(s[i:], "{{") {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := matchBraces(s, i)
		if end < 0 {
			b.WriteString(s[i:])
			break
		}
		if depth < n.maxDepth {
			templates = append(templates, n.parseTemplate(s[i+2:end-2], depth)...)
		}
		i = end
	}
	return b.String(), templates
}

// parseTemplate parses a template body (without braces) into the template
// itself followed by any templates nested in its parameters.
func (n *Normaliser) parseTemplate(body string, depth int) []domain.Template {
	parts := splitTopLevel(body, '|')
	tpl := domain.Template{Name: strings.Join(strings.Fields(parts[0]), " ")}

	var nested []domain.Template
	position := 0
	for _, part := range parts[1:] {
		var key, value string
		if idx := indexTopLevel(part, '='); idx >= 0 {
			key = strings.TrimSpace(part[:idx])
			value = part[idx+1:]
		} else {
			position++
			key = strconv.Itoa(position)
			value = part
		}

		text, inner := n.strip(value, depth+1)
		tpl.Params = append(tpl.Params, domain.Param{Name: key, Value: norm.NFC.String(text)})
		nested = append(nested, inner...)
	}

	return append([]domain.Template{tpl}, nested...)
}

// matchBraces returns the index just past the "}}" closing the "{{" at start,
// or -1 when the block is unbalanced.
func matchBraces(s string, start int) int {
	depth := 0
	for i := start; i < len(s)-1; {
		switch {
		case s[i] == '{' && s[i+1] == '{':
			depth++
			i += 2
		case s[i] == '}' && s[i+1] == '}':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return -1
}

// indexTopLevel returns the first index of sep outside nested {{ }} and [[ ]].
func indexTopLevel(s string, sep byte) int {
	braces, brackets := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			braces++
			i++
		case strings.HasPrefix(s[i:], "}}") && braces > 0:
			braces--
			i++
		case strings.HasPrefix(s[i:], "[["):
			brackets++
			i++
		case strings.HasPrefix(s[i:], "]]") && brackets > 0:
			brackets--
			i++
		case s[i] == sep && braces == 0 && brackets == 0:
			return i
		}
	}
	return -1
}

// splitTopLevel splits s on sep outside nested {{ }} and [[ ]].
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	for {
		idx := indexTopLevel(s, sep)
		if idx < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:idx])
		s = s[idx+1:]
	}
}

// removeTables drops {| ... |} blocks. Unbalanced tables are left untouched.
func removeTables(s string) string {
	if !strings.Contains(s, "{|") {
		return s
	}

	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "{|"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(s[i:], "|}"):
			depth--
			i++
		case depth == 0:
			b.WriteByte(s[i])
		}
	}
	if depth > 0 {
		return s
	}
	return b.String()
}

// stripTags removes embedded HTML, dropping the content of non-prose
// elements and decoding entities. A non-prose element without a matching
// close tag later in s is kept as text.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return html.UnescapeString(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	closes := closeTags(s)
	open := make(map[string]int)
	offset, skip := 0, 0
	for {
		tt := z.Next()
		offset += len(z.Raw())
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case droppedElements[tag]:
				if closesAfter(closes[tag], offset) > open[tag] {
					open[tag]++
					skip++
				}
			case tag == "br" || tag == "p" || tag == "li" || tag == "div":
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); droppedElements[tag] && open[tag] > 0 {
				open[tag]--
				skip--
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}

// closeTags returns the offsets of the "</name" close tags of non-prose
// elements in s, in ascending order per element.
func closeTags(s string) map[string][]int {
	closes := make(map[string][]int)
	for i := 0; ; {
		idx := strings.Index(s[i:], "</")
		if idx < 0 {
			return closes
		}
		start := i + idx
		end := start + 2
		for end < len(s) && isASCIILetter(s[end]) {
			end++
		}
		if name := strings.ToLower(s[start+2 : end]); droppedElements[name] {
			closes[name] = append(closes[name], start)
		}
		i = start + 2
	}
}

// closesAfter counts the offsets in closes at or after offset.
func closesAfter(closes []int, offset int) int {
	return len(closes) - sort.SearchInts(closes, offset)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// replaceLinks renders wikilinks as their visible text, innermost first so
// links inside image captions resolve before the image link is dropped.
func replaceLinks(s string) string {
	for strings.Contains(s, "[[") {
		next := innermostLink.ReplaceAllStringFunc(s, linkText)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// linkText returns the visible text of one [[...]] match.
func linkText(match string) string {
	inner := match[2 : len(match)-2]
	target, label, hasLabel := strings.Cut(inner, "|")
	if isHidden(target) {
		return ""
	}
	if hasLabel && strings.TrimSpace(label) != "" {
		return label
	}
	return strings.TrimPrefix(strings.TrimSpace(target), ":")
}

// isHidden reports whether a link target lives in a namespace with no inline text.
func isHidden(target string) bool {
	ns, _, ok := strings.Cut(strings.TrimSpace(target), ":")
	return ok && hiddenNamespaces[strings.ToLower(strings.TrimSpace(ns))]
}

// extractLinks returns the distinct article link targets of src in order.
func extractLinks(src string) []string {
	matches := innermostLink.FindAllStringSubmatch(src, -1)
	seen := make(map[string]bool, len(matches))
	var links []string
	for _, m := range matches {
		target, _, _ := strings.Cut(m[1], "|")
		if isHidden(target) {
			continue
		}
		title := NormaliseTitle(target)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		links = append(links, title)
	}
	return links
}

// NormaliseTitle converts a link target to canonical title form: the
// section anchor is removed, underscores become spaces, runs of spaces
// collapse and the first letter is upper-cased.
func NormaliseTitle(target string) string {
	target, _, _ = strings.Cut(target, "#")
	target = strings.TrimPrefix(strings.TrimSpace(target), ":")
	target = strings.ReplaceAll(target, "_", " ")
	target = strings.Join(strings.Fields(target), " ")
	if target == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(target)
	return string(unicode.ToUpper(r)) + target[size:]
}

// cleanWhitespace collapses spaces, trims each line and removes empty lines.
func cleanWhitespace(content string) string {
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	result := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
