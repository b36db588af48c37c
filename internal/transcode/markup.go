package transcode

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goliatone/go-faqmigrate/internal/escape"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blockStart = regexp.MustCompile(`(?i)^\s*<(p|ul|ol|div|blockquote|h[1-6]|details|summary)\b`)
	tagSpan    = regexp.MustCompile(`<[^>]*>`)
	entitySpan = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

	textQuotes = strings.NewReplacer("&#34;", `"`, "&#39;", "'")
	plainText  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#039;")
)

// StripTags returns the text content of a markup fragment. Script and style
// bodies are dropped along with their tags. Entity references are kept as
// written and inner whitespace is not collapsed.
func StripTags(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	literal := strings.ReplaceAll(fragment, "&", "&amp;")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(literal))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}

// BalanceTags closes unclosed elements and drops stray end tags by parsing the
// fragment in a body context and rendering it back.
func BalanceTags(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return fragment
	}
	body := &nethtml.Node{Type: nethtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := nethtml.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fragment
	}
	var buf bytes.Buffer
	for _, node := range nodes {
		if err := nethtml.Render(&buf, node); err != nil {
			return fragment
		}
	}
	return buf.String()
}

// NormalizeAnswer repairs escapes, decodes entities, sanitizes, balances and
// finally wraps inline answers in a paragraph.
func NormalizeAnswer(raw string, sanitizer Sanitizer) string {
	answer := escape.Normalize(raw)
	answer = html.UnescapeString(answer)
	if sanitizer != nil {
		answer = sanitizer.Sanitize(answer)
	}
	answer = strings.TrimSpace(literalQuotes(BalanceTags(answer)))
	if blockStart.MatchString(answer) {
		return answer
	}
	return "<p>" + answer + "</p>"
}

// literalQuotes turns the quote entities the HTML renderer emits in text
// back into literal characters. Attribute values inside tags are untouched.
func literalQuotes(rendered string) string {
	if !strings.Contains(rendered, "&#") {
		return rendered
	}
	return mapOutside(rendered, tagSpan, textQuotes.Replace)
}

// EscapeText escapes text for an HTML text node, leaving existing entity
// references alone.
func EscapeText(text string) string {
	return mapOutside(text, entitySpan, plainText.Replace)
}

// mapOutside applies fn to the parts of s that pattern does not match.
func mapOutside(s string, pattern *regexp.Regexp, fn func(string) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range pattern.FindAllStringIndex(s, -1) {
		b.WriteString(fn(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(s[last:]))
	return b.String()
}
