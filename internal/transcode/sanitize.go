package transcode

import "github.com/microcosm-cc/bluemonday"

// postContentElements mirrors the tag set accepted in post content by the target editor.
var postContentElements = []string{
	"p", "br", "hr", "div", "span",
	"strong", "b", "em", "i", "u", "s", "del", "ins", "mark", "small", "sub", "sup",
	"code", "pre", "kbd", "blockquote", "q", "cite", "abbr",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"details", "summary", "figure", "figcaption",
}

// NewPostContentPolicy builds the allow-list policy applied to FAQ answers.
func NewPostContentPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowStandardURLs()
	policy.RequireNoFollowOnLinks(false)
	policy.AllowAttrs("href", "rel", "target").OnElements("a")
	policy.AllowImages()
	policy.AllowLists()
	policy.AllowTables()
	policy.AllowElements(postContentElements...)
	policy.AllowAttrs("class", "id", "title", "lang", "dir").Globally()
	policy.AllowAttrs("open").OnElements("details")
	policy.AllowAttrs("cite").OnElements("blockquote", "q")
	return policy
}

// DefaultSanitizer returns the bluemonday backed answer sanitizer.
func DefaultSanitizer() Sanitizer {
	return NewPostContentPolicy()
}
