package scanner

import (
	"regexp"
	"strings"
)

const (
	// SourceBlockName is the legacy FAQ block recognised by the scanner.
	SourceBlockName = "rank-math/faq-block"
	// SourceMarker is the substring every document carrying a source block contains.
	// Stores use it to prefilter candidates.
	SourceMarker = "wp:" + SourceBlockName
)

// sourceBlockPattern matches one legacy block: an opener comment carrying a
// JSON object, the rendered body and the closer comment. Both the payload and
// the body are matched lazily, so adjacent blocks and comments nested inside a
// body are each resolved against the nearest closer.
var sourceBlockPattern = regexp.MustCompile(`(?s)<!--\s*wp:rank-math/faq-block\s+(\{.*?\})\s*-->.*?<!--\s*/wp:rank-math/faq-block\s*-->`)

// Match is one occurrence of a source block inside document content.
type Match struct {
	// Start and End are byte offsets of the whole block in the content.
	Start int
	End   int
	// Raw is content[Start:End].
	Raw string
	// Payload is the JSON object text taken from the opener comment.
	Payload string
}

// FindBlocks returns all non-overlapping source block occurrences in document
// order. Matching is left to right and lazy; once a block is matched, scanning
// resumes after its closer, so no byte belongs to two matches.
func FindBlocks(content string) []Match {
	if !strings.Contains(content, SourceMarker) {
		return nil
	}
	indexes := sourceBlockPattern.FindAllStringSubmatchIndex(content, -1)
	if len(indexes) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(indexes))
	for _, loc := range indexes {
		matches = append(matches, Match{
			Start:   loc[0],
			End:     loc[1],
			Raw:     content[loc[0]:loc[1]],
			Payload: content[loc[2]:loc[3]],
		})
	}
	return matches
}

// HasSourceMarker reports whether content mentions the source block at all.
func HasSourceMarker(content string) bool {
	return strings.Contains(content, SourceMarker)
}
