package transcode

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"

	"github.com/goliatone/go-slug"
)

const (
	fallbackAnchor = "faq"
	hashLength     = 6
)

// AnchorID derives the stable id attribute of a FAQ item from the owning
// document and the question text.
func AnchorID(documentID int64, question string) string {
	base, err := slug.Normalize(question)
	if err != nil || base == "" {
		base = fallbackAnchor
	}
	return base + "-" + anchorHash(documentID, question)
}

func anchorHash(documentID int64, question string) string {
	sum := md5.Sum([]byte(strconv.FormatInt(documentID, 10) + "|" + question))
	return hex.EncodeToString(sum[:])[:hashLength]
}
