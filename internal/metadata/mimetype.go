package metadata

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// contentKind is the coarse classification of a token_uri payload
type contentKind int

const (
	contentUnknown contentKind = iota
	contentJSON
	contentMedia
)

// detectContent sniffs the payload behind a token_uri.
// Some collections point token_uri straight at the artwork instead of a JSON document.
func detectContent(content []byte) (contentKind, string) {
	mtype := mimetype.Detect(content)
	if mtype == nil {
		return contentUnknown, ""
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return contentJSON, mtype.String()
		}
	}

	value := mtype.String()
	switch {
	case strings.HasPrefix(value, "image/"), strings.HasPrefix(value, "video/"), strings.HasPrefix(value, "audio/"):
		return contentMedia, value
	case mtype.Is("text/plain"):
		// Some servers emit JSON with a leading BOM or whitespace the detector skips
		return contentJSON, value
	default:
		return contentUnknown, value
	}
}
