package graph

import (
	"fmt"
	"strings"
)

// blockDelimiter separates document blocks so the model can tell record
// boundaries apart.
const blockDelimiter = "\n---\n"

// BuildContext renders the documents into one prompt block. It is a pure
// function of its input: the same ordered sequence always yields the same
// text. An empty sequence yields an empty string; callers must not prompt
// the model with it.
func BuildContext(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		var b strings.Builder
		fmt.Fprintf(&b, "Record %d:\n", i+1)
		if doc.Content != "" {
			fmt.Fprintf(&b, "product_description: %s\n", doc.Content)
		}
		for _, key := range MetadataKeys {
			value := doc.Metadata[key]
			if value == "" {
				value = Unknown
			}
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(blocks, blockDelimiter)
}
