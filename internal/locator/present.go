package locator

import "github.com/sha1n/mcp-doc-agent/internal/domain"

// PresentationKind drives how a caller renders a lookup result.
type PresentationKind string

const (
	PresentNotFound PresentationKind = "not_found"
	PresentLink     PresentationKind = "link"
	PresentImage    PresentationKind = "image"
	PresentList     PresentationKind = "list"
)

// Present classifies a result by cardinality: none, a single link or inline image, or a list.
func Present(records []domain.DocumentRecord) PresentationKind {
	switch len(records) {
	case 0:
		return PresentNotFound
	case 1:
		if records[0].IsImage() {
			return PresentImage
		}
		return PresentLink
	default:
		return PresentList
	}
}
