package review

import "github.com/JaimeStill/rapid/internal/capability"

// Access is how files reach the model.
type Access int

const (
	// AccessTools exposes files through read tools the model calls on demand.
	AccessTools Access = iota
	// AccessEmbedded places file bytes directly in the request.
	AccessEmbedded
)

func (a Access) String() string {
	if a == AccessEmbedded {
		return "embedded"
	}
	return "tools"
}

// Content is whether the response is citation-tagged.
type Content int

const (
	ContentPlain Content = iota
	ContentCitations
)

func (c Content) String() string {
	if c == ContentCitations {
		return "citations"
	}
	return "plain"
}

// Strategy is the request shape chosen for one review.
type Strategy struct {
	Access     Access
	Content    Content
	ReviewType ReviewType
}

// Citations reports whether the strategy requests citations.
func (s Strategy) Citations() bool {
	return s.Content == ContentCitations
}

// UseEmbeddedDocument reports whether files should be embedded in the
// request. Image sets are never embedded.
func UseEmbeddedDocument(hasImages bool, c capability.Capability, citationsEnabled bool) bool {
	if hasImages {
		return false
	}
	return citationsEnabled && c.EmbeddedDocument
}

// SelectStrategy picks the access and content strategy for a file set.
func SelectStrategy(files []File, c capability.Capability, citationsEnabled bool) Strategy {
	hasImages := HasImages(files)

	switch {
	case hasImages:
		return Strategy{Access: AccessTools, Content: ContentPlain, ReviewType: TypeImage}
	case UseEmbeddedDocument(hasImages, c, citationsEnabled):
		content := ContentPlain
		if c.Citation {
			content = ContentCitations
		}
		return Strategy{Access: AccessEmbedded, Content: content, ReviewType: TypePDF}
	default:
		return Strategy{Access: AccessTools, Content: ContentPlain, ReviewType: TypePDF}
	}
}
