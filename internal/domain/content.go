package domain

// ContentKind tags the representation an extraction attempt produced.
type ContentKind int

const (
	ContentUnavailable ContentKind = iota
	ContentText
	ContentImage
)

// ExtractedContent is the tagged result of a document extraction: exactly one
// representation per report, chosen by which extraction path succeeded.
type ExtractedContent struct {
	Kind      ContentKind
	Text      string
	Image     []byte
	ImageMIME string
}

// TextContent wraps extracted document text.
func TextContent(text string) ExtractedContent {
	return ExtractedContent{Kind: ContentText, Text: text}
}

// ImageContent wraps a rendered first-page image.
func ImageContent(data []byte, mime string) ExtractedContent {
	return ExtractedContent{Kind: ContentImage, Image: data, ImageMIME: mime}
}

// UnavailableContent marks a report whose document could not be read.
func UnavailableContent() ExtractedContent {
	return ExtractedContent{Kind: ContentUnavailable}
}
