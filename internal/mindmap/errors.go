package mindmap

import "errors"

// Sentinel errors for outline parsing and document building.
var (
	// ErrEmptyOutline indicates the outline has no heading, item or paragraph.
	ErrEmptyOutline = errors.New("outline has no content")

	// ErrOutlineTooLarge indicates the markdown input exceeds MaxInputSize.
	ErrOutlineTooLarge = errors.New("outline exceeds maximum size")

	// ErrTooManyNodes indicates the tree would exceed the node limit.
	ErrTooManyNodes = errors.New("outline has too many nodes")

	// ErrInvalidFrontMatter indicates the YAML front matter could not be decoded.
	ErrInvalidFrontMatter = errors.New("invalid front matter")

	// ErrParse indicates Goldmark failed to render part of the outline.
	ErrParse = errors.New("outline parsing failed")

	// ErrTemplate indicates the document template could not be loaded or executed.
	ErrTemplate = errors.New("mind-map template failed")
)
