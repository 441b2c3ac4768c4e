package models

import (
	"path/filepath"
	"strings"
)

// Format identifies the kind of document an upload holds, derived from its filename suffix
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatDocx        Format = "docx"
	FormatUnsupported Format = "unsupported"
)

// UnsupportedFormatText is returned as the extracted text for files with an unrecognised suffix.
// It is a valid result, not an error, and is rendered like any other text.
const UnsupportedFormatText = "Unsupported file format"

// FormatFromPath returns the format implied by the path's suffix (case-insensitive)
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDocx
	default:
		return FormatUnsupported
	}
}

// ExtractedDocument is the text content of one uploaded file.
// Text is empty only when the source had no extractable content.
type ExtractedDocument struct {
	Format     Format `json:"format"`
	Text       string `json:"text"`
	PageCount  int    `json:"page_count,omitempty"` // PDF only
	Paragraphs int    `json:"paragraphs,omitempty"` // DOCX only
}

// Unsupported reports whether the document carries the unsupported-format sentinel
func (d *ExtractedDocument) Unsupported() bool {
	return d.Format == FormatUnsupported
}
