package models

import "image"

// Line is one slot of a wrapped layout. Gap slots come from empty logical lines and are
// advanced over without drawing.
type Line struct {
	Text  string `json:"text"`
	Gap   bool   `json:"gap,omitempty"`
	Width int    `json:"width"` // measured pixel width at the configured font size
}

// RenderedPage is one handwriting raster. Height is fixed from the line count before
// any pixels are allocated, and Width never changes after layout.
type RenderedPage struct {
	Number int         `json:"number"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Lines  []Line      `json:"lines"`
	Image  *image.RGBA `json:"-"`
}

// OutputKind selects how rendered pages are serialized for the caller
type OutputKind string

const (
	// OutputAuto returns a PNG for a single page and a PDF when the text spans several pages
	OutputAuto OutputKind = "auto"
	OutputPNG  OutputKind = "png"
	OutputPDF  OutputKind = "pdf"
)

// RenderedOutput is a serialized render waiting in the outputs scratch directory
type RenderedOutput struct {
	Path        string             `json:"-"`
	Filename    string             `json:"filename"`
	ContentType string             `json:"content_type"`
	Document    *ExtractedDocument `json:"document"`
	Pages       int                `json:"pages"`
}
