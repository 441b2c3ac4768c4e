package interfaces

import (
	"context"
	"io"

	"github.com/ternarybob/inkwell/internal/models"
)

// ConversionService runs the upload pipeline: stage, extract, and optionally render
type ConversionService interface {
	// ExtractUpload stages the upload, extracts its text and removes the staged file.
	ExtractUpload(ctx context.Context, filename string, r io.Reader) (*models.ExtractedDocument, error)

	// RenderUpload stages, extracts and renders the upload, leaving the serialized result in
	// the outputs directory. The caller must remove RenderedOutput.Path once it is sent.
	RenderUpload(ctx context.Context, filename string, r io.Reader, kind models.OutputKind) (*models.RenderedOutput, error)
}
