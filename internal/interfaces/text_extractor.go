// -----------------------------------------------------------------------
// Text Extractor Interface - Extract plain text from uploaded documents
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/inkwell/internal/models"
)

// TextExtractor turns a staged document into its plain-text content.
// Unsupported formats are not errors: they yield models.UnsupportedFormatText.
type TextExtractor interface {
	// Extract reads the file at path as the given format.
	Extract(ctx context.Context, path string, format models.Format) (*models.ExtractedDocument, error)

	// ExtractFile derives the format from the path suffix and extracts.
	ExtractFile(ctx context.Context, path string) (*models.ExtractedDocument, error)
}
