package interfaces

import (
	"context"
	"io"

	"github.com/ternarybob/inkwell/internal/models"
)

// HandwritingRenderer lays text out into wrapped lines and rasterizes it with a fixed typeface
type HandwritingRenderer interface {
	// Wrap computes the line slots for text without rasterizing.
	Wrap(text string) ([]models.Line, error)

	// Render produces one or more pages for text. Empty text is rejected.
	Render(ctx context.Context, text string) ([]*models.RenderedPage, error)

	// EncodePNG writes a single page as PNG.
	EncodePNG(page *models.RenderedPage, w io.Writer) error

	// WritePDF writes all pages into one PDF document, one page per raster.
	WritePDF(pages []*models.RenderedPage, w io.Writer) error
}
