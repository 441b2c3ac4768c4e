package handwriting

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/ternarybob/inkwell/internal/models"
)

// EncodePNG writes one rendered page as PNG
func (r *Renderer) EncodePNG(page *models.RenderedPage, w io.Writer) error {
	if page == nil || page.Image == nil {
		return errors.New("handwriting: page has no raster")
	}
	if err := png.Encode(w, page.Image); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// WritePDF places each raster on its own PDF page at the configured position and width.
// Rasters taller than the page are scaled down to fit its height.
func (r *Renderer) WritePDF(pages []*models.RenderedPage, w io.Writer) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	doc := fpdf.New("P", "mm", r.cfg.PDFPageSize, "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("Inkwell", true)
	pageW, pageH := doc.GetPageSize()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, page := range pages {
		var buf bytes.Buffer
		if err := r.EncodePNG(page, &buf); err != nil {
			return err
		}

		name := fmt.Sprintf("page-%d", i+1)
		doc.RegisterImageOptionsReader(name, opts, &buf)

		width, height := r.pdfImageSize(page, pageW, pageH)
		doc.AddPage()
		doc.ImageOptions(name, r.cfg.PDFImageX, r.cfg.PDFImageY, width, height, false, opts, 0, "")
	}

	if err := doc.Error(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to generate PDF")
		return fmt.Errorf("failed to generate PDF: %w", err)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF output: %w", err)
	}

	r.logger.Debug().Int("pages", len(pages)).Msg("PDF generated successfully")
	return nil
}

func (r *Renderer) pdfImageSize(page *models.RenderedPage, pageW, pageH float64) (float64, float64) {
	width := r.cfg.PDFImageWidth
	if maxW := pageW - r.cfg.PDFImageX; width > maxW {
		width = maxW
	}
	height := width * float64(page.Height) / float64(page.Width)

	if maxH := pageH - 2*r.cfg.PDFImageY; height > maxH {
		height = maxH
		width = height * float64(page.Width) / float64(page.Height)
	}
	return width, height
}
