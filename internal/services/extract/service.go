// -----------------------------------------------------------------------
// Text Extractor Service - plain text from uploaded PDF and DOCX files
// -----------------------------------------------------------------------

package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/inkwell/internal/interfaces"
	"github.com/ternarybob/inkwell/internal/models"
)

var (
	// ErrEmptyPath is returned when Extract is called without a file path
	ErrEmptyPath = errors.New("extract: empty file path")
	// ErrEncrypted is returned for PDFs that need a user password to open
	ErrEncrypted = errors.New("extract: PDF is encrypted")
	// ErrNoDocumentBody is returned when a DOCX package has no word/document.xml part
	ErrNoDocumentBody = errors.New("extract: DOCX package has no word/document.xml")
)

// Service implements interfaces.TextExtractor
type Service struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.TextExtractor = (*Service)(nil)

// NewService creates a new text extraction service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// ExtractFile extracts text using the format implied by the path's suffix
func (s *Service) ExtractFile(ctx context.Context, path string) (*models.ExtractedDocument, error) {
	return s.Extract(ctx, path, models.FormatFromPath(path))
}

// Extract extracts the text of the file at path as the given format.
// Unsupported formats return the sentinel text without touching the file.
func (s *Service) Extract(ctx context.Context, path string, format models.Format) (*models.ExtractedDocument, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	if format != models.FormatPDF && format != models.FormatDocx {
		s.logger.Debug().
			Str("path", path).
			Str("format", string(format)).
			Msg("Unsupported document format, returning sentinel text")
		return &models.ExtractedDocument{
			Format: models.FormatUnsupported,
			Text:   models.UnsupportedFormatText,
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var (
		doc *models.ExtractedDocument
		err error
	)
	switch format {
	case models.FormatPDF:
		doc, err = s.extractPDF(ctx, path)
	case models.FormatDocx:
		doc, err = s.extractDocx(ctx, path)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("path", path).
			Str("format", string(format)).
			Msg("Text extraction failed")
		return nil, err
	}

	s.logger.Debug().
		Str("path", path).
		Str("format", string(doc.Format)).
		Int("page_count", doc.PageCount).
		Int("paragraphs", doc.Paragraphs).
		Int("text_len", len(doc.Text)).
		Msg("Extracted document text")

	return doc, nil
}
