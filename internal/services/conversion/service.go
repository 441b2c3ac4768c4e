package conversion

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/inkwell/internal/interfaces"
	"github.com/ternarybob/inkwell/internal/models"
)

const (
	contentTypePNG = "image/png"
	contentTypePDF = "application/pdf"

	outputSuffix = "_handwritten"
)

// Service implements interfaces.ConversionService
type Service struct {
	extractor interfaces.TextExtractor
	renderer  interfaces.HandwritingRenderer
	store     interfaces.ScratchStore
	logger    arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ConversionService = (*Service)(nil)

// NewService creates the upload pipeline
func NewService(
	extractor interfaces.TextExtractor,
	renderer interfaces.HandwritingRenderer,
	store interfaces.ScratchStore,
	logger arbor.ILogger,
) *Service {
	return &Service{
		extractor: extractor,
		renderer:  renderer,
		store:     store,
		logger:    logger,
	}
}

// ExtractUpload stages the upload and extracts its text. The staged copy is removed on return.
func (s *Service) ExtractUpload(ctx context.Context, filename string, r io.Reader) (*models.ExtractedDocument, error) {
	path, err := s.store.StageUpload(filename, r)
	if err != nil {
		return nil, err
	}
	defer s.store.Remove(path)

	doc, err := s.extractor.ExtractFile(ctx, path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("filename", filename).
		Str("format", string(doc.Format)).
		Bool("unsupported", doc.Unsupported()).
		Int("text_len", len(doc.Text)).
		Msg("Extracted upload")

	return doc, nil
}

// RenderUpload extracts the upload and renders its text as handwriting. OutputAuto picks
// PNG for a single page and PDF otherwise.
func (s *Service) RenderUpload(ctx context.Context, filename string, r io.Reader, kind models.OutputKind) (*models.RenderedOutput, error) {
	doc, err := s.ExtractUpload(ctx, filename, r)
	if err != nil {
		return nil, err
	}

	pages, err := s.renderer.Render(ctx, doc.Text)
	if err != nil {
		return nil, err
	}

	if kind == models.OutputAuto || kind == "" {
		kind = models.OutputPDF
		if len(pages) == 1 {
			kind = models.OutputPNG
		}
	}

	var (
		ext         string
		contentType string
		write       func(io.Writer) error
	)
	switch kind {
	case models.OutputPNG:
		if len(pages) != 1 {
			return nil, fmt.Errorf("png output holds a single page, rendered %d", len(pages))
		}
		ext, contentType = ".png", contentTypePNG
		write = func(w io.Writer) error { return s.renderer.EncodePNG(pages[0], w) }
	case models.OutputPDF:
		ext, contentType = ".pdf", contentTypePDF
		write = func(w io.Writer) error { return s.renderer.WritePDF(pages, w) }
	default:
		return nil, fmt.Errorf("unknown output kind %q", kind)
	}

	stem := outputStem(filename)
	f, err := s.store.CreateOutput(stem, ext)
	if err != nil {
		return nil, err
	}

	err = write(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.store.Remove(f.Name())
		return nil, err
	}

	s.logger.Info().
		Str("filename", filename).
		Str("output", string(kind)).
		Int("pages", len(pages)).
		Msg("Rendered upload")

	return &models.RenderedOutput{
		Path:        f.Name(),
		Filename:    stem + ext,
		ContentType: contentType,
		Document:    doc,
		Pages:       len(pages),
	}, nil
}

// outputStem turns "dir/report.pdf" into "report_handwritten"
func outputStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + outputSuffix
}
