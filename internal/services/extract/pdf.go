package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ternarybob/inkwell/internal/models"
)

// extractPDF concatenates the plain text of every page in document order.
// No separator is inserted between pages, so "Foo" and "Bar" on two pages read "FooBar".
func (s *Service) extractPDF(ctx context.Context, path string) (*models.ExtractedDocument, error) {
	pageCount, encrypted, err := s.inspectPDF(path)
	if err != nil {
		return nil, err
	}

	textPath := path
	if encrypted {
		decrypted, err := s.decryptPDF(path)
		if err != nil {
			return nil, err
		}
		defer os.Remove(decrypted)
		textPath = decrypted
	}

	f, reader, err := pdf.Open(textPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		text.WriteString(pageText)
	}

	return &models.ExtractedDocument{
		Format:    models.FormatPDF,
		Text:      text.String(),
		PageCount: pageCount,
	}, nil
}

// inspectPDF reads the document structure with pdfcpu and returns its page count.
// Corrupt files fail here before any text is decoded. Files that open with the empty
// user password are reported as encrypted; files that need a real one fail with ErrEncrypted.
func (s *Service) inspectPDF(path string) (int, bool, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return 0, false, ErrEncrypted
		}
		return 0, false, fmt.Errorf("failed to read PDF context: %w", err)
	}

	encrypted := pdfCtx.Encrypt != nil

	s.logger.Debug().
		Str("path", path).
		Int("page_count", pdfCtx.PageCount).
		Bool("encrypted", encrypted).
		Msg("Inspected PDF structure")

	return pdfCtx.PageCount, encrypted, nil
}

// decryptPDF writes a decrypted copy of path next to it and returns the copy's path.
// The text reader cannot decode encrypted streams itself.
func (s *Service) decryptPDF(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(path), "decrypted-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create decrypted copy: %w", err)
	}

	// Classic xref table and plain objects keep the copy readable by the text reader
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	err = api.Decrypt(in, out, conf)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(out.Name())
		if errors.Is(err, pdfcpu.ErrWrongPassword) {
			return "", ErrEncrypted
		}
		return "", fmt.Errorf("failed to decrypt PDF: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Str("decrypted", out.Name()).
		Msg("Decrypted PDF with empty user password")

	return out.Name(), nil
}
