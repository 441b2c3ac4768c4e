package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/inkwell/internal/models"
)

const (
	wordNamespace    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	documentPartName = "word/document.xml"
)

// extractDocx joins the body paragraphs of a Word document with a single newline.
// Paragraph styling is ignored and table cell paragraphs are not part of the body.
func (s *Service) extractDocx(ctx context.Context, path string) (*models.ExtractedDocument, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX package: %w", err)
	}
	defer zr.Close()

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPartName {
			part = f
			break
		}
	}
	if part == nil {
		return nil, ErrNoDocumentBody
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", documentPartName, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return nil, err
	}

	return &models.ExtractedDocument{
		Format:     models.FormatDocx,
		Text:       strings.Join(paragraphs, "\n"),
		Paragraphs: len(paragraphs),
	}, nil
}

// readParagraphs streams document.xml and returns the text of each w:p that is a direct
// child of w:body. Run content maps w:t to its text, w:tab and w:ptab to a tab, and
// w:br and w:cr to a newline. Page and column breaks produce nothing.
func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		stack      []xml.Name
		current    *strings.Builder
		paraDepth  int
		inText     bool
	)

	parentIs := func(local string) bool {
		if len(stack) == 0 {
			return false
		}
		top := stack[len(stack)-1]
		return top.Space == wordNamespace && top.Local == local
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", documentPartName, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wordNamespace {
				switch {
				case t.Name.Local == "p" && current == nil && parentIs("body"):
					current = &strings.Builder{}
					paraDepth = len(stack) + 1
				case current != nil && parentIs("r"):
					switch t.Name.Local {
					case "t":
						inText = true
					case "tab", "ptab":
						current.WriteByte('\t')
					case "cr":
						current.WriteByte('\n')
					case "br":
						if breakType(t) == "" || breakType(t) == "textWrapping" {
							current.WriteByte('\n')
						}
					case "noBreakHyphen":
						current.WriteByte('-')
					}
				}
			}
			stack = append(stack, t.Name)

		case xml.CharData:
			if inText && current != nil {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space == wordNamespace {
				if t.Name.Local == "t" {
					inText = false
				}
				if t.Name.Local == "p" && current != nil && len(stack) == paraDepth {
					paragraphs = append(paragraphs, current.String())
					current = nil
				}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	return paragraphs, nil
}

func breakType(el xml.StartElement) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" {
			return attr.Value
		}
	}
	return ""
}
