// -----------------------------------------------------------------------
// Handwriting Renderer - wraps text and rasterizes it with a fixed typeface
// -----------------------------------------------------------------------

package handwriting

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ternarybob/inkwell/internal/common"
	"github.com/ternarybob/inkwell/internal/interfaces"
	"github.com/ternarybob/inkwell/internal/models"
)

var (
	// ErrEmptyText is returned when there is nothing to lay out
	ErrEmptyText = errors.New("handwriting: empty text")
	// ErrTypeface is returned when the configured typeface is missing or unreadable
	ErrTypeface = errors.New("handwriting: invalid typeface")
	// ErrNoPages is returned when asked to serialize zero pages
	ErrNoPages = errors.New("handwriting: no pages to write")
	// ErrTooLong is returned when the text needs more than MaxPages canvases
	ErrTooLong = errors.New("handwriting: text too long to render")
)

// Renderer implements interfaces.HandwritingRenderer. The parsed font is shared and
// read-only; each call builds its own font.Face since faces cache glyphs internally.
type Renderer struct {
	cfg    common.RenderConfig
	font   *opentype.Font
	ink    color.RGBA
	paper  color.RGBA
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.HandwritingRenderer = (*Renderer)(nil)

// NewRenderer loads the typeface at cfg.FontPath. A missing or invalid typeface is fatal.
func NewRenderer(cfg common.RenderConfig, logger arbor.ILogger) (*Renderer, error) {
	data, err := os.ReadFile(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeface, err)
	}
	return NewRendererFromFont(data, cfg, logger)
}

// NewRendererFromFont builds a renderer from TrueType/OpenType bytes
func NewRendererFromFont(data []byte, cfg common.RenderConfig, logger arbor.ILogger) (*Renderer, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeface, err)
	}

	ink, err := parseHexColor(cfg.InkColor)
	if err != nil {
		return nil, fmt.Errorf("ink color: %w", err)
	}
	paper, err := parseHexColor(cfg.PaperColor)
	if err != nil {
		return nil, fmt.Errorf("paper color: %w", err)
	}

	r := &Renderer{
		cfg:    cfg,
		font:   f,
		ink:    ink,
		paper:  paper,
		logger: logger,
	}

	// Fail at construction rather than on the first request
	face, err := r.newFace()
	if err != nil {
		return nil, err
	}
	face.Close()

	return r, nil
}

func (r *Renderer) newFace() (font.Face, error) {
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    r.cfg.FontSize,
		DPI:     r.cfg.DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTypeface, err)
	}
	return face, nil
}

// Wrap returns the line slots for text at the configured canvas width
func (r *Renderer) Wrap(text string) ([]models.Line, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	face, err := r.newFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	return wrapLines(face, text, r.maxLineWidth(), 0), nil
}

// Render lays text out and draws it onto one or more pages
func (r *Renderer) Render(ctx context.Context, text string) ([]*models.RenderedPage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()

	face, err := r.newFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	budget := r.lineBudget()
	lines := wrapLines(face, text, r.maxLineWidth(), budget)
	if budget > 0 && len(lines) > budget {
		r.logger.Warn().
			Int("text_len", len(text)).
			Int("line_budget", budget).
			Int("max_pages", r.cfg.MaxPages).
			Msg("Text exceeds render limit")
		return nil, fmt.Errorf("%w: more than %d lines", ErrTooLong, budget)
	}
	chunks := paginate(lines, r.cfg.MaxLinesPerPage)

	pages := make([]*models.RenderedPage, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, r.drawPage(face, i+1, chunk))
	}

	r.logger.Debug().
		Int("text_len", len(text)).
		Int("lines", len(lines)).
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Rendered handwriting")

	return pages, nil
}

// PageHeight returns the canvas height needed for lineCount slots. It is never below
// the configured minimum canvas height.
func (r *Renderer) PageHeight(lineCount int) int {
	height := lineCount*r.slotHeight() + 2*r.cfg.Padding
	if height < r.cfg.MinCanvasHeight {
		return r.cfg.MinCanvasHeight
	}
	return height
}

// lineBudget is the most line slots one render may draw: MaxPages pages of MaxLinesPerPage,
// or of a minimum-height canvas when everything goes on one page. Zero means unbounded.
func (r *Renderer) lineBudget() int {
	if r.cfg.MaxPages <= 0 {
		return 0
	}
	perPage := r.cfg.MaxLinesPerPage
	if perPage <= 0 {
		perPage = r.cfg.LinesPerCanvas()
	}
	return perPage * r.cfg.MaxPages
}

func (r *Renderer) maxLineWidth() int {
	return r.cfg.CanvasWidth - r.cfg.Padding
}

func (r *Renderer) slotHeight() int {
	return r.cfg.LineHeight + r.cfg.LineSpacing
}

// drawPage allocates a canvas already sized for its lines and draws them left-aligned.
// Gap slots advance the cursor without drawing.
func (r *Renderer) drawPage(face font.Face, number int, lines []models.Line) *models.RenderedPage {
	width := r.cfg.CanvasWidth
	height := r.PageHeight(len(lines))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: r.paper}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: r.ink},
		Face: face,
	}
	ascent := face.Metrics().Ascent.Ceil()

	for i, line := range lines {
		if line.Gap {
			continue
		}
		top := r.cfg.Padding + i*r.slotHeight()
		drawer.Dot = fixed.P(r.cfg.Padding, top+ascent)
		drawer.DrawString(line.Text)
	}

	return &models.RenderedPage{
		Number: number,
		Width:  width,
		Height: height,
		Lines:  lines,
		Image:  img,
	}
}

// parseHexColor accepts #rgb and #rrggbb
func parseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	hex := strings.TrimPrefix(s, "#")

	var err error
	switch len(hex) {
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 3:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = fmt.Errorf("expected #rgb or #rrggbb")
	}
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return c, nil
}
