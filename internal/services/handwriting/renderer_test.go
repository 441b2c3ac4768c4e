package handwriting

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ternarybob/inkwell/internal/common"
	"github.com/ternarybob/inkwell/internal/models"
)

func testRenderConfig() common.RenderConfig {
	return common.NewDefaultConfig().Render
}

func newTestRenderer(t *testing.T, cfg common.RenderConfig) *Renderer {
	t.Helper()
	r, err := NewRendererFromFont(goregular.TTF, cfg, arbor.NewLogger())
	require.NoError(t, err)
	return r
}

func lineTexts(lines []models.Line) []string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return texts
}

func TestNewRenderer_TypefaceErrors(t *testing.T) {
	cfg := testRenderConfig()

	cfg.FontPath = filepath.Join(t.TempDir(), "missing.ttf")
	_, err := NewRenderer(cfg, arbor.NewLogger())
	assert.ErrorIs(t, err, ErrTypeface)

	_, err = NewRendererFromFont([]byte("not a font"), cfg, arbor.NewLogger())
	assert.ErrorIs(t, err, ErrTypeface)
}

func TestNewRenderer_InvalidColor(t *testing.T) {
	cfg := testRenderConfig()
	cfg.InkColor = "blue"

	_, err := NewRendererFromFont(goregular.TTF, cfg, arbor.NewLogger())
	assert.Error(t, err)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{name: "long form", input: "#1a237e", want: color.RGBA{R: 0x1a, G: 0x23, B: 0x7e, A: 0xff}},
		{name: "short form", input: "#fff", want: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{name: "no hash", input: "000000", want: color.RGBA{A: 0xff}},
		{name: "bad length", input: "#12345", wantErr: true},
		{name: "bad digits", input: "#zzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHexColor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrap(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())

	tests := []struct {
		name  string
		input string
		want  []models.Line
	}{
		{
			name:  "single short line",
			input: "Hello world",
			want:  []models.Line{{Text: "Hello world"}},
		},
		{
			name:  "blank line becomes gap",
			input: "A B\n\nC",
			want:  []models.Line{{Text: "A B"}, {Gap: true}, {Text: "C"}},
		},
		{
			name:  "crlf is a single break",
			input: "one\r\ntwo",
			want:  []models.Line{{Text: "one"}, {Text: "two"}},
		},
		{
			name:  "runs of spaces collapse",
			input: "  spaced    out  ",
			want:  []models.Line{{Text: "spaced out"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := r.Wrap(tt.input)
			require.NoError(t, err)
			require.Len(t, lines, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Text, lines[i].Text)
				assert.Equal(t, tt.want[i].Gap, lines[i].Gap)
				if !lines[i].Gap {
					assert.Positive(t, lines[i].Width)
				}
			}
		})
	}
}

func TestWrap_EmptyText(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())

	for _, input := range []string{"", "   ", "\n\n", "\t\r\n"} {
		_, err := r.Wrap(input)
		assert.ErrorIs(t, err, ErrEmptyText, "input %q", input)

		_, err = r.Render(context.Background(), input)
		assert.ErrorIs(t, err, ErrEmptyText, "input %q", input)
	}
}

func TestWrap_RespectsLineWidth(t *testing.T) {
	cfg := testRenderConfig()
	cfg.CanvasWidth = 320
	cfg.Padding = 20
	r := newTestRenderer(t, cfg)

	text := "The quick brown fox jumps over the lazy dog while the five boxing wizards jump quickly and pack my box with five dozen liquor jugs"
	lines, err := r.Wrap(text)
	require.NoError(t, err)
	require.Greater(t, len(lines), 1)

	limit := cfg.CanvasWidth - cfg.Padding
	for _, line := range lines {
		if strings.Contains(line.Text, " ") {
			assert.LessOrEqual(t, line.Width, limit, "line %q", line.Text)
		}
	}

	// Wrapping never drops or reorders words
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lineTexts(lines), " ")))
}

func TestWrap_OverWideWordKeptWhole(t *testing.T) {
	cfg := testRenderConfig()
	cfg.CanvasWidth = 120
	cfg.Padding = 20
	r := newTestRenderer(t, cfg)

	lines, err := r.Wrap("tiny Pneumonoultramicroscopic tiny")
	require.NoError(t, err)

	assert.Equal(t, []string{"tiny", "Pneumonoultramicroscopic", "tiny"}, lineTexts(lines))
	assert.Greater(t, lines[1].Width, cfg.CanvasWidth-cfg.Padding)
}

func TestRender_PageHeight(t *testing.T) {
	cfg := testRenderConfig()
	cfg.MinCanvasHeight = 10
	r := newTestRenderer(t, cfg)

	pages, err := r.Render(context.Background(), "A B\n\nC")
	require.NoError(t, err)
	require.Len(t, pages, 1)

	page := pages[0]
	wantHeight := 3*(cfg.LineHeight+cfg.LineSpacing) + 2*cfg.Padding
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, cfg.CanvasWidth, page.Width)
	assert.Equal(t, wantHeight, page.Height)
	assert.Equal(t, wantHeight, page.Image.Bounds().Dy())
	assert.Equal(t, cfg.CanvasWidth, page.Image.Bounds().Dx())
}

func TestRender_MinimumHeight(t *testing.T) {
	cfg := testRenderConfig()
	r := newTestRenderer(t, cfg)

	pages, err := r.Render(context.Background(), "Hello world")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, cfg.MinCanvasHeight, pages[0].Height)
	assert.Equal(t, cfg.MinCanvasHeight, r.PageHeight(1))
}

func TestRender_GapOccupiesOneFullLineSlot(t *testing.T) {
	cfg := testRenderConfig()
	r := newTestRenderer(t, cfg)

	pages, err := r.Render(context.Background(), "A\n\nB")
	require.NoError(t, err)
	img := pages[0].Image

	paper, err := parseHexColor(cfg.PaperColor)
	require.NoError(t, err)

	slot := cfg.LineHeight + cfg.LineSpacing
	rowInk := func(from, to int) int {
		count := 0
		for y := from; y < to; y++ {
			for x := 0; x < img.Bounds().Dx(); x++ {
				if img.RGBAAt(x, y) != paper {
					count++
				}
			}
		}
		return count
	}

	assert.Positive(t, rowInk(cfg.Padding, cfg.Padding+slot), "first slot should hold glyphs")
	assert.Zero(t, rowInk(cfg.Padding+slot, cfg.Padding+2*slot), "gap slot should be blank")
	assert.Positive(t, rowInk(cfg.Padding+2*slot, cfg.Padding+3*slot), "third slot should hold glyphs")
	assert.Zero(t, rowInk(0, cfg.Padding), "top padding should be blank")
}

func TestRender_Idempotent(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())
	text := "Same input\n\nsame output"

	first, err := r.Render(context.Background(), text)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), text)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Lines, second[i].Lines)
		assert.Equal(t, first[i].Height, second[i].Height)
		assert.Equal(t, first[i].Image.Pix, second[i].Image.Pix)
	}
}

func TestRender_Pagination(t *testing.T) {
	cfg := testRenderConfig()
	cfg.MaxLinesPerPage = 2
	cfg.MinCanvasHeight = 10
	r := newTestRenderer(t, cfg)

	pages, err := r.Render(context.Background(), "a\nb\nc\nd\ne")
	require.NoError(t, err)
	require.Len(t, pages, 3)

	slot := cfg.LineHeight + cfg.LineSpacing
	for i, want := range []int{2, 2, 1} {
		assert.Equal(t, i+1, pages[i].Number)
		assert.Len(t, pages[i].Lines, want)
		assert.Equal(t, want*slot+2*cfg.Padding, pages[i].Height)
	}
}

func TestRender_LongTextPaginatesUnderDefaults(t *testing.T) {
	cfg := testRenderConfig()
	r := newTestRenderer(t, cfg)

	text := strings.TrimSuffix(strings.Repeat("a\n", 100), "\n")
	pages, err := r.Render(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, pages, 4)

	for i, want := range []int{33, 33, 33, 1} {
		assert.Len(t, pages[i].Lines, want)
		assert.Equal(t, cfg.MinCanvasHeight, pages[i].Height)
	}
}

func TestRender_RejectsTextBeyondPageLimit(t *testing.T) {
	tests := []struct {
		name     string
		perPage  int
		maxPages int
		lines    int
		wantErr  bool
	}{
		{name: "huge input under defaults", perPage: 33, maxPages: 20, lines: 200000, wantErr: true},
		{name: "one line over the limit", perPage: 33, maxPages: 20, lines: 33*20 + 1, wantErr: true},
		{name: "exactly at the limit", perPage: 33, maxPages: 2, lines: 33 * 2},
		{name: "single page mode uses canvas capacity", perPage: 0, maxPages: 20, lines: 33*20 + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testRenderConfig()
			cfg.MaxLinesPerPage = tt.perPage
			cfg.MaxPages = tt.maxPages
			r := newTestRenderer(t, cfg)

			text := strings.TrimSuffix(strings.Repeat("a\n", tt.lines), "\n")
			pages, err := r.Render(context.Background(), text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTooLong)
				assert.Nil(t, pages)
				return
			}
			require.NoError(t, err)
			assert.Len(t, pages, cfg.MaxPages)
		})
	}
}

func TestWrapLines_StopsPastLimit(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())
	face, err := r.newFace()
	require.NoError(t, err)
	defer face.Close()

	lines := wrapLines(face, strings.Repeat("a\n", 1000), r.maxLineWidth(), 10)
	assert.Len(t, lines, 11)

	lines = wrapLines(face, strings.Repeat("word ", 2000), 40, 5)
	assert.Len(t, lines, 6)
}

func TestRender_CancelledContext(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, "Hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_Concurrent(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Render(context.Background(), "Concurrent requests share one renderer")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestEncodePNG(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())
	pages, err := r.Render(context.Background(), "Hello world")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(pages[0], &buf))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, pages[0].Width, decoded.Bounds().Dx())
	assert.Equal(t, pages[0].Height, decoded.Bounds().Dy())

	assert.Error(t, r.EncodePNG(&models.RenderedPage{}, &buf))
}

func TestWritePDF(t *testing.T) {
	cfg := testRenderConfig()
	cfg.MaxLinesPerPage = 1
	r := newTestRenderer(t, cfg)

	pages, err := r.Render(context.Background(), "first page\nsecond page")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	var buf bytes.Buffer
	require.NoError(t, r.WritePDF(pages, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	ctx, err := api.ReadContext(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration())
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())
	assert.Equal(t, 2, ctx.PageCount)
}

func TestWritePDF_NoPages(t *testing.T) {
	r := newTestRenderer(t, testRenderConfig())
	assert.ErrorIs(t, r.WritePDF(nil, &bytes.Buffer{}), ErrNoPages)
}

func TestPDFImageSize(t *testing.T) {
	cfg := testRenderConfig()
	r := newTestRenderer(t, cfg)
	pageW, pageH := 210.0, 297.0

	t.Run("fits page", func(t *testing.T) {
		w, h := r.pdfImageSize(&models.RenderedPage{Width: 1240, Height: 1754}, pageW, pageH)
		assert.InDelta(t, cfg.PDFImageWidth, w, 0.001)
		assert.InDelta(t, cfg.PDFImageWidth*1754/1240, h, 0.001)
	})

	t.Run("tall raster scaled to page height", func(t *testing.T) {
		w, h := r.pdfImageSize(&models.RenderedPage{Width: 1240, Height: 20000}, pageW, pageH)
		assert.InDelta(t, pageH-2*cfg.PDFImageY, h, 0.001)
		assert.Less(t, w, cfg.PDFImageWidth)
		assert.InDelta(t, 1240.0/20000.0, w/h, 0.0001)
	})
}
