package handwriting

import (
	"strings"

	"golang.org/x/image/font"

	"github.com/ternarybob/inkwell/internal/models"
)

// wrapLines splits text into logical lines on '\n' and greedily packs each line's words
// into slots no wider than maxWidth. A word that alone exceeds maxWidth gets a slot of its
// own and is never split. Empty logical lines become gap slots. With limit > 0 wrapping
// stops as soon as more than limit slots exist.
func wrapLines(face font.Face, text string, maxWidth, limit int) []models.Line {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []models.Line
	full := func() bool { return limit > 0 && len(lines) > limit }

	for rest, more := text, true; more && !full(); {
		var logical string
		logical, rest, more = strings.Cut(rest, "\n")

		words := strings.Fields(logical)
		if len(words) == 0 {
			lines = append(lines, models.Line{Gap: true})
			continue
		}

		current := words[0]
		currentWidth := measure(face, current)
		for _, word := range words[1:] {
			candidate := current + " " + word
			candidateWidth := measure(face, candidate)
			if candidateWidth > maxWidth {
				lines = append(lines, models.Line{Text: current, Width: currentWidth})
				if full() {
					return lines
				}
				current = word
				currentWidth = measure(face, word)
				continue
			}
			current = candidate
			currentWidth = candidateWidth
		}
		lines = append(lines, models.Line{Text: current, Width: currentWidth})
	}

	return lines
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// paginate chunks slots into pages of at most perPage; perPage <= 0 keeps one page
func paginate(lines []models.Line, perPage int) [][]models.Line {
	if perPage <= 0 || len(lines) <= perPage {
		return [][]models.Line{lines}
	}

	var pages [][]models.Line
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	return pages
}
