package document

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/dgallion1/docreel/internal/doctree"
	"github.com/dgallion1/docreel/internal/layout"
	"github.com/dgallion1/docreel/internal/parser"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Text page geometry: US Letter at one pixel per point.
const (
	textPageWidth  = 612
	textPageHeight = 792
	textMargin     = 54
)

var (
	inkBody    = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	inkHeading = color.RGBA{A: 0xff}
	inkHeader  = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// Text is a text-like document (plain text, Markdown, HTML, DOCX, CSV)
// laid out into letter-size pages.
type Text struct {
	title string
	pages []doctree.Page
}

// OpenText parses and paginates the document at path.
func OpenText(path string, cfg layout.Config) (*Text, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tree, err := p.Parse(f, path)
	if err != nil {
		return nil, err
	}
	return NewText(tree, cfg), nil
}

// NewText paginates an already parsed outline.
func NewText(tree *doctree.DocTree, cfg layout.Config) *Text {
	return &Text{title: tree.Title, pages: layout.Paginate(tree, cfg)}
}

func (d *Text) PageCount() int {
	return len(d.pages)
}

// Rasterize draws the page at its native letter size; the hints are ignored
// because the page has no higher native resolution to offer.
func (d *Text) Rasterize(ctx context.Context, index, _, _ int) (image.Image, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page %d out of range (0-%d)", index, len(d.pages)-1)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page := d.pages[index]

	img := image.NewRGBA(image.Rect(0, 0, textPageWidth, textPageHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	lineHeight := face.Height
	ascent := face.Ascent

	// Running header with a rule beneath it.
	drawString(img, inkHeader, textMargin, textMargin-lineHeight, truncateRunes(page.Header, (textPageWidth-2*textMargin)/face.Advance))
	rule := image.Rect(textMargin, textMargin-lineHeight+4, textPageWidth-textMargin, textMargin-lineHeight+5)
	draw.Draw(img, rule, image.NewUniform(inkHeader), image.Point{}, draw.Src)

	for i, line := range page.Lines {
		y := textMargin + ascent + i*lineHeight
		if line.Heading {
			// Double strike for a bold look.
			drawString(img, inkHeading, textMargin, y, line.Text)
			drawString(img, inkHeading, textMargin+1, y, line.Text)
			continue
		}
		drawString(img, inkBody, textMargin, y, line.Text)
	}

	footer := fmt.Sprintf("%d / %d", index+1, len(d.pages))
	fx := textPageWidth - textMargin - len(footer)*face.Advance
	drawString(img, inkHeader, fx, textPageHeight-textMargin+2*lineHeight, footer)
	return img, nil
}

func (d *Text) Close() error {
	return nil
}

func drawString(dst draw.Image, c color.Color, x, y int, s string) {
	dr := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	dr.DrawString(printable(s))
}

// printable swaps runes outside the font's ranges for '?' rather than the
// replacement-character box.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		for _, rng := range basicfont.Face7x13.Ranges {
			if rng.Low <= r && r < rng.High && r != '\ufffd' {
				return r
			}
		}
		return '?'
	}, s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
