// Package document opens source files as paged documents for the preview
// pipeline: PDFs through their page tree and pdftoppm, text-like formats
// through the parser and layout packages.
package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docreel/internal/layout"
	"github.com/dgallion1/docreel/internal/parser"
	"github.com/dgallion1/docreel/internal/preview"
)

// Opener picks a document implementation by file extension.
type Opener struct {
	Pdftoppm string
	Layout   layout.Config
}

func NewOpener(pdftoppm string) *Opener {
	return &Opener{Pdftoppm: pdftoppm, Layout: layout.DefaultConfig()}
}

// Open returns a preview.Document. Any failure is reported as
// preview.ErrUnreadableDocument.
func (o *Opener) Open(ctx context.Context, path string) (preview.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		doc preview.Document
		err error
	)
	switch {
	case strings.EqualFold(filepath.Ext(path), ".pdf"):
		doc, err = OpenPDF(path, o.Pdftoppm)
	case parser.IsSupportedExtension(path):
		doc, err = OpenText(path, o.Layout)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", preview.ErrUnreadableDocument, err)
	}
	return doc, nil
}

// Supported reports whether Open understands the file's extension.
func Supported(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf") || parser.IsSupportedExtension(filename)
}
