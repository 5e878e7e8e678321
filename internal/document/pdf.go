package document

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	pdflib "github.com/ledongthuc/pdf"
)

// PageSize is a page's visible size in PDF points, rotation applied.
type PageSize struct {
	Width  float64
	Height float64
}

// letter is used when a page carries no usable MediaBox.
var letter = PageSize{Width: 612, Height: 792}

// PDF is an opened PDF. Page geometry comes from the file's page tree;
// pixels come from pdftoppm.
type PDF struct {
	path     string
	pdftoppm string
	file     *os.File
	sizes    []PageSize
}

// OpenPDF reads the page tree of the PDF at path. The file stays open
// until Close.
func OpenPDF(path, pdftoppm string) (doc *PDF, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	// The reader and page tree walker panic on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			f.Close()
			doc, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	reader, err := pdflib.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := reader.NumPage()
	sizes := make([]PageSize, n)
	for i := range n {
		sizes[i] = pageSize(reader.Page(i + 1))
	}

	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	return &PDF{path: path, pdftoppm: pdftoppm, file: f, sizes: sizes}, nil
}

func (d *PDF) PageCount() int {
	return len(d.sizes)
}

// PageSize returns the size of page index (zero-based) in points.
func (d *PDF) PageSize(index int) PageSize {
	return d.sizes[index]
}

// Rasterize renders one page with pdftoppm, scaled so it fits inside the
// hinted size with its aspect ratio intact.
func (d *PDF) Rasterize(ctx context.Context, index, widthHint, heightHint int) (image.Image, error) {
	if index < 0 || index >= len(d.sizes) {
		return nil, fmt.Errorf("page %d out of range (0-%d)", index, len(d.sizes)-1)
	}
	w, h := fitPoints(d.sizes[index], widthHint, heightHint)

	dir, err := os.MkdirTemp("", "docreel-page-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	root := filepath.Join(dir, "page")
	page := strconv.Itoa(index + 1)
	args := []string{
		"-png", "-singlefile",
		"-f", page, "-l", page,
		"-scale-to-x", strconv.Itoa(w),
		"-scale-to-y", strconv.Itoa(h),
		d.path, root,
	}
	cmd := exec.CommandContext(ctx, d.pdftoppm, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", index+1, err, out)
	}

	f, err := os.Open(root + ".png")
	if err != nil {
		return nil, fmt.Errorf("open rendered page: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}

func (d *PDF) Close() error {
	return d.file.Close()
}

// pageSize reads MediaBox (inherited from parent page-tree nodes when
// absent) and applies /Rotate.
func pageSize(p pdflib.Page) PageSize {
	size := letter
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() != pdflib.Array || box.Len() != 4 {
			continue
		}
		w := math.Abs(box.Index(2).Float64() - box.Index(0).Float64())
		h := math.Abs(box.Index(3).Float64() - box.Index(1).Float64())
		if w > 0 && h > 0 {
			size = PageSize{Width: w, Height: h}
		}
		break
	}

	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		rot := v.Key("Rotate")
		if rot.Kind() != pdflib.Integer {
			continue
		}
		if r := ((rot.Int64() % 360) + 360) % 360; r == 90 || r == 270 {
			size.Width, size.Height = size.Height, size.Width
		}
		break
	}
	return size
}

// fitPoints converts a page size to the pixel size that fits (w, h).
func fitPoints(s PageSize, w, h int) (int, int) {
	scale := math.Min(float64(w)/s.Width, float64(h)/s.Height)
	pw := max(1, int(math.Round(s.Width*scale)))
	ph := max(1, int(math.Round(s.Height*scale)))
	return min(pw, w), min(ph, h)
}
