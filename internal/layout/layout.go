package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docreel/internal/doctree"
)

// Config controls page geometry in character cells.
type Config struct {
	Columns int // Characters per line.
	Rows    int // Lines per page, excluding the running header.
}

// DefaultConfig fits a US Letter page drawn with a 7x13 font and
// 54pt margins.
func DefaultConfig() Config {
	return Config{
		Columns: 72,
		Rows:    50,
	}
}

// Paginate lays a DocTree out into fixed-size pages. Every top-level
// section starts on a fresh page.
func Paginate(tree *doctree.DocTree, cfg Config) []doctree.Page {
	def := DefaultConfig()
	if cfg.Columns <= 0 {
		cfg.Columns = def.Columns
	}
	if cfg.Rows <= 1 {
		cfg.Rows = def.Rows
	}

	p := &paginator{cfg: cfg, title: tree.Title}
	for _, child := range tree.Children {
		p.breakPage()
		p.walk(child, nil)
	}
	return p.finish()
}

type paginator struct {
	cfg   Config
	title string
	pages []doctree.Page
	cur   *doctree.Page
}

func (p *paginator) walk(node *doctree.DocNode, breadcrumb []string) {
	bc := append(append([]string(nil), breadcrumb...), node.Title)
	if node.Title == "" {
		bc = bc[:len(bc)-1]
	}

	if node.Title != "" {
		// Keep a heading together with at least one line of its body.
		if p.cur != nil && len(p.cur.Lines) >= p.cfg.Rows-2 {
			p.breakPage()
		}
		p.blank()
		for _, l := range wrap(node.Title, p.cfg.Columns) {
			p.emit(doctree.Line{Text: l, Heading: true}, bc)
		}
	}

	for i, para := range splitByParagraphs(node.Text) {
		if i > 0 || node.Title != "" {
			p.blank()
		}
		for _, raw := range strings.Split(para, "\n") {
			for _, l := range wrap(raw, p.cfg.Columns) {
				p.emit(doctree.Line{Text: l}, bc)
			}
		}
	}

	for _, child := range node.Children {
		p.walk(child, bc)
	}
}

func (p *paginator) emit(line doctree.Line, breadcrumb []string) {
	if p.cur == nil || len(p.cur.Lines) >= p.cfg.Rows {
		p.newPage(breadcrumb)
	}
	p.cur.Lines = append(p.cur.Lines, line)
}

// blank adds a separator line, never at the top of a page.
func (p *paginator) blank() {
	if p.cur == nil || len(p.cur.Lines) == 0 || len(p.cur.Lines) >= p.cfg.Rows {
		return
	}
	if p.cur.Lines[len(p.cur.Lines)-1].Text == "" {
		return
	}
	p.cur.Lines = append(p.cur.Lines, doctree.Line{})
}

func (p *paginator) newPage(breadcrumb []string) {
	p.breakPage()
	header := p.title
	if len(breadcrumb) > 0 {
		header = strings.Join(append([]string{p.title}, breadcrumb...), " > ")
	}
	p.pages = append(p.pages, doctree.Page{Index: len(p.pages), Header: header})
	p.cur = &p.pages[len(p.pages)-1]
}

func (p *paginator) breakPage() {
	if p.cur == nil {
		return
	}
	for n := len(p.cur.Lines); n > 0 && p.cur.Lines[n-1].Text == ""; n-- {
		p.cur.Lines = p.cur.Lines[:n-1]
	}
	p.cur = nil
}

func (p *paginator) finish() []doctree.Page {
	p.breakPage()
	return p.pages
}

// splitByParagraphs splits on blank lines.
func splitByParagraphs(text string) []string {
	var result []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.Trim(part, "\n")
		if strings.TrimSpace(part) != "" {
			result = append(result, part)
		}
	}
	return result
}

// wrap breaks a single line into rows of at most width runes, splitting on
// spaces where possible. Leading indentation is kept on the first row.
func wrap(line string, width int) []string {
	line = strings.ReplaceAll(strings.TrimRight(line, " \t"), "\t", "    ")
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	if len(indent) > width/4 {
		indent = ""
	}

	var rows []string
	cur := indent
	fresh := true // cur holds no words yet
	for _, word := range strings.Fields(line) {
		for r := []rune(word); len(r) > width; r = []rune(word) {
			if !fresh {
				rows = append(rows, cur)
			}
			rows = append(rows, string(r[:width]))
			word = string(r[width:])
			cur, fresh = "", true
		}
		if word == "" {
			continue
		}
		switch {
		case fresh && utf8.RuneCountInString(cur)+utf8.RuneCountInString(word) <= width:
			cur += word
		case fresh:
			cur = word
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(word) <= width:
			cur += " " + word
		default:
			rows = append(rows, cur)
			cur = word
		}
		fresh = false
	}
	if !fresh {
		rows = append(rows, cur)
	}
	return rows
}
