package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docreel/internal/doctree"
)

// TextParser handles plain text. Blank lines separate paragraphs; form
// feeds start a new untitled section so explicit page breaks survive layout.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	section := &doctree.DocNode{}
	var paras []string
	var current strings.Builder

	endPara := func() {
		if current.Len() > 0 {
			paras = append(paras, current.String())
			current.Reset()
		}
	}
	endSection := func() {
		endPara()
		if len(paras) > 0 {
			section.Text = strings.Join(paras, "\n\n")
			tree.Children = append(tree.Children, section)
		}
		section = &doctree.DocNode{}
		paras = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		for {
			before, after, found := strings.Cut(line, "\f")
			if !found {
				break
			}
			appendLine(&current, before, endPara)
			endSection()
			line = after
		}
		appendLine(&current, line, endPara)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	endSection()

	return tree, nil
}

func appendLine(current *strings.Builder, line string, endPara func()) {
	if strings.TrimSpace(line) == "" {
		endPara()
		return
	}
	if current.Len() > 0 {
		current.WriteString("\n")
	}
	current.WriteString(strings.TrimRight(line, " \t\r"))
}
