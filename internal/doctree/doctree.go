package doctree

// DocTree is the outline of a text-like document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a section of the outline.
type DocNode struct {
	Title    string     // Section heading (empty for body-only nodes)
	Text     string     // Paragraphs separated by blank lines
	Children []*DocNode // Subsections
}

// Line is one laid-out row of a page.
type Line struct {
	Text    string
	Heading bool
}

// Page is a fixed-capacity block of laid-out lines, ready to rasterize.
type Page struct {
	Index  int      // Zero-based page number
	Header string   // Running header, e.g. "Report > Results"
	Lines  []Line
}
