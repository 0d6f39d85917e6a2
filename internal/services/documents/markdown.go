package documents

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// ExtractMarkdownText parses markdown and returns the plain text content,
// dropping formatting, links and code fences' decoration while keeping the
// readable text in document order.
func ExtractMarkdownText(markdown string) string {
	parser := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	)

	source := []byte(markdown)
	doc := parser.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Block boundaries become newlines so chunking sees sentence breaks
			switch n.(type) {
			case *ast.Heading, *ast.Paragraph, *ast.ListItem:
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString(" ")
			}
		case *ast.CodeBlock:
			writeLines(&sb, node, source)
		case *ast.FencedCodeBlock:
			writeLines(&sb, node, source)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(collapseBlankLines(sb.String()))
}

func writeLines(sb *strings.Builder, node ast.Node, source []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
