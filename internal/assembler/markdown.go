package assembler

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gtext "github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// flattenMarkdown strips markdown structure from chunk text so token
// estimates and the assembled context reflect the words the model will
// actually read, not markup.
func flattenMarkdown(src string) string {
	source := []byte(src)
	reader := gtext.NewReader(source)
	doc := markdown.Parser().Parse(reader)

	var b strings.Builder
	b.Grow(len(src))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch t := n.(type) {
			case *ast.Text:
				b.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte('\n')
				}
			case *ast.CodeBlock, *ast.FencedCodeBlock:
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
				}
			}
			return ast.WalkContinue, nil
		}
		// Separate blocks so adjacent paragraphs do not run together.
		switch n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.CodeBlock, *ast.FencedCodeBlock:
			b.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})

	return squeezeBlankLines(b.String())
}

func squeezeBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
