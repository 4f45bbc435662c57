package document

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Metadata is rendered as YAML front matter on exported Markdown.
type Metadata struct {
	Title         string   `yaml:"title"`
	Source        string   `yaml:"source"`
	ProcessedTime string   `yaml:"processedTime"`
	Links         []string `yaml:"links,omitempty"`
}

type Document struct {
	// The markdown content of the scraped page.
	Content string
	// Metadata about the page.
	Metadata Metadata
}

func (d *Document) HasTitle() bool {
	return d.Metadata.Title != ""
}

// FindTitle returns the document title, falling back to the first level-1
// Markdown heading in the content when no title is set.
func (d *Document) FindTitle() string {
	if d.Metadata.Title != "" {
		return d.Metadata.Title
	}

	md := goldmark.New()

	content := []byte(d.Content)
	reader := text.NewReader(content)
	doc := md.Parser().Parse(reader)

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if heading, ok := n.(*ast.Heading); ok && entering && heading.Level == 1 {
			var titleBuilder strings.Builder
			for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
				if text, ok := child.(*ast.Text); ok {
					titleBuilder.Write(text.Segment.Value(content))
				}
			}
			title = titleBuilder.String()
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	d.Metadata.Title = title

	return title
}

// ToMarkdown renders the document as Markdown with the metadata as YAML
// front matter.
func (d *Document) ToMarkdown() (string, error) {
	d.FindTitle()

	frontMatter, err := yaml.Marshal(d.Metadata)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal metadata to YAML")
	}

	var builder strings.Builder
	builder.WriteString("---\n")
	builder.Write(frontMatter)
	builder.WriteString("---\n")
	builder.WriteString(d.Content)

	return builder.String(), nil
}
