// Package htmltomarkdown implements clipper.Converter with
// JohannesKaufmann/html-to-markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/clipper"
)

// Ensure Converter implements clipper.Converter at compile time.
var _ clipper.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown and
// normalizes the result with clipper.FormatMarkdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter with ATX headings, dash bullets,
// fenced code and tables.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithBulletListMarker("-"),
				commonmark.WithCodeBlockFence("```"),
			),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into formatted Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", clipper.Errorf(clipper.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", clipper.Errorf(clipper.EINTERNAL, "convert to markdown: %v", err)
	}

	return clipper.FormatMarkdown(result), nil
}
