package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/clipper"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	result := deps.Extraction.Extract(deps.Ctx, c.URL)

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Success {
			return clipper.Errorf(clipper.ENOTFOUND, "no article content found at %s", c.URL)
		}
		return nil
	}

	if !result.Success {
		fmt.Fprintf(deps.Stderr, "error: no article content found at %s\n", c.URL)
		return clipper.Errorf(clipper.ENOTFOUND, "no article content found at %s", c.URL)
	}

	fmt.Fprintln(deps.Stdout, result.Title)
	if byline := byline(result.MetaInfo); byline != "" {
		fmt.Fprintln(deps.Stdout, byline)
	}
	fmt.Fprintln(deps.Stdout)
	fmt.Fprintln(deps.Stdout, result.Content)
	return nil
}

func byline(meta clipper.MetaInfo) string {
	var parts []string
	if meta.Author != "" {
		parts = append(parts, meta.Author)
	}
	if meta.SiteName != "" {
		parts = append(parts, meta.SiteName)
	}
	if meta.PublishDate != "" {
		parts = append(parts, meta.PublishDate)
	}
	return strings.Join(parts, " | ")
}

// Run executes the markdown command.
func (c *MarkdownCmd) Run(deps *Dependencies) error {
	result := deps.Extraction.ExtractMarkdown(deps.Ctx, c.URL)
	if !result.Success {
		fmt.Fprintf(deps.Stderr, "error: %s\n", result.Reason)
		return clipper.Errorf(clipper.ENOTFOUND, "%s", result.Reason)
	}

	if result.Title != "" {
		fmt.Fprintf(deps.Stdout, "# %s\n\n", result.Title)
	}
	fmt.Fprint(deps.Stdout, result.Markdown)
	if !strings.HasSuffix(result.Markdown, "\n") {
		fmt.Fprintln(deps.Stdout)
	}
	return nil
}
