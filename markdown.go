package clipper

import (
	"regexp"
	"strings"
)

// Reflow limits for FormatMarkdown.
const (
	// ReflowMaxLineLength is the line length above which a paragraph line
	// is considered for reflow.
	ReflowMaxLineLength = 100

	// ReflowWordsPerLine is the chunk size, in words, of a reflowed line.
	ReflowWordsPerLine = 15
)

var (
	headingRe    = regexp.MustCompile(`^#{1,6}(\s|$)`)
	listItemRe   = regexp.MustCompile(`^([-*+]|\d{1,9}[.)])\s`)
	ruleRe       = regexp.MustCompile(`^(?:(?:\*\s*){3,}|(?:-\s*){3,}|(?:_\s*){3,})$`)
	fenceRe      = regexp.MustCompile("^(`{3,}|~{3,})")
	wordRe       = regexp.MustCompile("(?:!?\\[[^\\]]*\\]\\([^)]*\\)|`[^`]*`|\\S)+")
	splitLinkRe  = regexp.MustCompile(`\[([^\]\n]+)\]\(\s*\n\s*([^)\n]+?)\s*\)`)
	linkRe       = regexp.MustCompile(`(!?)\[([^\]\n]*)\]\(([^)\n]*)\)`)
	strongTextRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	emTextRe     = regexp.MustCompile(`\*([^*]+)\*`)
	underTextRe  = regexp.MustCompile(`(^|\s)_([^_]+)_(\s|$)`)
)

// lineKind classifies an emitted Markdown line.
type lineKind int

const (
	kindBlank lineKind = iota
	kindText
	kindHeading
	kindList
	kindQuote
	kindCode
	kindTable
	kindRule
)

// FormatMarkdown normalizes converter output for reading:
//   - a blank line before and after every heading, horizontal rule and
//     fenced code block, and before every list or blockquote run
//   - long single-line paragraphs reflowed into chunks of
//     ReflowWordsPerLine words separated by blank lines
//   - links with emphasized text hoisted (`[*t*](u)` becomes `*[t](u)*`),
//     empty links collapsed and links split across lines joined
//   - at most one blank line in a row outside code blocks, two inside
//
// Content of fenced code blocks is preserved.
func FormatMarkdown(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	md = splitLinkRe.ReplaceAllString(md, "[$1]($2)")

	f := &mdFormatter{}
	for _, raw := range strings.Split(md, "\n") {
		f.line(raw)
	}
	return strings.Trim(strings.Join(f.out, "\n"), "\n")
}

type mdFormatter struct {
	out       []string
	kinds     []lineKind
	fence     string // opening fence marker while inside a code block
	blankNext bool   // the next non-blank line must be preceded by a blank line
}

func (f *mdFormatter) line(raw string) {
	line := strings.TrimRight(raw, " \t")
	trimmed := strings.TrimSpace(line)

	if f.fence != "" {
		f.codeLine(line, trimmed)
		return
	}

	if trimmed == "" {
		f.blank()
		return
	}

	switch {
	case fenceRe.MatchString(trimmed):
		f.fence = fenceRe.FindString(trimmed)
		f.separate()
		f.emit(line, kindCode)
	case headingRe.MatchString(trimmed):
		f.separate()
		f.emit(RepairLinks(trimmed), kindHeading)
		f.blankNext = true
	case ruleRe.MatchString(trimmed):
		f.separate()
		f.emit(trimmed, kindRule)
		f.blankNext = true
	case listItemRe.MatchString(trimmed):
		if prev := f.prevKind(); prev != kindBlank && prev != kindList {
			f.separate()
		}
		f.emit(RepairLinks(line), kindList)
	case strings.HasPrefix(trimmed, ">"):
		if f.prevKind() != kindQuote {
			f.separate()
		}
		f.emit(RepairLinks(line), kindQuote)
	case strings.HasPrefix(trimmed, "|"):
		f.emit(RepairLinks(trimmed), kindTable)
	case line != trimmed && f.prevKind() == kindList:
		// Indented continuation of a list item.
		f.emit(RepairLinks(line), kindList)
	default:
		f.paragraph(RepairLinks(trimmed))
	}
}

// codeLine handles a line inside a fenced code block.
func (f *mdFormatter) codeLine(line, trimmed string) {
	if trimmed == "" {
		// Allow at most two blank lines in a row inside code.
		n := len(f.out)
		if n >= 2 && f.out[n-1] == "" && f.out[n-2] == "" {
			return
		}
		f.out = append(f.out, "")
		f.kinds = append(f.kinds, kindCode)
		return
	}
	f.emit(line, kindCode)
	if strings.HasPrefix(trimmed, f.fence) && strings.Trim(trimmed, f.fence[:1]) == "" {
		f.fence = ""
		f.blankNext = true
	}
}

// paragraph emits a text line, reflowing it when it is too long.
func (f *mdFormatter) paragraph(text string) {
	for i, chunk := range reflow(text) {
		if i > 0 {
			f.blank()
		}
		f.emit(chunk, kindText)
	}
}

// reflow breaks a long plain-text line into word chunks.
// Lines starting with a link or image are left alone.
func reflow(text string) []string {
	if len(text) <= ReflowMaxLineLength || strings.HasPrefix(text, "[") || strings.HasPrefix(text, "![") {
		return []string{text}
	}
	words := wordRe.FindAllString(text, -1)
	if len(words) <= ReflowWordsPerLine {
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(words); start += ReflowWordsPerLine {
		end := min(start+ReflowWordsPerLine, len(words))
		chunk := strings.Join(words[start:end], " ")
		if start > 0 {
			chunk = escapeBlockStart(chunk)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// escapeBlockStart escapes a chunk that would otherwise open a list item,
// heading, quote or rule once it starts its own line.
func escapeBlockStart(chunk string) string {
	if m := listItemRe.FindStringSubmatch(chunk); m != nil {
		marker := m[1]
		if n := len(marker); marker[n-1] == '.' || marker[n-1] == ')' {
			return marker[:n-1] + `\` + chunk[n-1:]
		}
		return `\` + chunk
	}
	if headingRe.MatchString(chunk) || strings.HasPrefix(chunk, ">") || ruleRe.MatchString(chunk) {
		return `\` + chunk
	}
	return chunk
}

func (f *mdFormatter) emit(line string, kind lineKind) {
	if f.blankNext {
		f.separate()
	}
	f.out = append(f.out, line)
	f.kinds = append(f.kinds, kind)
}

// blank records a blank line unless the previous line is already blank.
func (f *mdFormatter) blank() {
	if len(f.out) == 0 || f.prevKind() == kindBlank {
		return
	}
	f.out = append(f.out, "")
	f.kinds = append(f.kinds, kindBlank)
}

// separate guarantees the next emitted line follows a blank line.
func (f *mdFormatter) separate() {
	f.blankNext = false
	f.blank()
}

func (f *mdFormatter) prevKind() lineKind {
	if len(f.kinds) == 0 {
		return kindBlank
	}
	return f.kinds[len(f.kinds)-1]
}

// RepairLinks fixes common defects in Markdown links on a single line:
// emphasis inside link text is hoisted outside the link, links with an
// empty URL collapse to their text, links with empty text are removed and
// whitespace inside the URL parentheses is trimmed. Images are only trimmed.
func RepairLinks(line string) string {
	if !strings.Contains(line, "](") {
		return line
	}
	return linkRe.ReplaceAllStringFunc(line, func(m string) string {
		parts := linkRe.FindStringSubmatch(m)
		bang, text, target := parts[1], parts[2], strings.TrimSpace(parts[3])

		if bang != "" {
			return "![" + text + "](" + target + ")"
		}
		if target == "" {
			return text
		}
		if strings.TrimSpace(text) == "" {
			return ""
		}

		switch {
		case strongTextRe.MatchString(text):
			return "**[" + stripEmphasis(text) + "](" + target + ")**"
		case emTextRe.MatchString(text):
			return "*[" + stripEmphasis(text) + "](" + target + ")*"
		case underTextRe.MatchString(text):
			return "_[" + stripEmphasis(text) + "](" + target + ")_"
		}
		return "[" + text + "](" + target + ")"
	})
}

// stripEmphasis removes emphasis markers from link text.
func stripEmphasis(text string) string {
	text = strongTextRe.ReplaceAllString(text, "$1")
	text = emTextRe.ReplaceAllString(text, "$1")
	text = underTextRe.ReplaceAllString(text, "$1$2$3")
	return text
}
