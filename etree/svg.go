// Package etree sanitizes SVG images with beevik/etree.
package etree

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/clipper"
)

// Ensure SVGSanitizer implements clipper.ImageSanitizer at compile time.
var _ clipper.ImageSanitizer = (*SVGSanitizer)(nil)

// blockedElements never survive sanitizing.
var blockedElements = map[string]bool{
	"script":        true,
	"foreignobject": true,
	"iframe":        true,
	"embed":         true,
	"object":        true,
}

// SVGSanitizer removes active content from SVG documents: scripts, foreign
// objects, event handler attributes and javascript: references.
type SVGSanitizer struct{}

// NewSVGSanitizer creates a new SVGSanitizer.
func NewSVGSanitizer() *SVGSanitizer {
	return &SVGSanitizer{}
}

// Sanitize parses body as XML and returns the cleaned document.
// DOCTYPE declarations are dropped.
func (s *SVGSanitizer) Sanitize(body []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, clipper.Errorf(clipper.EINVALID, "parsing SVG: %v", err)
	}
	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "svg") {
		return nil, clipper.Errorf(clipper.EINVALID, "not an SVG document")
	}

	kept := doc.Child[:0]
	for _, tok := range doc.Child {
		if _, ok := tok.(*etree.Directive); ok {
			continue
		}
		kept = append(kept, tok)
	}
	doc.Child = kept

	clean(root)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, clipper.Errorf(clipper.EINTERNAL, "writing SVG: %v", err)
	}
	return out, nil
}

func clean(el *etree.Element) {
	for _, child := range el.ChildElements() {
		if blockedElements[strings.ToLower(child.Tag)] {
			el.RemoveChild(child)
			continue
		}
		clean(child)
	}

	attrs := el.Attr[:0]
	for _, a := range el.Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Value)), "javascript:") {
			continue
		}
		attrs = append(attrs, a)
	}
	el.Attr = attrs
}
