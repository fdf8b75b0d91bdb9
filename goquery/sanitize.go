package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/clipper"
	"golang.org/x/net/html"
)

var _ clipper.Sanitizer = (*Sanitizer)(nil)

// removed lists elements that never survive sanitizing.
const removed = "script, style, nav, header, footer, aside, noscript, form, iframe, " +
	"object, embed, button, input, select, textarea, link, meta"

// FadeStyle is appended to proxied images.
const FadeStyle = "opacity:0;transition:opacity .25s ease-in-out"

var adTokens = map[string]bool{
	"ad":            true,
	"ads":           true,
	"advert":        true,
	"advertisement": true,
	"sponsored":     true,
}

var whitespace = regexp.MustCompile(`\s+`)

var frameBuster = regexp.MustCompile(`(?i)window\.top|parent\.location|self\.location|top\.location|framebust|x-frame-options`)

// IsFrameBuster reports whether an inline script tries to escape an iframe.
func IsFrameBuster(script string) bool {
	return frameBuster.MatchString(script)
}

// ProxyImageURL returns the image proxy route for an absolute URL under
// prefix, which defaults to clipper.ImageProxyPath.
func ProxyImageURL(prefix, abs string) string {
	if prefix == "" {
		prefix = clipper.ImageProxyPath
	}
	return prefix + "?url=" + url.QueryEscape(abs)
}

// Sanitizer cleans article fragments for reader display.
type Sanitizer struct {
	// ImageProxy is the image proxy route. Defaults to clipper.ImageProxyPath.
	ImageProxy string
}

// NewSanitizer creates a new Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize strips unsafe and distracting elements, resolves URLs against
// baseURL and routes images through the image proxy or drops them.
func (s *Sanitizer) Sanitize(fragment string, baseURL string, keepImages bool) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}
	doc, err := parse(fragment)
	if err != nil {
		return "", err
	}
	base := parseBase(baseURL)

	doc.Find(removed).Remove()
	doc.Find("body *").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return isAd(sel)
	}).Remove()
	stripEventHandlers(doc.Selection)

	doc.Find("[href], [src], [action]").Not("img").Each(func(_ int, sel *goquery.Selection) {
		for _, name := range []string{"href", "src", "action"} {
			v, ok := sel.Attr(name)
			if !ok {
				continue
			}
			if isJavaScriptURL(v) {
				sel.RemoveAttr(name)
				continue
			}
			sel.SetAttr(name, resolve(base, v))
		}
	})

	if !keepImages {
		doc.Find("picture, img").Remove()
	} else {
		doc.Find("picture source").Remove()
		doc.Find("img").Each(func(_ int, img *goquery.Selection) {
			s.proxyImage(img, base)
		})
	}

	return bodyHTML(doc)
}

// proxied reports whether img already carries this sanitizer's rewrite: a
// proxy src that matches its data-original-src.
func proxied(img *goquery.Selection, prefix, src string) bool {
	orig, ok := img.Attr("data-original-src")
	return ok && orig != "" && src == ProxyImageURL(prefix, orig)
}

func (s *Sanitizer) proxyImage(img *goquery.Selection, base *url.URL) {
	prefix := s.ImageProxy
	if prefix == "" {
		prefix = clipper.ImageProxyPath
	}
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if !proxied(img, prefix, src) {
		if src == "" || isDataURL(src) {
			if lazy := strings.TrimSpace(img.AttrOr("data-src", "")); lazy != "" {
				src = lazy
			}
		}
		if src == "" || isJavaScriptURL(src) {
			img.Remove()
			return
		}
		if isDataURL(src) {
			img.SetAttr("src", src)
		} else {
			abs := resolve(base, src)
			img.SetAttr("src", ProxyImageURL(prefix, abs))
			img.SetAttr("data-original-src", abs)
		}
	}
	img.RemoveAttr("srcset")
	img.RemoveAttr("data-src")
	img.SetAttr("loading", "lazy")
	img.SetAttr("decoding", "async")

	style := strings.TrimSpace(img.AttrOr("style", ""))
	if !strings.Contains(style, FadeStyle) {
		if style != "" && !strings.HasSuffix(style, ";") {
			style += ";"
		}
		img.SetAttr("style", style+FadeStyle)
	}
}

// isAd reports whether a class or id token names an advertisement.
func isAd(sel *goquery.Selection) bool {
	for _, name := range []string{"class", "id"} {
		v, ok := sel.Attr(name)
		if !ok {
			continue
		}
		for _, token := range strings.FieldsFunc(strings.ToLower(v), func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n' || r == '-' || r == '_'
		}) {
			if adTokens[token] {
				return true
			}
		}
	}
	return false
}

func stripEventHandlers(sel *goquery.Selection) {
	for _, n := range sel.Find("*").Nodes {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if !strings.HasPrefix(strings.ToLower(a.Key), "on") {
				kept = append(kept, a)
			}
		}
		n.Attr = kept
	}
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// PlainText returns the text of fragment with whitespace collapsed inside
// each block and one line per block.
func (s *Sanitizer) PlainText(fragment string) string {
	doc, err := parse(fragment)
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(whitespace.ReplaceAllString(n.Data, " "))
			return
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			b.WriteByte('\n')
			return
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = normalizeSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
