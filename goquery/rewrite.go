package goquery

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/clipper"
)

var _ clipper.PageRewriter = (*ProxyRewriter)(nil)

const viewport = `<meta name="viewport" content="width=device-width, initial-scale=1">`

// ProxyRewriter prepares a full page for display inside an iframe served
// from the proxy.
type ProxyRewriter struct {
	// ImageProxy is the image proxy route. Pages carry a <base> pointing at
	// the origin site, so this should be absolute when the page is served
	// from the proxy. Defaults to clipper.ImageProxyPath.
	ImageProxy string
}

// NewProxyRewriter creates a rewriter routing images through imageProxy.
func NewProxyRewriter(imageProxy string) *ProxyRewriter {
	return &ProxyRewriter{ImageProxy: imageProxy}
}

// Rewrite makes URLs absolute, injects <base> and a viewport, removes
// frame-busting scripts and routes images through the image proxy.
func (r *ProxyRewriter) Rewrite(page string, baseURL string) (string, error) {
	doc, err := parse(page)
	if err != nil {
		return "", err
	}
	base := parseBase(baseURL)

	doc.Find("script").FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, external := s.Attr("src")
		return !external && IsFrameBuster(s.Text())
	}).Remove()
	doc.Find("meta[http-equiv]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v := strings.ToLower(s.AttrOr("http-equiv", ""))
		return v == "x-frame-options" || v == "content-security-policy"
	}).Remove()

	doc.Find("a, img, link, script, iframe, form, source").Each(func(_ int, s *goquery.Selection) {
		for _, name := range []string{"href", "src", "action"} {
			if v, ok := s.Attr(name); ok {
				s.SetAttr(name, resolve(base, v))
			}
		}
	})
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		if src == "" || isSpecialURL(src) {
			return
		}
		img.SetAttr("src", ProxyImageURL(r.ImageProxy, src))
		img.RemoveAttr("srcset")
	})

	head := doc.Find("head").First()
	head.Find("base").Remove()
	if doc.Find(`meta[name="viewport"]`).Length() == 0 {
		head.PrependHtml(viewport)
	}
	if base != nil {
		head.PrependHtml(`<base href="` + html.EscapeString(base.String()) + `">`)
	}

	out, err := doc.Html()
	if err != nil {
		return "", clipper.Errorf(clipper.EINTERNAL, "failed to render HTML: %v", err)
	}
	return out, nil
}
