package clipper

// ImageProxyPath is the route images are rewritten to.
const ImageProxyPath = "/proxy/image"

// Sanitizer makes third-party HTML safe and displayable.
type Sanitizer interface {
	// Sanitize strips dangerous and distracting elements from an HTML
	// fragment and resolves its URLs against baseURL. When keepImages is
	// false images are removed; otherwise they are routed through the
	// image proxy. Sanitize is idempotent.
	Sanitize(html string, baseURL string, keepImages bool) (string, error)

	// PlainText returns the readable text of an HTML fragment.
	PlainText(html string) string
}

// PageRewriter prepares a full HTML page for display inside an iframe.
type PageRewriter interface {
	Rewrite(html string, baseURL string) (string, error)
}

// ImageSanitizer cleans image bodies that can carry active content.
type ImageSanitizer interface {
	// Sanitize returns a safe version of the image body.
	Sanitize(body []byte) ([]byte, error)
}
