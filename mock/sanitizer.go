package mock

import "github.com/fwojciec/clipper"

var _ clipper.Sanitizer = (*Sanitizer)(nil)

// Sanitizer is a mock implementation of clipper.Sanitizer.
type Sanitizer struct {
	SanitizeFn  func(html, baseURL string, keepImages bool) (string, error)
	PlainTextFn func(html string) string
}

func (s *Sanitizer) Sanitize(html, baseURL string, keepImages bool) (string, error) {
	return s.SanitizeFn(html, baseURL, keepImages)
}

func (s *Sanitizer) PlainText(html string) string {
	return s.PlainTextFn(html)
}

var _ clipper.PageRewriter = (*PageRewriter)(nil)

// PageRewriter is a mock implementation of clipper.PageRewriter.
type PageRewriter struct {
	RewriteFn func(html, baseURL string) (string, error)
}

func (r *PageRewriter) Rewrite(html, baseURL string) (string, error) {
	return r.RewriteFn(html, baseURL)
}

var _ clipper.ImageSanitizer = (*ImageSanitizer)(nil)

// ImageSanitizer is a mock implementation of clipper.ImageSanitizer.
type ImageSanitizer struct {
	SanitizeFn func(body []byte) ([]byte, error)
}

func (s *ImageSanitizer) Sanitize(body []byte) ([]byte, error) {
	return s.SanitizeFn(body)
}
