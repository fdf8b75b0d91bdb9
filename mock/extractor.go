package mock

import "github.com/fwojciec/clipper"

var _ clipper.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of clipper.Extractor.
type Extractor struct {
	ExtractFn func(html, baseURL string) (*clipper.ArticleDraft, error)
}

func (e *Extractor) Extract(html, baseURL string) (*clipper.ArticleDraft, error) {
	return e.ExtractFn(html, baseURL)
}

var _ clipper.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor is a mock implementation of clipper.MetadataExtractor.
type MetadataExtractor struct {
	ExtractMetadataFn func(html, baseURL string) (*clipper.Metadata, error)
}

func (e *MetadataExtractor) ExtractMetadata(html, baseURL string) (*clipper.Metadata, error) {
	return e.ExtractMetadataFn(html, baseURL)
}

var _ clipper.AMPLocator = (*AMPLocator)(nil)

// AMPLocator is a mock implementation of clipper.AMPLocator.
type AMPLocator struct {
	LocateAMPFn func(html, baseURL string) (string, bool)
}

func (l *AMPLocator) LocateAMP(html, baseURL string) (string, bool) {
	return l.LocateAMPFn(html, baseURL)
}

var _ clipper.URLSet = (*URLSet)(nil)

// URLSet is a mock implementation of clipper.URLSet.
type URLSet struct {
	AddFn  func(url string)
	TestFn func(url string) bool
}

func (s *URLSet) Add(url string) {
	s.AddFn(url)
}

func (s *URLSet) Test(url string) bool {
	return s.TestFn(url)
}
