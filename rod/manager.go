package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/clipper"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var errClosed = clipper.Errorf(clipper.EUNAVAILABLE, "browser is closed")

// DefaultMaxPages is the number of pages a browser serves before it is
// replaced.
const DefaultMaxPages = 75

// instance is one launched browser process.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher

	served int64 // pages opened over its lifetime
	open   int   // pages not yet released
}

func (in *instance) shutdown() error {
	err := in.browser.Close()
	in.launcher.Kill()
	return err
}

// BrowserManager owns the headless browser used for rendering. Chrome
// memory grows with every page even when pages are closed, so after
// maxPages pages new renders go to a freshly launched browser and the old
// one is shut down once its last page is released.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	current  *instance
	retiring map[*instance]struct{}
	closed   bool

	// launching is set while a replacement browser starts outside mu.
	launching bool

	maxPages  int64
	bin       string
	noSandbox bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of pages served before the browser is
// replaced.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithBrowserBin uses the Chrome binary at path instead of looking one up
// or downloading it.
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// WithNoSandbox disables the Chrome sandbox. Needed when running as root
// in containers.
func WithNoSandbox() ManagerOption {
	return func(bm *BrowserManager) {
		bm.noSandbox = true
	}
}

// NewBrowserManager launches a headless Chrome. Close must be called when
// the manager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		retiring: make(map[*instance]struct{}),
	}
	for _, opt := range opts {
		opt(bm)
	}
	if bm.maxPages < 1 {
		bm.maxPages = DefaultMaxPages
	}

	in, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = in
	return bm, nil
}

// Available reports whether pages can still be opened.
func (bm *BrowserManager) Available() bool {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return !bm.closed
}

// OpenPage opens a blank page. The release func closes the page and must
// be called exactly once.
func (bm *BrowserManager) OpenPage() (*rod.Page, func(), error) {
	in, err := bm.acquire()
	if err != nil {
		return nil, nil, err
	}

	page, err := in.browser.Page(proto.TargetCreateTarget{})
	release := func() {
		if page != nil {
			_ = page.Close()
		}
		bm.release(in)
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("opening page: %w", err)
	}
	return page, release, nil
}

// acquire reserves a page on the current browser. Once the browser has
// served maxPages pages one caller launches its replacement without
// holding mu; others keep using the old browser until the swap. A failed
// launch keeps the current browser.
func (bm *BrowserManager) acquire() (*instance, error) {
	bm.mu.Lock()
	if bm.closed {
		bm.mu.Unlock()
		return nil, errClosed
	}

	var stale *instance
	if bm.current.served >= bm.maxPages && !bm.launching {
		bm.launching = true
		bm.mu.Unlock()
		next, err := bm.launch()
		bm.mu.Lock()
		bm.launching = false
		if bm.closed {
			bm.mu.Unlock()
			if next != nil {
				_ = next.shutdown()
			}
			return nil, errClosed
		}
		if err == nil {
			stale = bm.swap(next)
		}
	}
	in := bm.current
	in.served++
	in.open++
	bm.mu.Unlock()

	if stale != nil {
		_ = stale.shutdown()
	}
	return in, nil
}

// swap makes next the current browser. It returns the old instance when
// nothing holds it open anymore. Must be called with mu held.
func (bm *BrowserManager) swap(next *instance) *instance {
	old := bm.current
	bm.current = next
	if old.open == 0 {
		return old
	}
	bm.retiring[old] = struct{}{}
	return nil
}

func (bm *BrowserManager) release(in *instance) {
	bm.mu.Lock()
	in.open--
	_, retired := bm.retiring[in]
	done := retired && in.open == 0
	if done {
		delete(bm.retiring, in)
	}
	bm.mu.Unlock()

	if done {
		_ = in.shutdown()
	}
}

// Close shuts down every browser, including pages still rendering. Close
// is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	if bm.closed {
		bm.mu.Unlock()
		return nil
	}
	bm.closed = true
	all := []*instance{bm.current}
	for in := range bm.retiring {
		all = append(all, in)
	}
	clear(bm.retiring)
	bm.mu.Unlock()

	var firstErr error
	for _, in := range all {
		if err := in.shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LauncherPID returns the process ID of the current browser launcher, or
// zero once the manager is closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.closed {
		return 0
	}
	return bm.current.launcher.PID()
}

func (bm *BrowserManager) launch() (*instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("mute-audio").
		Leakless(true).
		Headless(true).
		NoSandbox(bm.noSandbox)
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &instance{browser: browser, launcher: l}, nil
}
