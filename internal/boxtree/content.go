// internal/boxtree/content.go
package boxtree

import (
	"net/url"

	"go.uber.org/zap"

	"github.com/xkilldash9x/boxtree/internal/style"
)

// Fetcher is the object-fetch collaborator. FetchObject requests url on
// behalf of owner and returns immediately; completion arrives later via
// Content.ObjectDone, never through the converter's call stack. A false
// return means an unrecoverable local failure, not a network error.
type Fetcher interface {
	FetchObject(c *Content, rawurl string, owner *Box, allowedTypes []string,
		availableWidth, availableHeight int, background bool) bool
}

// Object records one replaced-content fetch issued during conversion.
type Object struct {
	URL        string
	Box        *Box
	Background bool
	Done       bool
	Failed     bool
}

// Content is the handle for one HTML document being converted: base URL,
// viewport hints, the registry of fetched objects and, after a successful
// conversion, the layout root.
type Content struct {
	BaseURL         *url.URL
	AvailableWidth  int
	AvailableHeight int

	// BackgroundColor is set by the body element's computed style.
	BackgroundColor style.Color

	// Yield is the cooperative checkpoint called at each element boundary
	// during conversion, so a host event loop stays responsive. It must
	// not re-enter conversion of this content.
	Yield func()

	fetcher Fetcher
	log     *zap.Logger

	objects    []*Object
	layoutRoot *Box
}

// NewContent creates a content handle. fetcher may be nil, in which case
// replaced content is recorded but never requested.
func NewContent(base *url.URL, fetcher Fetcher, log *zap.Logger) *Content {
	if log == nil {
		log = zap.NewNop()
	}
	return &Content{
		BaseURL:         base,
		AvailableWidth:  800,
		AvailableHeight: 600,
		fetcher:         fetcher,
		log:             log,
	}
}

// LayoutRoot returns the box tree root, or nil if conversion has not
// completed successfully. Partial trees are never exposed here.
func (c *Content) LayoutRoot() *Box { return c.layoutRoot }

// Objects returns the fetches issued so far.
func (c *Content) Objects() []*Object { return c.objects }

// fetchObject registers the object and hands it to the fetcher.
func (c *Content) fetchObject(rawurl string, owner *Box, allowedTypes []string,
	availableWidth, availableHeight int, background bool) bool {

	c.objects = append(c.objects, &Object{URL: rawurl, Box: owner, Background: background})
	if c.fetcher == nil {
		return true
	}
	return c.fetcher.FetchObject(c, rawurl, owner, allowedTypes,
		availableWidth, availableHeight, background)
}

// ObjectDone is the completion callback for asynchronous fetches. It runs
// on the fetcher's goroutine; the box tree is already fully built (or the
// conversion failed and the object is orphaned), so only object state is
// touched here.
func (c *Content) ObjectDone(rawurl string, failed bool) {
	for _, o := range c.objects {
		if o.URL == rawurl && !o.Done {
			o.Done = true
			o.Failed = failed
			c.log.Debug("object fetch finished",
				zap.String("url", rawurl), zap.Bool("failed", failed))
			return
		}
	}
}

func (c *Content) yield() {
	if c.Yield != nil {
		c.Yield()
	}
}
