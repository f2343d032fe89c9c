// File: internal/fetch/queue.go
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/boxtree/internal/boxtree"
	"github.com/xkilldash9x/boxtree/internal/config"
)

// Constants for default transport settings.
const (
	defaultDialTimeout           = 5 * time.Second
	defaultKeepAliveInterval     = 15 * time.Second
	defaultTLSHandshakeTimeout   = 5 * time.Second
	defaultResponseHeaderTimeout = 10 * time.Second

	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 6
	defaultIdleConnTimeout     = 30 * time.Second
)

// Result is the outcome of one object fetch.
type Result struct {
	URL        string
	StatusCode int
	MediaType  string
	Data       []byte
	Err        error
}

// Queue retrieves embedded objects (images, frames, plugin data) over
// HTTP on behalf of a document conversion. Requests are issued from a
// bounded worker group and rate limited globally; completion is reported
// back through Content.ObjectDone.
//
// Queue is safe for concurrent use by multiple goroutines.
type Queue struct {
	cfg     config.FetchConfig
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	results map[string]*Result
}

// NewQueue creates a fetch queue from the given configuration.
func NewQueue(cfg config.FetchConfig, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(cfg.Concurrency)

	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}

	return &Queue{
		cfg:     cfg,
		client:  newHTTPClient(cfg),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		log:     log.Named("fetch"),
		group:   group,
		ctx:     ctx,
		cancel:  cancel,
		results: make(map[string]*Result),
	}
}

// newHTTPClient builds a client with pooling suited to the handful of
// subresources a single document references.
func newHTTPClient(cfg config.FetchConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   defaultDialTimeout,
		KeepAlive: defaultKeepAliveInterval,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaultResponseHeaderTimeout,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

// FetchObject implements boxtree.Fetcher. The request is queued and
// served asynchronously; a false return means the URL cannot be fetched
// at all (bad scheme, malformed request), not that it failed remotely.
func (q *Queue) FetchObject(c *boxtree.Content, rawurl string, owner *boxtree.Box,
	allowedTypes []string, availableWidth, availableHeight int, background bool) bool {

	if !strings.HasPrefix(rawurl, "http://") && !strings.HasPrefix(rawurl, "https://") {
		q.log.Debug("refusing non-http object", zap.String("url", rawurl))
		return false
	}
	req, err := http.NewRequestWithContext(q.ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		q.log.Debug("bad object request", zap.String("url", rawurl), zap.Error(err))
		return false
	}
	if q.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", q.cfg.UserAgent)
	}
	for k, v := range q.cfg.Headers {
		req.Header.Set(k, v)
	}

	q.group.Go(func() error {
		res := q.do(req, allowedTypes)
		q.mu.Lock()
		q.results[rawurl] = res
		q.mu.Unlock()
		c.ObjectDone(rawurl, res.Err != nil)
		// Individual fetch failures never abort the group.
		return nil
	})
	return true
}

// do performs one request and applies the content type allow list.
func (q *Queue) do(req *http.Request, allowedTypes []string) *Result {
	res := &Result{URL: req.URL.String()}

	if err := q.limiter.Wait(q.ctx); err != nil {
		res.Err = err
		return res
	}

	resp, err := q.client.Do(req)
	if err != nil {
		res.Err = err
		q.log.Debug("object fetch failed", zap.String("url", res.URL), zap.Error(err))
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		return res
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}
	res.MediaType = mediaType
	if len(allowedTypes) > 0 && !typeAllowed(mediaType, allowedTypes) {
		res.Err = fmt.Errorf("content type %q not accepted", mediaType)
		return res
	}

	limit := q.cfg.MaxBodySize
	if limit <= 0 {
		limit = 8 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		res.Err = err
		return res
	}
	res.Data = body
	return res
}

func typeAllowed(mediaType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(mediaType, t) {
			return true
		}
	}
	return false
}

// Result returns the stored outcome for url, or nil if it has not
// completed yet.
func (q *Queue) Result(url string) *Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.results[url]
}

// Wait blocks until every queued fetch has completed.
func (q *Queue) Wait() error {
	return q.group.Wait()
}

// Close cancels outstanding fetches and waits for the workers to drain.
func (q *Queue) Close() error {
	q.cancel()
	err := q.group.Wait()
	q.client.CloseIdleConnections()
	return err
}
