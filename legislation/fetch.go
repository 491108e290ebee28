package legislation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	// UserAgent is sent with every request; legislation.gov.uk rejects some
	// non-browser agents.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:106.0) Gecko/20100101 Firefox/106.0"

	// DefaultMaxBytes caps the size of a fetched document.
	DefaultMaxBytes int64 = 16 << 20
)

// Fetcher retrieves the raw bytes of a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher fetches documents with a single GET request. It never retries.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64

	log *zap.Logger
}

func NewHTTPFetcher(client *http.Client, log *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPFetcher{
		Client:    client,
		UserAgent: UserAgent,
		MaxBytes:  DefaultMaxBytes,
		log:       log,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "application/xml")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &FetchError{
			URL:        url,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("HTTP %s", res.Status),
		}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode, Err: err}
	}
	if int64(len(body)) > limit {
		return nil, &FetchError{
			URL:        url,
			StatusCode: res.StatusCode,
			Err:        errors.New("response larger than " + humanize.IBytes(uint64(limit))),
		}
	}

	f.log.Debug("fetched document",
		zap.String("url", url),
		zap.Int("status", res.StatusCode),
		zap.String("bytes", humanize.Bytes(uint64(len(body)))))
	return body, nil
}
