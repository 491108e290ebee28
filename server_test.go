package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hhhapz/uksidoc/legislation"
	"github.com/hhhapz/uksidoc/render"
)

func contentsFixture(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("legislation", "testdata", "contents.xml"))
	require.NoError(t, err)
	return b
}

func newTestServer(t *testing.T, f legislation.Fetcher) (*server, *observer.ObservedLogs) {
	t.Helper()
	renderer, err := render.New()
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	return &server{
		url:      legislation.DefaultURL,
		fetcher:  f,
		renderer: renderer,
		log:      zap.New(core),
	}, logs
}

func get(t *testing.T, s *server, path string) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	page, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return rec, page
}

func TestHandleContents(t *testing.T) {
	var requested string
	s, _ := newTestServer(t, legislation.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		requested = url
		return contentsFixture(t), nil
	}))

	for _, path := range []string{"/", "/uksi/contents"} {
		t.Run(path, func(t *testing.T) {
			rec, page := get(t, s, path)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
			assert.Equal(t, legislation.DefaultURL, requested)

			assert.Contains(t, page.Find("h1.title").Text(), "The Power to Award Degrees etc.")
			assert.Equal(t, 4, page.Find("li.item").Length())
			assert.Equal(t, "Citation and commencement", page.Find("li.item .title").First().Text())
		})
	}
}

func TestHandleContentsFailures(t *testing.T) {
	cases := []struct {
		name    string
		fetch   legislation.FetcherFunc
		message string
		log     string
	}{
		{
			name: "not found",
			fetch: func(_ context.Context, url string) ([]byte, error) {
				return nil, &legislation.FetchError{URL: url, StatusCode: http.StatusNotFound, Err: errors.New("HTTP 404 Not Found")}
			},
			message: "failed to fetch data: HTTP 404 Not Found",
			log:     "could not fetch document",
		},
		{
			name: "malformed xml",
			fetch: func(context.Context, string) ([]byte, error) {
				return []byte("<html><body>maintenance</html>"), nil
			},
			log: "document is not well-formed XML",
		},
		{
			name: "missing metadata",
			fetch: func(context.Context, string) ([]byte, error) {
				return []byte(`<Legislation xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>t</dc:title></Legislation>`), nil
			},
			message: "document is missing description (.//dc:description)",
			log:     "document is missing metadata",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, logs := newTestServer(t, c.fetch)
			rec, page := get(t, s, "/uksi/contents")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Error", page.Find("head title").Text())

			msg := page.Find("p.message").Text()
			assert.NotEmpty(t, msg)
			if c.message != "" {
				assert.Equal(t, c.message, msg)
			}
			assert.Equal(t, 1, logs.FilterMessage(c.log).Len())
		})
	}
}

func TestHandleContentsRoutes(t *testing.T) {
	s, _ := newTestServer(t, legislation.FetcherFunc(func(context.Context, string) ([]byte, error) {
		t.Fatal("fetcher should not be called")
		return nil, nil
	}))

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uksi/contents", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLogMiddleware(t *testing.T) {
	s, logs := newTestServer(t, legislation.FetcherFunc(func(context.Context, string) ([]byte, error) {
		return contentsFixture(t), nil
	}))

	rec, _ := get(t, s, "/")
	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, rec.Header().Get("X-Request-Id"), fields["request_id"])
	assert.Equal(t, "/", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

// TestServeHTTP runs the real server against a live fetcher talking to a
// stand-in for legislation.gov.uk, then shuts it down.
func TestServeHTTP(t *testing.T) {
	defer goleak.VerifyNone(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/uksi/2024/979/contents/made/data.xml" {
			http.NotFound(w, r)
			return
		}
		w.Write(contentsFixture(t))
	}))
	defer upstream.Close()

	s, _ := newTestServer(t, legislation.NewHTTPFetcher(upstream.Client(), nil))
	s.url = upstream.URL + "/uksi/2024/979/contents/made/data.xml"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, ln, s.routes(), zap.NewNop())
	}()

	client := &http.Client{Transport: &http.Transport{}}
	res, err := client.Get("http://" + ln.Addr().String() + "/uksi/contents")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	client.CloseIdleConnections()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "Citation and commencement")

	// A missing upstream document still yields a 200 error page.
	missing := *s
	missing.url = upstream.URL + "/invalid-url"
	rec, page := get(t, &missing, "/uksi/contents")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed to fetch data: HTTP 404 Not Found", page.Find("p.message").Text())

	cancel()
	assert.NoError(t, <-done)
}
