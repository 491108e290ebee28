package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hhhapz/uksidoc/legislation"
	"github.com/hhhapz/uksidoc/render"
)

type server struct {
	url      string
	fetcher  legislation.Fetcher
	renderer *render.Renderer
	log      *zap.Logger
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleContents)
	mux.HandleFunc("/uksi/contents", s.handleContents)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return s.logMiddleware(mux)
}

// handleContents serves the fetch_uksi_data page. Every pipeline failure is
// rendered as the error page with a 200 status.
func (s *server) handleContents(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/uksi/contents" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := s.log.With(zap.String("request_id", requestID(r.Context())))

	var buf bytes.Buffer
	doc, err := legislation.Load(r.Context(), s.fetcher, s.url, log)
	if err != nil {
		logFailure(log, s.url, err)
		err = s.renderer.Error(&buf, err.Error())
	} else {
		log.Debug("rendering contents", zap.Int("items", len(doc.Items)))
		err = s.renderer.Contents(&buf, doc)
	}
	if err != nil {
		log.Error("could not render page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func logFailure(log *zap.Logger, url string, err error) {
	var (
		fetchErr   *legislation.FetchError
		parseErr   *legislation.ParseError
		missingErr *legislation.MissingFieldError
	)
	switch {
	case errors.As(err, &fetchErr):
		log.Warn("could not fetch document",
			zap.String("url", url), zap.Int("status", fetchErr.StatusCode), zap.Error(err))
	case errors.As(err, &parseErr):
		log.Error("document is not well-formed XML", zap.String("url", url), zap.Error(err))
	case errors.As(err, &missingErr):
		log.Error("document is missing metadata",
			zap.String("url", url), zap.String("field", missingErr.Field), zap.Error(err))
	default:
		log.Error("could not load document", zap.String("url", url), zap.Error(err))
	}
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (s *server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// serveHTTP serves on ln until ctx is cancelled, then shuts down gracefully.
func serveHTTP(ctx context.Context, ln net.Listener, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
