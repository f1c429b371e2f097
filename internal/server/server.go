// Package server exposes the viewer, the editor and the JSON API over HTTP.
//
// In file mode the server is bound to exactly one Markdown file: the viewer
// loads it from /api/content and receives updates over /ws. In editor mode
// there is no file; the browser posts Markdown to /api/render and /api/pdf.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/assets"
	"github.com/alnah/go-mdpreview/internal/live"
	"github.com/alnah/go-mdpreview/internal/logger"
	"github.com/alnah/go-mdpreview/internal/watch"
)

// Mode names reported by /healthz.
const (
	ModeFile   = "file"
	ModeEditor = "editor"
)

// DefaultAddr is used when no address is configured.
const DefaultAddr = "localhost:3000"

// MaxRenderBody caps Markdown posted to /api/render and /api/pdf.
const MaxRenderBody = 8 << 20

const shutdownTimeout = 5 * time.Second

// ErrListen is returned by Run when the address cannot be bound.
var ErrListen = errors.New("failed to listen")

// Renderer turns Markdown into a rendered result.
type Renderer interface {
	Render(source string) mdpreview.RenderResult
	HighlightCSS() string
}

// Exporter prints rendered HTML to PDF.
type Exporter interface {
	Export(ctx context.Context, htmlBody, displayName string) (*mdpreview.ExportResult, error)
}

// UpdateSource delivers settled file changes. watch.Notifier implements it.
type UpdateSource interface {
	Updates() <-chan watch.Update
	Errors() <-chan error
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithFile binds the server to one Markdown file. Without it the server
// runs in editor mode.
func WithFile(path string) Option {
	return func(s *Server) {
		s.filePath = path
	}
}

// WithUpdates forwards snapshots from src to connected viewers while the
// server runs.
func WithUpdates(src UpdateSource) Option {
	return func(s *Server) {
		s.updates = src
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReadyHook calls fn with the base URL once the listener is bound.
func WithReadyHook(fn func(url string)) Option {
	return func(s *Server) {
		s.ready = fn
	}
}

// Server is the HTTP front end.
type Server struct {
	addr     string
	filePath string
	renderer Renderer
	exporter Exporter
	updates  UpdateSource
	hub      *live.Hub
	log      logger.Logger
	ready    func(url string)

	web       fs.FS
	indexHTML []byte
	router    chi.Router
}

// New creates a Server. exporter may be nil, in which case the PDF routes
// answer 503.
func New(renderer Renderer, exporter Exporter, opts ...Option) (*Server, error) {
	if renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	s := &Server{
		addr:     DefaultAddr,
		renderer: renderer,
		exporter: exporter,
		log:      logger.Nop(),
		web:      assets.Web(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = live.NewHub(s.log)

	index, err := fs.ReadFile(s.web, "index.html")
	if err != nil {
		return nil, fmt.Errorf("loading viewer page: %w", err)
	}
	s.indexHTML = index
	s.router = s.routes()
	return s, nil
}

// Mode reports whether the server is bound to a file.
func (s *Server) Mode() string {
	if s.filePath != "" {
		return ModeFile
	}
	return ModeEditor
}

// Hub returns the viewer registry.
func (s *Server) Hub() *live.Hub { return s.hub }

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) fileName() string {
	return filepath.Base(s.filePath)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w on %s: %v", ErrListen, s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown does not track hijacked connections; close the viewers so
	// their read loops return.
	srv.RegisterOnShutdown(s.hub.CloseAll)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		s.forward(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	url := "http://" + ln.Addr().String()
	s.log.Info("server started", "url", url, "mode", s.Mode())
	if s.ready != nil {
		s.ready(url)
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		cancel()
		<-forwardDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	err = srv.Shutdown(shutdownCtx)
	<-forwardDone
	s.log.Info("server stopped")
	if err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// forward pushes each update to the viewers, in arrival order.
func (s *Server) forward(ctx context.Context) {
	if s.updates == nil {
		return
	}
	updates, errs := s.updates.Updates(), s.updates.Errors()
	for updates != nil || errs != nil {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if err := s.hub.Broadcast(u.Snapshot); err != nil {
				s.log.Error("broadcast failed", "error", err)
				continue
			}
			s.log.Info("document updated", "file", u.Snapshot.FileName, "viewers", s.hub.Len())
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.log.Warn("watch error", "error", err)
		}
	}
}

// routes builds the router for the configured mode.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Get("/assets/highlight.css", s.handleHighlightCSS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Post("/render", s.handleRender)
		if s.filePath != "" {
			r.Get("/content", s.handleContent)
			r.Get("/info", s.handleInfo)
			r.Get("/pdf", s.handleFilePDF)
		} else {
			r.Post("/pdf", s.handleEditorPDF)
		}
	})

	if s.filePath != "" {
		r.Get("/", s.handleIndex)
		r.Get("/ws", live.ServeWS(s.hub, s.log))
	} else {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/editor.html", http.StatusFound)
		})
	}

	r.Handle("/*", http.FileServerFS(s.web))
	return r
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Microsecond),
			)
		})
	}
}
