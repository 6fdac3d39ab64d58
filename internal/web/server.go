package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/jdginv/internal/auth"
	"github.com/vbonduro/jdginv/internal/domain"
	"github.com/vbonduro/jdginv/internal/framestore"
	"github.com/vbonduro/jdginv/internal/scanner"
	"github.com/vbonduro/jdginv/internal/service"
	"github.com/vbonduro/jdginv/internal/session"
)

// authenticator is the subset of auth.Provider that Server requires.
type authenticator interface {
	SignIn(ctx context.Context, identifier, secret string) (*domain.User, error)
}

type Server struct {
	inventory  *service.InventoryService
	auth       authenticator
	tokens     *auth.Tokens
	sessions   *session.Registry
	decoder    scanner.Decoder
	frameStore framestore.FrameStore
	templates  embed.FS
	mux        *http.ServeMux
	tmplFuncs  template.FuncMap
	logger     *slog.Logger
}

func NewServer(
	inv *service.InventoryService,
	authn authenticator,
	tokens *auth.Tokens,
	decoder scanner.Decoder,
	fs framestore.FrameStore,
	tmpl embed.FS,
	logger *slog.Logger,
) *Server {
	if decoder == nil {
		decoder = scanner.Disabled{}
	}
	s := &Server{
		inventory:  inv,
		auth:       authn,
		tokens:     tokens,
		sessions:   session.NewRegistry(),
		decoder:    decoder,
		frameStore: fs,
		templates:  tmpl,
		mux:        http.NewServeMux(),
		logger:     logger,
		tmplFuncs: template.FuncMap{
			"money":   func(d decimal.Decimal) string { return d.StringFixed(2) },
			"when":    func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
			"inc":     func(i int) int { return i + 1 },
			"granted": func(c session.Camera) bool { return c.Permission == session.PermissionGranted },
			"denied":  func(c session.Camera) bool { return c.Permission == session.PermissionDenied },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
	})
	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /logout", s.handleLogout)

	s.mux.Handle("GET /home", s.withSession(s.handleHome))
	s.mux.Handle("GET /inventory", s.withSession(s.handleInventory))
	s.mux.Handle("GET /inventory/table", s.withSession(s.handleInventoryTable))
	s.mux.Handle("GET /inventory/events", s.withSession(s.handleInventoryEvents))
	s.mux.Handle("POST /inventory/items", s.withSession(s.handleSaveItem))
	s.mux.Handle("POST /inventory/items/{id}/edit", s.withSession(s.handleEditItem))
	s.mux.Handle("POST /inventory/items/{id}/delete", s.withSession(s.handleDeleteItem))
	s.mux.Handle("POST /inventory/edit/cancel", s.withSession(s.handleCancelEdit))
	s.mux.Handle("POST /inventory/delete-all", s.withSession(s.handleDeleteAll))
	s.mux.Handle("POST /inventory/report", s.withSession(s.handleGenerateReport))
	s.mux.Handle("POST /confirm/{token}", s.withSession(s.handleConfirm))
	s.mux.Handle("POST /confirm/{token}/cancel", s.withSession(s.handleCancelConfirm))
	s.mux.Handle("POST /alert/dismiss", s.withSession(s.handleDismissAlert))

	s.mux.Handle("GET /reports", s.withSession(s.handleReports))

	s.mux.Handle("GET /camera", s.withSession(s.handleCamera))
	s.mux.Handle("POST /camera/permission", s.withSession(s.handleCameraPermission))
	s.mux.Handle("POST /camera/scan", s.withSession(s.handleScan))
	s.mux.Handle("POST /camera/reset", s.withSession(s.handleResetScan))
	s.mux.Handle("GET /camera/frame", s.withSession(s.handleFrame))
}

// securityHeaders sets the standard hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https://unpkg.com; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 60 * time.Second,
		// No WriteTimeout: /inventory/events holds its response open.
		IdleTimeout: 120 * time.Second,
	}
	return srv.ListenAndServe()
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, status int, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses and executes a single named partial template.
// The file must contain exactly one {{define "name"}}...{{end}} block.
func (s *Server) renderPartial(w http.ResponseWriter, file string, data any) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, file)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// ParseFS registers both the file-basename template and any {{define}} blocks.
	basename := file
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		basename = file[idx+1:]
	}
	for _, t := range tmpl.Templates() {
		if n := t.Name(); n != "" && n != basename {
			return t.Execute(w, data)
		}
	}
	return tmpl.ExecuteTemplate(w, basename, data)
}
