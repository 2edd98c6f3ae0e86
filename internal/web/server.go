// Package web serves the stack scanner page and its JSON API with gin.
//
// Each browser gets its own session, keyed by the stack_scanner_session
// cookie. The page routes (/scan, /save, /clear) render HTML; the /api
// routes return JSON with an error_kind field on failure.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ironsheep/stack-scanner/internal/observability"
	"github.com/ironsheep/stack-scanner/internal/ocr"
	"github.com/ironsheep/stack-scanner/internal/scanner"
	"github.com/ironsheep/stack-scanner/internal/session"
)

// CookieName is the session cookie.
const CookieName = "stack_scanner_session"

const defaultMaxUpload = 20 << 20

//go:embed templates/index.html
var templateFS embed.FS

// Options configures a Server.
type Options struct {
	Scanner *scanner.Service
	Store   *session.Store
	OCR     ocr.Engine

	// Sink names the collection backend on the page and in /healthz.
	Sink string

	// MaxUploadBytes caps request bodies.
	MaxUploadBytes int64

	// SessionTTL is the cookie lifetime.
	SessionTTL time.Duration

	Logger zerolog.Logger
}

// Server holds the web handlers.
type Server struct {
	svc       *scanner.Service
	store     *session.Store
	engine    ocr.Engine
	sink      string
	maxUpload int64
	ttl       time.Duration
	log       zerolog.Logger
	tmpl      *template.Template
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	return &Server{
		svc:       opts.Scanner,
		store:     opts.Store,
		engine:    opts.OCR,
		sink:      opts.Sink,
		maxUpload: opts.MaxUploadBytes,
		ttl:       opts.SessionTTL,
		log:       opts.Logger,
		tmpl:      template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}
}

// Handler returns the gin engine with all routes registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), observability.GinLogger(s.log))
	r.MaxMultipartMemory = s.maxUpload
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/healthz", s.healthz)

	pages := r.Group("/", s.limitBody, s.withSession)
	pages.GET("/", s.index)
	pages.POST("/scan", s.scanForm)
	pages.POST("/save", s.saveForm)
	pages.POST("/clear", s.clearForm)

	api := r.Group("/api", s.limitBody, s.withSession)
	api.POST("/scan", s.scanAPI)
	api.GET("/batch", s.batchAPI)
	api.POST("/save", s.saveAPI)
	api.DELETE("/batch", s.clearAPI)

	return r
}

func (s *Server) healthz(c *gin.Context) {
	info := s.engine.Info()
	status := "ok"
	if !info.Available {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"ocr":      info,
		"sink":     s.sink,
		"sessions": s.store.Len(),
	})
}

func (s *Server) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+1<<20)
	c.Next()
}

func (s *Server) withSession(c *gin.Context) {
	id, _ := c.Cookie(CookieName)
	sess, created := s.store.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, sess.ID, int(s.ttl.Seconds()), "/", "", false, true)
	}
	c.Set(CookieName, sess)
	c.Next()
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(CookieName).(*session.Session)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case scanner.KindBadImage:
		return http.StatusBadRequest
	case scanner.KindEmptyBatch:
		return http.StatusConflict
	case scanner.KindOCRFailure:
		return http.StatusUnprocessableEntity
	case scanner.KindOCRUnavailable:
		return http.StatusServiceUnavailable
	case scanner.KindSheetConnection, scanner.KindSheetWrite, scanner.KindSheetRetriesExhausted:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
