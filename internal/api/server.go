package api

import (
	"net/http"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soochol/sharemenu/internal/extension"
	"github.com/soochol/sharemenu/internal/handoff"
	"github.com/soochol/sharemenu/internal/manifest"
	"github.com/soochol/sharemenu/internal/services"
)

// Server is the bridge between the share pipeline and the application
// runtime. The extension routes act on the current request; the share routes
// serve the consuming app.
type Server struct {
	shares         *services.ShareService
	handoff        *handoff.Handoff
	decoder        manifest.Decoder
	jwtSecret      []byte
	allowedOrigins []string

	mu      sync.RWMutex
	request *extension.Request
}

func NewServer(shares *services.ShareService, h *handoff.Handoff) *Server {
	return &Server{
		shares:         shares,
		handoff:        h,
		allowedOrigins: []string{"*"},
	}
}

// SetRequest installs the extension request served by /api/extension.
func (s *Server) SetRequest(req *extension.Request) {
	s.mu.Lock()
	s.request = req
	s.mu.Unlock()
}

func (s *Server) currentRequest() *extension.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.request
}

// SetJWTSecret enables HMAC bearer token auth on every /api route.
func (s *Server) SetJWTSecret(secret string) {
	s.jwtSecret = []byte(secret)
}

// SetAllowedOrigins configures CORS. Credentialed requests are allowed only
// when origins does not contain the "*" wildcard.
func (s *Server) SetAllowedOrigins(origins []string) {
	if len(origins) > 0 {
		s.allowedOrigins = origins
	}
}

// SetManifestDecoder configures how POST /api/extract bodies are decoded.
func (s *Server) SetManifestDecoder(d manifest.Decoder) {
	s.decoder = d
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !slices.Contains(s.allowedOrigins, "*"),
	}))
	r.Route("/api", func(r chi.Router) {
		if len(s.jwtSecret) > 0 {
			r.Use(s.requireToken)
		}
		r.Route("/extension", func(r chi.Router) {
			r.Get("/data", s.extensionData)
			r.Post("/continue", s.continueInApp)
			r.Post("/open", s.openApp)
			r.Post("/dismiss", s.dismissExtension)
		})
		r.Post("/extract", s.extract)
		r.Get("/share", s.getShare)
		r.Delete("/share", s.clearShare)
	})
	return r
}
