package server

import (
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/scriptdex/scriptdex/pkg/manifests"
	"github.com/scriptdex/scriptdex/pkg/source"
	"github.com/scriptdex/scriptdex/pkg/storage"
	"github.com/scriptdex/scriptdex/pkg/views"
)

// Config holds the tunables of the HTTP server.
type Config struct {
	Username         string
	Password         string
	Featured         []string
	SponsoredMax     int
	StrictCategories bool
	MaxConns         int // 0 means unlimited
}

type Server struct {
	Store   *manifests.Store
	Catalog *source.Cached
	History *storage.DB // nil when history is disabled
	Config  Config
	Log     logrus.FieldLogger

	now func() time.Time
}

func New(store *manifests.Store, catalog *source.Cached, history *storage.DB, cfg Config, log logrus.FieldLogger) *Server {
	if cfg.SponsoredMax <= 0 {
		cfg.SponsoredMax = views.SponsoredMax
	}
	return &Server{
		Store:   store,
		Catalog: catalog,
		History: history,
		Config:  cfg,
		Log:     log,
		now:     time.Now,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Manifest and record API
	mux.HandleFunc("GET /api/load-manifest", s.handleLoadManifest)
	mux.HandleFunc("POST /api/save-manifest", s.basicAuth(s.handleSaveManifest))
	mux.HandleFunc("POST /api/save-json", s.basicAuth(s.handleSaveJSON))
	mux.HandleFunc("GET /api/manifests", s.handleManifestBundle)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	// Catalog API
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/scripts", s.handleScripts)
	mux.HandleFunc("GET /api/views/latest", s.handleLatest)
	mux.HandleFunc("GET /api/views/trending", s.handleTrending)
	mux.HandleFunc("GET /api/views/popular", s.handlePopular)
	mux.HandleFunc("GET /api/views/sponsored", s.handleSponsored)
	mux.HandleFunc("GET /api/views/most-viewed", s.handleMostViewed)

	// Saved files and pages
	mux.Handle("GET /public/", http.StripPrefix("/public/", http.FileServer(http.Dir(s.Store.Root()))))
	mux.HandleFunc("GET /{$}", s.handleHome)

	return mux
}

func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if s.Config.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.Config.MaxConns)
	}
	s.Log.WithFields(logrus.Fields{"addr": ln.Addr().String(), "max_conns": s.Config.MaxConns}).Info("Starting server")
	return srv.Serve(ln)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Config.Username == "" && s.Config.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Config.Username || pass != s.Config.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}
