package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/scriptdex/scriptdex/pkg/catalog"
	"github.com/scriptdex/scriptdex/pkg/views"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "scriptdex"})
}

// categories loads the catalog or writes a 502 and returns false.
func (s *Server) categories(w http.ResponseWriter, r *http.Request) ([]catalog.Category, bool) {
	cats, err := s.Catalog.Categories(r.Context())
	if err != nil {
		s.Log.WithError(err).Error("Error loading catalog")
		writeError(w, http.StatusBadGateway, "Failed to load catalog")
		return nil, false
	}
	return cats, true
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, views.Group(cats))
}

// parseFilter reads q and one repeated parameter per facet.
func parseFilter(q url.Values) (views.Filter, error) {
	f := views.Filter{Query: q.Get("q")}
	for _, facet := range views.Facets {
		for _, opt := range q[string(facet)] {
			if err := f.Select(facet, opt); err != nil {
				return f, err
			}
		}
	}
	return f, nil
}

func pageParams(q url.Values, defSize int) (int, int) {
	n, _ := strconv.Atoi(q.Get("page"))
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = defSize
	}
	return n, size
}

type scriptsResponse struct {
	views.Page[views.Card]
	Matched int `json:"matched"`
	All     int `json:"all"`
}

func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	res := f.Apply(cats)
	n, size := pageParams(q, views.PageSizeLarge)
	page := views.Paginate(views.Dedupe(res.Categories), n, size)
	writeJSON(w, http.StatusOK, scriptsResponse{
		Page:    views.Map(page, views.NewCard),
		Matched: res.Matched,
		All:     res.Total,
	})
}

func (s *Server) writeBlock(w http.ResponseWriter, r *http.Request, scripts []catalog.Script, defSize int) {
	n, size := pageParams(r.URL.Query(), defSize)
	writeJSON(w, http.StatusOK, views.Map(views.Paginate(scripts, n, size), views.NewCard))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	s.writeBlock(w, r, views.Latest(cats), views.PageSizeLarge)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	// Trending is a single capped block, never split into pages.
	trending := views.Paginate(views.Trending(cats, s.now()), 1, views.TrendingLimit)
	writeJSON(w, http.StatusOK, views.Map(trending, views.NewCard))
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	s.writeBlock(w, r, views.Popular(cats, s.Config.Featured), views.PageSizeLarge)
}

func (s *Server) handleMostViewed(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	s.writeBlock(w, r, views.MostViewed(cats, s.Config.Featured), views.PageSizeLarge)
}

func (s *Server) handleSponsored(w http.ResponseWriter, r *http.Request) {
	cats, ok := s.categories(w, r)
	if !ok {
		return
	}
	limit := s.Config.SponsoredMax
	if n, err := strconv.Atoi(r.URL.Query().Get("max")); err == nil && n > 0 {
		limit = n
	}
	writeJSON(w, http.StatusOK, views.Sidebar(cats, s.now(), limit))
}
