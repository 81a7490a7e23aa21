package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/scriptdex/scriptdex/pkg/catalog"
	"github.com/scriptdex/scriptdex/pkg/manifests"
	"github.com/scriptdex/scriptdex/pkg/storage"
	"github.com/scriptdex/scriptdex/pkg/views"
)

const maxBodySize = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleLoadManifest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	app, file := q.Get("appName"), q.Get("fileName")
	if app == "" || file == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: appName, fileName")
		return
	}

	m, err := s.Store.Load(r.Context(), app, file)
	if err != nil {
		s.Log.WithFields(logrus.Fields{"app": app, "file": file, "err": err}).Error("Error loading manifest")
		writeError(w, http.StatusInternalServerError, "Failed to load manifest file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"content": m.Content,
		"exists":  m.Exists,
	})
}

type SaveManifestRequest struct {
	AppName  *string `json:"appName"`
	FileName *string `json:"fileName"`
	Content  *string `json:"content"`
}

func (s *Server) handleSaveManifest(w http.ResponseWriter, r *http.Request) {
	var req SaveManifestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// An empty content string is a valid write; only a missing one is not.
	if req.AppName == nil || *req.AppName == "" || req.FileName == nil || *req.FileName == "" || req.Content == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields: appName, fileName, content")
		return
	}

	path, err := s.Store.Save(r.Context(), *req.AppName, *req.FileName, *req.Content)
	if err != nil {
		s.Log.WithFields(logrus.Fields{"app": *req.AppName, "file": *req.FileName, "err": err}).Error("Error saving manifest")
		writeError(w, http.StatusInternalServerError, "Failed to save manifest file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "path": path})
}

func writeViolations(w http.ResponseWriter, v []catalog.Violation) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Invalid JSON schema",
		"details": v,
	})
}

func (s *Server) handleSaveJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil || !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	field := gjson.GetBytes(body, "json")
	if !field.Exists() || field.Type == gjson.Null {
		writeError(w, http.StatusBadRequest, "Missing required field: json")
		return
	}
	raw := []byte(field.Raw)

	rec, violations := catalog.Check(raw)
	if s.Config.StrictCategories {
		cats, err := s.Catalog.Categories(r.Context())
		if err != nil {
			s.Log.WithError(err).Error("Error loading categories")
			writeError(w, http.StatusInternalServerError, "Failed to save JSON file")
			return
		}
		violations = append(violations, catalog.CheckCategories(rec, cats)...)
		catalog.SortViolations(violations)
	}
	if len(violations) > 0 {
		s.Log.WithFields(logrus.Fields{"slug": rec.Slug, "violations": len(violations)}).Debug("Rejected record")
		writeViolations(w, violations)
		return
	}

	path, err := s.Store.SaveRecord(r.Context(), rec)
	var verr *manifests.ValidationError
	switch {
	case errors.As(err, &verr):
		s.Log.WithFields(logrus.Fields{"slug": rec.Slug, "violations": len(verr.Violations)}).Debug("Rejected record")
		writeViolations(w, verr.Violations)
		return
	case err != nil:
		s.Log.WithFields(logrus.Fields{"slug": rec.Slug, "err": err}).Error("Error saving JSON")
		writeError(w, http.StatusInternalServerError, "Failed to save JSON file")
		return
	}
	s.Catalog.Invalidate()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "path": path})
}

type bundleEntry struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleManifestBundle(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: slug")
		return
	}
	script, ok, err := s.findScript(r, slug)
	if err != nil {
		s.Log.WithError(err).Error("Error loading catalog")
		writeError(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Script not found")
		return
	}

	var keys []catalog.DeploymentKey
	if m, ok := script.FirstMethod(); ok {
		keys = m.Platform.Deployment.EnabledKeys()
	}
	results := s.Store.LoadAll(r.Context(), slug, keys)

	out := make(map[catalog.DeploymentKey]bundleEntry, len(results))
	for _, key := range keys {
		res := results[key]
		e := bundleEntry{Path: catalog.ManifestPath(slug, key), Exists: res.Manifest.Exists, Content: res.Manifest.Content}
		if res.Err != nil {
			s.Log.WithFields(logrus.Fields{"slug": slug, "key": key, "err": res.Err}).Error("Error loading manifest")
			e = bundleEntry{Path: e.Path, Error: "Failed to load manifest file"}
		}
		out[key] = e
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "slug": slug, "manifests": out})
}

func (s *Server) findScript(r *http.Request, slug string) (catalog.Script, bool, error) {
	cats, err := s.Catalog.Categories(r.Context())
	if err != nil {
		return catalog.Script{}, false, err
	}
	for _, sc := range views.Dedupe(cats) {
		if sc.Slug == slug {
			return sc, true, nil
		}
	}
	return catalog.Script{}, false, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeError(w, http.StatusNotFound, "Save history is disabled")
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	saves, err := s.History.ListSaves(r.Context(), storage.ListOptions{
		Slug:  q.Get("slug"),
		Kind:  q.Get("kind"),
		Limit: limit,
	})
	if err != nil {
		s.Log.WithError(err).Error("Error listing history")
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, saves)
}
