// Package manifests reads and writes manifest text files and catalog JSON
// records below a public root directory.
package manifests

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

const (
	manifestDir = "manifests"
	jsonDir     = "json"
	publicURL   = "/public"
)

// Kinds of saved artifacts reported to a Recorder.
const (
	KindManifest = "manifest"
	KindRecord   = "json"
)

// Manifest is the result of a load. Exists distinguishes a missing file
// from an empty one.
type Manifest struct {
	Exists  bool   `json:"exists"`
	Content string `json:"content"`
}

// SaveEvent describes one successful write.
type SaveEvent struct {
	Kind    string
	Slug    string
	File    string
	Path    string
	Content []byte
	SavedAt time.Time
}

// Recorder receives an event after every successful save. Recorder errors
// are logged and never fail the save.
type Recorder interface {
	Record(ctx context.Context, ev SaveEvent) error
}

// Store is a filesystem-backed manifest and record store.
type Store struct {
	root     string
	log      logrus.FieldLogger
	recorder Recorder
}

type Option func(*Store)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// New returns a store rooted at root, the directory served as /public.
func New(root string, opts ...Option) *Store {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Store{root: root, log: discard}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Root returns the public root directory.
func (s *Store) Root() string { return s.root }

// RecordDir returns the directory holding saved JSON records.
func (s *Store) RecordDir() string { return filepath.Join(s.root, jsonDir) }

func (s *Store) manifestFile(app, file string) (string, string) {
	a, f := catalog.Sanitize(app), catalog.Sanitize(file)
	return filepath.Join(s.root, manifestDir, a, f), publicURL + "/" + manifestDir + "/" + a + "/" + f
}

// Load reads the manifest stored for (app, file). A missing file is not an
// error: it yields Exists == false and empty content.
func (s *Store) Load(ctx context.Context, app, file string) (Manifest, error) {
	if app == "" || file == "" {
		return Manifest{}, ErrMissingParam
	}
	if err := ctx.Err(); err != nil {
		return Manifest{}, err
	}
	path, _ := s.manifestFile(app, file)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, wrapIO("read manifest", err)
	}
	return Manifest{Exists: true, Content: string(data)}, nil
}

// Save writes content verbatim, overwriting any previous manifest, and
// returns its public path. Empty content is a valid write.
func (s *Store) Save(ctx context.Context, app, file, content string) (string, error) {
	if app == "" || file == "" {
		return "", ErrMissingParam
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, public := s.manifestFile(app, file)
	if err := replaceFile(path, []byte(content)); err != nil {
		return "", err
	}
	s.record(ctx, SaveEvent{
		Kind:    KindManifest,
		Slug:    catalog.Sanitize(app),
		File:    catalog.Sanitize(file),
		Path:    public,
		Content: []byte(content),
	})
	return public, nil
}

// SaveRecord validates rec and writes it as 2-space indented JSON to
// json/<slug>.json. Nothing is written when validation fails.
func (s *Store) SaveRecord(ctx context.Context, rec catalog.Script) (string, error) {
	if v := catalog.Validate(rec); len(v) > 0 {
		return "", &ValidationError{Violations: v}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", wrapIO("encode record", err)
	}
	slug := catalog.Sanitize(rec.Slug)
	name := slug + ".json"
	if err := replaceFile(filepath.Join(s.RecordDir(), name), data); err != nil {
		return "", err
	}
	public := publicURL + "/" + jsonDir + "/" + name
	s.record(ctx, SaveEvent{Kind: KindRecord, Slug: slug, File: name, Path: public, Content: data})
	return public, nil
}

// LoadRecord reads a previously saved record by slug.
func (s *Store) LoadRecord(slug string) (catalog.Script, bool, error) {
	if slug == "" {
		return catalog.Script{}, false, ErrMissingParam
	}
	data, err := os.ReadFile(filepath.Join(s.RecordDir(), catalog.Sanitize(slug)+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return catalog.Script{}, false, nil
	}
	if err != nil {
		return catalog.Script{}, false, wrapIO("read record", err)
	}
	rec, err := catalog.Normalize(data)
	if err != nil {
		return catalog.Script{}, false, err
	}
	return rec, true, nil
}

func (s *Store) record(ctx context.Context, ev SaveEvent) {
	if s.recorder == nil {
		return
	}
	if ev.SavedAt.IsZero() {
		ev.SavedAt = time.Now().UTC()
	}
	if err := s.recorder.Record(ctx, ev); err != nil {
		s.log.WithFields(logrus.Fields{"slug": ev.Slug, "file": ev.File, "err": err}).Warn("Could not record save history")
	}
}
