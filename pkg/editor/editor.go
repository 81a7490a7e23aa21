// Package editor holds a catalog record draft and keeps its validation
// result in step with every change.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/scriptdex/scriptdex/pkg/catalog"
	"github.com/scriptdex/scriptdex/pkg/manifests"
)

const maxUndo = 100

// State is one committed draft together with its validation result.
type State struct {
	Script     catalog.Script      `json:"script"`
	Valid      bool                `json:"valid"`
	Errors     []catalog.Violation `json:"errors"`
	Generation uint64              `json:"generation"`
}

// ManifestDraft is the text authored for one deployment key.
type ManifestDraft struct {
	Content string `json:"content"`
	Exists  bool   `json:"exists"`
	Loaded  bool   `json:"loaded"`
	Err     string `json:"error,omitempty"`
}

// Editor owns a single draft. All methods are safe for concurrent use.
type Editor struct {
	mu        sync.Mutex
	state     State
	undo      []State
	manifests map[catalog.DeploymentKey]ManifestDraft
	log       logrus.FieldLogger
}

type Option func(*Editor)

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Editor) { e.log = l }
}

// New starts from an empty record seeded with one default install method.
func New(opts ...Option) *Editor {
	return NewFrom(Blank(), opts...)
}

// NewFrom starts editing an existing record.
func NewFrom(s catalog.Script, opts ...Option) *Editor {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	e := &Editor{
		log:       discard,
		manifests: make(map[catalog.DeploymentKey]ManifestDraft),
	}
	for _, o := range opts {
		o(e)
	}
	next := s.Clone()
	prepare(&next)
	e.state = evaluate(next, 1)
	return e
}

// Blank returns the initial draft of a new record.
func Blank() catalog.Script {
	return catalog.Script{
		Categories:         []int{},
		DefaultCredentials: &catalog.Credentials{},
		Notes:              []catalog.Note{},
	}
}

// DefaultInstallMethod has every platform and deployment flag off.
func DefaultInstallMethod() catalog.InstallMethod {
	return catalog.InstallMethod{}
}

// State returns a copy of the current draft and its validation result.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.copy()
}

func (s State) copy() State {
	out := s
	out.Script = s.Script.Clone()
	out.Errors = append([]catalog.Violation(nil), s.Errors...)
	return out
}

// Update replaces a top-level field. A value of the wrong type is rejected
// and the previous draft kept.
func (e *Editor) Update(f Field, v any) error {
	return e.apply(string(f), func(s *catalog.Script) error {
		return setField(s, f, v)
	})
}

// SetInterfacePort stores the rounded port, or null when out of range.
func (e *Editor) SetInterfacePort(v *float64) error {
	return e.Update(InterfacePort, catalog.ClampPort(v))
}

// SetPlatformFlag sets one platform leaf on the first install method.
func (e *Editor) SetPlatformFlag(f PlatformFlag, on bool) error {
	return e.apply("platform."+string(f), func(s *catalog.Script) error {
		slot := f.slot(&s.InstallMethods[0].Platform)
		if slot == nil {
			return fmt.Errorf("unknown platform flag %q", f)
		}
		*slot = on
		return nil
	})
}

// ToggleGroup selects or clears every flag of g on the first install method.
func (e *Editor) ToggleGroup(g Group) error {
	return e.apply("group."+string(g), func(s *catalog.Script) error {
		return toggleGroup(&s.InstallMethods[0].Platform, g)
	})
}

// ToggleDeployment sets a deployment flag and its manifest path together.
func (e *Editor) ToggleDeployment(key catalog.DeploymentKey, checked bool) error {
	return e.apply("deployment."+string(key), func(s *catalog.Script) error {
		if _, ok := catalog.ManifestFiles[key]; !ok {
			return fmt.Errorf("unknown deployment key %q", key)
		}
		s.InstallMethods[0].Platform.Deployment.Toggle(s.Slug, key, checked)
		return nil
	})
}

// Undo restores the previous committed draft. It reports false when there
// is nothing to undo.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.undo) == 0 {
		return false
	}
	prev := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	gen := e.state.Generation
	if prev.Script.Slug != e.state.Script.Slug {
		gen++
	}
	prev.Generation = gen
	e.state = prev
	return true
}

// JSON returns the draft as 2-space indented JSON.
func (e *Editor) JSON() ([]byte, error) {
	st := e.State()
	return json.MarshalIndent(st.Script, "", "  ")
}

// apply runs mut on a copy of the draft and commits the result with its
// validation outcome in one step. On error or panic the draft is unchanged.
func (e *Editor) apply(op string, mut func(*catalog.Script) error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", op, r)
			e.log.WithField("op", op).Errorf("Editor mutation panicked: %v", r)
		}
	}()

	next := e.state.Script.Clone()
	prepare(&next)
	if err := mut(&next); err != nil {
		e.log.WithField("op", op).WithError(err).Debug("Rejected editor update")
		return err
	}
	prepare(&next)

	gen := e.state.Generation
	if next.Slug != e.state.Script.Slug {
		gen++
	}
	e.undo = append(e.undo, e.state)
	if len(e.undo) > maxUndo {
		e.undo = e.undo[len(e.undo)-maxUndo:]
	}
	e.state = evaluate(next, gen)
	return nil
}

// prepare seeds a default install method when none exists and recomputes
// every deployment path from the current slug.
func prepare(s *catalog.Script) {
	if len(s.InstallMethods) == 0 {
		s.InstallMethods = []catalog.InstallMethod{DefaultInstallMethod()}
	}
	if s.Notes == nil {
		s.Notes = []catalog.Note{}
	}
	for i := range s.InstallMethods {
		d := &s.InstallMethods[i].Platform.Deployment
		for _, k := range catalog.DeploymentKeys {
			d.Toggle(s.Slug, k, d.Enabled(k))
		}
	}
}

func evaluate(s catalog.Script, gen uint64) State {
	v := catalog.Validate(s)
	return State{Script: s, Valid: len(v) == 0, Errors: v, Generation: gen}
}

// Ticket identifies one manifest load. Results carrying a ticket from an
// older slug are dropped.
type Ticket struct {
	ID         uuid.UUID
	Slug       string
	Keys       []catalog.DeploymentKey
	generation uint64
}

// BeginManifestLoad captures the slug and enabled keys to load.
func (e *Editor) BeginManifestLoad() Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Ticket{
		ID:         uuid.New(),
		Slug:       e.state.Script.Slug,
		Keys:       e.state.Script.InstallMethods[0].Platform.Deployment.EnabledKeys(),
		generation: e.state.Generation,
	}
}

// ApplyManifests stores loaded manifests unless the slug changed since the
// ticket was issued. It reports whether the results were applied.
func (e *Editor) ApplyManifests(t Ticket, results map[catalog.DeploymentKey]manifests.Result) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.generation != e.state.Generation {
		e.log.WithFields(logrus.Fields{"ticket": t.ID, "slug": t.Slug}).Debug("Discarding stale manifest load")
		return false
	}
	for key, r := range results {
		d := ManifestDraft{Loaded: true, Exists: r.Manifest.Exists, Content: r.Manifest.Content}
		if r.Err != nil {
			d = ManifestDraft{Err: r.Err.Error()}
		}
		e.manifests[key] = d
	}
	return true
}

// SetManifest replaces the authored content for key.
func (e *Editor) SetManifest(key catalog.DeploymentKey, content string) error {
	if _, ok := catalog.ManifestFiles[key]; !ok {
		return fmt.Errorf("unknown deployment key %q", key)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.manifests[key]
	d.Content = content
	d.Err = ""
	e.manifests[key] = d
	return nil
}

// Manifests returns a copy of every manifest draft.
func (e *Editor) Manifests() map[catalog.DeploymentKey]ManifestDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[catalog.DeploymentKey]ManifestDraft, len(e.manifests))
	for k, v := range e.manifests {
		out[k] = v
	}
	return out
}

// Store is the persistence the editor loads from and saves to.
type Store interface {
	LoadAll(ctx context.Context, slug string, keys []catalog.DeploymentKey) map[catalog.DeploymentKey]manifests.Result
	SaveAll(ctx context.Context, slug string, contents map[catalog.DeploymentKey]string) map[catalog.DeploymentKey]manifests.Result
	SaveRecord(ctx context.Context, rec catalog.Script) (string, error)
}

// LoadManifests fetches every enabled manifest for the current slug.
func (e *Editor) LoadManifests(ctx context.Context, st Store) bool {
	t := e.BeginManifestLoad()
	if t.Slug == "" || len(t.Keys) == 0 {
		return false
	}
	return e.ApplyManifests(t, st.LoadAll(ctx, t.Slug, t.Keys))
}

// SaveReport summarizes one save of the record and its manifests.
type SaveReport struct {
	ID         uuid.UUID                                   `json:"id"`
	RecordPath string                                      `json:"record_path"`
	Manifests  map[catalog.DeploymentKey]manifests.Result `json:"manifests"`
}

// Failed lists the keys whose manifest could not be written.
func (r SaveReport) Failed() []catalog.DeploymentKey {
	var out []catalog.DeploymentKey
	for _, k := range catalog.DeploymentKeys {
		if res, ok := r.Manifests[k]; ok && res.Err != nil {
			out = append(out, k)
		}
	}
	return out
}

// Save writes the record and then the manifest of every enabled key that
// has authored content. An invalid draft is rejected before any write.
func (e *Editor) Save(ctx context.Context, st Store) (SaveReport, error) {
	state := e.State()
	if !state.Valid {
		return SaveReport{}, &manifests.ValidationError{Violations: state.Errors}
	}
	report := SaveReport{ID: uuid.New()}

	path, err := st.SaveRecord(ctx, state.Script)
	if err != nil {
		return report, err
	}
	report.RecordPath = path

	drafts := e.Manifests()
	contents := make(map[catalog.DeploymentKey]string)
	for _, k := range state.Script.InstallMethods[0].Platform.Deployment.EnabledKeys() {
		if d, ok := drafts[k]; ok && (d.Content != "" || d.Exists) {
			contents[k] = d.Content
		}
	}
	if len(contents) > 0 {
		report.Manifests = st.SaveAll(ctx, state.Script.Slug, contents)
	}
	e.log.WithFields(logrus.Fields{
		"slug":      state.Script.Slug,
		"path":      path,
		"manifests": len(contents),
		"failed":    len(report.Failed()),
	}).Info("Saved catalog record")
	return report, nil
}
