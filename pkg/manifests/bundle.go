package manifests

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// maxParallel bounds filesystem calls issued by one bundle operation.
const maxParallel = 4

// Result is the outcome for a single deployment key. Err is set only for
// that key; other keys in the same bundle are unaffected.
type Result struct {
	Key      catalog.DeploymentKey `json:"key"`
	Manifest Manifest              `json:"manifest"`
	Path     string                `json:"path,omitempty"`
	Err      error                 `json:"-"`
}

// LoadAll loads the canonical manifest of every key for slug concurrently.
func (s *Store) LoadAll(ctx context.Context, slug string, keys []catalog.DeploymentKey) map[catalog.DeploymentKey]Result {
	return s.each(ctx, keys, func(ctx context.Context, key catalog.DeploymentKey) Result {
		m, err := s.Load(ctx, slug, catalog.ManifestFiles[key])
		return Result{Key: key, Manifest: m, Err: err}
	})
}

// SaveAll writes every manifest in contents concurrently. A failed key does
// not stop the others.
func (s *Store) SaveAll(ctx context.Context, slug string, contents map[catalog.DeploymentKey]string) map[catalog.DeploymentKey]Result {
	keys := make([]catalog.DeploymentKey, 0, len(contents))
	for _, k := range catalog.DeploymentKeys {
		if _, ok := contents[k]; ok {
			keys = append(keys, k)
		}
	}
	return s.each(ctx, keys, func(ctx context.Context, key catalog.DeploymentKey) Result {
		content := contents[key]
		path, err := s.Save(ctx, slug, catalog.ManifestFiles[key], content)
		return Result{Key: key, Path: path, Manifest: Manifest{Exists: err == nil, Content: content}, Err: err}
	})
}

func (s *Store) each(ctx context.Context, keys []catalog.DeploymentKey, fn func(context.Context, catalog.DeploymentKey) Result) map[catalog.DeploymentKey]Result {
	var (
		mu  sync.Mutex
		out = make(map[catalog.DeploymentKey]Result, len(keys))
		g   errgroup.Group
	)
	g.SetLimit(maxParallel)
	for _, key := range keys {
		g.Go(func() error {
			r := fn(ctx, key)
			if r.Err != nil {
				s.log.WithField("key", key).WithError(r.Err).Debug("Manifest operation failed")
			}
			mu.Lock()
			out[key] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
