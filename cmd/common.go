package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/scriptdex/scriptdex/internal/utils"
	"github.com/scriptdex/scriptdex/pkg/manifests"
	"github.com/scriptdex/scriptdex/pkg/source"
	"github.com/scriptdex/scriptdex/pkg/storage"
)

// openHistory opens the save history database, or returns nil when
// history.dbpath is empty.
func openHistory() (*storage.DB, error) {
	raw := viper.GetString("history.dbpath")
	if raw == "" {
		return nil, nil
	}
	path, err := utils.HistoryPath(raw)
	if err != nil {
		return nil, fmt.Errorf("could not resolve history path: %w", err)
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open history %s: %w", path, err)
	}
	return db, nil
}

// openStore builds the manifest store on the configured public root,
// recording saves into history when it is not nil.
func openStore(history *storage.DB) *manifests.Store {
	opts := []manifests.Option{manifests.WithLogger(utils.Log)}
	if history != nil {
		opts = append(opts, manifests.WithRecorder(history))
	}
	return manifests.New(viper.GetString("server.public_root"), opts...)
}

// catalogSource returns the cached catalog for the configured source,
// overlaid with the records saved under the store.
func catalogSource(store *manifests.Store) (*source.Cached, error) {
	ttl, err := time.ParseDuration(viper.GetString("catalog.ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog.ttl: %w", err)
	}
	src := source.New(viper.GetString("catalog.source"), store.RecordDir(), utils.Log)
	return source.NewCached(src, ttl), nil
}

// featuredSlugs reads views.featured, which may arrive as a YAML list or as a
// comma separated env value.
func featuredSlugs() []string {
	return utils.SplitList(strings.Join(viper.GetStringSlice("views.featured"), ","))
}
