package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// UncategorizedID holds saved records whose categories are all unknown.
const UncategorizedID = 0

// Overlay merges records saved as json/<slug>.json over a base catalog. A
// saved record replaces a base entry with the same slug in each category it
// names. Base may be nil.
type Overlay struct {
	Base Source
	Dir  string
	Log  logrus.FieldLogger
}

func (o Overlay) Categories(ctx context.Context) ([]catalog.Category, error) {
	var base []catalog.Category
	if o.Base != nil {
		var err error
		if base, err = o.Base.Categories(ctx); err != nil {
			return nil, err
		}
	}
	records, err := o.records()
	if err != nil {
		return nil, err
	}
	return merge(base, records), nil
}

func (o Overlay) records() ([]catalog.Script, error) {
	entries, err := os.ReadDir(o.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing saved records: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []catalog.Script
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(o.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		rec, err := catalog.Normalize(data)
		if err != nil {
			if o.Log != nil {
				o.Log.WithField("file", name).WithError(err).Warn("Skipping unreadable saved record")
			}
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func merge(base []catalog.Category, records []catalog.Script) []catalog.Category {
	known := make(map[int]bool, len(base))
	for _, c := range base {
		known[c.ID] = true
	}
	// listed holds the categories each saved slug ends up in.
	listed := make(map[string]map[int]bool, len(records))
	for _, rec := range records {
		ids := make(map[int]bool, len(rec.Categories))
		for _, id := range rec.Categories {
			if known[id] {
				ids[id] = true
			}
		}
		if len(ids) == 0 {
			ids[UncategorizedID] = true
		}
		listed[rec.Slug] = ids
	}

	out := make([]catalog.Category, len(base))
	index := make(map[int]int, len(base))
	for i, c := range base {
		scripts := make([]catalog.Script, 0, len(c.Scripts))
		for _, s := range c.Scripts {
			if ids, saved := listed[s.Slug]; saved && !ids[c.ID] {
				continue
			}
			scripts = append(scripts, s)
		}
		c.Scripts = scripts
		out[i] = c
		index[c.ID] = i
	}

	for _, rec := range records {
		for id := range listed[rec.Slug] {
			i, ok := index[id]
			if !ok {
				out = append(out, catalog.Category{
					ID:          UncategorizedID,
					Name:        "Uncategorized",
					Description: "Saved entries without a known category",
					Group:       catalog.DefaultGroup,
					SortOrder:   1 << 20,
				})
				i = len(out) - 1
				index[UncategorizedID] = i
			}
			out[i].Scripts = upsert(out[i].Scripts, rec)
		}
	}
	return out
}

func upsert(scripts []catalog.Script, rec catalog.Script) []catalog.Script {
	for i, s := range scripts {
		if s.Slug == rec.Slug {
			scripts[i] = rec
			return scripts
		}
	}
	return append(scripts, rec)
}
