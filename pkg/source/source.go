// Package source loads the grouped catalog that the views are computed from.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// Source returns the full grouped catalog.
type Source interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
}

// Static is a fixed catalog, mostly useful in tests.
type Static []catalog.Category

func (s Static) Categories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category(s), nil
}

// File reads the catalog from a JSON file on disk.
type File struct {
	Path string
}

func (f File) Categories(ctx context.Context) ([]catalog.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCategories(data)
}

// ParseCategories accepts either a bare array of categories or an object
// with a "categories" array. Every script is normalized on the way in.
func ParseCategories(raw []byte) ([]catalog.Category, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("catalog is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if doc.IsObject() {
		doc = doc.Get("categories")
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("catalog has no categories array")
	}

	var out []catalog.Category
	for i, c := range doc.Array() {
		var cat catalog.Category
		head := struct {
			ID          int    `json:"id"`
			Name        string `json:"name"`
			SortOrder   int    `json:"sort_order"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
			Group       string `json:"group"`
		}{}
		if err := json.Unmarshal([]byte(c.Raw), &head); err != nil {
			return nil, fmt.Errorf("category %d: %w", i, err)
		}
		cat.ID, cat.Name, cat.SortOrder = head.ID, head.Name, head.SortOrder
		cat.Description, cat.Icon, cat.Group = head.Description, head.Icon, head.Group

		for j, s := range c.Get("scripts").Array() {
			script, err := catalog.Normalize([]byte(s.Raw))
			if err != nil {
				return nil, fmt.Errorf("category %d script %d: %w", i, j, err)
			}
			cat.Scripts = append(cat.Scripts, script)
		}
		out = append(out, cat)
	}
	return out, nil
}

// New picks a base source for location (an http(s) URL or a file path,
// empty for none) and overlays the saved records in recordDir.
func New(location, recordDir string, log logrus.FieldLogger) Source {
	var base Source
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		base = NewRemote(location)
	case location != "":
		base = File{Path: location}
	}
	return Overlay{Base: base, Dir: recordDir, Log: log}
}
