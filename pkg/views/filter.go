package views

import (
	"fmt"
	"strings"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// Facet is one filterable dimension.
type Facet string

const (
	FacetPlatform   Facet = "platform"
	FacetDeployment Facet = "deployment"
	FacetHosting    Facet = "hosting"
	FacetUI         Facet = "ui"
)

// Facets lists every facet in display order.
var Facets = []Facet{FacetPlatform, FacetDeployment, FacetHosting, FacetUI}

type predicate func(p catalog.Platform) bool

var facetOptions = map[Facet]map[string]predicate{
	FacetPlatform: {
		"desktop-linux":     func(p catalog.Platform) bool { return p.Desktop.Linux },
		"desktop-windows":   func(p catalog.Platform) bool { return p.Desktop.Windows },
		"desktop-macos":     func(p catalog.Platform) bool { return p.Desktop.MacOS },
		"mobile-android":    func(p catalog.Platform) bool { return p.Mobile.Android },
		"mobile-ios":        func(p catalog.Platform) bool { return p.Mobile.IOS },
		"web_app":           func(p catalog.Platform) bool { return p.WebApp },
		"browser_extension": func(p catalog.Platform) bool { return p.BrowserExtension },
		"cli_only":          func(p catalog.Platform) bool { return p.CLIOnly },
	},
	FacetDeployment: {
		"script":         func(p catalog.Platform) bool { return p.Deployment.Script },
		"docker":         func(p catalog.Platform) bool { return p.Deployment.Docker },
		"docker_compose": func(p catalog.Platform) bool { return p.Deployment.DockerCompose },
		"helm":           func(p catalog.Platform) bool { return p.Deployment.Helm },
		"kubernetes":     func(p catalog.Platform) bool { return p.Deployment.Kubernetes },
		"terraform":      func(p catalog.Platform) bool { return p.Deployment.Terraform },
	},
	FacetHosting: {
		"self_hosted":   func(p catalog.Platform) bool { return p.Hosting.SelfHosted },
		"managed_cloud": func(p catalog.Platform) bool { return p.Hosting.ManagedCloud },
	},
	FacetUI: {
		"cli":    func(p catalog.Platform) bool { return p.UI.CLI },
		"gui":    func(p catalog.Platform) bool { return p.UI.GUI },
		"web_ui": func(p catalog.Platform) bool { return p.UI.WebUI },
		"api":    func(p catalog.Platform) bool { return p.UI.API },
		"tui":    func(p catalog.Platform) bool { return p.UI.TUI },
	},
}

// Filter is the active facet selection plus a free text query.
type Filter struct {
	Query    string
	selected map[Facet]map[string]bool
}

// Select adds option to facet. Unknown facets or options are rejected.
func (f *Filter) Select(facet Facet, option string) error {
	opts, ok := facetOptions[facet]
	if !ok {
		return fmt.Errorf("unknown facet %q", facet)
	}
	if _, ok := opts[option]; !ok {
		return fmt.Errorf("unknown %s option %q", facet, option)
	}
	if f.selected == nil {
		f.selected = make(map[Facet]map[string]bool)
	}
	if f.selected[facet] == nil {
		f.selected[facet] = make(map[string]bool)
	}
	f.selected[facet][option] = true
	return nil
}

// Deselect removes option from facet.
func (f *Filter) Deselect(facet Facet, option string) {
	delete(f.selected[facet], option)
}

// Clear drops every facet selection. The query is kept.
func (f *Filter) Clear() {
	f.selected = nil
}

// Active reports whether any facet option is selected.
func (f Filter) Active() bool {
	for _, opts := range f.selected {
		if len(opts) > 0 {
			return true
		}
	}
	return false
}

// Selected returns the number of selected options per facet.
func (f Filter) Selected(facet Facet) int {
	return len(f.selected[facet])
}

// MatchesFacets applies OR within a facet and AND across facets to the
// canonical install method. Entries without one match only an empty filter.
func (f Filter) MatchesFacets(s catalog.Script) bool {
	m, ok := s.FirstMethod()
	if !ok {
		return !f.Active()
	}
	for facet, opts := range f.selected {
		if len(opts) == 0 {
			continue
		}
		hit := false
		for opt := range opts {
			if facetOptions[facet][opt](m.Platform) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// MatchesQuery does a case-insensitive substring match on name or
// description. An empty query matches everything.
func (f Filter) MatchesQuery(s catalog.Script) bool {
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Description), q)
}

// Matches combines the query and the facets.
func (f Filter) Matches(s catalog.Script) bool {
	return f.MatchesQuery(s) && f.MatchesFacets(s)
}

// Result is the filtered catalog with unique-slug counts.
type Result struct {
	Categories []catalog.Category `json:"categories"`
	Total      int                `json:"total"`
	Matched    int                `json:"matched"`
}

// Apply filters the scripts of every category, drops categories left
// empty, and counts distinct slugs before and after.
func (f Filter) Apply(categories []catalog.Category) Result {
	var out []catalog.Category
	for _, c := range categories {
		var kept []catalog.Script
		for _, s := range c.Scripts {
			if f.Matches(s) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			continue
		}
		c.Scripts = kept
		out = append(out, c)
	}
	return Result{
		Categories: out,
		Total:      len(Dedupe(categories)),
		Matched:    len(Dedupe(out)),
	}
}

// NonEmpty drops categories without scripts.
func NonEmpty(categories []catalog.Category) []catalog.Category {
	var out []catalog.Category
	for _, c := range categories {
		if len(c.Scripts) > 0 {
			out = append(out, c)
		}
	}
	return out
}
