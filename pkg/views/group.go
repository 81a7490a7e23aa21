package views

import (
	"sort"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// GroupOrder is the display order of known category groups.
var GroupOrder = []string{
	"Platform & Infrastructure",
	"Development",
	"Networking",
	"Media & Content",
	"Business & Productivity",
	"Security & Monitoring",
	catalog.DefaultGroup,
}

// CategoryGroup is a named run of categories.
type CategoryGroup struct {
	Name       string             `json:"name"`
	Categories []catalog.Category `json:"categories"`
}

// Group buckets non-empty categories by group name. Known groups follow
// GroupOrder; unknown ones come after them alphabetically, with the default
// group always last. Categories inside a group are ordered by sort_order.
func Group(categories []catalog.Category) []CategoryGroup {
	buckets := make(map[string][]catalog.Category)
	for _, c := range NonEmpty(categories) {
		name := c.GroupName()
		buckets[name] = append(buckets[name], c)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := groupTier(names[i]), groupTier(names[j])
		if ti != tj {
			return ti < tj
		}
		return names[i] < names[j]
	})

	out := make([]CategoryGroup, 0, len(names))
	for _, name := range names {
		cats := buckets[name]
		sort.SliceStable(cats, func(i, j int) bool { return cats[i].SortOrder < cats[j].SortOrder })
		out = append(out, CategoryGroup{Name: name, Categories: cats})
	}
	return out
}

// groupTier orders known groups by GroupOrder, then unknown groups, then
// the default group.
func groupTier(name string) int {
	if name == catalog.DefaultGroup {
		return len(GroupOrder) + 1
	}
	for i, g := range GroupOrder {
		if g == name {
			return i
		}
	}
	return len(GroupOrder)
}
