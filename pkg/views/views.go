// Package views derives the listings shown on the catalog site from the
// grouped category list. Every function is pure: inputs are never modified.
package views

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// Page sizes used by the listing blocks.
const (
	PageSizeSmall = 3
	PageSizeLarge = 6

	TrendingWindowDays = 30
	TrendingLimit      = 6
	FeaturedBlockMax   = 6
	SponsoredMax       = 5

	featuredBoost    = 5000
	starWeight       = 0.8
	deploymentWeight = 200
)

// Dedupe flattens the scripts of every category and keeps the first entry
// for each slug, in input order.
func Dedupe(categories []catalog.Category) []catalog.Script {
	seen := make(map[string]bool)
	var out []catalog.Script
	for _, c := range categories {
		for _, s := range c.Scripts {
			if seen[s.Slug] {
				continue
			}
			seen[s.Slug] = true
			out = append(out, s)
		}
	}
	return out
}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// ParseStars converts a published star count such as "3.5k" or "2m" to a
// number. Empty or unparsable input yields 0.
func ParseStars(stars catalog.Stars) float64 {
	raw := strings.ToLower(string(stars))
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseFloat(leadingNumber(nonNumeric.ReplaceAllString(raw, "")), 64)
	if err != nil {
		return 0
	}
	switch {
	case strings.Contains(raw, "k"):
		return n * 1000
	case strings.Contains(raw, "m"):
		return n * 1000000
	}
	return n
}

// leadingNumber trims s to its longest prefix that is a decimal number, the
// way a lenient float parser reads "1.2.3" as 1.2.
func leadingNumber(s string) string {
	dot := false
	for i, r := range s {
		if r == '.' {
			if dot {
				return s[:i]
			}
			dot = true
		}
	}
	return s
}

// FormatStars renders a star count compactly: 3663 becomes "3.7k". It
// returns "" when there is nothing worth showing.
func FormatStars(stars catalog.Stars) string {
	n := ParseStars(stars)
	switch {
	case n <= 0:
		return ""
	case n >= 1000000:
		return strconv.FormatFloat(n/1000000, 'f', 1, 64) + "m"
	case n >= 1000:
		return strconv.FormatFloat(n/1000, 'f', 1, 64) + "k"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// created parses date_created. Unparsable dates report ok == false.
func created(s catalog.Script) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s.DateCreated)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Latest orders entries by date_created, newest first. Equal dates keep
// their input order.
func Latest(categories []catalog.Category) []catalog.Script {
	scripts := Dedupe(categories)
	sort.SliceStable(scripts, func(i, j int) bool {
		a, _ := created(scripts[i])
		b, _ := created(scripts[j])
		return a.After(b)
	})
	return scripts
}

// Trending returns up to six entries created in the thirty days before now,
// most starred first and newest first among equals.
func Trending(categories []catalog.Category, now time.Time) []catalog.Script {
	cutoff := now.AddDate(0, 0, -TrendingWindowDays)
	var recent []catalog.Script
	for _, s := range Dedupe(categories) {
		if t, ok := created(s); ok && !t.Before(cutoff) {
			recent = append(recent, s)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		si, sj := ParseStars(recent[i].GithubStars), ParseStars(recent[j].GithubStars)
		if si != sj {
			return si > sj
		}
		a, _ := created(recent[i])
		b, _ := created(recent[j])
		return a.After(b)
	})
	if len(recent) > TrendingLimit {
		recent = recent[:TrendingLimit]
	}
	return recent
}

// DeploymentCount is the number of deployment formats the canonical install
// method offers.
func DeploymentCount(s catalog.Script) int {
	m, ok := s.FirstMethod()
	if !ok {
		return 0
	}
	return m.Platform.Deployment.Count()
}

// PopularityScore weighs stars against deployment versatility and boosts
// featured slugs.
func PopularityScore(s catalog.Script, featured map[string]bool) float64 {
	score := starWeight*ParseStars(s.GithubStars) + deploymentWeight*float64(DeploymentCount(s))
	if featured[s.Slug] {
		score += featuredBoost
	}
	return score
}

// Popular orders entries by PopularityScore, highest first.
func Popular(categories []catalog.Category, featured []string) []catalog.Script {
	set := make(map[string]bool, len(featured))
	for _, slug := range featured {
		set[slug] = true
	}
	scripts := Dedupe(categories)
	scores := make(map[string]float64, len(scripts))
	for _, s := range scripts {
		scores[s.Slug] = PopularityScore(s, set)
	}
	sort.SliceStable(scripts, func(i, j int) bool {
		return scores[scripts[i].Slug] > scores[scripts[j].Slug]
	})
	return scripts
}

// MostViewed lists every entry whose slug is featured, in catalog order.
// Entries listed under several categories appear once per category.
func MostViewed(categories []catalog.Category, featured []string) []catalog.Script {
	set := make(map[string]bool, len(featured))
	for _, slug := range featured {
		set[slug] = true
	}
	var out []catalog.Script
	for _, c := range categories {
		for _, s := range c.Scripts {
			if set[s.Slug] {
				out = append(out, s)
			}
		}
	}
	return out
}

// ActiveSponsor reports whether s is sponsored and not expired at now.
func ActiveSponsor(s catalog.Script, now time.Time) bool {
	if !s.Sponsored {
		return false
	}
	if s.SponsoredExpired == "" {
		return true
	}
	exp, err := parseExpiry(s.SponsoredExpired)
	if err != nil {
		return true
	}
	return !exp.Before(now)
}

func parseExpiry(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// Sponsored returns at most max active sponsored entries in catalog order.
func Sponsored(categories []catalog.Category, now time.Time, max int) []catalog.Script {
	var out []catalog.Script
	for _, s := range Dedupe(categories) {
		if len(out) >= max {
			break
		}
		if ActiveSponsor(s, now) {
			out = append(out, s)
		}
	}
	return out
}

// SponsorSlots describes the sponsor sidebar.
type SponsorSlots struct {
	Entries   []catalog.Script `json:"entries"`
	Available int              `json:"available"`
	Full      bool             `json:"full"`
}

// Sidebar fills up to max sponsor spots and reports how many remain.
func Sidebar(categories []catalog.Category, now time.Time, max int) SponsorSlots {
	entries := Sponsored(categories, now, max)
	return SponsorSlots{
		Entries:   entries,
		Available: max - len(entries),
		Full:      len(entries) >= max,
	}
}
