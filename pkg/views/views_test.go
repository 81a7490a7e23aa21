package views

import (
	"reflect"
	"testing"
	"time"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

func sc(slug, date string) catalog.Script {
	return catalog.Script{
		Name:           slug,
		Slug:           slug,
		DateCreated:    date,
		Description:    "about " + slug,
		InstallMethods: []catalog.InstallMethod{{}},
	}
}

func withStars(s catalog.Script, stars string) catalog.Script {
	s.GithubStars = catalog.Stars(stars)
	return s
}

func withDeploy(s catalog.Script, keys ...catalog.DeploymentKey) catalog.Script {
	s = s.Clone()
	for _, k := range keys {
		s.InstallMethods[0].Platform.Deployment.Toggle(s.Slug, k, true)
	}
	return s
}

func slugs(scripts []catalog.Script) []string {
	out := []string{}
	for _, s := range scripts {
		out = append(out, s.Slug)
	}
	return out
}

func TestDedupe_KeepsFirstOccurrence(t *testing.T) {
	first := sc("a", "2024-01-01")
	dup := sc("a", "2025-01-01")
	cats := []catalog.Category{
		{ID: 1, Scripts: []catalog.Script{first, sc("b", "2024-01-02")}},
		{ID: 2, Scripts: []catalog.Script{dup, sc("c", "2024-01-03"), sc("b", "2020-01-01")}},
	}
	got := Dedupe(cats)
	if !reflect.DeepEqual(slugs(got), []string{"a", "b", "c"}) {
		t.Fatalf("unexpected slugs: %v", slugs(got))
	}
	if got[0].DateCreated != "2024-01-01" {
		t.Fatalf("expected first occurrence to win, got %s", got[0].DateCreated)
	}
}

func TestParseStars(t *testing.T) {
	cases := map[catalog.Stars]float64{
		"":       0,
		"3.5k":   3500,
		"2m":     2000000,
		"2M":     2000000,
		"1200":   1200,
		"n/a":    0,
		"1,234":  1234,
		"12.3.4": 12.3,
	}
	for in, want := range cases {
		if got := ParseStars(in); got != want {
			t.Fatalf("ParseStars(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatStars(t *testing.T) {
	cases := map[catalog.Stars]string{"": "", "0": "", "999": "999", "3663": "3.7k", "2500000": "2.5m"}
	for in, want := range cases {
		if got := FormatStars(in); got != want {
			t.Fatalf("FormatStars(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLatest_SortsByDateStable(t *testing.T) {
	cats := []catalog.Category{{Scripts: []catalog.Script{
		sc("old", "2023-01-01"),
		sc("tie1", "2024-06-01"),
		sc("new", "2024-07-01"),
		sc("tie2", "2024-06-01"),
	}}}
	got := slugs(Latest(cats))
	want := []string{"new", "tie1", "tie2", "old"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	page := Paginate(Latest(cats), 2, PageSizeSmall)
	if len(page.Items) != 1 || page.Items[0].Slug != "old" || !page.HasPrev || page.HasNext {
		t.Fatalf("unexpected second page: %+v", page)
	}
}

func TestTrending_Window(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	cats := []catalog.Category{{Scripts: []catalog.Script{
		withStars(sc("inside", "2024-06-01"), "10"),  // 29 days before
		withStars(sc("outside", "2024-05-30"), "10"), // 31 days before
		withStars(sc("edge", "2024-05-31"), "10"),    // 30 days before, earlier in the day than now
		withStars(sc("fresh", "2024-06-29"), ""),
	}}}
	got := slugs(Trending(cats, now))
	want := []string{"inside", "fresh"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	atMidnight := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	if got := slugs(Trending(cats, atMidnight)); !reflect.DeepEqual(got, []string{"inside", "edge", "fresh"}) {
		t.Fatalf("entry exactly 30 days old should be included: %v", got)
	}
}

func TestTrending_UnparsableStarsSortLast(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	var scripts []catalog.Script
	scripts = append(scripts, withStars(sc("zero", "2024-06-20"), "junk"))
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		scripts = append(scripts, withStars(sc(s, "2024-06-10"), "1"))
	}
	got := Trending([]catalog.Category{{Scripts: scripts}}, now)
	if len(got) != TrendingLimit {
		t.Fatalf("expected %d entries, got %d", TrendingLimit, len(got))
	}
	for _, s := range got {
		if s.Slug == "zero" {
			t.Fatalf("unstarred entry should fall out of the top six")
		}
	}
}

func TestTrending_TieBrokenByDate(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	cats := []catalog.Category{{Scripts: []catalog.Script{
		withStars(sc("older", "2024-06-10"), "1k"),
		withStars(sc("newer", "2024-06-20"), "1000"),
		withStars(sc("top", "2024-06-01"), "2k"),
	}}}
	if got := slugs(Trending(cats, now)); !reflect.DeepEqual(got, []string{"top", "newer", "older"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestPopular(t *testing.T) {
	cats := []catalog.Category{{Scripts: []catalog.Script{
		withStars(sc("stars", "2024-01-01"), "5k"),                                                   // 4000
		withDeploy(sc("versatile", "2024-01-01"), catalog.DeployDocker, catalog.DeployHelm),          // 400
		sc("featured", "2024-01-01"),                                                                  // 5000
		withStars(withDeploy(sc("both", "2024-01-01"), catalog.DeployScript), "6k"),                  // 5000
	}}}
	got := slugs(Popular(cats, []string{"featured"}))
	want := []string{"featured", "both", "stars", "versatile"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if s := PopularityScore(cats[0].Scripts[1], nil); s != 400 {
		t.Fatalf("unexpected score %v", s)
	}
}

func TestMostViewed(t *testing.T) {
	cats := []catalog.Category{
		{Scripts: []catalog.Script{sc("a", ""), sc("b", "")}},
		{Scripts: []catalog.Script{sc("a", "")}},
	}
	if got := slugs(MostViewed(cats, []string{"a"})); !reflect.DeepEqual(got, []string{"a", "a"}) {
		t.Fatalf("unexpected most viewed: %v", got)
	}
}

func TestSponsored(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	mk := func(slug, exp string) catalog.Script {
		s := sc(slug, "2024-01-01")
		s.Sponsored = true
		s.SponsoredExpired = exp
		return s
	}
	cats := []catalog.Category{{Scripts: []catalog.Script{
		mk("forever", ""),
		mk("expired", "2024-06-01"),
		mk("future", "2024-12-31"),
		sc("plain", "2024-01-01"),
		mk("forever", ""),
	}}}
	if got := slugs(Sponsored(cats, now, SponsoredMax)); !reflect.DeepEqual(got, []string{"forever", "future"}) {
		t.Fatalf("unexpected sponsored: %v", got)
	}
	if got := Sponsored(cats, now, 1); len(got) != 1 {
		t.Fatalf("cap not applied: %v", slugs(got))
	}
	side := Sidebar(cats, now, SponsoredMax)
	if side.Available != 3 || side.Full {
		t.Fatalf("unexpected sidebar: %+v", side)
	}
}

func TestFilter_FacetScenario(t *testing.T) {
	selfHosted := sc("selfhosted", "2024-01-01")
	selfHosted.InstallMethods[0].Platform.Hosting.SelfHosted = true
	docker := withDeploy(sc("docker", "2024-01-01"), catalog.DeployDocker)
	bare := sc("bare", "2024-01-01")
	bare.InstallMethods = nil
	cats := []catalog.Category{
		{ID: 1, Scripts: []catalog.Script{selfHosted, bare}},
		{ID: 2, Scripts: []catalog.Script{docker}},
	}

	var f Filter
	if got := f.Apply(cats); got.Matched != 3 || got.Total != 3 {
		t.Fatalf("empty filter should match all: %+v", got)
	}

	_ = f.Select(FacetHosting, "self_hosted")
	res := f.Apply(cats)
	if res.Matched != 1 || len(res.Categories) != 1 || res.Categories[0].Scripts[0].Slug != "selfhosted" {
		t.Fatalf("hosting filter: %+v", res)
	}

	var d Filter
	_ = d.Select(FacetDeployment, "docker")
	if d.Matches(selfHosted) || !d.Matches(docker) {
		t.Fatalf("deployment filter mismatch")
	}

	_ = f.Select(FacetDeployment, "docker")
	if f.Matches(selfHosted) || f.Matches(docker) {
		t.Fatalf("AND across facets should exclude both")
	}

	// OR inside a facet.
	var or Filter
	_ = or.Select(FacetDeployment, "docker")
	_ = or.Select(FacetDeployment, "helm")
	if !or.Matches(docker) {
		t.Fatalf("OR within a facet should match docker")
	}
	if or.Matches(bare) {
		t.Fatalf("entry without install methods only matches an empty filter")
	}
}

func TestFilter_Select_Rejects(t *testing.T) {
	var f Filter
	if err := f.Select("color", "red"); err == nil {
		t.Fatalf("expected error for unknown facet")
	}
	if err := f.Select(FacetUI, "voice"); err == nil {
		t.Fatalf("expected error for unknown option")
	}
	_ = f.Select(FacetUI, "tui")
	f.Deselect(FacetUI, "tui")
	if f.Active() {
		t.Fatalf("filter should be inactive after deselect")
	}
}

func TestFilter_Query(t *testing.T) {
	s := sc("grafana", "2024-01-01")
	s.Name = "Grafana"
	s.Description = "Dashboards and Alerts"
	for _, q := range []string{"", "graf", "ALERTS", "dash"} {
		if !(Filter{Query: q}).Matches(s) {
			t.Fatalf("query %q should match", q)
		}
	}
	if (Filter{Query: "prometheus"}).Matches(s) {
		t.Fatalf("unexpected match")
	}
}

func TestApply_DoesNotMutate(t *testing.T) {
	cats := []catalog.Category{{ID: 1, Scripts: []catalog.Script{sc("a", ""), sc("b", "")}}}
	f := Filter{Query: "a"}
	f.Apply(cats)
	if len(cats[0].Scripts) != 2 {
		t.Fatalf("Apply mutated its input")
	}
}

func TestGroup(t *testing.T) {
	one := []catalog.Script{sc("x", "")}
	cats := []catalog.Category{
		{ID: 1, Name: "Misc", SortOrder: 1, Scripts: one},
		{ID: 2, Name: "Web", Group: "Development", SortOrder: 5, Scripts: one},
		{ID: 3, Name: "Git", Group: "Development", SortOrder: 2, Scripts: one},
		{ID: 4, Name: "Empty", Group: "Networking"},
		{ID: 5, Name: "Games", Group: "Fun", Scripts: one},
		{ID: 6, Name: "K8s", Group: "Platform & Infrastructure", Scripts: one},
	}
	got := Group(cats)
	var names []string
	for _, g := range got {
		names = append(names, g.Name)
	}
	want := []string{"Platform & Infrastructure", "Development", "Fun", "Other"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("want %v, got %v", want, names)
	}
	if got[1].Categories[0].Name != "Git" {
		t.Fatalf("categories not sorted by sort_order: %+v", got[1].Categories)
	}
}

func TestCard(t *testing.T) {
	s := withDeploy(sc("app", "2024-01-01"), catalog.DeployScript, catalog.DeployHelm, catalog.DeployDocker, catalog.DeployTerraform)
	src := "https://github.com/acme/app"
	s.SourceCode = &src
	s.GithubStars = "3663"
	c := NewCard(s)
	if !reflect.DeepEqual(c.Badges, []string{"Docker", "Helm", "Terraform"}) {
		t.Fatalf("unexpected badges: %v", c.Badges)
	}
	if c.SourceDomain != "github.com" || c.Stars != "3.7k" {
		t.Fatalf("unexpected card: %+v", c)
	}
	if d, ok := RootDomain("https://docs.example.co.uk/guide"); !ok || d != "example.co.uk" {
		t.Fatalf("unexpected root domain: %q %v", d, ok)
	}
}

func TestPaginate_Clamps(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	p := Paginate(items, 9, PageSizeLarge)
	if p.Number != 2 || !reflect.DeepEqual(p.Items, []int{7}) || p.Pages != 2 {
		t.Fatalf("unexpected page: %+v", p)
	}
	empty := Paginate([]int{}, 1, PageSizeSmall)
	if empty.Pages != 1 || len(empty.Items) != 0 || empty.HasNext {
		t.Fatalf("unexpected empty page: %+v", empty)
	}
	m := Map(p, func(i int) string { return "x" })
	if len(m.Items) != 1 || m.Number != 2 {
		t.Fatalf("unexpected mapped page: %+v", m)
	}
}
