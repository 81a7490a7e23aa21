package views

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

const maxBadges = 3

var badgeOrder = []struct {
	key   catalog.DeploymentKey
	label string
}{
	{catalog.DeployDocker, "Docker"},
	{catalog.DeployDockerCompose, "Compose"},
	{catalog.DeployKubernetes, "K8s"},
	{catalog.DeployHelm, "Helm"},
	{catalog.DeployTerraform, "Terraform"},
	{catalog.DeployScript, "Script"},
}

// Card is the summary of an entry shown in listing blocks.
type Card struct {
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Description  string   `json:"description"`
	Logo         string   `json:"logo,omitempty"`
	DateCreated  string   `json:"date_created"`
	Stars        string   `json:"stars,omitempty"`
	Badges       []string `json:"badges"`
	SourceDomain string   `json:"source_domain,omitempty"`
	Sponsored    bool     `json:"sponsored,omitempty"`
}

// NewCard summarizes s.
func NewCard(s catalog.Script) Card {
	c := Card{
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		DateCreated: s.DateCreated,
		Stars:       FormatStars(s.GithubStars),
		Badges:      Badges(s),
		Sponsored:   s.Sponsored,
	}
	if s.Logo != nil {
		c.Logo = *s.Logo
	}
	for _, u := range []*string{s.SourceCode, s.Website} {
		if u == nil {
			continue
		}
		if d, ok := RootDomain(*u); ok {
			c.SourceDomain = d
			break
		}
	}
	return c
}

// Cards summarizes every entry.
func Cards(scripts []catalog.Script) []Card {
	out := make([]Card, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, NewCard(s))
	}
	return out
}

// Badges returns up to three deployment labels of the canonical method.
func Badges(s catalog.Script) []string {
	out := []string{}
	m, ok := s.FirstMethod()
	if !ok {
		return out
	}
	for _, b := range badgeOrder {
		if len(out) == maxBadges {
			break
		}
		if m.Platform.Deployment.Enabled(b.key) {
			out = append(out, b.label)
		}
	}
	return out
}

// RootDomain returns the registrable domain of a URL,
// e.g. "https://docs.example.co.uk/x" -> "example.co.uk".
func RootDomain(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	host := u.Hostname()
	if !strings.Contains(host, ".") {
		return "", false
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return "", false
	}
	return domain, true
}
