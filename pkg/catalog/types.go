package catalog

import (
	"encoding/json"
	"strconv"
)

// Script is a single catalog entry describing one deployable application.
type Script struct {
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Categories         []int           `json:"categories"`
	DateCreated        string          `json:"date_created"`
	InterfacePort      *int            `json:"interface_port"`
	Documentation      *string         `json:"documentation"`
	Website            *string         `json:"website"`
	SourceCode         *string         `json:"source_code"`
	Logo               *string         `json:"logo"`
	Description        string          `json:"description"`
	InstallMethods     []InstallMethod `json:"install_methods"`
	DefaultCredentials *Credentials    `json:"default_credentials,omitempty"`
	Platform           *Platform       `json:"platform,omitempty"`
	Notes              []Note          `json:"notes"`

	// Listing metadata, never required.
	Sponsored        bool     `json:"sponsored,omitempty"`
	SponsoredExpired string   `json:"sponsored_expired,omitempty"`
	GithubStars      Stars    `json:"github_stars,omitempty"`
	Type             string   `json:"type,omitempty"`
	Features         []string `json:"features,omitempty"`
}

// InstallMethod bundles the platform support of one way of deploying a script.
type InstallMethod struct {
	Platform Platform `json:"platform"`
}

// Platform lists capability flags. A zero value means "no capability".
type Platform struct {
	Desktop          Desktop    `json:"desktop"`
	Mobile           Mobile     `json:"mobile"`
	WebApp           bool       `json:"web_app"`
	BrowserExtension bool       `json:"browser_extension"`
	CLIOnly          bool       `json:"cli_only"`
	Hosting          Hosting    `json:"hosting"`
	UI               UI         `json:"ui"`
	Deployment       Deployment `json:"deployment"`
}

type Desktop struct {
	Linux   bool `json:"linux"`
	Windows bool `json:"windows"`
	MacOS   bool `json:"macos"`
}

type Mobile struct {
	Android bool `json:"android"`
	IOS     bool `json:"ios"`
}

type Hosting struct {
	SelfHosted   bool `json:"self_hosted"`
	ManagedCloud bool `json:"managed_cloud"`
}

type UI struct {
	CLI   bool `json:"cli"`
	GUI   bool `json:"gui"`
	WebUI bool `json:"web_ui"`
	API   bool `json:"api"`
	TUI   bool `json:"tui"`
}

// Credentials are the default login of a freshly installed application.
type Credentials struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type Note struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Category groups scripts for display.
type Category struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	SortOrder   int      `json:"sort_order"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Group       string   `json:"group,omitempty"`
	Scripts     []Script `json:"scripts"`
}

// DefaultGroup is used for categories that do not name a group.
const DefaultGroup = "Other"

// GroupName returns the display group of the category.
func (c Category) GroupName() string {
	if c.Group == "" {
		return DefaultGroup
	}
	return c.Group
}

// Stars holds a star count as published by the catalog, e.g. "3.5k".
// Upstream data carries it either as a string or as a bare number.
type Stars string

func (s *Stars) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Stars(str)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = Stars(strconv.FormatFloat(num, 'f', -1, 64))
	return nil
}

// FirstMethod returns the canonical install method, if any.
func (s Script) FirstMethod() (InstallMethod, bool) {
	if len(s.InstallMethods) == 0 {
		return InstallMethod{}, false
	}
	return s.InstallMethods[0], true
}

// Clone returns a deep copy that shares no mutable state with s.
func (s Script) Clone() Script {
	out := s
	out.Categories = cloneSlice(s.Categories)
	out.InterfacePort = clonePtr(s.InterfacePort)
	out.Documentation = clonePtr(s.Documentation)
	out.Website = clonePtr(s.Website)
	out.SourceCode = clonePtr(s.SourceCode)
	out.Logo = clonePtr(s.Logo)
	if s.InstallMethods != nil {
		out.InstallMethods = make([]InstallMethod, len(s.InstallMethods))
		for i, m := range s.InstallMethods {
			out.InstallMethods[i] = InstallMethod{Platform: m.Platform.Clone()}
		}
	}
	if s.DefaultCredentials != nil {
		creds := Credentials{
			Username: clonePtr(s.DefaultCredentials.Username),
			Password: clonePtr(s.DefaultCredentials.Password),
		}
		out.DefaultCredentials = &creds
	}
	if s.Platform != nil {
		p := s.Platform.Clone()
		out.Platform = &p
	}
	out.Notes = cloneSlice(s.Notes)
	out.Features = cloneSlice(s.Features)
	return out
}

// Clone returns a deep copy of the platform.
func (p Platform) Clone() Platform {
	out := p
	out.Deployment.Paths = p.Deployment.Paths.clone()
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func clonePtr[T any](in *T) *T {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
