package catalog

import (
	"net/url"
	"regexp"
	"strconv"
)

// Violation is one schema rule broken by a record.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validate checks s against the catalog record schema and returns every
// violation in field order. It never modifies s; a nil result means valid.
func Validate(s Script) []Violation {
	var out []Violation
	add := func(path, msg string) {
		out = append(out, Violation{Path: path, Message: msg})
	}

	if s.Name == "" {
		add("name", "Name is required")
	}
	if s.Slug == "" {
		add("slug", "Slug is required")
	}
	if len(s.Categories) == 0 {
		add("categories", "At least one category is required")
	}
	if !datePattern.MatchString(s.DateCreated) {
		add("date_created", "Date must be in YYYY-MM-DD format")
	}
	if s.InterfacePort != nil && (*s.InterfacePort < 1 || *s.InterfacePort > 65535) {
		add("interface_port", "Port must be between 1 and 65535")
	}

	urls := []struct {
		path  string
		value *string
	}{
		{"documentation", s.Documentation},
		{"website", s.Website},
		{"source_code", s.SourceCode},
		{"logo", s.Logo},
	}
	for _, u := range urls {
		if u.value != nil && !isAbsoluteURL(*u.value) {
			add(u.path, "Invalid url")
		}
	}

	if s.Description == "" {
		add("description", "Description is required")
	}
	if len(s.InstallMethods) == 0 {
		add("install_methods", "At least one install method is required")
	}
	for i, n := range s.Notes {
		prefix := "notes." + strconv.Itoa(i)
		if n.Text == "" {
			add(prefix+".text", "Note text cannot be empty")
		}
		if n.Type == "" {
			add(prefix+".type", "Note type cannot be empty")
		}
	}
	return out
}

// CheckCategories reports category IDs that do not exist in known.
func CheckCategories(s Script, known []Category) []Violation {
	ids := make(map[int]bool, len(known))
	for _, c := range known {
		ids[c.ID] = true
	}
	var out []Violation
	for i, id := range s.Categories {
		if !ids[id] {
			out = append(out, Violation{
				Path:    "categories." + strconv.Itoa(i),
				Message: "Unknown category " + strconv.Itoa(id),
			})
		}
	}
	return out
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}
