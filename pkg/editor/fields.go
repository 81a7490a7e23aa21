package editor

import (
	"fmt"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// Field names a top-level record field that Update can replace.
type Field string

const (
	Name               Field = "name"
	Slug               Field = "slug"
	Categories         Field = "categories"
	DateCreated        Field = "date_created"
	InterfacePort      Field = "interface_port"
	Documentation      Field = "documentation"
	Website            Field = "website"
	SourceCode         Field = "source_code"
	Logo               Field = "logo"
	Description        Field = "description"
	DefaultCredentials Field = "default_credentials"
	Notes              Field = "notes"
	InstallMethods     Field = "install_methods"
)

// setField assigns v to f on s. The dynamic type of v must match the field.
func setField(s *catalog.Script, f Field, v any) error {
	switch f {
	case Name, Slug, DateCreated, Description:
		str, ok := v.(string)
		if !ok {
			return typeError(f, "string", v)
		}
		switch f {
		case Name:
			s.Name = str
		case Slug:
			s.Slug = str
		case DateCreated:
			s.DateCreated = str
		case Description:
			s.Description = str
		}
	case Categories:
		ids, ok := v.([]int)
		if !ok {
			return typeError(f, "[]int", v)
		}
		s.Categories = append([]int(nil), ids...)
	case InterfacePort:
		switch p := v.(type) {
		case nil:
			s.InterfacePort = nil
		case *int:
			s.InterfacePort = nil
			if p != nil {
				n := *p
				s.InterfacePort = &n
			}
		case int:
			s.InterfacePort = &p
		default:
			return typeError(f, "*int", v)
		}
	case Documentation, Website, SourceCode, Logo:
		var url *string
		switch u := v.(type) {
		case nil:
		case *string:
			if u != nil {
				url = catalog.NormalizeURL(*u)
			}
		case string:
			url = catalog.NormalizeURL(u)
		default:
			return typeError(f, "*string", v)
		}
		switch f {
		case Documentation:
			s.Documentation = url
		case Website:
			s.Website = url
		case SourceCode:
			s.SourceCode = url
		case Logo:
			s.Logo = url
		}
	case DefaultCredentials:
		switch c := v.(type) {
		case nil:
			s.DefaultCredentials = nil
		case catalog.Credentials:
			cp := catalog.Script{DefaultCredentials: &c}.Clone()
			s.DefaultCredentials = cp.DefaultCredentials
		case *catalog.Credentials:
			s.DefaultCredentials = nil
			if c != nil {
				cp := catalog.Script{DefaultCredentials: c}.Clone()
				s.DefaultCredentials = cp.DefaultCredentials
			}
		default:
			return typeError(f, "catalog.Credentials", v)
		}
	case Notes:
		notes, ok := v.([]catalog.Note)
		if !ok {
			return typeError(f, "[]catalog.Note", v)
		}
		s.Notes = append([]catalog.Note{}, notes...)
	case InstallMethods:
		methods, ok := v.([]catalog.InstallMethod)
		if !ok {
			return typeError(f, "[]catalog.InstallMethod", v)
		}
		s.InstallMethods = catalog.Script{InstallMethods: methods}.Clone().InstallMethods
	default:
		return fmt.Errorf("unknown field %q", f)
	}
	return nil
}

func typeError(f Field, want string, got any) error {
	return fmt.Errorf("field %s expects %s, got %T", f, want, got)
}
