package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// legacyPlatformKeys maps old flat platform keys onto their canonical names.
var legacyPlatformKeys = map[string]string{
	"desktop_detail": "desktop",
	"mobile_detail":  "mobile",
	"hosting_detail": "hosting",
}

// Normalize decodes a catalog record and folds the older record shapes into
// the canonical one: platform lives in install_methods[0] and deployment
// lives in its platform. Canonical keys always win over legacy ones.
func Normalize(raw []byte) (Script, error) {
	if !gjson.ValidBytes(raw) {
		return Script{}, fmt.Errorf("invalid JSON")
	}
	var s Script
	if err := json.Unmarshal(raw, &s); err != nil {
		return Script{}, fmt.Errorf("decoding record: %w", err)
	}
	doc := gjson.ParseBytes(raw)

	methods := doc.Get("install_methods")
	if methods.IsArray() {
		for i, m := range methods.Array() {
			if i >= len(s.InstallMethods) {
				break
			}
			p := &s.InstallMethods[i].Platform
			if err := migratePlatform(m.Get("platform"), p); err != nil {
				return Script{}, fmt.Errorf("install_methods.%d: %w", i, err)
			}
			if sibling := m.Get("deployment"); sibling.IsObject() && !m.Get("platform.deployment").Exists() {
				if err := json.Unmarshal([]byte(sibling.Raw), &p.Deployment); err != nil {
					return Script{}, fmt.Errorf("install_methods.%d.deployment: %w", i, err)
				}
			}
		}
	}

	if top := doc.Get("platform"); top.IsObject() && s.Platform != nil {
		if err := migratePlatform(top, s.Platform); err != nil {
			return Script{}, fmt.Errorf("platform: %w", err)
		}
	}

	if dep := doc.Get("deployment"); dep.IsObject() {
		if len(s.InstallMethods) == 0 {
			s.InstallMethods = []InstallMethod{{}}
		}
		if !doc.Get("install_methods.0.platform.deployment").Exists() && !doc.Get("install_methods.0.deployment").Exists() {
			if err := json.Unmarshal([]byte(dep.Raw), &s.InstallMethods[0].Platform.Deployment); err != nil {
				return Script{}, fmt.Errorf("deployment: %w", err)
			}
		}
	}

	if mp := doc.Get("manifest_path"); mp.IsObject() {
		if len(s.InstallMethods) == 0 {
			s.InstallMethods = []InstallMethod{{}}
		}
		d := &s.InstallMethods[0].Platform.Deployment
		mp.ForEach(func(k, v gjson.Result) bool {
			key, err := ParseDeploymentKey(k.String())
			if err != nil || v.Type != gjson.String || v.String() == "" {
				return true
			}
			if d.Path(key) == nil {
				path := v.String()
				d.Set(key, true)
				d.SetPath(key, &path)
			}
			return true
		})
	}

	if gh := doc.Get("github"); gh.Type == gjson.String && s.SourceCode == nil {
		s.SourceCode = NormalizeURL(gh.String())
	}
	if s.Notes == nil {
		s.Notes = []Note{}
	}
	return s, nil
}

func migratePlatform(src gjson.Result, dst *Platform) error {
	if !src.IsObject() {
		return nil
	}
	for legacy, canonical := range legacyPlatformKeys {
		old := src.Get(legacy)
		if !old.IsObject() || src.Get(canonical).Exists() {
			continue
		}
		var target any
		switch canonical {
		case "desktop":
			target = &dst.Desktop
		case "mobile":
			target = &dst.Mobile
		case "hosting":
			target = &dst.Hosting
		}
		if err := json.Unmarshal([]byte(old.Raw), target); err != nil {
			return fmt.Errorf("%s: %w", legacy, err)
		}
	}
	return nil
}
