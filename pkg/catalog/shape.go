package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schema.json
var shapeSchema []byte

var (
	shapeOnce     sync.Once
	shapeCompiled *jsonschema.Schema
	shapeErr      error
)

func compiledShape() (*jsonschema.Schema, error) {
	shapeOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		shapeCompiled, shapeErr = compiler.Compile(shapeSchema)
	})
	return shapeCompiled, shapeErr
}

// applicators only summarize failures that their subschemas report in detail.
var applicators = map[string]bool{
	"properties":            true,
	"patternProperties":     true,
	"additionalProperties":  true,
	"items":                 true,
	"prefixItems":           true,
	"$ref":                  true,
	"$dynamicRef":           true,
	"unevaluatedProperties": true,
	"unevaluatedItems":      true,
}

// shapeIssue is a violation plus the instance location it was found at.
type shapeIssue struct {
	at []string
	v  Violation
}

// CheckShape verifies that raw JSON has the types a record needs before it
// is decoded. Each violation carries the dotted path of the offending value.
// Required-field and format rules are left to Validate.
func CheckShape(raw []byte) []Violation {
	issues := shapeIssues(raw)
	if issues == nil {
		return nil
	}
	out := make([]Violation, len(issues))
	for i, is := range issues {
		out[i] = is.v
	}
	return out
}

func shapeIssues(raw []byte) []shapeIssue {
	schema, err := compiledShape()
	if err != nil {
		return []shapeIssue{{v: Violation{Path: "$", Message: fmt.Sprintf("schema: %v", err)}}}
	}
	result := schema.ValidateJSON(raw)
	if result.IsValid() {
		return nil
	}

	var out []shapeIssue
	collectShape(result, nil, &out)
	if len(out) == 0 {
		out = append(out, shapeIssue{v: Violation{Path: "$", Message: "record does not match the expected shape"}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessPath(out[i].v.Path, out[j].v.Path)
	})
	return out
}

// collectShape walks the evaluation tree. Instance locations are relative to
// the parent result, so they are joined on the way down.
func collectShape(r *jsonschema.EvaluationResult, parent []string, out *[]shapeIssue) {
	at := append(append([]string(nil), parent...), pointerSegments(r.InstanceLocation)...)

	detailed := false
	for _, d := range r.Details {
		if !d.IsValid() {
			detailed = true
			collectShape(d, at, out)
		}
	}

	keywords := make([]string, 0, len(r.Errors))
	for k := range r.Errors {
		if detailed && applicators[k] {
			continue
		}
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	for _, k := range keywords {
		*out = append(*out, shapeIssue{
			at: at,
			v:  Violation{Path: dottedPath(at), Message: r.Errors[k].Error()},
		})
	}
}

func pointerSegments(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	segs := strings.Split(ptr, "/")
	for i, s := range segs {
		segs[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
	}
	return segs
}

func dottedPath(segs []string) string {
	if len(segs) == 0 {
		return "$"
	}
	return strings.Join(segs, ".")
}
