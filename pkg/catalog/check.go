package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// fieldRank orders violations the way Validate walks a record.
var fieldRank = map[string]int{
	"name":                0,
	"slug":                1,
	"categories":          2,
	"date_created":        3,
	"interface_port":      4,
	"documentation":       5,
	"website":             6,
	"source_code":         7,
	"logo":                8,
	"description":         9,
	"install_methods":     10,
	"default_credentials": 11,
	"platform":            12,
	"deployment":          13,
	"notes":               14,
}

func rank(field string) int {
	if field == "$" {
		return -1
	}
	if r, ok := fieldRank[field]; ok {
		return r
	}
	return len(fieldRank)
}

// lessPath compares dotted paths by record field order, then segment by
// segment with array indexes compared numerically.
func lessPath(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	if ra, rb := rank(as[0]), rank(bs[0]); ra != rb {
		return ra < rb
	}
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			return ai < bi
		}
		return as[i] < bs[i]
	}
	return len(as) < len(bs)
}

// Check runs the shape check and the record rules over raw JSON and returns
// every violation of both in field order. Values with the wrong type are
// dropped before decoding, so the record rules still see the rest of the
// record; rules on a dropped value are not reported twice.
func Check(raw []byte) (Script, []Violation) {
	if !gjson.ValidBytes(raw) {
		return Script{}, []Violation{{Path: "$", Message: "invalid JSON"}}
	}
	issues := shapeIssues(raw)

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Script{}, []Violation{{Path: "$", Message: err.Error()}}
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return Script{}, violationsOf(issues)
	}
	for _, is := range issues {
		prune(root, is.at)
	}
	cleaned, err := json.Marshal(root)
	if err != nil {
		return Script{}, append(violationsOf(issues), Violation{Path: "$", Message: err.Error()})
	}
	rec, err := Normalize(cleaned)
	if err != nil {
		return Script{}, append(violationsOf(issues), Violation{Path: "$", Message: err.Error()})
	}

	out := violationsOf(issues)
	for _, v := range Validate(rec) {
		if !coveredBy(v.Path, issues) {
			out = append(out, v)
		}
	}
	SortViolations(out)
	return rec, out
}

// SortViolations orders v by record field, keeping the relative order of
// violations on the same path.
func SortViolations(v []Violation) {
	sort.SliceStable(v, func(i, j int) bool { return lessPath(v[i].Path, v[j].Path) })
}

func violationsOf(issues []shapeIssue) []Violation {
	var out []Violation
	for _, is := range issues {
		out = append(out, is.v)
	}
	return out
}

// coveredBy reports whether path lies at or under a value the shape check
// already rejected.
func coveredBy(path string, issues []shapeIssue) bool {
	for _, is := range issues {
		p := is.v.Path
		if p == "$" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+".") {
			return true
		}
	}
	return false
}

// prune removes the value at segs. Array elements become null so the
// indexes of their siblings stay stable.
func prune(node any, segs []string) {
	if len(segs) == 0 {
		return
	}
	last := len(segs) == 1
	switch n := node.(type) {
	case map[string]any:
		if last {
			delete(n, segs[0])
			return
		}
		prune(n[segs[0]], segs[1:])
	case []any:
		i, err := strconv.Atoi(segs[0])
		if err != nil || i < 0 || i >= len(n) {
			return
		}
		if last {
			n[i] = nil
			return
		}
		prune(n[i], segs[1:])
	}
}
