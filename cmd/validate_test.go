package cmd

import (
	"strings"
	"testing"
)

func TestValidateRecord(t *testing.T) {
	valid := `{"name":"A","slug":"a","categories":[1],"date_created":"2024-05-01",
		"description":"d","install_methods":[{"platform":{}}],"notes":[]}`
	if v := validateRecord([]byte(valid)); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}

	tests := []struct {
		name string
		raw  string
		path string
	}{
		{"shape", strings.Replace(valid, `"categories":[1]`, `"categories":"1"`, 1), "$"},
		{"date", strings.Replace(valid, "2024-05-01", "May 1", 1), "date_created"},
		{"not json", `{`, "$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validateRecord([]byte(tt.raw))
			if len(v) == 0 || v[0].Path != tt.path {
				t.Fatalf("violations = %v, want first at %s", v, tt.path)
			}
		})
	}
}
