package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/scriptdex/scriptdex/pkg/catalog"
	"github.com/scriptdex/scriptdex/pkg/manifests"
	"github.com/scriptdex/scriptdex/pkg/source"
	"github.com/scriptdex/scriptdex/pkg/storage"
)

func strp(s string) *string { return &s }

func testCatalog() []catalog.Category {
	docker := catalog.InstallMethod{}
	docker.Platform.Deployment.Toggle("my-app", catalog.DeployDocker, true)
	return []catalog.Category{{
		ID:    1,
		Name:  "Media",
		Group: "Media & Content",
		Scripts: []catalog.Script{{
			Name:           "My App",
			Slug:           "my-app",
			Categories:     []int{1},
			DateCreated:    time.Now().Format("2006-01-02"),
			Description:    "A test app",
			SourceCode:     strp("https://github.com/example/my-app"),
			GithubStars:    "1.2k",
			InstallMethods: []catalog.InstallMethod{docker},
			Notes:          []catalog.Note{},
		}},
	}}
}

type testEnv struct {
	srv  *Server
	ts   *httptest.Server
	root string
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	return newTestEnvWith(t, cfg, testCatalog())
}

func newTestEnvWith(t *testing.T, cfg Config, cats []catalog.Category) *testEnv {
	t.Helper()
	root := t.TempDir()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := manifests.New(root, manifests.WithLogger(log), manifests.WithRecorder(db))
	cached := source.NewCached(source.Overlay{Base: source.Static(cats), Dir: store.RecordDir(), Log: log}, time.Minute)
	srv := New(store, cached, db, cfg, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, root: root}
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func TestManifestRoundTrip(t *testing.T) {
	e := newTestEnv(t, Config{})

	resp := e.post(t, "/api/save-manifest", `{"appName":"my-app","fileName":"Dockerfile","content":"FROM alpine\n"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", resp.StatusCode)
	}
	out := decode(t, resp)
	if out["success"] != true || out["path"] != "/public/manifests/my-app/Dockerfile" {
		t.Fatalf("save response = %v", out)
	}

	out = decode(t, e.get(t, "/api/load-manifest?appName=my-app&fileName=Dockerfile"))
	if out["exists"] != true || out["content"] != "FROM alpine\n" {
		t.Fatalf("load response = %v", out)
	}

	resp = e.get(t, "/public/manifests/my-app/Dockerfile")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "FROM alpine\n" {
		t.Fatalf("public file = %q", body)
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	e := newTestEnv(t, Config{})
	out := decode(t, e.get(t, "/api/load-manifest?appName=nope&fileName=Dockerfile"))
	if out["success"] != true || out["exists"] != false || out["content"] != "" {
		t.Fatalf("response = %v", out)
	}
}

func TestLoadManifest_Traversal(t *testing.T) {
	e := newTestEnv(t, Config{})
	resp := e.get(t, "/api/load-manifest?appName=../../etc&fileName=passwd")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode(t, resp)
	if out["success"] != true || out["exists"] != false || out["content"] != "" {
		t.Fatalf("response = %v", out)
	}
}

func TestMissingParams(t *testing.T) {
	e := newTestEnv(t, Config{})
	tests := []struct {
		name   string
		resp   func() *http.Response
		errMsg string
	}{
		{"load", func() *http.Response { return e.get(t, "/api/load-manifest?appName=x") }, "Missing required parameters: appName, fileName"},
		{"save no content", func() *http.Response {
			return e.post(t, "/api/save-manifest", `{"appName":"x","fileName":"y"}`)
		}, "Missing required fields: appName, fileName, content"},
		{"save empty app", func() *http.Response {
			return e.post(t, "/api/save-manifest", `{"appName":"","fileName":"y","content":"z"}`)
		}, "Missing required fields: appName, fileName, content"},
		{"save-json", func() *http.Response { return e.post(t, "/api/save-json", `{}`) }, "Missing required field: json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if out := decode(t, resp); out["error"] != tt.errMsg {
				t.Fatalf("error = %v", out["error"])
			}
		})
	}
}

func TestSaveManifest_EmptyContent(t *testing.T) {
	e := newTestEnv(t, Config{})
	resp := e.post(t, "/api/save-manifest", `{"appName":"a","fileName":"b","content":""}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode(t, e.get(t, "/api/load-manifest?appName=a&fileName=b"))
	if out["exists"] != true || out["content"] != "" {
		t.Fatalf("response = %v", out)
	}
}

func TestSaveManifest_IOFailure(t *testing.T) {
	e := newTestEnv(t, Config{})
	if err := os.MkdirAll(filepath.Join(e.root, "manifests", "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	resp := e.post(t, "/api/save-manifest", `{"appName":"a","fileName":"b","content":"x"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out := decode(t, resp); out["error"] != "Failed to save manifest file" {
		t.Fatalf("error = %v", out["error"])
	}
}

const validRecord = `{
	"name": "New App",
	"slug": "new-app",
	"categories": [1],
	"date_created": "2025-01-15",
	"interface_port": 8080,
	"documentation": null,
	"website": "https://new.example.com",
	"source_code": null,
	"logo": null,
	"description": "Fresh",
	"install_methods": [{"platform": {"deployment": {"docker": true, "paths": {"docker": "/public/manifests/new-app/Dockerfile"}}}}],
	"default_credentials": {"username": null, "password": null},
	"notes": []
}`

func TestSaveJSON(t *testing.T) {
	e := newTestEnv(t, Config{StrictCategories: true})

	// Prime the cache so the save must invalidate it.
	decode(t, e.get(t, "/api/views/latest"))

	resp := e.post(t, "/api/save-json", `{"json":`+validRecord+`}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode(t, resp)
	if out["path"] != "/public/json/new-app.json" {
		t.Fatalf("path = %v", out["path"])
	}

	data, err := os.ReadFile(filepath.Join(e.root, "json", "new-app.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"name\": \"New App\"") {
		t.Fatalf("record not indented:\n%s", data)
	}

	out = decode(t, e.get(t, "/api/scripts?q=fresh"))
	if out["total"] != float64(1) {
		t.Fatalf("saved record not in catalog: %v", out)
	}

	resp = e.get(t, "/api/history?slug=new-app")
	var saves []storage.Save
	json.NewDecoder(resp.Body).Decode(&saves)
	resp.Body.Close()
	if len(saves) != 1 || saves[0].Kind != manifests.KindRecord {
		t.Fatalf("history = %+v", saves)
	}
}

func TestSaveJSON_Invalid(t *testing.T) {
	e := newTestEnv(t, Config{StrictCategories: true})
	tests := []struct {
		name string
		body string
		path string
	}{
		{"bad date", strings.Replace(validRecord, "2025-01-15", "15/01/2025", 1), "date_created"},
		{"unknown category", strings.Replace(validRecord, `"categories": [1]`, `"categories": [99]`, 1), "categories.0"},
		{"wrong type", strings.Replace(validRecord, `"name": "New App"`, `"name": 5`, 1), "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.post(t, "/api/save-json", `{"json":`+tt.body+`}`)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			out := decode(t, resp)
			if out["error"] != "Invalid JSON schema" {
				t.Fatalf("error = %v", out["error"])
			}
			details, _ := out["details"].([]any)
			if len(details) == 0 || details[0].(map[string]any)["path"] != tt.path {
				t.Fatalf("details = %v", out["details"])
			}
		})
	}
	if _, err := os.Stat(filepath.Join(e.root, "json", "new-app.json")); !os.IsNotExist(err) {
		t.Fatalf("invalid record was written: %v", err)
	}
}

func TestBasicAuth(t *testing.T) {
	e := newTestEnv(t, Config{Username: "admin", Password: "secret"})
	resp := e.post(t, "/api/save-manifest", `{"appName":"a","fileName":"b","content":"c"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, e.ts.URL+"/api/save-manifest", strings.NewReader(`{"appName":"a","fileName":"b","content":"c"}`))
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authorized status = %d", resp.StatusCode)
	}

	// Reads stay public.
	resp = e.get(t, "/api/load-manifest?appName=a&fileName=b")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d", resp.StatusCode)
	}
}

func TestManifestBundle(t *testing.T) {
	e := newTestEnv(t, Config{})
	decode(t, e.post(t, "/api/save-manifest", `{"appName":"my-app","fileName":"Dockerfile","content":"FROM scratch"}`))

	out := decode(t, e.get(t, "/api/manifests?slug=my-app"))
	m, _ := out["manifests"].(map[string]any)
	docker, _ := m["docker"].(map[string]any)
	if docker["exists"] != true || docker["content"] != "FROM scratch" || docker["path"] != "/public/manifests/my-app/Dockerfile" {
		t.Fatalf("bundle = %v", out)
	}

	resp := e.get(t, "/api/manifests?slug=missing")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestScripts_FacetFilter(t *testing.T) {
	e := newTestEnv(t, Config{})
	out := decode(t, e.get(t, "/api/scripts?deployment=docker"))
	if out["total"] != float64(1) {
		t.Fatalf("docker filter = %v", out)
	}
	out = decode(t, e.get(t, "/api/scripts?deployment=helm"))
	if out["total"] != float64(0) {
		t.Fatalf("helm filter = %v", out)
	}
	resp := e.get(t, "/api/scripts?deployment=nomad")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown option status = %d", resp.StatusCode)
	}
}

func TestHomePage(t *testing.T) {
	e := newTestEnv(t, Config{})
	resp := e.get(t, "/")
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	card := doc.Find(`#trending article[data-slug="my-app"]`)
	if card.Length() != 1 {
		t.Fatalf("trending card missing")
	}
	if got := card.Find(".badge").First().Text(); got != "Docker" {
		t.Fatalf("badge = %q", got)
	}
	if got := card.Find(".domain").Text(); got != "github.com" {
		t.Fatalf("domain = %q", got)
	}
	if doc.Find("#categories .group h2").First().Text() != "Media & Content" {
		t.Fatalf("group heading missing")
	}
}

func TestHomePage_Search(t *testing.T) {
	e := newTestEnv(t, Config{})
	resp := e.get(t, "/?q=nothing-matches")
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("#result-count").Text(); got != "0 of 1 scripts match" {
		t.Fatalf("count = %q", got)
	}
	if doc.Find("#categories .group").Length() != 0 {
		t.Fatalf("empty categories should be dropped")
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, Config{})
	out := decode(t, e.get(t, "/api/health"))
	if out["ok"] != true || out["service"] != "scriptdex" {
		t.Fatalf("health = %v", out)
	}
}

func TestViews(t *testing.T) {
	e := newTestEnv(t, Config{Featured: []string{"my-app"}})
	for _, path := range []string{"/api/views/latest", "/api/views/trending", "/api/views/popular", "/api/views/most-viewed"} {
		out := decode(t, e.get(t, path))
		items, _ := out["items"].([]any)
		if len(items) != 1 || items[0].(map[string]any)["slug"] != "my-app" {
			t.Fatalf("%s = %v", path, out)
		}
	}
	out := decode(t, e.get(t, "/api/views/sponsored?max=2"))
	if out["available"] != float64(2) || out["full"] != false {
		t.Fatalf("sponsored = %v", out)
	}
}

func largeCatalog(n int) []catalog.Category {
	today := time.Now().Format("2006-01-02")
	scripts := make([]catalog.Script, n)
	for i := range scripts {
		slug := fmt.Sprintf("app-%d", i)
		m := catalog.InstallMethod{}
		m.Platform.Deployment.Toggle(slug, catalog.DeployDocker, true)
		scripts[i] = catalog.Script{
			Name:           slug,
			Slug:           slug,
			Categories:     []int{1},
			DateCreated:    today,
			Description:    "generated",
			GithubStars:    catalog.Stars(strconv.Itoa((i + 1) * 100)),
			InstallMethods: []catalog.InstallMethod{m},
			Notes:          []catalog.Note{},
		}
	}
	return []catalog.Category{{ID: 1, Name: "Tools", Scripts: scripts}}
}

func TestViews_PageSizes(t *testing.T) {
	e := newTestEnvWith(t, Config{}, largeCatalog(8))
	tests := []struct {
		path  string
		items int
		size  int
		pages int
	}{
		{"/api/views/popular", 6, 6, 2},
		{"/api/views/popular?page=2", 2, 6, 2},
		{"/api/views/latest", 6, 6, 2},
		{"/api/views/trending", 6, 6, 1},
		{"/api/views/trending?size=3", 6, 6, 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := decode(t, e.get(t, tt.path))
			items, _ := out["items"].([]any)
			if len(items) != tt.items || out["size"] != float64(tt.size) || out["pages"] != float64(tt.pages) {
				t.Fatalf("items=%d size=%v pages=%v, want %d/%d/%d", len(items), out["size"], out["pages"], tt.items, tt.size, tt.pages)
			}
		})
	}

	out := decode(t, e.get(t, "/api/views/popular"))
	first := out["items"].([]any)[0].(map[string]any)
	if first["slug"] != "app-7" {
		t.Fatalf("popular should lead with the most starred entry, got %v", first["slug"])
	}
}

func TestHomePage_PopularIsOnePage(t *testing.T) {
	e := newTestEnvWith(t, Config{}, largeCatalog(8))
	resp := e.get(t, "/")
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if n := doc.Find("#popular article").Length(); n != 6 {
		t.Fatalf("popular cards = %d, want 6", n)
	}
}

func TestSaveJSON_ReportsEveryViolation(t *testing.T) {
	e := newTestEnv(t, Config{})
	body := `{"json":{"name":123,"slug":"","categories":[],"date_created":"x","description":"","install_methods":[]}}`
	resp := e.post(t, "/api/save-json", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode(t, resp)
	details, _ := out["details"].([]any)
	var paths []string
	for _, d := range details {
		paths = append(paths, d.(map[string]any)["path"].(string))
	}
	want := []string{"name", "slug", "categories", "date_created", "description", "install_methods"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}
