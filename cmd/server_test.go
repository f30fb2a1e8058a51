package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/recipeserver/cloudcmd/internal/api"
	"github.com/recipeserver/cloudcmd/internal/config"
)

const rejectedTitle = `{"title":["标题已存在。"],"non_field_errors":["请检查输入"]}`

type fakeServer struct {
	mu       sync.Mutex
	created  []string
	updated  []string
	deleted  int
	lastAuth string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "chef" || body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access":"a1","refresh":"r1"}`)
	})
	mux.HandleFunc("/api/v1/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":1,"username":"chef","email":"chef@example.com"}`)
	})
	// device models are served ten per page like the real server
	mux.HandleFunc("/api/v1/device-models/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			_, _ = io.WriteString(w, `{"count":12,"next":null,"results":[
				{"id":11,"model_identifier":"M11","name":"Late One","status":"approved"},
				{"id":12,"model_identifier":"M9","name":"Cooker Nine","status":"pending"}]}`)
			return
		}
		items := []string{`{"id":1,"model_identifier":"M1","name":"Cooker One","status":"approved"}`}
		for i := 2; i <= 10; i++ {
			items = append(items, fmt.Sprintf(`{"id":%d,"model_identifier":"X%d","status":"approved"}`, i, i))
		}
		_, _ = fmt.Fprintf(w, `{"count":12,"next":"http://%s/api/v1/device-models/?page=2","results":[%s]}`,
			r.Host, strings.Join(items, ","))
	})
	mux.HandleFunc("/api/v1/recipes/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/recipes/" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("author") != "me" {
			t.Errorf("recipe list without author filter: %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"count":1,"next":null,"results":[{"id":42,"title":"bread","status":"draft","author":{"id":1,"username":"chef"}}]}`)
	})
	mux.HandleFunc("/api/v1/recipes/create/", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if strings.Contains(string(b), `"title":"taken"`) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, rejectedTitle)
			return
		}
		f.mu.Lock()
		f.created = append(f.created, string(b))
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42,"title":"bread"}`)
	})
	mux.HandleFunc("/api/v1/recipes/42/update/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("update used %s", r.Method)
		}
		_ = r.ParseMultipartForm(1 << 20)
		f.mu.Lock()
		f.updated = append(f.updated, r.FormValue("cloud_commands"))
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"id":42}`)
	})
	mux.HandleFunc("/api/v1/recipes/42/delete/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("delete used %s", r.Method)
		}
		f.mu.Lock()
		f.deleted++
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v1/recipes/42/submit-review/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":42,"status":"pending"}`)
	})
	mux.HandleFunc("/api/v1/recipes/42/commands/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"model":%q,"recipe_id":42,"commands":{"step":1,"action":"PLACEHOLDER","details":"bread on Cooker One"}}`,
			r.URL.Query().Get("model"))
	})
	mux.HandleFunc("/api/v1/recipes/42/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/recipes/42/" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"id":42,"title":"bread","status":"draft","cloud_commands":"[{\"model\":\"M1\",\"commands\":[{\"step\":1,\"action\":\"heat\",\"details\":\"180C\"}]}]"}`)
	})
	return mux
}

func startFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	setupHome(t)
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	t.Setenv(config.EnvAPIURL, srv.URL+"/api/v1")
	return fake
}

func login(t *testing.T) {
	t.Helper()
	if _, err := runCLI(t, "pw\n", "login", "-u", "chef"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginDevicesSubmitFlow(t *testing.T) {
	fake := startFakeServer(t)

	if _, err := runCLI(t, "", "devices", "--refresh"); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected not logged in error, got %v", err)
	}
	if _, err := runCLI(t, "wrong\n", "login", "-u", "chef"); err == nil || !strings.Contains(err.Error(), "No active account") {
		t.Fatalf("expected server error, got %v", err)
	}

	out, err := runCLI(t, "pw\n", "login", "-u", "chef")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "logged in as chef") {
		t.Fatalf("unexpected login output %q", out)
	}
	if out := mustRun(t, "whoami"); !strings.Contains(out, "chef <chef@example.com> (token **)") {
		t.Fatalf("unexpected whoami %q", out)
	}

	out = mustRun(t, "devices", "--refresh", "--approved")
	if !strings.Contains(out, "M1\tapproved") || !strings.Contains(out, "M11\tapproved") || strings.Contains(out, "M9") {
		t.Fatalf("unexpected devices output:\n%s", out)
	}
	if out := mustRun(t, "devices", "nine"); !strings.Contains(out, "M9\tpending") {
		t.Fatalf("unexpected cached devices output:\n%s", out)
	}

	mustRun(t, "draft", "new", "pending", "--model", "M9")
	mustRun(t, "step", "add", "pending", "M9", "heat")
	if _, err := runCLI(t, "", "submit", "pending"); err == nil || !strings.Contains(err.Error(), "not approved") {
		t.Fatalf("expected approval error, got %v", err)
	}

	// approved on the second page of device models
	mustRun(t, "draft", "new", "late", "--model", "M11")
	mustRun(t, "step", "add", "late", "M11", "heat")
	mustRun(t, "submit", "--dry-run", "late")

	mustRun(t, "draft", "new", "bread", "--model", "M1")
	mustRun(t, "step", "add", "bread", "M1", "heat: 180C")
	mustRun(t, "step", "add", "bread", "M1", "wait: 5min")
	if out := mustRun(t, "submit", "bread"); !strings.Contains(out, "submitted 'bread' as recipe 42; draft discarded") {
		t.Fatalf("unexpected submit output %q", out)
	}
	fake.mu.Lock()
	created, auth := fake.created, fake.lastAuth
	fake.mu.Unlock()
	if len(created) != 1 || auth != "Bearer a1" {
		t.Fatalf("create not called as expected: %v %q", created, auth)
	}
	var body struct {
		Title         string            `json:"title"`
		CloudCommands []json.RawMessage `json:"cloud_commands"`
	}
	if err := json.Unmarshal([]byte(created[0]), &body); err != nil {
		t.Fatalf("decode create body: %v", err)
	}
	if body.Title != "bread" || len(body.CloudCommands) != 1 {
		t.Fatalf("unexpected create body %s", created[0])
	}
	if out := mustRun(t, "draft", "list"); strings.Contains(out, "bread") {
		t.Fatalf("submitted draft should be discarded:\n%s", out)
	}

	// editing the recipe again starts from the server copy
	out = mustRun(t, "draft", "new", "copy", "--recipe", "42")
	if !strings.Contains(out, "from recipe 42 with 1 command set(s)") {
		t.Fatalf("unexpected draft new output %q", out)
	}
	if show := mustRun(t, "draft", "show", "copy"); !strings.Contains(show, "1. heat: 180C") {
		t.Fatalf("recipe commands not loaded:\n%s", show)
	}
	mustRun(t, "step", "add", "copy", "M1", "wait: 5min")
	if _, err := runCLI(t, "", "submit", "--multipart", "copy"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	fake.mu.Lock()
	updated := fake.updated
	fake.mu.Unlock()
	if len(updated) != 1 || !strings.Contains(updated[0], `"stepDescription":"wait: 5min"`) {
		t.Fatalf("unexpected update: %v", updated)
	}
	if out := mustRun(t, "draft", "list"); strings.Contains(out, "copy") {
		t.Fatalf("updated draft should be discarded:\n%s", out)
	}

	mustRun(t, "logout")
	if out := mustRun(t, "whoami"); !strings.Contains(out, "not logged in") {
		t.Fatalf("unexpected whoami after logout %q", out)
	}
}

func TestRejectedSubmitKeepsDraftAndServerBody(t *testing.T) {
	startFakeServer(t)
	login(t)

	mustRun(t, "draft", "new", "taken", "--model", "M1")
	mustRun(t, "step", "add", "taken", "M1", "heat")
	_, err := runCLI(t, "", "submit", "taken")
	if err == nil {
		t.Fatalf("expected rejected submission")
	}
	var buf bytes.Buffer
	printServerBody(&buf, fmt.Errorf("submit: %w", err))
	if !strings.Contains(buf.String(), "HTTP 400") || !strings.Contains(buf.String(), rejectedTitle) {
		t.Fatalf("server body not reported in full:\n%s", buf.String())
	}
	if out := mustRun(t, "draft", "list"); !strings.Contains(out, "taken") {
		t.Fatalf("rejected draft must be kept:\n%s", out)
	}
}

func TestPrintServerBodyIgnoresOtherErrors(t *testing.T) {
	var buf bytes.Buffer
	printServerBody(&buf, fmt.Errorf("plain"))
	printServerBody(&buf, &api.ServerError{Status: 502})
	if buf.Len() != 0 {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRecipeCommands(t *testing.T) {
	fake := startFakeServer(t)
	login(t)

	if out := mustRun(t, "recipe", "list", "--mine"); !strings.Contains(out, "42\tdraft\tbread\tchef") {
		t.Fatalf("unexpected recipe list:\n%s", out)
	}
	if out := mustRun(t, "recipe", "show", "42"); !strings.Contains(out, "recipe 42: bread (draft)") || !strings.Contains(out, "1. heat: 180C") {
		t.Fatalf("unexpected recipe show:\n%s", out)
	}
	if out := mustRun(t, "recipe", "commands", "42", "--model", "M1"); !strings.Contains(out, "1. PLACEHOLDER: bread on Cooker One") {
		t.Fatalf("unexpected recipe commands:\n%s", out)
	}
	if _, err := runCLI(t, "", "recipe", "commands", "42"); err == nil {
		t.Fatalf("expected --model to be required")
	}
	if out := mustRun(t, "recipe", "review", "submit", "42"); !strings.Contains(out, "recipe 42 status: pending") {
		t.Fatalf("unexpected review output %q", out)
	}

	out, err := runCLI(t, "n\n", "recipe", "delete", "42")
	if err != nil || !strings.Contains(out, "aborted") {
		t.Fatalf("expected abort, got %q %v", out, err)
	}
	if out := mustRun(t, "recipe", "delete", "-y", "42"); !strings.Contains(out, "deleted recipe 42") {
		t.Fatalf("unexpected delete output %q", out)
	}
	fake.mu.Lock()
	deleted := fake.deleted
	fake.mu.Unlock()
	if deleted != 1 {
		t.Fatalf("expected one delete call, got %d", deleted)
	}
}

func TestRecipeIDsMustBeNumeric(t *testing.T) {
	startFakeServer(t)
	login(t)
	for _, args := range [][]string{
		{"draft", "new", "x", "--recipe", "42/../7"},
		{"recipe", "show", "abc"},
		{"recipe", "delete", "-y", "0"},
	} {
		if _, err := runCLI(t, "", args...); err == nil || !strings.Contains(err.Error(), "invalid recipe id") {
			t.Fatalf("%v: expected invalid recipe id, got %v", args, err)
		}
	}
}
