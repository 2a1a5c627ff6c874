package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/inkwell/internal/apperr"
)

func newTestGitHub(t *testing.T, mux *http.ServeMux) (*GitHub, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	g, err := NewGitHub(GitHubOptions{
		Token:   "secret",
		Owner:   "alice",
		Repo:    "blog",
		Branch:  "main",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewGitHub: %v", err)
	}
	return g, srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func TestGitHubListAndDownload(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("GET /repos/alice/blog/contents/mdx/posts/2025/01", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("ref = %q", r.URL.Query().Get("ref"))
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		writeJSON(t, w, 200, []map[string]any{
			{"name": "2025-01-02-hi.mdx", "path": "mdx/posts/2025/01/2025-01-02-hi.mdx", "type": "file",
				"download_url": srvURL + "/raw/hi.mdx"},
			{"name": "drafts", "path": "mdx/posts/2025/01/drafts", "type": "dir"},
		})
	})
	mux.HandleFunc("GET /raw/hi.mdx", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "---\ntitle: \"Hi\"\n---\n")
	})
	g, srv := newTestGitHub(t, mux)
	srvURL = srv.URL

	entries, err := g.ListDir(context.Background(), "mdx/posts/2025/01")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if len(entries) != 2 || entries[0].Type != EntryFile || entries[1].Type != EntryDir {
		t.Fatalf("entries = %+v", entries)
	}
	data, err := g.Download(context.Background(), entries[0])
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "---\ntitle: \"Hi\"\n---\n" {
		t.Errorf("data = %q", data)
	}
}

func TestGitHubGetFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/alice/blog/contents/mdx/metadata/tags/go.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 200, map[string]any{
			"type":     "file",
			"name":     "go.json",
			"path":     "mdx/metadata/tags/go.json",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(`[{"slug":"a"}]`)),
		})
	})
	mux.HandleFunc("GET /repos/alice/blog/contents/mdx/metadata/tags/none.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 404, map[string]any{"message": "Not Found"})
	})
	g, _ := newTestGitHub(t, mux)

	got, err := g.GetFile(context.Background(), "mdx/metadata/tags/go.json")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if string(got) != `[{"slug":"a"}]` {
		t.Errorf("content = %q", got)
	}

	_, err = g.GetFile(context.Background(), "mdx/metadata/tags/none.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGitHubErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		headers map[string]string
		kind    apperr.Kind
		want    int
	}{
		{"rate limit header", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0"}, apperr.KindRateLimited, 429},
		{"too many requests", http.StatusTooManyRequests, nil, apperr.KindRateLimited, 429},
		{"unprocessable", http.StatusUnprocessableEntity, nil, apperr.KindUpstream, 422},
		{"server error", http.StatusBadGateway, nil, apperr.KindUpstream, 502},
		{"missing branch", http.StatusNotFound, nil, apperr.KindUpstream, 404},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repos/alice/blog/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.headers {
					w.Header().Set(k, v)
				}
				writeJSON(t, w, tc.status, map[string]any{"message": "nope"})
			})
			g, _ := newTestGitHub(t, mux)

			_, err := g.HeadCommit(context.Background())
			if !apperr.IsKind(err, tc.kind) {
				t.Fatalf("err = %v, want kind %s", err, tc.kind)
			}
			if got := apperr.StatusOf(err); got != tc.want {
				t.Errorf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestGitHubGitNotFoundIsUpstream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /repos/alice/blog/git/refs/heads/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 404, map[string]any{"message": "Not Found"})
	})
	g, _ := newTestGitHub(t, mux)

	err := g.UpdateHead(context.Background(), "abc")
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, must not read as a missing file", err)
	}
	if got := apperr.MessageOf(err); got != "GitHub API 오류: Not Found" {
		t.Errorf("message = %q", got)
	}
	if got := apperr.StatusOf(err); got != http.StatusNotFound {
		t.Errorf("status = %d, want 404", got)
	}
}

func TestGitHubCommitFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/alice/blog/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 200, map[string]any{"ref": "refs/heads/main", "object": map[string]any{"sha": "c0", "type": "commit"}})
	})
	mux.HandleFunc("GET /repos/alice/blog/git/commits/c0", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 200, map[string]any{"sha": "c0", "tree": map[string]any{"sha": "t0"}})
	})
	mux.HandleFunc("POST /repos/alice/blog/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["encoding"] != "base64" || body["content"] != "aGk=" {
			t.Errorf("blob body = %v", body)
		}
		writeJSON(t, w, 201, map[string]any{"sha": "b1"})
	})
	mux.HandleFunc("POST /repos/alice/blog/git/trees", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			BaseTree string `json:"base_tree"`
			Tree     []struct {
				Path, Mode, Type, SHA string
			} `json:"tree"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.BaseTree != "t0" || len(body.Tree) != 1 || body.Tree[0].Mode != "100644" || body.Tree[0].SHA != "b1" {
			t.Errorf("tree body = %+v", body)
		}
		writeJSON(t, w, 201, map[string]any{"sha": "t1"})
	})
	mux.HandleFunc("POST /repos/alice/blog/git/commits", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string   `json:"message"`
			Tree    string   `json:"tree"`
			Parents []string `json:"parents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Tree != "t1" || len(body.Parents) != 1 || body.Parents[0] != "c0" {
			t.Errorf("commit body = %+v", body)
		}
		writeJSON(t, w, 201, map[string]any{"sha": "c1"})
	})
	var updated bool
	mux.HandleFunc("PATCH /repos/alice/blog/git/refs/heads/main", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SHA   string `json:"sha"`
			Force bool   `json:"force"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.SHA != "c1" || body.Force {
			t.Errorf("ref body = %+v", body)
		}
		updated = true
		writeJSON(t, w, 200, map[string]any{"ref": "refs/heads/main", "object": map[string]any{"sha": "c1"}})
	})
	g, _ := newTestGitHub(t, mux)
	ctx := context.Background()

	head, err := g.HeadCommit(ctx)
	if err != nil || head != "c0" {
		t.Fatalf("HeadCommit = %q, %v", head, err)
	}
	tree, err := g.CommitTree(ctx, head)
	if err != nil || tree != "t0" {
		t.Fatalf("CommitTree = %q, %v", tree, err)
	}
	blob, err := g.CreateBlob(ctx, "aGk=", EncodingBase64)
	if err != nil {
		t.Fatalf("CreateBlob: %v", err)
	}
	newTree, err := g.CreateTree(ctx, tree, []TreeEntry{{Path: "mdx/images/x.png", SHA: blob}})
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	commit, err := g.CreateCommit(ctx, "msg", newTree, []string{head})
	if err != nil {
		t.Fatalf("CreateCommit: %v", err)
	}
	if err := g.UpdateHead(ctx, commit); err != nil {
		t.Fatalf("UpdateHead: %v", err)
	}
	if !updated {
		t.Error("ref was not updated")
	}
}

func TestGitHubProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/alice", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 200, map[string]any{"login": "alice", "name": "Alice", "public_repos": 7, "followers": 3})
	})
	g, _ := newTestGitHub(t, mux)
	p, err := g.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Login != "alice" || p.Name != "Alice" || p.PublicRepos != 7 || p.Followers != 3 {
		t.Errorf("profile = %+v", p)
	}
}

func TestRawGitHubURL(t *testing.T) {
	got := RawGitHubURL("alice", "blog", "main", "mdx/images/1-a.png")
	want := "https://raw.githubusercontent.com/alice/blog/main/mdx/images/1-a.png"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
