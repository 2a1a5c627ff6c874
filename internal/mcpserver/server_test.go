package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/inkwell/internal/document"
	"github.com/starford/inkwell/internal/images"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/postservice"
	"github.com/starford/inkwell/internal/storage"
)

// 1x1 transparent PNG.
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func testServer(t *testing.T, mode string) (*Server, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory("alice", "blog", "main")
	svc := postservice.NewService(postservice.Config{
		Mode:          mode,
		Owner:         "alice",
		Repo:          "blog",
		PostsDir:      "mdx/posts",
		ImagesDir:     "mdx/images",
		MetadataDir:   "mdx/metadata",
		MaxImageBytes: images.MaxBytes,
		Location:      time.UTC,
	}, mem, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return New(svc), mem
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "publish_post":
		result, err = srv.publishPost(ctx, req)
	case "get_post_format":
		result, err = srv.getPostFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestPublishAndReadPost(t *testing.T) {
	srv, mem := testServer(t, postservice.ModeDevelopment)

	r := callTool(t, srv, "publish_post", map[string]any{
		"title":     "From the model",
		"content":   "Look: ![dot](img-1)",
		"tags":      "ai, mcp",
		"thumbnail": pngDataURI(),
		"images":    `{"img-1": "` + pngDataURI() + `"}`,
	})
	if r.IsError {
		t.Fatalf("publish failed: %s", resultText(r))
	}
	var res postservice.PublishResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.ContentImagesCount != 1 || res.ThumbnailURL == "" {
		t.Errorf("result = %+v", res)
	}

	pngs := 0
	for p := range mem.Files() {
		if strings.HasPrefix(p, "mdx/images/") && strings.HasSuffix(p, ".png") {
			pngs++
		}
	}
	if pngs != 2 {
		t.Errorf("committed %d png images, want 2", pngs)
	}

	r = callTool(t, srv, "read_post", map[string]any{"id": res.Slug})
	if r.IsError {
		t.Fatalf("read failed: %s", resultText(r))
	}
	var post models.Post
	if err := json.Unmarshal([]byte(resultText(r)), &post); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if post.Title != "From the model" || strings.Contains(post.Content, "(img-1)") {
		t.Errorf("post = %+v", post)
	}
	if strings.Join(post.Tags, ",") != "ai,mcp" {
		t.Errorf("tags = %v", post.Tags)
	}
}

func TestPublishPost_Rejected(t *testing.T) {
	cases := []struct {
		name string
		mode string
		args map[string]any
		want string
	}{
		{"production", "production", map[string]any{"title": "x", "content": "y"}, "글 작성은 개발 환경에서만 가능합니다."},
		{"missing content", postservice.ModeDevelopment, map[string]any{"title": "x"}, "content"},
		{"bad images json", postservice.ModeDevelopment, map[string]any{"title": "x", "content": "y", "images": "[1,2]"}, "JSON object"},
		{"mismatched magic", postservice.ModeDevelopment, map[string]any{"title": "x", "content": "y",
			"thumbnail": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pngBytes)}, "does not match"},
		{"unsupported mime", postservice.ModeDevelopment, map[string]any{"title": "x", "content": "y",
			"thumbnail": "data:text/plain;base64,aGk="}, "unsupported MIME"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, mem := testServer(t, tc.mode)
			r := callTool(t, srv, "publish_post", tc.args)
			if !r.IsError {
				t.Fatal("expected error result")
			}
			if !strings.Contains(resultText(r), tc.want) {
				t.Errorf("error = %q, want it to contain %q", resultText(r), tc.want)
			}
			if mem.Calls(storage.OpCreateBlob) != 0 {
				t.Error("blobs created")
			}
		})
	}
}

func TestListPosts(t *testing.T) {
	srv, mem := testServer(t, postservice.ModeDevelopment)
	if err := mem.Seed(map[string]string{
		"mdx/posts/2024/01/2024-01-01-a-1.mdx": document.Compose(document.Header{Title: "A", Date: "2024-01-01 10:00", Tags: []string{"go"}}, "a"),
		"mdx/posts/2024/02/2024-02-01-b-2.mdx": document.Compose(document.Header{Title: "B", Date: "2024-02-01 10:00"}, "b"),
	}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_posts", map[string]any{"tag": "go"})
	var posts []models.Post
	if err := json.Unmarshal([]byte(resultText(r)), &posts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "A" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestReadPostMissing(t *testing.T) {
	srv, _ := testServer(t, postservice.ModeDevelopment)
	r := callTool(t, srv, "read_post", map[string]any{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
}

func TestGetPostFormat(t *testing.T) {
	srv, _ := testServer(t, postservice.ModeDevelopment)
	text := resultText(callTool(t, srv, "get_post_format", nil))
	if !strings.Contains(text, "readingTime") || !strings.Contains(text, "placeholder") {
		t.Errorf("contract missing sections: %q", text[:80])
	}
}

func TestAssetLoader_FetchHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dot.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer ts.Close()

	l := newAssetLoader()
	if _, err := l.load(context.Background(), "x", ts.URL+"/dot.png"); err == nil || !strings.Contains(err.Error(), "loopback") {
		t.Fatalf("loopback fetch err = %v, want blocked", err)
	}

	l.checkHost = func(string) error { return nil }
	up, err := l.load(context.Background(), "thumb", ts.URL+"/dot.png")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if up.Name != "thumb.png" || up.Size != int64(len(pngBytes)) {
		t.Errorf("upload = %+v", up)
	}

	if _, err := l.load(context.Background(), "x", ts.URL+"/missing.png"); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := l.load(context.Background(), "x", "ftp://example.com/a.png"); err == nil {
		t.Error("expected error for ftp scheme")
	}
}
