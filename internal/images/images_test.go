package images

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/starford/inkwell/internal/apperr"
)

func fixedMaterializer() *Materializer {
	m := NewMaterializer(Target{Owner: "alice", Repo: "blog", Branch: "main", Dir: "mdx/images"})
	m.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	m.NewID = func() string { return "uuid-1" }
	return m
}

func TestMaterialize(t *testing.T) {
	m := fixedMaterializer()
	data := []byte("\x89PNG fake")
	got, err := m.Materialize(Upload{Name: "Photo.PNG", Size: int64(len(data)), Reader: bytes.NewReader(data)})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if got.FilePath != "mdx/images/1700000000000-uuid-1.png" {
		t.Errorf("FilePath = %q", got.FilePath)
	}
	if got.URL != "https://raw.githubusercontent.com/alice/blog/main/mdx/images/1700000000000-uuid-1.png" {
		t.Errorf("URL = %q", got.URL)
	}
	decoded, err := base64.StdEncoding.DecodeString(got.Content)
	if err != nil || !bytes.Equal(decoded, data) {
		t.Errorf("content does not round-trip: %v", err)
	}
}

func TestMaterialize_DefaultExtension(t *testing.T) {
	m := fixedMaterializer()
	for _, name := range []string{"noext", "trailingdot.", ""} {
		got, err := m.Materialize(Upload{Name: name, Size: 1, Reader: strings.NewReader("x")})
		if err != nil {
			t.Fatalf("Materialize(%q): %v", name, err)
		}
		if !strings.HasSuffix(got.FilePath, ".jpg") {
			t.Errorf("Materialize(%q) path = %q, want .jpg", name, got.FilePath)
		}
	}
}

func TestMaterialize_TooLarge(t *testing.T) {
	m := fixedMaterializer()
	_, err := m.Materialize(Upload{Name: "big.jpg", Size: 6 << 20, Reader: strings.NewReader("")})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestMaterialize_SizeLie(t *testing.T) {
	m := fixedMaterializer()
	m.Target.MaxBytes = 8
	_, err := m.Materialize(Upload{Name: "a.jpg", Size: 1, Reader: strings.NewReader("0123456789")})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestMaterialize_CustomURL(t *testing.T) {
	m := fixedMaterializer()
	m.Target.URLFor = func(p string) string { return "memory://" + p }
	got, err := m.Materialize(Upload{Name: "a.gif", Size: 1, Reader: strings.NewReader("x")})
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != "memory://mdx/images/1700000000000-uuid-1.gif" {
		t.Errorf("URL = %q", got.URL)
	}
}

func TestReplacePlaceholder(t *testing.T) {
	cases := []struct {
		name, body, id, want string
	}{
		{"single", "![x](temp-1) done", "temp-1", "![x](https://u/1.png) done"},
		{"global", "![a](temp-1)\n![b](temp-1)", "temp-1", "![a](https://u/1.png)\n![b](https://u/1.png)"},
		{"prefix id untouched", "![a](temp-1234)", "temp-123", "![a](temp-1234)"},
		{"bare id untouched", "see temp-1 here", "temp-1", "see temp-1 here"},
		{"regex metachars", "![a](img.(1)*)", "img.(1)*", "![a](https://u/1.png)"},
		{"dot not wildcard", "![a](imgX1)", "img.1", "![a](imgX1)"},
		{"empty id", "![a]()", "", "![a]()"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReplacePlaceholder(tc.body, tc.id, "https://u/1.png"); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReplacePlaceholder_DollarInURL(t *testing.T) {
	got := ReplacePlaceholder("![a](t1)", "t1", "https://u/$1.png")
	if got != "![a](https://u/$1.png)" {
		t.Errorf("got %q", got)
	}
}
