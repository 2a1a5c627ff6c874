package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	s.valid = true
	if s.Port < 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestExpand(t *testing.T) {
	t.Setenv("CFG_SET", "value")
	t.Setenv("CFG_EMPTY", "")

	cases := map[string]string{
		"${CFG_SET}":           "value",
		"$CFG_SET/x":           "value/x",
		"${CFG_MISSING}":       "",
		"${CFG_MISSING:-dflt}": "dflt",
		"${CFG_EMPTY:-dflt}":   "dflt",
		"${CFG_SET:-dflt}":     "value",
		"plain text, no vars":  "plain text, no vars",
	}
	for in, want := range cases {
		if got := Expand(in); got != want {
			t.Errorf("Expand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	t.Setenv("CFG_PORT", "9000")
	file := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(file, []byte("port: ${CFG_PORT}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &sample{Name: "default"}
	if err := Load(file, s); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "default" || s.Port != 9000 || !s.valid {
		t.Errorf("sample = %+v", s)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	if err := Load(filepath.Join(dir, "missing.yaml"), &sample{}); err == nil {
		t.Error("missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("port: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Load(bad, &sample{}); err == nil {
		t.Error("validation failure should surface")
	}
}
