package checksum

import "testing"

func TestBlob_MatchesGit(t *testing.T) {
	// `printf 'hello world\n' | git hash-object --stdin`
	if got := Blob([]byte("hello world\n")); got != "3b18e512dba79e4c8300dd08aeb37f8e728b8dad" {
		t.Errorf("Blob = %s", got)
	}
	// `git hash-object /dev/null`
	if got := Blob(nil); got != "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391" {
		t.Errorf("Blob(empty) = %s", got)
	}
}

func TestObject_KindMatters(t *testing.T) {
	if Object("blob", []byte("x")) == Object("tree", []byte("x")) {
		t.Error("different kinds must hash differently")
	}
}
