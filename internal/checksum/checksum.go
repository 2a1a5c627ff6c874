// Package checksum computes git-compatible object ids.
package checksum

import (
	"crypto/sha1" //nolint:gosec // git object ids are sha1 by definition
	"encoding/hex"
	"strconv"
)

// Object returns the id git assigns to data stored as kind ("blob", "tree"
// or "commit").
func Object(kind string, data []byte) string {
	h := sha1.New() //nolint:gosec
	h.Write([]byte(kind + " " + strconv.Itoa(len(data)) + "\x00"))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Blob is Object("blob", data), the id of a file's contents.
func Blob(data []byte) string {
	return Object("blob", data)
}
