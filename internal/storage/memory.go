package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/checksum"
)

// Memory is an in-process Backend with the same object model as a Git
// remote: content-addressed blobs, flattened trees, commits and one branch
// ref. It backs the "memory" backend mode and the tests.
type Memory struct {
	owner  string
	repo   string
	branch string

	mu      sync.Mutex
	blobs   map[string][]byte
	trees   map[string]map[string]string // tree sha -> path -> blob sha
	commits map[string]memCommit
	head    string
	profile Profile
	fail    map[string]error
	calls   map[string]int
}

type memCommit struct {
	tree    string
	parents []string
	message string
}

// Operation names accepted by FailOn and Calls.
const (
	OpListDir      = "ListDir"
	OpDownload     = "Download"
	OpGetFile      = "GetFile"
	OpHeadCommit   = "HeadCommit"
	OpCommitTree   = "CommitTree"
	OpCreateBlob   = "CreateBlob"
	OpCreateTree   = "CreateTree"
	OpCreateCommit = "CreateCommit"
	OpUpdateHead   = "UpdateHead"
)

// NewMemory returns an empty repository whose branch points at a root
// commit with an empty tree.
func NewMemory(owner, repo, branch string) *Memory {
	if branch == "" {
		branch = "main"
	}
	m := &Memory{
		owner:   owner,
		repo:    repo,
		branch:  branch,
		blobs:   make(map[string][]byte),
		trees:   make(map[string]map[string]string),
		commits: make(map[string]memCommit),
		fail:    make(map[string]error),
		calls:   make(map[string]int),
		profile: Profile{Login: owner},
	}
	tree := m.putTree(map[string]string{})
	m.head = m.putCommit(memCommit{tree: tree, message: "initial commit"})
	return m
}

// Branch returns the branch name.
func (m *Memory) Branch() string { return m.branch }

// RawURL returns a memory:// URL for path.
func (m *Memory) RawURL(p string) string {
	return fmt.Sprintf("memory://%s/%s/%s/%s", m.owner, m.repo, m.branch, p)
}

// FailOn makes every later call to op return err. A nil err clears it.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Calls reports how many times op has been invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Head returns the current branch commit.
func (m *Memory) Head() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.head
}

// SetProfile replaces the owner profile.
func (m *Memory) SetProfile(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
}

// Seed commits files directly on top of the head, bypassing failure
// injection. Paths must be clean repository-relative paths.
func (m *Memory) Seed(files map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.trees[m.commits[m.head].tree]
	next := make(map[string]string, len(base)+len(files))
	for p, sha := range base {
		next[p] = sha
	}
	for p, content := range files {
		clean, err := CleanPath(p)
		if err != nil {
			return err
		}
		next[clean] = m.putBlob([]byte(content))
	}
	tree := m.putTree(next)
	m.head = m.putCommit(memCommit{tree: tree, parents: []string{m.head}, message: "seed"})
	return nil
}

// Files returns a snapshot of every file at the head.
func (m *Memory) Files() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for p, sha := range m.trees[m.commits[m.head].tree] {
		out[p] = string(m.blobs[sha])
	}
	return out
}

// CommitMessage returns the message of a commit.
func (m *Memory) CommitMessage(sha string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits[sha].message
}

func (m *Memory) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.fail[op]
}

func (m *Memory) headTree() map[string]string {
	return m.trees[m.commits[m.head].tree]
}

// ListDir lists the direct children of dir at the head.
func (m *Memory) ListDir(ctx context.Context, dir string) ([]Entry, error) {
	if err := m.enter(OpListDir); err != nil {
		return nil, err
	}
	dir = strings.Trim(dir, "/")
	prefix := dir + "/"

	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]Entry)
	for p := range m.headTree() {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, isDir := strings.Cut(rest, "/")
		full := path.Join(dir, name)
		if isDir {
			seen[name] = Entry{Name: name, Path: full, Type: EntryDir}
		} else {
			seen[name] = Entry{Name: name, Path: full, Type: EntryFile, DownloadURL: m.RawURL(full)}
		}
	}
	if len(seen) == 0 {
		return nil, notFound(dir)
	}
	out := make([]Entry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Download returns the bytes of a listed file.
func (m *Memory) Download(ctx context.Context, e Entry) ([]byte, error) {
	if err := m.enter(OpDownload); err != nil {
		return nil, err
	}
	return m.read(e.Path)
}

// GetFile returns the bytes of path at the head.
func (m *Memory) GetFile(ctx context.Context, p string) ([]byte, error) {
	if err := m.enter(OpGetFile); err != nil {
		return nil, err
	}
	return m.read(p)
}

func (m *Memory) read(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sha, ok := m.headTree()[strings.Trim(p, "/")]
	if !ok {
		return nil, notFound(p)
	}
	data := m.blobs[sha]
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Profile returns the configured owner profile.
func (m *Memory) Profile(ctx context.Context) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.profile
	return &p, nil
}

// HeadCommit returns the branch commit.
func (m *Memory) HeadCommit(ctx context.Context) (string, error) {
	if err := m.enter(OpHeadCommit); err != nil {
		return "", err
	}
	return m.Head(), nil
}

// CommitTree returns the tree of a commit.
func (m *Memory) CommitTree(ctx context.Context, commitSHA string) (string, error) {
	if err := m.enter(OpCommitTree); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commits[commitSHA]
	if !ok {
		return "", notFound("commit " + commitSHA)
	}
	return c.tree, nil
}

// CreateBlob stores content, decoding base64 when enc says so.
func (m *Memory) CreateBlob(ctx context.Context, content string, enc Encoding) (string, error) {
	if err := m.enter(OpCreateBlob); err != nil {
		return "", err
	}
	data := []byte(content)
	switch enc {
	case EncodingUTF8:
	case EncodingBase64:
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return "", apperr.Upstream(http.StatusUnprocessableEntity, "invalid base64 content", err)
		}
		data = decoded
	default:
		return "", apperr.Upstream(http.StatusUnprocessableEntity, fmt.Sprintf("unknown encoding %q", enc), nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putBlob(data), nil
}

// CreateTree layers entries over baseTree.
func (m *Memory) CreateTree(ctx context.Context, baseTree string, entries []TreeEntry) (string, error) {
	if err := m.enter(OpCreateTree); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	base, ok := m.trees[baseTree]
	if !ok {
		return "", apperr.Upstream(http.StatusUnprocessableEntity, "base_tree is not a valid tree", nil)
	}
	next := make(map[string]string, len(base)+len(entries))
	for p, sha := range base {
		next[p] = sha
	}
	for _, e := range entries {
		clean, err := CleanPath(e.Path)
		if err != nil {
			return "", apperr.Upstream(http.StatusUnprocessableEntity, "invalid tree path", err)
		}
		if _, ok := m.blobs[e.SHA]; !ok {
			return "", apperr.Upstream(http.StatusUnprocessableEntity, "tree.sha "+e.SHA+" is not a valid blob", nil)
		}
		next[clean] = e.SHA
	}
	return m.putTree(next), nil
}

// CreateCommit records a commit object without moving the branch.
func (m *Memory) CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error) {
	if err := m.enter(OpCreateCommit); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[treeSHA]; !ok {
		return "", apperr.Upstream(http.StatusUnprocessableEntity, "tree "+treeSHA+" does not exist", nil)
	}
	for _, p := range parents {
		if _, ok := m.commits[p]; !ok {
			return "", apperr.Upstream(http.StatusUnprocessableEntity, "parent "+p+" does not exist", nil)
		}
	}
	return m.putCommit(memCommit{tree: treeSHA, parents: append([]string(nil), parents...), message: message}), nil
}

// UpdateHead moves the branch if commitSHA descends from the current head.
func (m *Memory) UpdateHead(ctx context.Context, commitSHA string) error {
	if err := m.enter(OpUpdateHead); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.commits[commitSHA]; !ok {
		return apperr.Upstream(http.StatusUnprocessableEntity, "Object does not exist", nil)
	}
	if !m.descends(commitSHA, m.head) {
		return apperr.Upstream(http.StatusUnprocessableEntity, "Update is not a fast forward", nil)
	}
	m.head = commitSHA
	return nil
}

func (m *Memory) descends(sha, ancestor string) bool {
	stack := []string{sha}
	seen := make(map[string]bool)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, m.commits[cur].parents...)
	}
	return false
}

// The put helpers expect m.mu to be held.

func (m *Memory) putBlob(data []byte) string {
	sha := checksum.Blob(data)
	if _, ok := m.blobs[sha]; !ok {
		m.blobs[sha] = append([]byte(nil), data...)
	}
	return sha
}

func (m *Memory) putTree(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "100644 %s\x00%s\n", p, files[p])
	}
	sha := checksum.Object("tree", []byte(b.String()))
	if _, ok := m.trees[sha]; !ok {
		m.trees[sha] = files
	}
	return sha
}

func (m *Memory) putCommit(c memCommit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tree %s\n", c.tree)
	for _, p := range c.parents {
		fmt.Fprintf(&b, "parent %s\n", p)
	}
	// Sequence number keeps identical commits distinct.
	fmt.Fprintf(&b, "seq %d\n\n%s", len(m.commits), c.message)
	sha := checksum.Object("commit", []byte(b.String()))
	m.commits[sha] = c
	return sha
}

var _ Backend = (*Memory)(nil)
