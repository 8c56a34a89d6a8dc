// Package localart resolves artifact versions to their file manifests.
//
// Artifacts are addressed by URI (entity, project, sequence name, commit
// hash). A Resolver opens the manifest of one version; the Artifact it returns
// answers manifest-entry and path lookups without downloading file contents.
package localart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound indicates no manifest is known for a URI.
	ErrNotFound = errors.New("localart: artifact not found")
	// ErrBadURI indicates a URI that could not be parsed.
	ErrBadURI = errors.New("localart: malformed artifact uri")
)

const scheme = "wandb-artifact://"

// URI identifies one version of an artifact sequence.
type URI struct {
	Entity  string
	Project string
	Name    string
	Version string
}

func (u URI) String() string {
	return fmt.Sprintf("%s/%s/%s/%s:%s", scheme, u.Entity, u.Project, u.Name, u.Version)
}

// ParseURI parses "wandb-artifact:///entity/project/name:version".
func ParseURI(s string) (URI, error) {
	rest, ok := strings.CutPrefix(s, scheme+"/")
	if !ok {
		return URI{}, fmt.Errorf("%w: %q", ErrBadURI, s)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return URI{}, fmt.Errorf("%w: %q", ErrBadURI, s)
	}
	name, version, ok := strings.Cut(parts[2], ":")
	if !ok || parts[0] == "" || parts[1] == "" || name == "" || version == "" {
		return URI{}, fmt.Errorf("%w: %q", ErrBadURI, s)
	}
	return URI{Entity: parts[0], Project: parts[1], Name: name, Version: version}, nil
}

// ManifestEntry describes one file of an artifact version.
type ManifestEntry struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
	Ref    string `json:"ref,omitempty"`
}

// Manifest is the file listing of an artifact version.
type Manifest struct {
	Entries map[string]ManifestEntry
}

type manifestFile struct {
	Version  int                      `json:"version"`
	Contents map[string]ManifestEntry `json:"contents"`
}

// ReadManifest decodes the service's manifest JSON format.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var mf manifestFile
	if err := json.NewDecoder(r).Decode(&mf); err != nil {
		return nil, fmt.Errorf("localart: decode manifest: %w", err)
	}
	m := &Manifest{Entries: make(map[string]ManifestEntry, len(mf.Contents))}
	for p, e := range mf.Contents {
		e.Path = p
		m.Entries[p] = e
	}
	return m, nil
}

// PathInfo is the result of a path lookup: a *File, a *Dir or nil.
type PathInfo interface {
	pathInfo()
}

// File is a manifest entry seen as a file.
type File struct {
	Path      string        `json:"path"`
	Extension string        `json:"extension"`
	Entry     ManifestEntry `json:"entry"`
}

// Dir is a path prefix of one or more entries.
type Dir struct {
	Path    string   `json:"path"`
	Files   []string `json:"files"`
	Subdirs []string `json:"subdirs"`
}

func (*File) pathInfo() {}
func (*Dir) pathInfo()  {}

// Artifact answers lookups against one manifest.
type Artifact interface {
	URI() URI
	ManifestEntry(path string) (ManifestEntry, bool)
	PathInfo(path string) PathInfo
}

// Resolver opens artifact versions.
type Resolver interface {
	Open(ctx context.Context, uri URI) (Artifact, error)
}

type manifestArtifact struct {
	uri URI
	m   *Manifest
}

// NewArtifact wraps a manifest.
func NewArtifact(uri URI, m *Manifest) Artifact { return &manifestArtifact{uri: uri, m: m} }

func (a *manifestArtifact) URI() URI { return a.uri }

func (a *manifestArtifact) ManifestEntry(p string) (ManifestEntry, bool) {
	e, ok := a.m.Entries[cleanPath(p)]
	return e, ok
}

func (a *manifestArtifact) PathInfo(p string) PathInfo {
	p = cleanPath(p)
	if e, ok := a.m.Entries[p]; ok {
		return &File{Path: p, Extension: extension(p), Entry: e}
	}
	prefix := p + "/"
	if p == "" {
		prefix = ""
	}
	files := map[string]bool{}
	dirs := map[string]bool{}
	for ep := range a.m.Entries {
		rest, ok := strings.CutPrefix(ep, prefix)
		if !ok {
			continue
		}
		if head, _, nested := strings.Cut(rest, "/"); nested {
			dirs[head] = true
		} else {
			files[rest] = true
		}
	}
	if len(files) == 0 && len(dirs) == 0 {
		return nil
	}
	return &Dir{Path: p, Files: sortedKeys(files), Subdirs: sortedKeys(dirs)}
}

func cleanPath(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// extension keeps compound extensions, e.g. "obj.type.json" -> "type.json".
func extension(p string) string {
	base := path.Base(p)
	if i := strings.Index(base, "."); i >= 0 {
		return base[i+1:]
	}
	return ""
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MemoryResolver serves manifests registered in memory.
type MemoryResolver struct {
	mu   sync.RWMutex
	data map[URI]*Manifest
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{data: map[URI]*Manifest{}}
}

// Add registers the manifest of uri.
func (r *MemoryResolver) Add(uri URI, m *Manifest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[uri] = m
}

func (r *MemoryResolver) Open(ctx context.Context, uri URI) (Artifact, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.data[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return NewArtifact(uri, m), nil
}

// DirResolver reads manifests laid out as
// <root>/<entity>/<project>/<name>/<version>/manifest.json.
type DirResolver struct {
	Root string
}

func (r DirResolver) Open(ctx context.Context, uri URI) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	segs := []string{uri.Entity, uri.Project, uri.Name, uri.Version}
	for _, s := range segs {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return nil, fmt.Errorf("%w: %s", ErrBadURI, uri)
		}
	}
	p := filepath.Join(append(append([]string{r.Root}, segs...), "manifest.json")...)
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadManifest(f)
	if err != nil {
		return nil, err
	}
	return NewArtifact(uri, m), nil
}
