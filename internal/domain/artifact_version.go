package domain

import (
	"fmt"
	"strings"

	"github.com/hanpama/artgraph/internal/localart"
	"github.com/hanpama/artgraph/internal/value"
)

// ArtifactVersion is one version of an artifact sequence.
type ArtifactVersion struct {
	Entity
	creator Creator
}

func newArtifactVersion(e Entity) ArtifactVersion {
	av := ArtifactVersion{Entity: e}
	if v, ok := e.Get("createdBy"); ok {
		av.creator = DecodeCreator(v)
	}
	return av
}

// Creator returns the decoded creator, or nil when createdBy was not fetched
// or is null.
func (a ArtifactVersion) Creator() Creator { return a.creator }

// HistoryStep is the run step at which the version was logged.
func (a ArtifactVersion) HistoryStep() (int64, bool) { return a.Int("historyStep") }

// Metadata returns the raw JSON text of the metadata field.
func (a ArtifactVersion) Metadata() (string, bool) { return a.Str("metadata") }

// Lineage holds the denormalized names leading to an artifact version.
type Lineage struct {
	Entity       string
	Project      string
	Type         string
	Sequence     string
	VersionIndex int64
	CommitHash   string
}

// Lineage reads the lineage selected by the required fragment.
func (a ArtifactVersion) Lineage() (Lineage, error) {
	var (
		l   Lineage
		err error
	)
	if l.Sequence, err = a.mustStr("artifactSequence", "name"); err != nil {
		return Lineage{}, err
	}
	if l.VersionIndex, err = a.mustInt("versionIndex"); err != nil {
		return Lineage{}, err
	}
	if l.Type, err = a.mustStr("artifactSequence", "defaultArtifactType", "name"); err != nil {
		return Lineage{}, err
	}
	if l.Project, err = a.mustStr("artifactSequence", "defaultArtifactType", "project", "name"); err != nil {
		return Lineage{}, err
	}
	if l.Entity, err = a.mustStr("artifactSequence", "defaultArtifactType", "project", "entity", "name"); err != nil {
		return Lineage{}, err
	}
	l.CommitHash, _ = a.Str("commitHash")
	return l, nil
}

// Name is "<sequence>:v<index>".
func (a ArtifactVersion) Name() (string, error) {
	seq, err := a.mustStr("artifactSequence", "name")
	if err != nil {
		return "", err
	}
	idx, err := a.mustInt("versionIndex")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", seq, idx), nil
}

// Link is a display name with a path relative to the service UI.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Link locates the version in the service UI.
func (a ArtifactVersion) Link() (Link, error) {
	l, err := a.Lineage()
	if err != nil {
		return Link{}, err
	}
	return Link{
		Name: fmt.Sprintf("%s:v%d", l.Sequence, l.VersionIndex),
		URL: fmt.Sprintf("/%s/%s/artifacts/%s/%s/v%d",
			l.Entity, l.Project, quote(l.Type), quote(l.Sequence), l.VersionIndex),
	}, nil
}

// URI addresses the version's files.
func (a ArtifactVersion) URI() (localart.URI, error) {
	l, err := a.Lineage()
	if err != nil {
		return localart.URI{}, err
	}
	if l.CommitHash == "" {
		return localart.URI{}, fmt.Errorf("%w: artifactVersion.commitHash", ErrMissingLineage)
	}
	return localart.URI{Entity: l.Entity, Project: l.Project, Name: l.Sequence, Version: l.CommitHash}, nil
}

// quote percent-encodes every byte except unreserved characters and '/'.
func quote(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~', c == '/':
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte(hex[c>>4])
			sb.WriteByte(hex[c&15])
		}
	}
	return sb.String()
}

// Creator is the decoded createdBy union.
type Creator interface {
	Typename() string
}

// RunCreator is a version logged by a run.
type RunCreator struct{ Run Entity }

// UserCreator is a version uploaded by a user.
type UserCreator struct{ User Entity }

// UnknownCreator is any other creator type.
type UnknownCreator struct{ Name string }

func (RunCreator) Typename() string       { return "Run" }
func (UserCreator) Typename() string      { return "User" }
func (c UnknownCreator) Typename() string { return c.Name }

// DecodeCreator decodes a createdBy slice by its __typename. Null yields nil.
func DecodeCreator(v value.Value) Creator {
	if v.Kind() != value.Object {
		return nil
	}
	tn, _ := v.Get("__typename")
	switch tn.Str() {
	case "Run":
		return RunCreator{Run: Entity{kind: RunKind, gql: v}}
	case "User":
		return UserCreator{User: Entity{kind: UserKind, gql: v}}
	}
	return UnknownCreator{Name: tn.Str()}
}
