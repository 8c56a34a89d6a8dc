// Package domain is the catalog of artifact-service entity kinds. Each kind
// carries the GraphQL fields it always needs (its required fragment) and a
// constructor that wraps an already-fetched result slice.
//
// Entities never issue queries. They are views over a slice of a result that
// the engine fetched as part of a compiled document.
package domain

import (
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
)

// Kind describes one entity kind of the artifact service.
type Kind struct {
	// Name is the operator-facing name, e.g. "artifactVersion".
	Name string
	// GraphQLType is the service type the kind is selected from.
	GraphQLType string
	// RequiredFragment lists fields fetched whenever a document reaches the
	// kind, regardless of what the caller asked for.
	RequiredFragment string

	wrap func(Entity) Record
}

// Type returns the operator type of the kind.
func (k *Kind) Type() types.Type { return types.Entity(k.Name) }

// FromResult wraps a result slice. A null slice yields nil.
func (k *Kind) FromResult(v value.Value) Record {
	if v.Kind() != value.Object {
		return nil
	}
	e := Entity{kind: k, gql: v}
	if k.wrap != nil {
		return k.wrap(e)
	}
	return e
}

const lineageFragment = `defaultArtifactType {
	id
	name
	project {
		id
		name
		entity {
			id
			name
		}
	}
}`

var (
	EntityKind = &Kind{
		Name:             "entity",
		GraphQLType:      "Entity",
		RequiredFragment: "id\nname",
	}
	ProjectKind = &Kind{
		Name:             "project",
		GraphQLType:      "Project",
		RequiredFragment: "id\nname\nentity {\n\tid\n\tname\n}",
	}
	RunKind = &Kind{
		Name:             "run",
		GraphQLType:      "Run",
		RequiredFragment: "id\nname\nproject {\n\tid\n\tname\n\tentity {\n\t\tid\n\t\tname\n\t}\n}",
	}
	UserKind = &Kind{
		Name:             "user",
		GraphQLType:      "User",
		RequiredFragment: "id\nname\nusername",
	}
	ArtifactTypeKind = &Kind{
		Name:             "artifactType",
		GraphQLType:      "ArtifactType",
		RequiredFragment: "id\nname",
	}
	ArtifactCollectionKind = &Kind{
		Name:             "artifactCollection",
		GraphQLType:      "ArtifactCollection",
		RequiredFragment: "id\nname\n" + lineageFragment,
	}
	ArtifactAliasKind = &Kind{
		Name:             "artifactAlias",
		GraphQLType:      "ArtifactAlias",
		RequiredFragment: "id\nalias\nartifactCollectionName",
	}
	ArtifactMembershipKind = &Kind{
		Name:             "artifactMembership",
		GraphQLType:      "ArtifactCollectionMembership",
		RequiredFragment: "id\nversionIndex",
	}
	ArtifactVersionKind = &Kind{
		Name:             "artifactVersion",
		GraphQLType:      "Artifact",
		RequiredFragment: "id\nversionIndex\ncommitHash\nartifactSequence {\n\tid\n\tname\n" + lineageFragment + "\n}",
		wrap:             func(e Entity) Record { return newArtifactVersion(e) },
	}
)

var catalog = []*Kind{
	EntityKind,
	ProjectKind,
	RunKind,
	UserKind,
	ArtifactTypeKind,
	ArtifactCollectionKind,
	ArtifactAliasKind,
	ArtifactMembershipKind,
	ArtifactVersionKind,
}

// Kinds returns every kind in the catalog.
func Kinds() []*Kind {
	out := make([]*Kind, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a kind by name.
func Lookup(name string) (*Kind, bool) {
	for _, k := range catalog {
		if k.Name == name {
			return k, true
		}
	}
	return nil, false
}
