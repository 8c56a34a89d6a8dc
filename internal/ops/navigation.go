package ops

import (
	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/domain"
	"github.com/hanpama/artgraph/internal/types"
)

func navigationOps() []*compiler.Op {
	return []*compiler.Op{
		propOp("user-name", domain.UserKind, "name", types.String(), nil),
		propOp("user-username", domain.UserKind, "username", types.String(), nil),
		propOp("artifactType-name", domain.ArtifactTypeKind, "name", types.String(), nil),
		propOp("artifactCollection-name", domain.ArtifactCollectionKind, "name", types.String(), nil),
		propOp("artifactAlias-alias", domain.ArtifactAliasKind, "alias", types.String(), nil),
		propOp("artifactMembership-versionIndex", domain.ArtifactMembershipKind, "versionIndex", types.Int(), nil),
	}
}
