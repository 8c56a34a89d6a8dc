package ops

import (
	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/domain"
	"github.com/hanpama/artgraph/internal/rundict"
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
)

var versionKind = domain.ArtifactVersionKind

const (
	nameFragment = "versionIndex\nartifactSequence {\nid\nname\n}"
	// lineageFragment selects everything Lineage reads.
	lineageFragment = "versionIndex\ncommitHash\nartifactSequence {\nid\nname\ndefaultArtifactType {\nid\nname\nproject {\nid\nname\nentity {\nid\nname\n}\n}\n}\n}"
)

func artifactVersionOps() []*compiler.Op {
	return []*compiler.Op{
		propOp("artifactVersion-id", versionKind, "id", types.String(), nil),
		propOp("artifactVersion-digest", versionKind, "digest", types.String(), nil),
		propOp("artifactVersion-hash", versionKind, "commitHash", types.String(), nil),
		propOp("artifactVersion-size", versionKind, "size", types.Int(), nil),
		propOp("artifactVersion-description", versionKind, "description", types.String(), nil),
		propOp("artifactVersion-createdAt", versionKind, "createdAt", types.Timestamp(), timestamp),
		propOp("artifactVersion-versionId", versionKind, "versionIndex", types.Int(), nil),
		propOp("artifactVersion-referenceCount", versionKind, "usedCount", types.Int(), nil),

		metadataOp(),

		edgeOp("artifactVersion-aliases", versionKind, "aliases", domain.ArtifactAliasKind, true),
		edgeOp("artifactVersion-artifactType", versionKind, "artifactType", domain.ArtifactTypeKind, false),
		edgeOp("artifactVersion-artifactSequence", versionKind, "artifactSequence", domain.ArtifactCollectionKind, false),
		creatorOp("artifactVersion-createdBy", domain.RunKind),
		creatorOp("artifactVersion-createdByUser", domain.UserKind),

		connectionOp("artifactVersion-artifactCollections", versionKind, "artifactCollections", domain.ArtifactCollectionKind),
		connectionOp("artifactVersion-memberships", versionKind, "artifactMemberships", domain.ArtifactMembershipKind),
		connectionOp("artifactVersion-usedBy", versionKind, "usedBy", domain.RunKind),

		{
			Name:   "artifactVersion-name",
			Params: []compiler.Param{entityParam(versionKind)},
			Output: types.String(),
			Plugin: &compiler.Plugin{Fragment: static(nameFragment)},
			Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
				v, err := version("artifactVersion-name", in)
				if err != nil {
					return nil, err
				}
				return v.Name()
			},
		},
		{
			Name:   "artifactVersion-link",
			Params: []compiler.Param{entityParam(versionKind)},
			Output: types.Link(),
			Plugin: &compiler.Plugin{Fragment: static(lineageFragment)},
			Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
				v, err := version("artifactVersion-link", in)
				if err != nil {
					return nil, err
				}
				return v.Link()
			},
		},
	}
}

func metadataOp() *compiler.Op {
	const name = "artifactVersion-metadata"
	parse := func(c *compiler.Context, in compiler.Inputs) (value.Value, error) {
		v, err := version(name, in)
		if err != nil {
			return value.Value{}, err
		}
		text, present := v.Metadata()
		return parseDict(c, name, "metadata", text, present), nil
	}
	return &compiler.Op{
		Name:   name,
		Params: []compiler.Param{entityParam(versionKind)},
		Output: types.Dict(nil),
		Plugin: &compiler.Plugin{Fragment: static("metadata")},
		Refine: &compiler.Op{
			Name:   "artifactVersion-refineMetadata",
			Params: []compiler.Param{entityParam(versionKind)},
			Output: types.TypeType(),
			Plugin: &compiler.Plugin{Fragment: static("metadata")},
			Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
				d, err := parse(c, in)
				if err != nil {
					return nil, err
				}
				return rundict.TypeOf(d), nil
			},
		},
		Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
			d, err := parse(c, in)
			if err != nil {
				return nil, err
			}
			return rundict.Normalize(d), nil
		},
	}
}

// creatorOp selects createdBy when it is of kind k.
func creatorOp(name string, k *domain.Kind) *compiler.Op {
	return &compiler.Op{
		Name:   name,
		Params: []compiler.Param{entityParam(versionKind)},
		Output: types.Optional(k.Type()),
		Plugin: &compiler.Plugin{Fragment: func(c *compiler.Context, in compiler.Inputs, inner string) string {
			return "createdBy {\n__typename\n" + nest("... on "+k.GraphQLType, k, inner) + "\n}"
		}},
		Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
			v, err := version(name, in)
			if err != nil {
				return nil, err
			}
			switch cr := v.Creator().(type) {
			case domain.RunCreator:
				if k == domain.RunKind {
					return cr.Run, nil
				}
			case domain.UserCreator:
				if k == domain.UserKind {
					return cr.User, nil
				}
			}
			return nil, nil
		},
	}
}
