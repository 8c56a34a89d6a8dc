package ops

import (
	"fmt"

	"github.com/hanpama/artgraph/internal/alias"
	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/domain"
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
)

func projectAlias(in compiler.Inputs) string {
	return alias.Make("project", in.Str("entityName"), in.Str("projectName"))
}

func projectField(in compiler.Inputs) string {
	return fmt.Sprintf("%s: project(entityName: %s, name: %s)",
		projectAlias(in), in.Literal("entityName"), in.Literal("projectName"))
}

var (
	// RootArtifactVersion seeds a document at one artifact version.
	RootArtifactVersion = compiler.RootOp("root-artifactVersion",
		[]compiler.Param{
			{Name: "entityName", Type: types.String()},
			{Name: "projectName", Type: types.String()},
			{Name: "artifactTypeName", Type: types.String()},
			{Name: "artifactVersionName", Type: types.String()},
		},
		types.Optional(domain.ArtifactVersionKind.Type()),
		func(c *compiler.Context, in compiler.Inputs, inner string) string {
			typeAlias := alias.Make("artifactType", in.Str("artifactTypeName"))
			artifactAlias := alias.Make("artifact", in.Str("artifactVersionName"))
			return projectField(in) + " {\nid\n" +
				typeAlias + ": artifactType(name: " + in.Literal("artifactTypeName") + ") {\nid\n" +
				nest(artifactAlias+": artifact(name: "+in.Literal("artifactVersionName")+")", domain.ArtifactVersionKind, inner) +
				"\n}\n}"
		},
		func(c *compiler.Context, result value.Value, in compiler.Inputs) (any, error) {
			v, ok := result.Get(
				projectAlias(in),
				alias.Make("artifactType", in.Str("artifactTypeName")),
				alias.Make("artifact", in.Str("artifactVersionName")),
			)
			if !ok {
				return nil, nil
			}
			return wrap(domain.ArtifactVersionKind, v), nil
		})

	// RootProject seeds a document at a project.
	RootProject = compiler.RootOp("root-project",
		[]compiler.Param{
			{Name: "entityName", Type: types.String()},
			{Name: "projectName", Type: types.String()},
		},
		types.Optional(domain.ProjectKind.Type()),
		func(c *compiler.Context, in compiler.Inputs, inner string) string {
			return nest(projectField(in), domain.ProjectKind, inner)
		},
		func(c *compiler.Context, result value.Value, in compiler.Inputs) (any, error) {
			v, ok := result.Get(projectAlias(in))
			if !ok {
				return nil, nil
			}
			return wrap(domain.ProjectKind, v), nil
		})
)

func rootOps() []*compiler.Op {
	return []*compiler.Op{RootArtifactVersion, RootProject}
}

// ArtifactVersion builds the root node of one artifact version.
func ArtifactVersion(entity, project, artifactType, version string) *compiler.OutputNode {
	return compiler.Apply(RootArtifactVersion,
		compiler.Str(entity), compiler.Str(project), compiler.Str(artifactType), compiler.Str(version))
}

// Project builds the root node of a project.
func Project(entity, project string) *compiler.OutputNode {
	return compiler.Apply(RootProject, compiler.Str(entity), compiler.Str(project))
}
