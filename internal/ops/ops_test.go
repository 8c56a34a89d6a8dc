package ops

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/artgraph/internal/alias"
	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/domain"
	"github.com/hanpama/artgraph/internal/engine"
	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/localart"
	"github.com/hanpama/artgraph/internal/schema"
	"github.com/hanpama/artgraph/internal/transport"
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
	"github.com/stretchr/testify/require"
)

const projectJSON = `{"id": "p", "name": "demo", "entity": {"id": "e", "name": "acme"}}`

var lineageJSON = `{"id": "s", "name": "weights", "defaultArtifactType": {"id": "t", "name": "model", "project": ` + projectJSON + `}}`

func runJSON(id, name string) string {
	return fmt.Sprintf(`{"__typename": "Run", "id": %q, "name": %q, "project": %s}`, id, name, projectJSON)
}

// artifactJSON is a version as the service returns it for a document that
// selected every field.
func artifactJSON(metadata, createdBy string) string {
	return `{
		"id": "QXJ0aWZhY3Q6MQ==",
		"digest": "d1",
		"commitHash": "abc123",
		"size": 1024,
		"description": null,
		"createdAt": "2024-03-01T12:00:00",
		"versionIndex": 3,
		"usedCount": 2,
		"metadata": ` + metadata + `,
		"historyStep": 5,
		"aliases": [{"id": "al1", "alias": "latest", "artifactCollectionName": "weights"}, {"id": "al2", "alias": "best", "artifactCollectionName": "weights"}],
		"artifactType": {"id": "t", "name": "model"},
		"artifactSequence": ` + lineageJSON + `,
		"createdBy": ` + createdBy + `,
		"artifactCollections": {"edges": [{"node": ` + lineageJSON + `}]},
		"artifactMemberships": {"edges": [{"node": {"id": "m1", "versionIndex": 3}}]},
		"usedBy": {"edges": [{"node": ` + runJSON("r2", "eval-1") + `}, {"node": ` + runJSON("r3", "eval-2") + `}]}
	}`
}

func response(artifact string) string {
	return `{"project__acme_demo": {"id": "p", "artifactType__model": {"id": "t", "artifact__v3": ` + artifact + `}}}`
}

var defaultArtifact = artifactJSON(`"{\"acc\": 0.9, \"labels\": [\"a\", \"b\"]}"`, runJSON("r1", "run-1"))

func setup(t *testing.T, responses ...string) (*engine.Engine, *transport.MockTransport) {
	t.Helper()
	s, err := schema.Load()
	require.NoError(t, err)
	mt := transport.NewMockTransport(responses...)
	return engine.New(Default(), mt, engine.WithSchemaValidation(s)), mt
}

func apply(t *testing.T, e *engine.Engine, name string, inputs ...compiler.Node) *compiler.OutputNode {
	t.Helper()
	n, err := e.Registry().Apply(name, inputs...)
	require.NoError(t, err)
	return n
}

func root() *compiler.OutputNode { return ArtifactVersion("acme", "demo", "model", "v3") }

func evalOne(t *testing.T, e *engine.Engine, n compiler.Node) any {
	t.Helper()
	out, err := e.Evaluate(context.Background(), n)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestRootAliasesAndNotFound(t *testing.T) {
	e, mt := setup(t,
		`{"project__acme_demo": {"id": "p", "artifactType__model": {"id": "t", "artifact__v3": null}}}`,
		`{"project__acme_demo": null}`,
	)
	target := apply(t, e, "artifactVersion-id", root())

	plan, err := e.Compile(context.Background(), target)
	require.NoError(t, err)
	for _, a := range []string{"project__acme_demo:", "artifactType__model:", "artifact__v3:"} {
		require.Equal(t, 1, strings.Count(plan.Document, a), a)
	}

	require.Nil(t, evalOne(t, e, target))
	require.Nil(t, evalOne(t, e, root()))
	require.Len(t, mt.Calls(), 2)
}

func TestRequiredFragmentAlwaysSelected(t *testing.T) {
	e, _ := setup(t, response(defaultArtifact))
	plan, err := e.Compile(context.Background(), apply(t, e, "artifactVersion-size", root()))
	require.NoError(t, err)
	for _, f := range []string{"commitHash", "versionIndex", "artifactSequence", "defaultArtifactType", "entity"} {
		require.Contains(t, plan.Document, f)
	}

	got := evalOne(t, e, root())
	av, ok := got.(domain.ArtifactVersion)
	require.True(t, ok, "got %T", got)
	l, err := av.Lineage()
	require.NoError(t, err)
	require.Equal(t, domain.Lineage{Entity: "acme", Project: "demo", Type: "model", Sequence: "weights", VersionIndex: 3, CommitHash: "abc123"}, l)
}

func TestProperties(t *testing.T) {
	e, mt := setup(t, response(defaultArtifact))
	names := []string{
		"artifactVersion-id",
		"artifactVersion-digest",
		"artifactVersion-hash",
		"artifactVersion-size",
		"artifactVersion-description",
		"artifactVersion-createdAt",
		"artifactVersion-versionId",
		"artifactVersion-referenceCount",
		"artifactVersion-name",
	}
	r := root()
	targets := make([]compiler.Node, len(names))
	for i, n := range names {
		targets[i] = apply(t, e, n, r)
	}
	out, err := e.Evaluate(context.Background(), targets...)
	require.NoError(t, err)
	want := []any{
		"QXJ0aWZhY3Q6MQ==",
		"d1",
		"abc123",
		int64(1024),
		nil,
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		int64(3),
		int64(2),
		"weights:v3",
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, mt.Calls(), 1)
}

func TestMetadataValueAndRefinement(t *testing.T) {
	e, mt := setup(t, response(defaultArtifact), response(defaultArtifact), response(defaultArtifact))
	node := apply(t, e, "artifactVersion-metadata", root())

	got := evalOne(t, e, node)
	md, ok := got.(value.Value)
	require.True(t, ok)
	require.Equal(t, []string{"acc", "labels"}, md.Keys())
	acc, _ := md.Get("acc")
	require.Equal(t, value.Number, acc.Kind())
	require.InDelta(t, 0.9, acc.Float(), 1e-9)
	labels, _ := md.Get("labels")
	require.Equal(t, []any{"a", "b"}, labels.Interface())

	first, err := e.Refine(context.Background(), node)
	require.NoError(t, err)
	require.Equal(t, "TypedDict[acc: Float, labels: List[String]]", first.String())
	second, err := e.Refine(context.Background(), node)
	require.NoError(t, err)
	require.True(t, types.Equal(first, second))
	require.Len(t, mt.Calls(), 3)
}

func TestMetadataAbsentOrMalformed(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	var malformed []events.MalformedPayload
	defer eventbus.Subscribe(func(_ context.Context, ev events.MalformedPayload) { malformed = append(malformed, ev) })()

	e, _ := setup(t,
		response(artifactJSON(`null`, `null`)),
		response(artifactJSON(`"{not json"`, `null`)),
	)
	node := apply(t, e, "artifactVersion-metadata", root())

	got := evalOne(t, e, node)
	require.True(t, value.Equal(value.ObjectValue(), got.(value.Value)))
	require.Empty(t, malformed)

	got = evalOne(t, e, node)
	require.True(t, value.Equal(value.ObjectValue(), got.(value.Value)))
	require.Len(t, malformed, 1)
	require.Equal(t, "artifactVersion-metadata", malformed[0].Op)
	require.Equal(t, "metadata", malformed[0].Field)
}

func TestHistoryMetricsWithoutRun(t *testing.T) {
	user := `{"__typename": "User", "id": "u1", "name": "Ann", "username": "ann"}`
	e, mt := setup(t, response(artifactJSON(`null`, user)), response(artifactJSON(`null`, user)))
	node := apply(t, e, "artifactVersion-historyMetrics", root())

	got := evalOne(t, e, node)
	require.True(t, value.Equal(value.ObjectValue(), got.(value.Value)))

	typ, err := e.Refine(context.Background(), node)
	require.NoError(t, err)
	require.Equal(t, types.Dict(nil), typ)
	require.Equal(t, "TypedDict[]", typ.String())
	require.Len(t, mt.Calls(), 2)
}

func TestHistoryMetricsRunsNestedQuery(t *testing.T) {
	runAlias := alias.Make("run", "run-1")
	history := `{"project__acme_demo": {"id": "p", "name": "demo", "entity": {"id": "e", "name": "acme"}, "` + runAlias + `": ` +
		strings.TrimSuffix(runJSON("r1", "run-1"), "}") + `, "historyAsOf__5": ["{\"loss\": 0.25, \"step\": 5, \"table\": {\"_type\": \"table-file\", \"path\": \"media/t.table.json\", \"sha256\": \"x\", \"ncols\": 2}}"]}}}`
	e, mt := setup(t, response(defaultArtifact), history, response(defaultArtifact), history)
	node := apply(t, e, "artifactVersion-historyMetrics", root())

	got := evalOne(t, e, node).(value.Value)
	loss, _ := got.Get("loss")
	require.InDelta(t, 0.25, loss.Float(), 1e-9)
	table, _ := got.Get("table")
	require.Equal(t, []string{"_type", "path", "sha256"}, table.Keys())

	calls := mt.Calls()
	require.Len(t, calls, 2)
	require.Contains(t, calls[1].Query, runAlias+": run(")
	require.Contains(t, calls[1].Query, "historyAsOf__5: history(minStep: 5, maxStep: 6)")

	typ, err := e.Refine(context.Background(), node)
	require.NoError(t, err)
	require.Equal(t, "TypedDict[loss: Float, step: Int, table: File[table.json]]", typ.String())
	require.Len(t, mt.Calls(), 4)
}

func TestHistoryAsOfMissingRow(t *testing.T) {
	runAlias := alias.Make("run", "run-1")
	e, _ := setup(t, `{"project__acme_demo": {"`+runAlias+`": {"id": "r1", "historyAsOf__9": []}}}`)
	node := compiler.Apply(RunHistoryAsOf, compiler.Apply(ProjectRun, Project("acme", "demo"), compiler.Str("run-1")), compiler.Int(9))
	got := evalOne(t, e, node)
	require.True(t, value.Equal(value.ObjectValue(), got.(value.Value)))
}

func TestRootOpsAreNotExecutable(t *testing.T) {
	e, mt := setup(t)
	_, err := e.Call(context.Background(), "root-artifactVersion", "acme", "demo", "model", "v3")
	require.ErrorIs(t, err, compiler.ErrCompileMisuse)
	require.Contains(t, err.Error(), "root-artifactVersion")

	_, err = e.Call(context.Background(), "root-project", "acme", "demo")
	require.ErrorIs(t, err, compiler.ErrCompileMisuse)
	require.Empty(t, mt.Calls())
}

func TestEdgesCreatorsAndConnections(t *testing.T) {
	e, mt := setup(t, response(defaultArtifact))
	r := root()
	out, err := e.Evaluate(context.Background(),
		apply(t, e, "artifactVersion-link", r),
		apply(t, e, "run-name", apply(t, e, "artifactVersion-createdBy", r)),
		apply(t, e, "artifactVersion-createdByUser", r),
		apply(t, e, "artifactAlias-alias", apply(t, e, "artifactVersion-aliases", r)),
		apply(t, e, "artifactType-name", apply(t, e, "artifactVersion-artifactType", r)),
		apply(t, e, "artifactCollection-name", apply(t, e, "artifactVersion-artifactSequence", r)),
		apply(t, e, "artifactCollection-name", apply(t, e, "artifactVersion-artifactCollections", r)),
		apply(t, e, "artifactMembership-versionIndex", apply(t, e, "artifactVersion-memberships", r)),
		apply(t, e, "run-name", apply(t, e, "artifactVersion-usedBy", r)),
	)
	require.NoError(t, err)
	want := []any{
		domain.Link{Name: "weights:v3", URL: "/acme/demo/artifacts/model/weights/v3"},
		"run-1",
		nil,
		[]any{"latest", "best"},
		"model",
		"weights",
		[]any{"weights"},
		[]any{int64(3)},
		[]any{"eval-1", "eval-2"},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, mt.Calls(), 1)
	require.Equal(t, 1, strings.Count(mt.Calls()[0].Query, "usedBy {"))
}

func TestCreatedByUser(t *testing.T) {
	user := `{"__typename": "User", "id": "u1", "name": "Ann", "username": "ann"}`
	e, _ := setup(t, response(artifactJSON(`null`, user)))
	r := root()
	out, err := e.Evaluate(context.Background(),
		apply(t, e, "user-username", apply(t, e, "artifactVersion-createdByUser", r)),
		apply(t, e, "artifactVersion-createdBy", r),
	)
	require.NoError(t, err)
	require.Equal(t, []any{"ann", nil}, out)
}

func TestCreatorsAndHistoryShareOneDocument(t *testing.T) {
	e, _ := setup(t)
	r := root()
	plan, err := e.Compile(context.Background(),
		apply(t, e, "user-name", apply(t, e, "artifactVersion-createdByUser", r)),
		apply(t, e, "run-name", apply(t, e, "artifactVersion-createdBy", r)),
		apply(t, e, "artifactVersion-historyMetrics", r),
	)
	require.NoError(t, err)
	require.Equal(t, 1, plan.Roots)
	require.Contains(t, plan.Document, "... on User")
	require.Contains(t, plan.Document, "... on Run")
}

const manifestJSON = `{"version": 1, "contents": {
	"obj.type.json": {"digest": "d1", "size": 10},
	"media/images/a.png": {"digest": "d2", "size": 20}
}}`

func TestFileOps(t *testing.T) {
	m, err := localart.ReadManifest(strings.NewReader(manifestJSON))
	require.NoError(t, err)
	local := localart.NewMemoryResolver()
	local.Add(localart.URI{Entity: "acme", Project: "demo", Name: "weights", Version: "abc123"}, m)

	s, err := schema.Load()
	require.NoError(t, err)
	payload := response(defaultArtifact)
	mt := transport.NewMockTransport(payload, payload, payload, payload)
	e := engine.New(Default(), mt, engine.WithSchemaValidation(s), engine.WithLocal(local))

	r := root()
	out, err := e.Evaluate(context.Background(),
		apply(t, e, "artifactVersion-isWeaveObject", r),
		apply(t, e, "artifactVersion-files", r),
		apply(t, e, "artifactVersion-file", r, compiler.Str("obj.type.json")),
		apply(t, e, "artifactVersion-file", r, compiler.Str("nope")),
	)
	require.NoError(t, err)
	require.Equal(t, true, out[0])
	require.Equal(t, []any{}, out[1])
	f, ok := out[2].(*localart.File)
	require.True(t, ok)
	require.Equal(t, "type.json", f.Extension)
	require.Nil(t, out[3])

	typ, err := e.Refine(context.Background(), apply(t, e, "artifactVersion-file", r, compiler.Str("obj.type.json")))
	require.NoError(t, err)
	require.Equal(t, types.File("type.json"), typ)
	typ, err = e.Refine(context.Background(), apply(t, e, "artifactVersion-file", r, compiler.Str("media")))
	require.NoError(t, err)
	require.Equal(t, types.Dir(), typ)
	typ, err = e.Refine(context.Background(), apply(t, e, "artifactVersion-file", r, compiler.Str("missing")))
	require.NoError(t, err)
	require.Equal(t, types.None(), typ)
}

func TestFileOpsWithoutResolver(t *testing.T) {
	e, _ := setup(t, response(defaultArtifact))
	_, err := e.Evaluate(context.Background(), apply(t, e, "artifactVersion-isWeaveObject", root()))
	require.ErrorIs(t, err, ErrNoLocalResolver)
}

// Every op, reached from a root the way a caller would reach it, compiles to a
// document the service schema accepts.
func TestEveryOpCompilesToValidDocument(t *testing.T) {
	e, _ := setup(t)
	r := root()
	source := map[string]compiler.Node{
		"artifactVersion":    r,
		"project":            Project("acme", "demo"),
		"run":                compiler.Apply(ProjectRun, Project("acme", "demo"), compiler.Str("run-1")),
		"user":               apply(t, e, "artifactVersion-createdByUser", r),
		"artifactType":       apply(t, e, "artifactVersion-artifactType", r),
		"artifactCollection": apply(t, e, "artifactVersion-artifactSequence", r),
		"artifactAlias":      apply(t, e, "artifactVersion-aliases", r),
		"artifactMembership": apply(t, e, "artifactVersion-memberships", r),
	}
	var all []compiler.Node
	for _, op := range e.Registry().Ops() {
		if op.IsRoot() {
			continue
		}
		src, ok := source[op.Params[0].Type.Name]
		require.True(t, ok, "no source for %s", op.Name)
		inputs := []compiler.Node{src}
		for _, p := range op.Params[1:] {
			switch p.Type.Kind {
			case types.KindInt:
				inputs = append(inputs, compiler.Int(7))
			default:
				inputs = append(inputs, compiler.Str("x y"))
			}
		}
		n := compiler.Apply(op, inputs...)
		_, err := e.Compile(context.Background(), n)
		require.NoError(t, err, op.Name)
		all = append(all, n)
	}
	plan, err := e.Compile(context.Background(), all...)
	require.NoError(t, err)
	require.Equal(t, 2, plan.Roots)
}

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	for _, name := range []string{
		"root-artifactVersion", "root-project",
		"artifactVersion-metadata", "artifactVersion-refineMetadata",
		"artifactVersion-historyMetrics", "artifactVersion-refineHistoryMetrics",
		"artifactVersion-file", "artifactVersion-_file_refine_output_type",
		"project-run", "run-historyAsOf", "run-id",
	} {
		_, ok := reg.Lookup(name)
		require.True(t, ok, name)
	}
	op, _ := reg.Lookup("artifactVersion-file")
	require.Equal(t, "artifactVersion-_file_refine_output_type", op.Refine.Name)
}
