package ops

import (
	"fmt"
	"strconv"

	"github.com/hanpama/artgraph/internal/alias"
	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/domain"
	"github.com/hanpama/artgraph/internal/rundict"
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
)

func runAlias(in compiler.Inputs) string { return alias.Make("run", in.Str("runName")) }

func historyAlias(in compiler.Inputs) string {
	return alias.Make("historyAsOf", strconv.FormatInt(in.Int("asOfStep"), 10))
}

var (
	// ProjectRun selects a run of a project by name.
	ProjectRun = &compiler.Op{
		Name: "project-run",
		Params: []compiler.Param{
			entityParam(domain.ProjectKind),
			{Name: "runName", Type: types.String()},
		},
		Output: types.Optional(domain.RunKind.Type()),
		Plugin: &compiler.Plugin{Fragment: func(c *compiler.Context, in compiler.Inputs, inner string) string {
			return nest(runAlias(in)+": run(name: "+in.Literal("runName")+")", domain.RunKind, inner)
		}},
		Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
			rec, err := record("project-run", in)
			if err != nil {
				return nil, err
			}
			v, _ := rec.GQL().Get(runAlias(in))
			return wrap(domain.RunKind, v), nil
		},
	}

	// RunHistoryAsOf reads the history row a run logged at one step.
	RunHistoryAsOf = &compiler.Op{
		Name: "run-historyAsOf",
		Params: []compiler.Param{
			entityParam(domain.RunKind),
			{Name: "asOfStep", Type: types.Int()},
		},
		Output: types.Dict(nil),
		Plugin: &compiler.Plugin{Fragment: func(c *compiler.Context, in compiler.Inputs, inner string) string {
			step := in.Int("asOfStep")
			return fmt.Sprintf("%s: history(minStep: %d, maxStep: %d)", historyAlias(in), step, step+1)
		}},
		Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
			rec, err := record("run-historyAsOf", in)
			if err != nil {
				return nil, err
			}
			rows, _ := rec.GQL().Get(historyAlias(in))
			row, ok := rows.Index(0)
			return parseDict(c, "run-historyAsOf", "history", row.Str(), ok && row.Kind() == value.String), nil
		},
	}
)

const historyFragment = "historyStep\ncreatedBy {\n__typename\n... on Run {\nid\nname\nproject {\nid\nname\nentity {\nid\nname\n}\n}\n}\n}"

func historyOps() []*compiler.Op {
	const name = "artifactVersion-historyMetrics"
	return []*compiler.Op{
		propOp("project-name", domain.ProjectKind, "name", types.String(), nil),
		ProjectRun,
		propOp("run-id", domain.RunKind, "id", types.String(), nil),
		propOp("run-name", domain.RunKind, "name", types.String(), nil),
		RunHistoryAsOf,
		{
			Name:   name,
			Params: []compiler.Param{entityParam(versionKind)},
			Output: types.Dict(nil),
			Plugin: &compiler.Plugin{Fragment: static(historyFragment)},
			Refine: &compiler.Op{
				Name:   "artifactVersion-refineHistoryMetrics",
				Params: []compiler.Param{entityParam(versionKind)},
				Output: types.TypeType(),
				Plugin: &compiler.Plugin{Fragment: static(historyFragment)},
				Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
					row, err := historyRow(c, name, in)
					if err != nil {
						return nil, err
					}
					return rundict.TypeOf(row), nil
				},
			},
			Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
				row, err := historyRow(c, name, in)
				if err != nil {
					return nil, err
				}
				return rundict.Normalize(row), nil
			},
		},
	}
}

// historyRow fetches the metrics the creating run logged at the version's
// history step. It runs a second, independent query and blocks until it
// resolves. Versions not created by a run have no metrics.
func historyRow(c *compiler.Context, op string, in compiler.Inputs) (value.Value, error) {
	v, err := version(op, in)
	if err != nil {
		return value.Value{}, err
	}
	rc, ok := v.Creator().(domain.RunCreator)
	if !ok {
		return value.ObjectValue(), nil
	}
	step, ok := v.HistoryStep()
	if !ok {
		return value.ObjectValue(), nil
	}
	runName, ok1 := rc.Run.Str("name")
	projectName, ok2 := rc.Run.Str("project", "name")
	entityName, ok3 := rc.Run.Str("project", "entity", "name")
	if !ok1 || !ok2 || !ok3 {
		return value.Value{}, fmt.Errorf("%w: run lineage of %s", domain.ErrMissingLineage, op)
	}

	node := compiler.Apply(RunHistoryAsOf,
		compiler.Apply(ProjectRun, Project(entityName, projectName), compiler.Str(runName)),
		compiler.Int(step))
	res, err := c.EvaluateNested(node)
	if err != nil {
		return value.Value{}, err
	}
	row, ok := res.(value.Value)
	if !ok {
		return value.ObjectValue(), nil
	}
	return row, nil
}
