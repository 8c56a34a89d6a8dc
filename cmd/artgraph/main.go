package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/config"
	"github.com/hanpama/artgraph/internal/engine"
	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/httptp"
	"github.com/hanpama/artgraph/internal/localart"
	"github.com/hanpama/artgraph/internal/logging"
	"github.com/hanpama/artgraph/internal/ops"
	"github.com/hanpama/artgraph/internal/otel"
	"github.com/hanpama/artgraph/internal/schema"
	"gopkg.in/yaml.v3"
)

const rootUsage = `artgraph: lazy artifact queries compiled into one GraphQL request

USAGE:
  artgraph <command> [flags]

COMMANDS:
  get        Evaluate an op chain against the service
  compile    Print the GraphQL document an op chain compiles to
  refine     Print the refined output type of an op chain
  ops        List registered ops
  help       Show help for any command
`

const chainUsage = `FLAGS:
  -entity <name>          Entity (required)
  -project <name>         Project (required)
  -type <name>            Artifact type. With -version, roots the chain at an
                          artifact version; without both, at the project
  -version <name>         Artifact version, e.g. model:v3 or model:latest
  -op <name>[:<arg>]      Op applied to the previous node. Repeatable, in order.
                          A numeric arg is passed as Int, anything else as String
  -path <path>            Shorthand for a final -op artifactVersion-file:<path>
  -format json|yaml       Output format for get (default: json)
  -config <file>          YAML config file
  -endpoint <url>         GraphQL endpoint, overrides graphql.endpoint
  -log.level <level>      Log level, overrides log.level
  -otel.endpoint <addr>   OTLP collector endpoint, overrides otel.endpoint
  -artifacts.root <dir>   Local manifest directory, overrides artifacts.root
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "get":
		return cmdGet(cmdArgs, stdout)
	case "compile":
		return cmdCompile(cmdArgs, stdout)
	case "refine":
		return cmdRefine(cmdArgs, stdout)
	case "ops":
		return cmdOps(stdout)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "get", "compile", "refine":
		fmt.Fprintf(stdout, "%s %s", args[0], chainUsage)
	case "ops":
		fmt.Fprint(stdout, "ops takes no flags\n")
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return strings.Join(*s, ",") }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type chainFlags struct {
	entity, project, artifactType, version string
	ops                                    stringListFlag
	path                                   string
	format                                 string

	configPath    string
	endpoint      string
	logLevel      string
	otelEndpoint  string
	artifactsRoot string
}

func parseChain(name string, args []string) (*chainFlags, error) {
	f := &chainFlags{format: "json"}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&f.entity, "entity", "", "Entity")
	fs.StringVar(&f.project, "project", "", "Project")
	fs.StringVar(&f.artifactType, "type", "", "Artifact type")
	fs.StringVar(&f.version, "version", "", "Artifact version")
	fs.Var(&f.ops, "op", "Op applied to the previous node")
	fs.StringVar(&f.path, "path", "", "Artifact file path")
	fs.StringVar(&f.format, "format", f.format, "Output format")
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.endpoint, "endpoint", "", "GraphQL endpoint")
	fs.StringVar(&f.logLevel, "log.level", "", "Log level")
	fs.StringVar(&f.otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&f.artifactsRoot, "artifacts.root", "", "Local manifest directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s", name, chainUsage)
		return nil, err
	}
	if f.entity == "" || f.project == "" {
		fmt.Fprintf(os.Stderr, "%s %s", name, chainUsage)
		return nil, fmt.Errorf("-entity and -project are required")
	}
	if (f.artifactType == "") != (f.version == "") {
		return nil, fmt.Errorf("-type and -version must be given together")
	}
	if f.path != "" {
		f.ops = append(f.ops, "artifactVersion-file:"+f.path)
	}
	switch f.format {
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown format %q", f.format)
	}
	return f, nil
}

// chain builds the root node and applies each -op in turn.
func (f *chainFlags) chain(reg *compiler.Registry) (compiler.Node, error) {
	var n compiler.Node
	if f.artifactType != "" {
		n = ops.ArtifactVersion(f.entity, f.project, f.artifactType, f.version)
	} else {
		n = ops.Project(f.entity, f.project)
	}
	for _, opFlag := range f.ops {
		name, arg, hasArg := strings.Cut(opFlag, ":")
		inputs := []compiler.Node{n}
		if hasArg {
			if i, err := strconv.ParseInt(arg, 10, 64); err == nil {
				inputs = append(inputs, compiler.Int(i))
			} else {
				inputs = append(inputs, compiler.Str(arg))
			}
		}
		next, err := reg.Apply(name, inputs...)
		if err != nil {
			return nil, err
		}
		n = next
	}
	return n, nil
}

func (f *chainFlags) config() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.endpoint != "" {
		cfg.GraphQL.Endpoint = f.endpoint
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.otelEndpoint != "" {
		cfg.Otel.Endpoint = f.otelEndpoint
	}
	if f.artifactsRoot != "" {
		cfg.Artifacts.Root = f.artifactsRoot
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup wires an engine from cfg. The returned func flushes telemetry and
// closes the transport.
func setup(cfg *config.Config) (*engine.Engine, func(), error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	eventbus.Use(eventbus.New())
	detach := logging.Attach(logger)
	shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		detach()
		return nil, nil, fmt.Errorf("otel setup: %w", err)
	}

	tpOpts := []httptp.Option{httptp.WithEndpoint(cfg.GraphQL.Endpoint)}
	if cfg.GraphQL.Timeout > 0 {
		tpOpts = append(tpOpts, httptp.WithTimeout(cfg.GraphQL.Timeout))
	}
	for k, v := range cfg.GraphQL.Headers {
		tpOpts = append(tpOpts, httptp.WithHeader(k, v))
	}
	tp := httptp.New(tpOpts...)

	var engOpts []engine.Option
	if cfg.GraphQL.Validate {
		s, err := schema.Load()
		if err != nil {
			detach()
			return nil, nil, fmt.Errorf("load schema: %w", err)
		}
		engOpts = append(engOpts, engine.WithSchemaValidation(s))
	}
	if cfg.Artifacts.Root != "" {
		engOpts = append(engOpts, engine.WithLocal(localart.DirResolver{Root: cfg.Artifacts.Root}))
	}

	cleanup := func() {
		_ = tp.Close()
		_ = shutdown(context.Background())
		detach()
		_ = logger.Sync()
	}
	return engine.New(ops.Default(), tp, engOpts...), cleanup, nil
}

func prepare(name string, args []string) (*engine.Engine, compiler.Node, *chainFlags, func(), error) {
	f, err := parseChain(name, args)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cfg, err := f.config()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	eng, cleanup, err := setup(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	n, err := f.chain(eng.Registry())
	if err != nil {
		cleanup()
		return nil, nil, nil, nil, err
	}
	return eng, n, f, cleanup, nil
}

func cmdGet(args []string, stdout io.Writer) error {
	eng, n, f, cleanup, err := prepare("get", args)
	if err != nil {
		return err
	}
	defer cleanup()
	out, err := eng.Evaluate(context.Background(), n)
	if err != nil {
		return err
	}
	return write(stdout, f.format, out[0])
}

func cmdCompile(args []string, stdout io.Writer) error {
	eng, n, _, cleanup, err := prepare("compile", args)
	if err != nil {
		return err
	}
	defer cleanup()
	plan, err := eng.Compile(context.Background(), n)
	if err != nil {
		return err
	}
	if plan.Empty() {
		fmt.Fprintln(stdout, "# no request needed")
		return nil
	}
	fmt.Fprintln(stdout, plan.Document)
	return nil
}

func cmdRefine(args []string, stdout io.Writer) error {
	eng, n, _, cleanup, err := prepare("refine", args)
	if err != nil {
		return err
	}
	defer cleanup()
	t, err := eng.Refine(context.Background(), n)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, t.String())
	return nil
}

func cmdOps(stdout io.Writer) error {
	for _, op := range ops.Default().Ops() {
		params := make([]string, len(op.Params))
		for i, p := range op.Params {
			params[i] = p.Name + ": " + p.Type.String()
		}
		fmt.Fprintf(stdout, "%s(%s) -> %s\n", op.Name, strings.Join(params, ", "), op.Output.String())
	}
	return nil
}

// write renders v through its JSON form so records, values and types all
// print the same way in either format.
func write(w io.Writer, format string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if format == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, b, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err = w.Write(buf.Bytes())
		return err
	}
	var plain any
	if err := json.Unmarshal(b, &plain); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(plain); err != nil {
		return err
	}
	return enc.Close()
}
