// Package pipeline runs the composition sequence: load the root
// document, resolve the defaults list against CLI selections, merge the
// chosen fragments, apply path overrides, and validate the result. The
// pipeline is synchronous and single threaded; it either produces one
// fully validated tree or fails with a terminal diagnostic.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/robolearn/traincfg/internal/config"
	"github.com/robolearn/traincfg/internal/override"
	"github.com/robolearn/traincfg/internal/validation"
	"github.com/robolearn/traincfg/pkg/compose"
	"github.com/robolearn/traincfg/pkg/confignode"
	"github.com/robolearn/traincfg/pkg/telemetry"
)

const tracerName = "github.com/robolearn/traincfg/internal/pipeline"

// Options carry every input the pipeline needs; nothing is read from
// globals so concurrent resolutions in a sweep cannot observe each
// other's selections.
type Options struct {
	// ConfigRoot is the directory holding the root document and the
	// category subdirectories.
	ConfigRoot string
	// Args are the free-form key=value CLI words.
	Args []string
	// RunID identifies the run in logs; generated when empty.
	RunID string
	// Logger receives structured events; defaults to a no-op sink.
	Logger telemetry.StructuredLogger
	// Schemas override the stock validation contracts, mainly for tests.
	Schemas []validation.Schema
}

// Compose runs the full pipeline and returns the validated result.
func Compose(ctx context.Context, opts Options) (*compose.Result, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	var logger telemetry.StructuredLogger = telemetry.NopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	schemas := opts.Schemas
	if schemas == nil {
		schemas = validation.DefaultSchemas()
	}

	tracer := otel.Tracer(tracerName)
	loader := config.NewLoader(opts.ConfigRoot)

	parsed, err := override.ParseArgs(opts.Args)
	if err != nil {
		return nil, err
	}

	steps, err := resolveSteps(ctx, tracer, loader, parsed)
	if err != nil {
		return nil, err
	}
	selections := compose.Selections(steps)

	loaded, err := loadSteps(ctx, tracer, loader, logger, steps)
	if err != nil {
		return nil, err
	}

	prov := compose.NewProvenance()
	merged := mergeSteps(ctx, tracer, loaded, prov)

	if err := applyOverrides(ctx, tracer, merged, parsed, prov); err != nil {
		return nil, err
	}

	if err := validate(ctx, tracer, loader, schemas, merged, selections); err != nil {
		_ = logger.Emit(telemetry.Entry{
			Category: telemetry.CategoryCompose,
			Message:  "composed configuration rejected",
			Stage:    string(telemetry.StageValidate),
			Error:    err,
		})
		return nil, err
	}

	_ = logger.Emit(telemetry.Entry{
		Category: telemetry.CategoryCompose,
		Message:  "configuration composed",
		Stage:    string(telemetry.StageValidate),
		Metadata: map[string]string{"steps": fmt.Sprint(len(steps))},
	})

	return &compose.Result{
		Config:     merged,
		Steps:      steps,
		Selections: selections,
		OutputDir:  parsed.OutputDir,
		RunID:      runID,
		Provenance: prov,
	}, nil
}

func resolveSteps(ctx context.Context, tracer trace.Tracer, loader *config.Loader, parsed *override.ParseResult) ([]compose.Step, error) {
	_, span := tracer.Start(ctx, "compose.resolve")
	defer span.End()

	root, err := loader.LoadRoot()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	declared, err := compose.ParseDefaults(root)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	steps, err := compose.ResolveSteps(declared, parsed.SelectionMap())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("compose.steps", len(steps)))
	return steps, nil
}

func loadSteps(ctx context.Context, tracer trace.Tracer, loader *config.Loader, logger telemetry.StructuredLogger, steps []compose.Step) ([]compose.LoadedStep, error) {
	_, span := tracer.Start(ctx, "compose.load")
	defer span.End()

	root, err := loader.LoadRoot()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	loaded := make([]compose.LoadedStep, 0, len(steps))
	for _, step := range steps {
		if step.Self {
			loaded = append(loaded, compose.LoadedStep{Step: step, Node: withoutKey(root, compose.DefaultsKey)})
			continue
		}
		node, err := loader.Load(step.Category, step.Name)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		_ = logger.Emit(telemetry.Entry{
			Category: telemetry.CategoryFragment,
			Message:  "fragment loaded",
			Stage:    string(telemetry.StageLoad),
			Fragment: step.String(),
		})
		loaded = append(loaded, compose.LoadedStep{Step: step, Node: underCategory(step.Category, node)})
	}
	return loaded, nil
}

func mergeSteps(ctx context.Context, tracer trace.Tracer, loaded []compose.LoadedStep, prov *compose.Provenance) *confignode.Node {
	_, span := tracer.Start(ctx, "compose.merge")
	defer span.End()
	return compose.MergeSteps(loaded, prov)
}

func applyOverrides(ctx context.Context, tracer trace.Tracer, tree *confignode.Node, parsed *override.ParseResult, prov *compose.Provenance) error {
	_, span := tracer.Start(ctx, "compose.override")
	defer span.End()

	if err := override.Apply(tree, parsed.Assignments, prov); err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("compose.overrides", len(parsed.Assignments)))
	return nil
}

func validate(ctx context.Context, tracer trace.Tracer, loader *config.Loader, schemas []validation.Schema, tree *confignode.Node, selections map[string]string) error {
	_, span := tracer.Start(ctx, "compose.validate")
	defer span.End()

	gate := validation.NewGate(schemas, loader)
	if err := gate.Validate(tree, selections); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// underCategory nests a fragment document beneath its category key so
// that env/pusht.yaml contributes env.task, not a bare task, and two
// fragments sharing a key name cannot shadow each other.
func underCategory(category string, doc *confignode.Node) *confignode.Node {
	out := confignode.Mapping()
	out.Set(category, doc.Clone())
	return out
}

// withoutKey copies a mapping, dropping one top-level key. The root
// document's defaults list is bookkeeping for the resolver and must not
// leak into the composed tree.
func withoutKey(node *confignode.Node, key string) *confignode.Node {
	out := confignode.Mapping()
	for _, k := range node.Keys() {
		if k == key {
			continue
		}
		child, _ := node.Child(k)
		out.Set(k, child.Clone())
	}
	return out
}
