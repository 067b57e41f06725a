// Package validation checks a composed configuration tree against
// declarative per-category schemas before any downstream consumer sees
// it. The gate turns the late "incompatible policy/environment" failure
// deep inside model construction into an early, precise diagnostic.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/robolearn/traincfg/pkg/confignode"
)

// ValidationError reports a composed configuration that fails a
// required-key or cross-category compatibility check.
type ValidationError struct {
	Category string
	Fragment string
	Rule     string
	Key      string
	Reason   string
}

func (e *ValidationError) Error() string {
	target := e.Category
	if e.Fragment != "" {
		target = e.Category + "/" + e.Fragment
	}
	if e.Rule != "" {
		return fmt.Sprintf("validation failed for %s: rule %s: %s", target, e.Rule, e.Reason)
	}
	return fmt.Sprintf("validation failed for %s: %s", target, e.Reason)
}

// CompatRule is a named compatibility predicate between categories,
// declared as data. Requires lists absolute dotted paths that must
// resolve once the owning category is selected; Match lists path pairs
// that must agree whenever both sides resolve.
type CompatRule struct {
	Name     string
	Requires []string
	Match    [][2]string
}

// Schema declares the validation contract for one category.
type Schema struct {
	Category string
	Required []string
	Compat   []CompatRule
}

// SchemaSource locates an optional JSON schema document per category.
type SchemaSource interface {
	SchemaPath(category string) (string, bool)
}

// Gate validates composed trees. Construct with NewGate; the zero value
// performs no checks.
type Gate struct {
	schemas []Schema
	source  SchemaSource
}

// NewGate builds a gate over the declared schemas. source may be nil when
// no per-category JSON schema documents are in play.
func NewGate(schemas []Schema, source SchemaSource) *Gate {
	return &Gate{schemas: schemas, source: source}
}

// Validate checks the composed tree against every schema whose category
// was selected. It returns the composed tree's first failure; a nil error
// means the configuration may be handed to downstream consumers.
func (g *Gate) Validate(composed *confignode.Node, selections map[string]string) error {
	for _, schema := range g.schemas {
		fragment, selected := selections[schema.Category]
		if !selected {
			continue
		}

		for _, path := range schema.Required {
			if _, ok := composed.Lookup(path); !ok {
				return &ValidationError{
					Category: schema.Category,
					Fragment: fragment,
					Key:      path,
					Reason:   fmt.Sprintf("required key %q is missing after composition", path),
				}
			}
		}

		for _, rule := range schema.Compat {
			if err := g.checkCompat(composed, schema.Category, fragment, rule); err != nil {
				return err
			}
		}

		if err := g.checkDocumentSchema(composed, schema.Category, fragment); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) checkCompat(composed *confignode.Node, category, fragment string, rule CompatRule) error {
	for _, path := range rule.Requires {
		if _, ok := composed.Lookup(path); !ok {
			return &ValidationError{
				Category: category,
				Fragment: fragment,
				Rule:     rule.Name,
				Key:      path,
				Reason:   fmt.Sprintf("requires %q, which no selected fragment supplies", path),
			}
		}
	}
	for _, pair := range rule.Match {
		left, lok := composed.Lookup(pair[0])
		right, rok := composed.Lookup(pair[1])
		if !lok || !rok {
			// A match pair only binds when both sides are present.
			continue
		}
		if !left.Equal(right) {
			return &ValidationError{
				Category: category,
				Fragment: fragment,
				Rule:     rule.Name,
				Key:      pair[0],
				Reason:   fmt.Sprintf("%q (%v) does not match %q (%v)", pair[0], left.Interface(), pair[1], right.Interface()),
			}
		}
	}
	return nil
}

// checkDocumentSchema validates the composed category subtree against the
// category's schema.json when the configuration root carries one.
func (g *Gate) checkDocumentSchema(composed *confignode.Node, category, fragment string) error {
	if g.source == nil {
		return nil
	}
	path, ok := g.source.SchemaPath(category)
	if !ok {
		return nil
	}

	schema, err := compileSchema(path)
	if err != nil {
		return fmt.Errorf("compile schema for category %s: %w", category, err)
	}

	subtree, ok := composed.Lookup(category)
	if !ok {
		return &ValidationError{
			Category: category,
			Fragment: fragment,
			Key:      category,
			Reason:   fmt.Sprintf("category subtree %q is missing after composition", category),
		}
	}
	instance, err := jsonInstance(subtree)
	if err != nil {
		return fmt.Errorf("encode category %s for schema validation: %w", category, err)
	}
	if err := schema.Validate(instance); err != nil {
		return &ValidationError{
			Category: category,
			Fragment: fragment,
			Rule:     "schema.json",
			Key:      category,
			Reason:   err.Error(),
		}
	}
	return nil
}

// jsonInstance round-trips the subtree through JSON so the validator sees
// canonical JSON value types rather than Go integers.
func jsonInstance(subtree *confignode.Node) (any, error) {
	raw, err := json.Marshal(subtree.Interface())
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

func compileSchema(path string) (*jsonschema.Schema, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema %q: %w", path, err)
	}
	defer fh.Close()

	doc, err := jsonschema.UnmarshalJSON(fh)
	if err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", path, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(path, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %q: %w", path, err)
	}
	return compiler.Compile(path)
}
