// Package override parses free-form key=value CLI arguments and applies
// dotted-path assignments to a composed configuration tree. Bare
// category=name selections never reach the tree-mutation path; they are
// routed back to the defaults resolver by the caller.
package override

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robolearn/traincfg/pkg/compose"
	"github.com/robolearn/traincfg/pkg/confignode"
)

// OutputDirKey is the reserved dotless assignment designating the run's
// output directory. It is surfaced on the compose result, never written
// into the tree.
const OutputDirKey = "output_dir"

// ErrMalformedOverride is returned for an unparsable CLI assignment.
var ErrMalformedOverride = errors.New("malformed override assignment")

// TypeConflictError reports an assignment whose path traverses through a
// value that is not a mapping.
type TypeConflictError struct {
	Path    string
	Blocked string
	Kind    confignode.Kind
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("override %s: cannot traverse into %s at %q", e.Path, e.Kind, e.Blocked)
}

// Selection is a bare category=name fragment selection override.
type Selection struct {
	Category string
	Name     string
}

// Assignment is a dotted-path tree mutation. Value holds the coerced
// literal; Raw keeps the original text for diagnostics.
type Assignment struct {
	Segments []string
	Raw      string
	Value    any
}

// Path renders the dotted assignment path.
func (a Assignment) Path() string { return strings.Join(a.Segments, ".") }

// ParseResult splits CLI words into the three override classes.
type ParseResult struct {
	Selections  []Selection
	Assignments []Assignment
	OutputDir   string
}

// SelectionMap reports the effective category → name choices; later
// selections for the same category win, matching CLI left-to-right
// precedence.
func (p *ParseResult) SelectionMap() map[string]string {
	out := map[string]string{}
	for _, sel := range p.Selections {
		out[sel.Category] = sel.Name
	}
	return out
}

// ParseArgs classifies each CLI word. Every word must be key=value; a
// dotless key is a fragment selection (or the reserved output directory
// key), a dotted key is a tree mutation. Empty path segments from
// leading, trailing, or doubled dots are rejected.
func ParseArgs(args []string) (*ParseResult, error) {
	result := &ParseResult{}
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("%w: %q is missing '='", ErrMalformedOverride, arg)
		}
		if key == "" {
			return nil, fmt.Errorf("%w: %q has an empty key", ErrMalformedOverride, arg)
		}

		if !strings.Contains(key, ".") {
			if key == OutputDirKey {
				if value == "" {
					return nil, fmt.Errorf("%w: %q requires a path", ErrMalformedOverride, arg)
				}
				result.OutputDir = value
				continue
			}
			if value == "" {
				return nil, fmt.Errorf("%w: selection %q requires a fragment name", ErrMalformedOverride, arg)
			}
			result.Selections = append(result.Selections, Selection{Category: key, Name: value})
			continue
		}

		segments := strings.Split(key, ".")
		for _, segment := range segments {
			if segment == "" {
				return nil, fmt.Errorf("%w: %q has an empty path segment", ErrMalformedOverride, arg)
			}
		}
		result.Assignments = append(result.Assignments, Assignment{
			Segments: segments,
			Raw:      value,
			Value:    coerceLiteral(value),
		})
	}
	return result, nil
}

// Apply mutates tree with each assignment in supplied order, creating
// intermediate mappings as needed. Later assignments to the same path win.
// When prov is non-nil the touched leaves are recorded under the override
// label.
func Apply(tree *confignode.Node, assignments []Assignment, prov *compose.Provenance) error {
	for _, assignment := range assignments {
		current := tree
		for _, segment := range assignment.Segments[:len(assignment.Segments)-1] {
			child, ok := current.Child(segment)
			if !ok {
				child = confignode.Mapping()
				current.Set(segment, child)
			}
			if child.Kind() != confignode.KindMapping {
				return &TypeConflictError{
					Path:    assignment.Path(),
					Blocked: segment,
					Kind:    child.Kind(),
				}
			}
			current = child
		}

		last := assignment.Segments[len(assignment.Segments)-1]
		current.Set(last, confignode.Scalar(assignment.Value))
		prov.Record(assignment.Path(), compose.OverrideLabel)
	}
	return nil
}

// coerceLiteral applies best-effort typed inference: boolean and null
// literals, integers, floats, then strings. Single or double quotes force
// the string reading and are stripped.
func coerceLiteral(raw string) any {
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			return raw[1 : len(raw)-1]
		}
	}
	switch raw {
	case "true", "True":
		return true
	case "false", "False":
		return false
	case "null", "~":
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
