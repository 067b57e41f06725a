package compose

import (
	"errors"
	"fmt"

	"github.com/robolearn/traincfg/pkg/confignode"
)

// DefaultsKey is the reserved root-document key holding the defaults list.
const DefaultsKey = "defaults"

// SelfMarker is the defaults-list sentinel that merges the root document's
// own inline values at that position.
const SelfMarker = "self"

var (
	// ErrUnknownCategory is returned when a selection override names a
	// category absent from the root document's defaults list.
	ErrUnknownCategory = errors.New("selection override names a category not declared in defaults")
	// ErrMalformedDefaults is returned when the defaults list is not a
	// sequence of the self marker and single-pair category: name mappings.
	ErrMalformedDefaults = errors.New("malformed defaults list")
)

// Step is one entry of the resolved merge order: either the root
// document's inline values (Self) or a named fragment.
type Step struct {
	Self     bool
	Category string
	Name     string
}

// String renders the step for diagnostics and provenance labels.
func (s Step) String() string {
	if s.Self {
		return SelfMarker
	}
	return s.Category + "/" + s.Name
}

// ParseDefaults extracts the ordered defaults list from the root document.
// A root without a defaults key composes from its inline values alone.
func ParseDefaults(root *confignode.Node) ([]Step, error) {
	entry, ok := root.Lookup(DefaultsKey)
	if !ok {
		return []Step{{Self: true}}, nil
	}
	if entry.Kind() != confignode.KindSequence {
		return nil, fmt.Errorf("%w: %q must be a sequence, got %s", ErrMalformedDefaults, DefaultsKey, entry.Kind())
	}

	steps := make([]Step, 0, entry.Len())
	for i := 0; i < entry.Len(); i++ {
		item := entry.Item(i)
		switch item.Kind() {
		case confignode.KindScalar:
			if item.Value() != SelfMarker {
				return nil, fmt.Errorf("%w: entry %d: scalar entries must be %q, got %v", ErrMalformedDefaults, i, SelfMarker, item.Value())
			}
			steps = append(steps, Step{Self: true})
		case confignode.KindMapping:
			keys := item.Keys()
			if len(keys) != 1 {
				return nil, fmt.Errorf("%w: entry %d: expected a single category: name pair, got %d keys", ErrMalformedDefaults, i, len(keys))
			}
			category := keys[0]
			value, _ := item.Child(category)
			name, ok := value.Value().(string)
			if value.Kind() != confignode.KindScalar || !ok {
				return nil, fmt.Errorf("%w: entry %d: fragment name for category %q must be a string", ErrMalformedDefaults, i, category)
			}
			steps = append(steps, Step{Category: category, Name: name})
		default:
			return nil, fmt.Errorf("%w: entry %d: unexpected %s entry", ErrMalformedDefaults, i, item.Kind())
		}
	}
	return steps, nil
}

// ResolveSteps applies CLI selection overrides to the declared defaults.
// A selection replaces the fragment name for its category in place; the
// entry keeps its original position because position governs merge
// precedence, not selection. A selection for an undeclared category is a
// hard error rather than a silent no-op.
func ResolveSteps(declared []Step, selections map[string]string) ([]Step, error) {
	resolved := make([]Step, len(declared))
	copy(resolved, declared)

	for category, name := range selections {
		found := false
		for i, step := range resolved {
			if !step.Self && step.Category == category {
				resolved[i].Name = name
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
		}
	}
	return resolved, nil
}

// Selections reports the effective category → fragment name choices of a
// resolved step list.
func Selections(steps []Step) map[string]string {
	out := map[string]string{}
	for _, step := range steps {
		if !step.Self {
			out[step.Category] = step.Name
		}
	}
	return out
}
