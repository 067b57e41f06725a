package compose

import (
	"strings"

	"github.com/robolearn/traincfg/pkg/confignode"
)

// Merge deep-merges overlay onto base and returns a fresh tree; neither
// input is mutated. Two mappings merge key-by-key, recursing where both
// sides are mappings. In every other pairing the overlay value wins
// outright: sequences and scalars always fully replace, since element
// concatenation cannot disambiguate intent.
func Merge(base, overlay *confignode.Node) *confignode.Node {
	return mergeLabeled(base, overlay, nil, "", nil)
}

// LoadedStep pairs a resolved step with its parsed document.
type LoadedStep struct {
	Step Step
	Node *confignode.Node
}

// MergeSteps folds the ordered steps left to right, so the rightmost step
// holds highest precedence for any leaf key. When prov is non-nil the
// winning step for every leaf is recorded along the way.
func MergeSteps(steps []LoadedStep, prov *Provenance) *confignode.Node {
	result := confignode.Mapping()
	for _, step := range steps {
		result = mergeLabeled(result, step.Node, nil, step.Step.String(), prov)
	}
	return result
}

func mergeLabeled(base, overlay *confignode.Node, prefix []string, label string, prov *Provenance) *confignode.Node {
	if base != nil && overlay != nil &&
		base.Kind() == confignode.KindMapping && overlay.Kind() == confignode.KindMapping {
		merged := confignode.Mapping()
		for _, key := range base.Keys() {
			child, _ := base.Child(key)
			merged.Set(key, child.Clone())
		}
		for _, key := range overlay.Keys() {
			overlayChild, _ := overlay.Child(key)
			baseChild, _ := merged.Child(key)
			merged.Set(key, mergeLabeled(baseChild, overlayChild, append(prefix, key), label, prov))
		}
		return merged
	}

	if overlay == nil {
		return base.Clone()
	}
	if prov != nil && label != "" {
		recordSubtree(overlay, prefix, label, prov)
	}
	return overlay.Clone()
}

func recordSubtree(n *confignode.Node, prefix []string, label string, prov *Provenance) {
	base := strings.Join(prefix, ".")
	n.Leaves(func(path string, _ *confignode.Node) {
		full := path
		if base != "" {
			if full == "" {
				full = base
			} else {
				full = base + "." + full
			}
		}
		prov.Record(full, label)
	})
}
