package confignode

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the three node shapes.
type Kind int

const (
	// KindScalar holds a single string, integer, float, boolean, or null value.
	KindScalar Kind = iota
	// KindSequence holds an ordered list of child nodes.
	KindSequence
	// KindMapping holds an insertion-ordered set of unique string keys.
	KindMapping
)

// String renders the kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a tagged configuration value: exactly one shape is populated,
// selected by Kind. Scalars carry string, int64, float64, bool, or nil.
// Mapping key order is insertion order; it is preserved for diagnostics
// and summaries but carries no merge semantics.
type Node struct {
	kind     Kind
	scalar   any
	items    []*Node
	keys     []string
	children map[string]*Node
}

// Scalar constructs a scalar node. Integer widths are normalised to int64
// and float32 to float64 so scalar comparison stays uniform.
func Scalar(value any) *Node {
	switch v := value.(type) {
	case int:
		value = int64(v)
	case int32:
		value = int64(v)
	case float32:
		value = float64(v)
	}
	return &Node{kind: KindScalar, scalar: value}
}

// Sequence constructs a sequence node from the provided items.
func Sequence(items ...*Node) *Node {
	return &Node{kind: KindSequence, items: items}
}

// Mapping constructs an empty mapping node.
func Mapping() *Node {
	return &Node{kind: KindMapping, children: map[string]*Node{}}
}

// Kind reports the node shape.
func (n *Node) Kind() Kind { return n.kind }

// Value returns the scalar payload. It is nil for non-scalar nodes and
// for an explicit null scalar; use Kind to tell the two apart.
func (n *Node) Value() any {
	if n.kind != KindScalar {
		return nil
	}
	return n.scalar
}

// Len reports the number of items or keys, zero for scalars.
func (n *Node) Len() int {
	switch n.kind {
	case KindSequence:
		return len(n.items)
	case KindMapping:
		return len(n.keys)
	default:
		return 0
	}
}

// Item returns the i-th sequence element.
func (n *Node) Item(i int) *Node { return n.items[i] }

// Items returns a copy of the sequence's element slice.
func (n *Node) Items() []*Node {
	return append([]*Node(nil), n.items...)
}

// Keys returns the mapping keys in insertion order.
func (n *Node) Keys() []string {
	return append([]string(nil), n.keys...)
}

// Child returns the value stored under key.
func (n *Node) Child(key string) (*Node, bool) {
	if n.kind != KindMapping {
		return nil, false
	}
	child, ok := n.children[key]
	return child, ok
}

// Set stores value under key, appending the key to the insertion order if
// it is new. It panics when called on a non-mapping; callers traverse only
// nodes they have already checked.
func (n *Node) Set(key string, value *Node) {
	if n.kind != KindMapping {
		panic(fmt.Sprintf("confignode: Set on %s node", n.kind))
	}
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = value
}

// Append adds an element to a sequence node.
func (n *Node) Append(value *Node) {
	if n.kind != KindSequence {
		panic(fmt.Sprintf("confignode: Append on %s node", n.kind))
	}
	n.items = append(n.items, value)
}

// Clone produces a deep copy so future mutations do not affect the original.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindScalar:
		return &Node{kind: KindScalar, scalar: n.scalar}
	case KindSequence:
		items := make([]*Node, len(n.items))
		for i, item := range n.items {
			items[i] = item.Clone()
		}
		return &Node{kind: KindSequence, items: items}
	default:
		out := Mapping()
		for _, key := range n.keys {
			out.Set(key, n.children[key].Clone())
		}
		return out
	}
}

// Equal reports structural equality. Mapping comparison ignores key order;
// sequences compare element-wise in order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.kind != other.kind {
		return false
	}
	switch n.kind {
	case KindScalar:
		return scalarEqual(n.scalar, other.scalar)
	case KindSequence:
		if len(n.items) != len(other.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	default:
		if len(n.keys) != len(other.keys) {
			return false
		}
		for key, child := range n.children {
			otherChild, ok := other.children[key]
			if !ok || !child.Equal(otherChild) {
				return false
			}
		}
		return true
	}
}

func scalarEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Lookup resolves a dotted path against the tree. The empty path returns
// the node itself. A miss returns false; traversing into a non-mapping is
// also a miss, not an error, matching read-side semantics.
func (n *Node) Lookup(path string) (*Node, bool) {
	if path == "" {
		return n, true
	}
	current := n
	for _, segment := range strings.Split(path, ".") {
		if current == nil || current.kind != KindMapping {
			return nil, false
		}
		child, ok := current.children[segment]
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

// Interface converts the tree to plain Go values (map[string]any,
// []any, scalars) for JSON encoding and schema validation. Mapping key
// order is lost; callers needing order walk the node directly.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindScalar:
		return n.scalar
	case KindSequence:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.Interface()
		}
		return out
	default:
		out := make(map[string]any, len(n.keys))
		for _, key := range n.keys {
			out[key] = n.children[key].Interface()
		}
		return out
	}
}

// Leaves visits every scalar and sequence leaf in depth-first key order,
// calling fn with the dotted path to the leaf.
func (n *Node) Leaves(fn func(path string, leaf *Node)) {
	n.walkLeaves(nil, fn)
}

func (n *Node) walkLeaves(prefix []string, fn func(string, *Node)) {
	if n.kind != KindMapping {
		fn(strings.Join(prefix, "."), n)
		return
	}
	for _, key := range n.keys {
		n.children[key].walkLeaves(append(prefix, key), fn)
	}
}

// SortedLeafPaths returns every leaf path in lexical order, a convenience
// for deterministic summaries and tests.
func (n *Node) SortedLeafPaths() []string {
	var paths []string
	n.Leaves(func(path string, _ *Node) {
		paths = append(paths, path)
	})
	sort.Strings(paths)
	return paths
}
