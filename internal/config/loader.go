package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robolearn/traincfg/pkg/confignode"
)

// RootDocumentName is the file holding inline defaults and the defaults list.
const RootDocumentName = "config.yaml"

// CategorySchemaName is the optional per-category JSON schema file.
const CategorySchemaName = "schema.json"

// ErrFragmentNotFound is returned when a selection names a fragment with no
// backing document under the configuration root.
var ErrFragmentNotFound = errors.New("configuration fragment not found")

// ParseError reports a malformed configuration document.
type ParseError struct {
	Document string
	Line     int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", e.Document, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Loader reads fragment documents from a configuration root directory and
// parses them into node trees. Results are memoised per (category, name)
// so identical fragments are never re-parsed inconsistently within a run.
// A Loader is scoped to a single resolution; it is not safe for concurrent
// use and sweeps should construct one Loader per resolution.
type Loader struct {
	root      string
	fragments map[string]*confignode.Node
	rootDoc   *confignode.Node
}

// NewLoader constructs a Loader over the provided configuration root.
func NewLoader(root string) *Loader {
	return &Loader{
		root:      root,
		fragments: map[string]*confignode.Node{},
	}
}

// Root returns the configuration root directory.
func (l *Loader) Root() string { return l.root }

// LoadRoot parses the root default document. The result is cached.
func (l *Loader) LoadRoot() (*confignode.Node, error) {
	if l.rootDoc != nil {
		return l.rootDoc, nil
	}
	path := filepath.Join(l.root, RootDocumentName)
	node, err := l.parseDocument(path)
	if err != nil {
		return nil, err
	}
	l.rootDoc = node
	return node, nil
}

// Load reads the fragment document for (category, name), returning the
// cached tree on repeat calls. It fails with ErrFragmentNotFound when no
// document exists and with *ParseError when the document is malformed.
func (l *Loader) Load(category, name string) (*confignode.Node, error) {
	key := category + "/" + name
	if cached, ok := l.fragments[key]; ok {
		return cached, nil
	}

	path := filepath.Join(l.root, category, name+".yaml")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s/%s (looked for %s)", ErrFragmentNotFound, category, name, path)
	}

	node, err := l.parseDocument(path)
	if err != nil {
		return nil, err
	}
	l.fragments[key] = node
	return node, nil
}

// SchemaPath reports the per-category JSON schema file, if the category
// directory carries one.
func (l *Loader) SchemaPath(category string) (string, bool) {
	path := filepath.Join(l.root, category, CategorySchemaName)
	stat, err := os.Stat(path)
	if err != nil || stat.IsDir() {
		return "", false
	}
	return path, true
}

// Categories lists the fragment categories available under the root, in
// lexical order.
func (l *Loader) Categories() ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read configuration root %q: %w", l.root, err)
	}
	var categories []string
	for _, entry := range entries {
		if entry.IsDir() {
			categories = append(categories, entry.Name())
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// Fragments lists the fragment names available for a category, in lexical
// order.
func (l *Loader) Fragments(category string) ([]string, error) {
	dir := filepath.Join(l.root, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: category %s (looked in %s)", ErrFragmentNotFound, category, dir)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

func (l *Loader) parseDocument(path string) (*confignode.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Document: path, Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		// Empty documents are permitted; they contribute nothing to the merge.
		return confignode.Mapping(), nil
	}

	root := doc.Content[0]
	node, err := fromYAML(root, path)
	if err != nil {
		return nil, err
	}
	if node.Kind() != confignode.KindMapping {
		return nil, &ParseError{
			Document: path,
			Line:     root.Line,
			Err:      fmt.Errorf("document root must be a mapping, got %s", node.Kind()),
		}
	}
	return node, nil
}

func fromYAML(n *yaml.Node, document string) (*confignode.Node, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAML(n.Alias, document)
	case yaml.ScalarNode:
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, &ParseError{Document: document, Line: n.Line, Err: err}
		}
		return confignode.Scalar(value), nil
	case yaml.SequenceNode:
		seq := confignode.Sequence()
		for _, item := range n.Content {
			child, err := fromYAML(item, document)
			if err != nil {
				return nil, err
			}
			seq.Append(child)
		}
		return seq, nil
	case yaml.MappingNode:
		mapping := confignode.Mapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, &ParseError{
					Document: document,
					Line:     keyNode.Line,
					Err:      errors.New("mapping keys must be scalar strings"),
				}
			}
			key := keyNode.Value
			if _, exists := mapping.Child(key); exists {
				return nil, &ParseError{
					Document: document,
					Line:     keyNode.Line,
					Err:      fmt.Errorf("duplicate mapping key %q", key),
				}
			}
			child, err := fromYAML(valueNode, document)
			if err != nil {
				return nil, err
			}
			mapping.Set(key, child)
		}
		return mapping, nil
	default:
		return nil, &ParseError{
			Document: document,
			Line:     n.Line,
			Err:      fmt.Errorf("unsupported YAML node kind %d", n.Kind),
		}
	}
}
