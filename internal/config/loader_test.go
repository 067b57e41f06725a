package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	internalconfig "github.com/robolearn/traincfg/internal/config"
	"github.com/robolearn/traincfg/pkg/confignode"
)

func TestLoadFragmentParsesYAMLDocument(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, filepath.Join(root, "env", "pusht.yaml"), `
name: pusht
task: PushT-v0
state_dim: 2
action_dim: 2
fps: 10
image_keys:
  - observation.image
`)

	loader := internalconfig.NewLoader(root)
	node, err := loader.Load("env", "pusht")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	task, ok := node.Lookup("task")
	if !ok || task.Value() != "PushT-v0" {
		t.Fatalf("expected task PushT-v0, got %v", task)
	}
	actionDim, ok := node.Lookup("action_dim")
	if !ok || actionDim.Value() != int64(2) {
		t.Fatalf("expected action_dim 2, got %v", actionDim.Value())
	}
	images, ok := node.Lookup("image_keys")
	if !ok || images.Kind() != confignode.KindSequence || images.Len() != 1 {
		t.Fatalf("expected one-element sequence for image_keys")
	}
	if got := node.Keys(); got[0] != "name" || got[len(got)-1] != "image_keys" {
		t.Fatalf("expected insertion order preserved, got %v", got)
	}
}

func TestLoadFragmentCachesResult(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "policy", "act.yaml")
	writeDocument(t, path, "name: act\n")

	loader := internalconfig.NewLoader(root)
	first, err := loader.Load("policy", "act")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}

	// Rewriting the document must not change the cached tree within a run.
	writeDocument(t, path, "name: changed\n")
	second, err := loader.Load("policy", "act")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached node identity on repeat load")
	}
	name, _ := second.Lookup("name")
	if name.Value() != "act" {
		t.Fatalf("expected cached value act, got %v", name.Value())
	}
}

func TestLoadFragmentNotFound(t *testing.T) {
	loader := internalconfig.NewLoader(t.TempDir())
	_, err := loader.Load("policy", "missing")
	if !errors.Is(err, internalconfig.ErrFragmentNotFound) {
		t.Fatalf("expected ErrFragmentNotFound, got %v", err)
	}
}

func TestLoadFragmentRejectsMalformedDocument(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, filepath.Join(root, "env", "broken.yaml"), "key: [unclosed\n")

	loader := internalconfig.NewLoader(root)
	_, err := loader.Load("env", "broken")
	var parseErr *internalconfig.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestLoadFragmentRejectsDuplicateKeys(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, filepath.Join(root, "env", "dup.yaml"), "task: a\ntask: b\n")

	loader := internalconfig.NewLoader(root)
	_, err := loader.Load("env", "dup")
	var parseErr *internalconfig.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for duplicate keys, got %v", err)
	}
	if parseErr.Line == 0 {
		t.Fatalf("expected parse position, got %v", parseErr)
	}
}

func TestLoadFragmentRejectsNonMappingRoot(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, filepath.Join(root, "env", "list.yaml"), "- one\n- two\n")

	loader := internalconfig.NewLoader(root)
	_, err := loader.Load("env", "list")
	var parseErr *internalconfig.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for sequence root, got %v", err)
	}
}

func TestLoadRootDocument(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, filepath.Join(root, internalconfig.RootDocumentName), `
defaults:
  - self
  - env: pusht
seed: 1000
`)

	loader := internalconfig.NewLoader(root)
	node, err := loader.LoadRoot()
	if err != nil {
		t.Fatalf("LoadRoot returned error: %v", err)
	}
	seed, ok := node.Lookup("seed")
	if !ok || seed.Value() != int64(1000) {
		t.Fatalf("expected seed 1000, got %v", seed)
	}
}

func TestCategoriesAndFragmentsListing(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, filepath.Join(root, "env", "pusht.yaml"), "name: pusht\n")
	writeDocument(t, filepath.Join(root, "env", "aloha.yaml"), "name: aloha\n")
	writeDocument(t, filepath.Join(root, "policy", "act.yaml"), "name: act\n")

	loader := internalconfig.NewLoader(root)
	categories, err := loader.Categories()
	if err != nil {
		t.Fatalf("Categories returned error: %v", err)
	}
	if len(categories) != 2 || categories[0] != "env" || categories[1] != "policy" {
		t.Fatalf("expected [env policy], got %v", categories)
	}

	names, err := loader.Fragments("env")
	if err != nil {
		t.Fatalf("Fragments returned error: %v", err)
	}
	if len(names) != 2 || names[0] != "aloha" || names[1] != "pusht" {
		t.Fatalf("expected [aloha pusht], got %v", names)
	}
}

func TestSchemaPathDetection(t *testing.T) {
	root := t.TempDir()
	writeDocument(t, filepath.Join(root, "policy", "schema.json"), `{"type":"object"}`)

	loader := internalconfig.NewLoader(root)
	path, ok := loader.SchemaPath("policy")
	if !ok {
		t.Fatalf("expected schema.json to be detected")
	}
	if filepath.Base(path) != "schema.json" {
		t.Fatalf("unexpected schema path %q", path)
	}
	if _, ok := loader.SchemaPath("env"); ok {
		t.Fatalf("expected no schema for env")
	}
}

func writeDocument(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
}
