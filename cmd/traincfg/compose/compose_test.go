package compose_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	composecmd "github.com/robolearn/traincfg/cmd/traincfg/compose"
	"github.com/robolearn/traincfg/internal/override"
)

func writeConfigRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"config.yaml": `
defaults:
  - self
  - env: pusht
  - policy: diffusion
seed: 1000
fps: 10
dataset_repo_id: lerobot/pusht
`,
		"env/pusht.yaml": `
name: pusht
task: PushT-v0
state_dim: 2
action_dim: 2
`,
		"env/aloha.yaml": `
name: aloha
task: AlohaInsertion-v0
state_dim: 14
action_dim: 14
`,
		"policy/diffusion.yaml": `
name: diffusion
horizon: 16
`,
		"policy/act.yaml": `
name: act
chunk_size: 100
`,
	}
	for rel, contents := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func runCommand(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	cmd := composecmd.NewComposeCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestComposeCommandPrintsTextSummary(t *testing.T) {
	root := writeConfigRoot(t)
	stdout, _, err := runCommand(t, []string{"--config-root", root})
	if err != nil {
		t.Fatalf("compose command failed: %v", err)
	}
	for _, want := range []string{"self, env/pusht, policy/diffusion", "env.task", "PushT-v0", "seed"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected output to contain %q:\n%s", want, stdout)
		}
	}
}

func TestComposeCommandPrintsJSONSummary(t *testing.T) {
	root := writeConfigRoot(t)
	stdout, _, err := runCommand(t, []string{"--config-root", root, "--format", "json", "env=aloha"})
	if err != nil {
		t.Fatalf("compose command failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("expected valid JSON summary: %v\n%s", err, stdout)
	}
	config, ok := payload["config"].(map[string]any)
	if !ok {
		t.Fatalf("expected config tree in summary, got %v", payload["config"])
	}
	env, ok := config["env"].(map[string]any)
	if !ok || env["task"] != "AlohaInsertion-v0" {
		t.Fatalf("expected selected aloha fragment in summary, got %v", config["env"])
	}
}

func TestComposeCommandVerboseLogsToStderr(t *testing.T) {
	root := writeConfigRoot(t)
	_, stderr, err := runCommand(t, []string{"--config-root", root, "--verbose"})
	if err != nil {
		t.Fatalf("compose command failed: %v", err)
	}

	dec := json.NewDecoder(strings.NewReader(stderr))
	var first map[string]any
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("expected structured log lines on stderr: %v\n%s", err, stderr)
	}
	runID, ok := first["runId"].(string)
	if !ok || runID == "" {
		t.Fatalf("expected runId in log payload, got %v", first)
	}
}

func TestComposeCommandRejectsMalformedOverride(t *testing.T) {
	root := writeConfigRoot(t)
	_, _, err := runCommand(t, []string{"--config-root", root, "policy"})
	if !errors.Is(err, override.ErrMalformedOverride) {
		t.Fatalf("expected ErrMalformedOverride, got %v", err)
	}
}

func TestValidateCommandReportsVerdict(t *testing.T) {
	root := writeConfigRoot(t)
	cmd := composecmd.NewValidateCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config-root", root, "policy=act"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "configuration valid (self, env/pusht, policy/act)") {
		t.Fatalf("expected verdict with step list, got %q", stdout.String())
	}
}

func TestValidateCommandVerboseEmitsStageEvents(t *testing.T) {
	root := writeConfigRoot(t)
	cmd := composecmd.NewValidateCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config-root", root, "--verbose"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	if !strings.Contains(stderr.String(), `"outcome":"success"`) {
		t.Fatalf("expected stage completion event on stderr, got %q", stderr.String())
	}
}
