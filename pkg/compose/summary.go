package compose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/robolearn/traincfg/pkg/confignode"
)

// Supported summary output formats.
const (
	SummaryFormatText = "text"
	SummaryFormatJSON = "json"
)

// FormatSummary renders a composed configuration summary in the requested
// format.
func FormatSummary(result *Result, format string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("composed result is nil")
	}

	switch strings.ToLower(format) {
	case "", SummaryFormatText:
		return formatSummaryText(result)
	case SummaryFormatJSON:
		return formatSummaryJSON(result)
	default:
		return "", fmt.Errorf("unsupported summary format %q", format)
	}
}

func formatSummaryText(result *Result) (string, error) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	steps := make([]string, len(result.Steps))
	for i, step := range result.Steps {
		steps[i] = step.String()
	}
	fmt.Fprintf(tw, "Run:\t%s\n", result.RunID)
	fmt.Fprintf(tw, "Steps:\t%s\n", strings.Join(steps, ", "))
	if result.OutputDir != "" {
		fmt.Fprintf(tw, "Output:\t%s\n", result.OutputDir)
	}
	if trail := result.Provenance.Trail(); len(trail) > 0 {
		fmt.Fprintf(tw, "Overrides:\t%s\n", strings.Join(trail, ", "))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Path\tValue\tSource")

	for _, path := range result.Config.SortedLeafPaths() {
		leaf, _ := result.Config.Lookup(path)
		source, ok := result.Provenance.Origin(path)
		if !ok {
			source = "-"
		}
		fmt.Fprintf(tw, "%s\t%v\t%s\n", path, formatLeafValue(leaf), source)
	}

	if err := tw.Flush(); err != nil {
		return "", fmt.Errorf("flush summary: %w", err)
	}
	return buf.String(), nil
}

func formatSummaryJSON(result *Result) (string, error) {
	type leafEntry struct {
		Path   string `json:"path"`
		Value  any    `json:"value"`
		Source string `json:"source"`
	}

	steps := make([]string, len(result.Steps))
	for i, step := range result.Steps {
		steps[i] = step.String()
	}

	paths := result.Config.SortedLeafPaths()
	leaves := make([]leafEntry, 0, len(paths))
	for _, path := range paths {
		leaf, _ := result.Config.Lookup(path)
		source, ok := result.Provenance.Origin(path)
		if !ok {
			source = "-"
		}
		leaves = append(leaves, leafEntry{Path: path, Value: leaf.Interface(), Source: source})
	}

	payload := map[string]any{
		"runId":  result.RunID,
		"steps":  steps,
		"leaves": leaves,
		"config": result.Config.Interface(),
	}
	if result.OutputDir != "" {
		payload["outputDir"] = result.OutputDir
	}
	if trail := result.Provenance.Trail(); len(trail) > 0 {
		payload["overrides"] = trail
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary json: %w", err)
	}
	return string(encoded), nil
}

func formatLeafValue(leaf *confignode.Node) any {
	switch leaf.Kind() {
	case confignode.KindSequence:
		items := make([]string, leaf.Len())
		for i := 0; i < leaf.Len(); i++ {
			items[i] = fmt.Sprint(leaf.Item(i).Interface())
		}
		return "[" + strings.Join(items, ",") + "]"
	default:
		if leaf.Value() == nil {
			return "null"
		}
		return leaf.Value()
	}
}
