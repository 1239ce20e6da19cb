package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	cfio "github.com/LLNL/CallFlow-sub002/pkg/io"
	"github.com/LLNL/CallFlow-sub002/pkg/labelgraph"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

// recursionDataset has main → solver → helper → solver, which needs a split.
const recursionDataset = `{
  "groups": {
    "0": {"main": {"name": "main", "uniqueID": [0], "type": "root"}},
    "1": {"solver": {"name": "solver", "uniqueID": [1], "parentLabel": ["main"]}},
    "2": {"helper": {"name": "helper", "uniqueID": [2], "parentLabel": ["solver"]}},
    "3": {"solver": {"name": "solver", "uniqueID": [3], "parentLabel": ["helper"]}}
  },
  "connectionInfo": {
    "1": {"solver": [{"parentNodeID": 0, "parentLabel": "main", "nodeID": 1, "time": 90}]},
    "2": {"helper": [{"parentNodeID": 1, "parentLabel": "solver", "nodeID": 2, "time": 60}]},
    "3": {"solver": [{"parentNodeID": 2, "parentLabel": "helper", "nodeID": 3, "time": 40}]}
  },
  "nodeMetric": {
    "0": {"inc": [100], "exc": [10]},
    "1": {"inc": [90], "exc": [30]},
    "2": {"inc": [60], "exc": [20]},
    "3": {"inc": [40], "exc": [40]}
  }
}`

func writeInputs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := isolate(t)
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte(recursionDataset), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestSankeyCommand_MultipleInputs(t *testing.T) {
	inputs := writeInputs(t, "a.json", "b.json", "c.json")

	if err := execute(t, append([]string{"sankey", "-f", "json,dot"}, inputs...)...); err != nil {
		t.Fatalf("sankey error = %v", err)
	}

	for _, in := range inputs {
		out := outputPath(in, "", "json")
		fg, err := cfio.ImportSankey(out)
		if err != nil {
			t.Fatalf("ImportSankey(%s) error = %v", out, err)
		}
		if _, ok := fg.Node(labelgraph.Label{Base: "solver", Gen: 1}); !ok {
			t.Errorf("%s: split label solver_1 missing", out)
		}
		dot, err := os.ReadFile(outputPath(in, "", "dot"))
		if err != nil {
			t.Fatalf("read dot: %v", err)
		}
		if !strings.Contains(string(dot), `"helper" -> "solver_1"`) {
			t.Errorf("dot output missing split edge:\n%s", dot)
		}
	}
}

func TestSankeyCommand_OutputDir(t *testing.T) {
	inputs := writeInputs(t, "profile.json")
	outDir := filepath.Join(filepath.Dir(inputs[0]), "out")

	if err := execute(t, "sankey", "-o", outDir, "--keep-all", inputs[0]); err != nil {
		t.Fatalf("sankey error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "profile.sankey.json")); err != nil {
		t.Errorf("output not written to --output-dir: %v", err)
	}
}

func TestRenderCommand_DOT(t *testing.T) {
	inputs := writeInputs(t, "run.json")
	out := filepath.Join(filepath.Dir(inputs[0]), "graph.dot")

	if err := execute(t, "render", "-f", "dot", "--detailed", "-o", out, inputs[0]); err != nil {
		t.Fatalf("render error = %v", err)
	}
	dot, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read %s: %v", out, err)
	}
	for _, want := range []string{"rankdir=LR;", `label: solver_1`} {
		if !strings.Contains(string(dot), want) {
			t.Errorf("render output missing %q:\n%s", want, dot)
		}
	}
}

func TestRenderPath(t *testing.T) {
	tests := []struct {
		output string
		count  int
		want   string
	}{
		{"", 1, filepath.Join("data", "run.sankey.svg")},
		{"out.svg", 1, "out.svg"},
		{"out", 2, filepath.Join("out", "run.sankey.svg")},
	}
	for _, tt := range tests {
		if got := renderPath(filepath.Join("data", "run.json"), tt.output, "svg", tt.count); got != tt.want {
			t.Errorf("renderPath(%q, %d) = %q, want %q", tt.output, tt.count, got, tt.want)
		}
	}
}

func TestSankeyCommand_Errors(t *testing.T) {
	inputs := writeInputs(t, "ok.json")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing input", []string{"sankey", inputs[0], filepath.Join(t.TempDir(), "missing.json")}, errors.ErrCodeFileNotFound},
		{"bad format", []string{"sankey", "-f", "gif", inputs[0]}, errors.ErrCodeInvalidConfig},
		{"bad threshold", []string{"sankey", "--threshold", "7", inputs[0]}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v (err = %v)", got, tt.code, err)
			}
		})
	}
}

func TestCheckCommand(t *testing.T) {
	inputs := writeInputs(t, "profile.json")

	if err := execute(t, "check", inputs[0]); err != nil {
		t.Fatalf("check error = %v", err)
	}

	if err := execute(t, "sankey", inputs[0]); err != nil {
		t.Fatalf("sankey error = %v", err)
	}
	if err := execute(t, "check", "--sankey", outputPath(inputs[0], "", "json")); err != nil {
		t.Errorf("check --sankey error = %v", err)
	}
}

func TestVerifyGraph_DetectsCycle(t *testing.T) {
	a, b := labelgraph.NewLabel("a"), labelgraph.NewLabel("b")
	fg := &sankey.FinalGraph{
		Nodes: []sankey.FinalNode{
			{Label: a, SankeyID: 0, Level: 0},
			{Label: b, SankeyID: 1, Level: 1},
		},
		Edges: []sankey.FinalEdge{
			{Source: 0, Target: 1, SourceLabel: a, TargetLabel: b},
			{Source: 1, Target: 0, SourceLabel: b, TargetLabel: a},
		},
	}

	problems, err := verifyGraph(context.Background(), fg)
	if err != nil {
		t.Fatalf("verifyGraph() error = %v", err)
	}
	if len(problems) != 2 {
		t.Errorf("verifyGraph() = %v, want a level problem and a split problem", problems)
	}
}

func TestDiagnosticSummary(t *testing.T) {
	diags := errors.Diagnostics{
		{Code: errors.ErrCodeDanglingParent},
		{Code: errors.ErrCodeRuntimeMismatch},
		{Code: errors.ErrCodeDanglingParent},
	}
	want := "DANGLING_PARENT×2, RUNTIME_MISMATCH×1"
	if got := diagnosticSummary(diags); got != want {
		t.Errorf("diagnosticSummary() = %q, want %q", got, want)
	}
}

func inspectGraph(t *testing.T) *sankey.FinalGraph {
	t.Helper()
	ds, err := cfio.ReadDataset(strings.NewReader(recursionDataset))
	if err != nil {
		t.Fatal(err)
	}
	res, err := sankey.Build(context.Background(), ds, sankey.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return res.Graph
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestInspectModel_Navigation(t *testing.T) {
	var m tea.Model = NewInspectModel(inspectGraph(t))

	m = press(m, "up")
	if got := m.(InspectModel).Cursor; got != 0 {
		t.Errorf("Cursor after up at top = %d, want 0", got)
	}
	for range 10 {
		m = press(m, "down")
	}
	if got := m.(InspectModel).Cursor; got != 3 {
		t.Errorf("Cursor after scrolling past the end = %d, want 3", got)
	}

	m = press(m, "enter")
	if !m.(InspectModel).Detail {
		t.Fatal("enter did not open the detail view")
	}
	view := m.View()
	for _, want := range []string{"solver_1", "Entries", "Exits", "helper"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q:\n%s", want, view)
		}
	}

	m = press(m, "esc")
	if m.(InspectModel).Detail {
		t.Error("esc did not return to the list")
	}
}

func TestInspectModel_ListView(t *testing.T) {
	m := NewInspectModel(inspectGraph(t))
	view := m.View()
	for _, want := range []string{"Sankey Nodes", "main", "solver_1", "[1/4]"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q:\n%s", want, view)
		}
	}
}

func TestInspectModel_Quit(t *testing.T) {
	m := NewInspectModel(inspectGraph(t))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestCompletionCommand(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("completion error = %v", err)
	}
	if !strings.Contains(out.String(), "callflow") {
		t.Errorf("bash completion does not mention callflow:\n%.200s", out.String())
	}
}

func TestFormatFlagCompletion(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{cobra.ShellCompNoDescRequestCmd, "sankey", "--edge-weight", ""})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("__complete error = %v", err)
	}
	for _, want := range []string{"mean", "sum"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("completions = %q, want %q", out.String(), want)
		}
	}
}
