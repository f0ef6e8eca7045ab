package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

const geoABI = `[
	{"type": "struct", "name": "Point", "members": [
		{"name": "x", "type": "core::felt252"},
		{"name": "y", "type": "core::integer::u32"}
	]},
	{"type": "interface", "name": "IGeo", "items": [
		{"type": "function", "name": "origin", "inputs": [], "outputs": [{"type": "Point"}], "state_mutability": "view"},
		{"type": "function", "name": "move_to", "inputs": [{"name": "to", "type": "@Point"}], "outputs": [], "state_mutability": "external"}
	]},
	{"type": "constructor", "name": "constructor", "inputs": [{"name": "start", "type": "Point"}]}
]`

func writeABI(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geo.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// executeRoot runs the root command with args and returns what it printed.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "abilens.yaml")}, args...))
	parseJSON = false
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		parseJSON = false
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCommandJSON(t *testing.T) {
	path := writeABI(t, geoABI)

	out, err := executeRoot(t, "parse", path, "--json")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !gjson.Valid(out) {
		t.Fatalf("expected JSON output, got %q", out)
	}

	doc := gjson.Parse(out)
	if got := doc.Get("structures.Point.members.x").String(); got != "core::felt252" {
		t.Errorf("Point.x = %q, want core::felt252", got)
	}
	if got := doc.Get("structures.Point.members.y").String(); got != "core::integer::u32" {
		t.Errorf("Point.y = %q, want core::integer::u32", got)
	}

	var members []string
	doc.Get("structures.Point.members").ForEach(func(key, _ gjson.Result) bool {
		members = append(members, key.String())
		return true
	})
	if strings.Join(members, ",") != "x,y" {
		t.Errorf("expected members in declaration order, got %v", members)
	}

	if got := doc.Get("interfaces.IGeo.items.move_to.inputs.to").String(); got != "Point" {
		t.Errorf("move_to input = %q, want Point", got)
	}
	if got := doc.Get("constructor.inputs.start").String(); got != "Point" {
		t.Errorf("constructor input = %q, want Point", got)
	}
}

func TestParseCommandSummary(t *testing.T) {
	path := writeABI(t, geoABI)

	out, err := executeRoot(t, "parse", path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for _, want := range []string{"Structs:    1", "Interfaces: 1", "Constructor: 1 inputs", "IGeo"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	origin := strings.Index(out, "origin")
	moveTo := strings.Index(out, "move_to")
	if origin < 0 || moveTo < 0 || origin > moveTo {
		t.Errorf("expected interface items in declaration order:\n%s", out)
	}
}

func TestParseCommandInvalidABI(t *testing.T) {
	path := writeABI(t, `[
		{"type": "struct", "name": "Point", "members": []},
		{"type": "struct", "name": "Point", "members": []}
	]`)

	out, err := executeRoot(t, "parse", path, "--json")
	if err == nil {
		t.Fatalf("expected error, got output %q", out)
	}
	if !strings.Contains(err.Error(), "Name 'Point' was used more than once in defined structures.") {
		t.Errorf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output on failure, got %q", out)
	}
}

func TestParseCommandMissingFile(t *testing.T) {
	_, err := executeRoot(t, "parse", filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "reading") {
		t.Errorf("expected read error, got %v", err)
	}
}
