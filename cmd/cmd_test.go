package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ziadkadry99/tocsync/internal/config"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

// writeConfig points a config at the fixture docs and a fresh site dir.
func writeConfig(t *testing.T) (path, siteDir string) {
	t.Helper()
	docs, err := filepath.Abs(filepath.Join("..", "testdata", "docs"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.DocsDir = docs
	cfg.SiteDir = filepath.Join(t.TempDir(), "site")
	cfg.Log.Level = config.LogNone
	path = filepath.Join(t.TempDir(), "tocsync.yml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	return path, cfg.SiteDir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.ExecuteContext(t.Context()); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestBuildInspectAnnotate(t *testing.T) {
	cfgPath, siteDir := writeConfig(t)

	execute(t, "--config", cfgPath, "build")
	if _, err := os.Stat(filepath.Join(siteDir, "guide", "install.html")); err != nil {
		t.Fatalf("build output missing: %v", err)
	}

	out := execute(t, "--config", cfgPath, "inspect", "guide/install.html", "--fragment", "debian", "--json")
	var st toc.State
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("inspect output is not JSON: %v\n%s", err, out)
	}
	if got := st.ExpandedTargets(); !reflect.DeepEqual(got, []string{"#install", "#linux", "#debian"}) {
		t.Errorf("expanded = %v", got)
	}

	annotated := filepath.Join(t.TempDir(), "out.html")
	execute(t, "--config", cfgPath, "annotate", filepath.Join(siteDir, "guide", "install.html"), "--fragment", "linux", "-o", annotated)
	data, err := os.ReadFile(annotated)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), `data-toc-expanded="true"`); n != 2 {
		t.Errorf("expanded items = %d, want 2", n)
	}
}

func TestPrintState(t *testing.T) {
	st := toc.State{
		Page:     "guide.html",
		Fragment: "#linux",
		Bound:    true,
		Items: []toc.Item{
			{Target: "#install", Title: "Install", Depth: 1, Expanded: true, Parent: -1},
			{Target: "#linux", Title: "Linux", Depth: 2, Expanded: true, Active: true, Parent: 0},
			{Target: "#debian", Title: "Debian", Depth: 3, Parent: 1},
			{Target: "#usage", Title: "Usage", Depth: 1, Parent: -1},
			{Target: "#flags", Title: "Flags", Depth: 2, Parent: 3},
		},
	}
	var b bytes.Buffer
	printState(&b, st)

	want := []string{
		"guide.html (#linux)",
		"  [-] Install #install  level=1",
		"*   [-] Linux #linux  level=2",
		"          Debian #debian  level=3",
		"  [+] Usage #usage  level=1",
		"        Flags #flags  level=2 (hidden)",
	}
	got := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("printState:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	b.Reset()
	printState(&b, toc.State{Page: "plain.html"})
	if !strings.Contains(b.String(), "no table of contents") {
		t.Errorf("unbound output: %q", b.String())
	}
}
