// Package testutil provides shared test helpers used across app,
// integration, and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"resmerge/internal/types"
)

// WriteFile writes content to root/rel, creating parent folders, and
// returns the absolute path.
func WriteFile(t *testing.T, root string, rel string, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteLayout stores layout as dir/layout.yaml and returns its path.
// Relative paths in layout resolve against dir.
func WriteLayout(t *testing.T, dir string, layout types.MergeLayout) string {
	t.Helper()
	if layout.APIVersion == "" {
		layout.APIVersion = types.LayoutAPIVersion
	}
	data, err := yaml.Marshal(layout)
	require.NoError(t, err)
	return WriteFile(t, dir, "layout.yaml", string(data))
}

// Project is a two-layer source tree: "main" overridden by "flavor".
type Project struct {
	Dir    string
	Main   string
	Flavor string
	Layout string
}

// NewProject creates an empty project below t.TempDir with a layout using
// the copy compiler so outputs stay readable.
func NewProject(t *testing.T) Project {
	t.Helper()
	dir := t.TempDir()
	p := Project{
		Dir:    dir,
		Main:   filepath.Join(dir, "src", "main", "res"),
		Flavor: filepath.Join(dir, "src", "flavor", "res"),
	}
	require.NoError(t, os.MkdirAll(p.Main, 0o755))
	require.NoError(t, os.MkdirAll(p.Flavor, 0o755))
	p.Layout = WriteLayout(t, dir, types.MergeLayout{
		Name: "sample",
		DataSets: []types.DataSetLayout{
			{Name: "main", Sources: []string{"src/main/res"}},
			{Name: "flavor", Sources: []string{"src/flavor/res"}},
		},
		Output:   "build/res",
		BlobDir:  "build/state",
		Compiler: types.CompilerKindCopy,
		Workers:  2,
	})
	return p
}

// OutputDir is where the project's merged resources are compiled to.
func (p Project) OutputDir() string {
	return filepath.Join(p.Dir, "build", "res")
}

// StateDir holds the persisted merge state.
func (p Project) StateDir() string {
	return filepath.Join(p.Dir, "build", "state")
}
