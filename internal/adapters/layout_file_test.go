package adapters

import (
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resmerge/internal/types"
)

const testLayoutYAML = `api_version: v1
name: launcher
data_sets:
  - name: main
    sources: [src/main/res]
  - name: material
    library: com.example.material
    from_dependency: true
    sources:
      - libs/material/res
  - name: overlay
    sources: [src/overlay/res]
framework:
  - sdk/platforms/android-35/data/res
execution_root: .
compiler: copy
workers: 2
ids:
  framework: sdk/R.txt
  libraries: [libs/material/R.txt]
ignore: ["*.orig"]
`

func TestLoadLayout(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "resmerge.layout.yaml", testLayoutYAML)
	layout, err := NewLayoutFileAdapter().LoadLayout(path)
	require.NoError(t, err)

	assert.Equal(t, types.LayoutAPIVersion, layout.APIVersion)
	assert.Equal(t, "launcher", layout.Name)
	require.Len(t, layout.DataSets, 3)
	assert.Equal(t, "material", layout.DataSets[1].Name)
	assert.Equal(t, "com.example.material", layout.DataSets[1].Library)
	assert.True(t, layout.DataSets[1].FromDependency)
	assert.Equal(t, []string{"libs/material/res"}, layout.DataSets[1].Sources)
	assert.Equal(t, types.CompilerKindCopy, layout.Compiler)
	assert.Equal(t, 2, layout.Workers)
	assert.Equal(t, "sdk/R.txt", layout.IDs.Framework)
	assert.Equal(t, []string{"*.orig"}, layout.Ignore)
}

func TestLoadLayoutRejectsUnknownKeys(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "layout.yaml", "api_version: v1\ndata_set:\n  - name: main\n")
	_, err := NewLayoutFileAdapter().LoadLayout(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestLoadLayoutMissingFile(t *testing.T) {
	_, err := NewLayoutFileAdapter().LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestSaveLayoutRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	adapter := NewLayoutFileAdapter()
	layout := types.MergeLayout{
		APIVersion: types.LayoutAPIVersion,
		DataSets:   []types.DataSetLayout{{Name: "main", Sources: []string{"res"}}},
	}
	require.NoError(t, adapter.SaveLayout(path, layout))
	loaded, err := adapter.LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, layout, loaded)
}
