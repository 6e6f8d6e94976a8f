package integration

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resmerge/internal/adapters"
	"resmerge/internal/app"
	"resmerge/internal/testutil"
	"resmerge/internal/types"
)

// writeLibraryProject lays out a library layer, the app layer and a
// generated layer on top, compiled with the flat compiler.
func writeLibraryProject(t *testing.T, dir string) string {
	t.Helper()
	testutil.WriteFile(t, dir, "libs/widgets/res/values/values.xml", `<resources>
  <string name="widget_label">Widget</string>
  <color name="widget_tint">#00ff00</color>
  <style name="Widget.Base"><item name="tint">@color/widget_tint</item></style>
</resources>`)
	testutil.WriteFile(t, dir, "app/res/values/strings.xml", `<resources>
  <string name="widget_label">App widget</string>
  <string name="app_name">Sample</string>
</resources>`)
	testutil.WriteFile(t, dir, "app/res/values-de/strings.xml", `<resources><string name="app_name">Beispiel</string></resources>`)
	testutil.WriteFile(t, dir, "app/res/drawable-xhdpi/logo.png", "logo")
	testutil.WriteFile(t, dir, "generated/res/values/build.xml", `<resources><string name="build_id">42</string></resources>`)
	return testutil.WriteLayout(t, dir, types.MergeLayout{
		Name: "library-app",
		DataSets: []types.DataSetLayout{
			{Name: "widgets", Library: "com.example.widgets", FromDependency: true, Sources: []string{"libs/widgets/res"}},
			{Name: "main", Sources: []string{"app/res"}},
			{Name: "generated", Generated: true, Sources: []string{"generated/res"}},
		},
		Output:        "build/res",
		BlobDir:       "build/state",
		ExecutionRoot: ".",
		Compiler:      types.CompilerKindFlat,
		Workers:       3,
	})
}

func TestMergeLibraryOverlayWithFlatCompiler(t *testing.T) {
	dir := t.TempDir()
	layout := writeLibraryProject(t, dir)
	service := app.NewService()

	result, err := service.Merge(t.Context(), app.MergeRequest{LayoutPath: layout, Incremental: true})
	require.NoError(t, err)
	assert.False(t, result.Incremental)
	assert.Equal(t, 7, result.Resources)

	outputs := map[string]string{}
	err = filepath.WalkDir(filepath.Join(dir, "build", "res"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		folder, content, err := adapters.ReadFlat(path)
		if err != nil {
			return err
		}
		outputs[filepath.Base(path)] = folder
		if folder == "values" {
			assert.Contains(t, string(content), "App widget")
			assert.Contains(t, string(content), "build_id")
			assert.NotContains(t, string(content), ">Widget<")
		}
		if folder == "drawable-xhdpi" {
			assert.Equal(t, "logo", string(content))
		}
		return nil
	})
	require.NoError(t, err)
	want := map[string]string{
		"values_values.arsc.flat":       "values",
		"values-de_values-de.arsc.flat": "values-de",
		"drawable-xhdpi_logo.png.flat":  "drawable-xhdpi",
	}
	if diff := cmp.Diff(want, outputs); diff != "" {
		t.Fatalf("unexpected compiled outputs (-want +got):\n%s", diff)
	}

	inspect, err := service.Inspect(t.Context(), app.InspectRequest{LayoutPath: layout})
	require.NoError(t, err)
	require.Len(t, inspect.DataSets, 3)
	assert.True(t, inspect.DataSets[0].FromDependency)
	assert.Equal(t, "com.example.widgets", inspect.DataSets[0].Library)
	assert.True(t, inspect.DataSets[2].Generated)
}

func TestMergeStateSurvivesMovedProject(t *testing.T) {
	first := filepath.Join(t.TempDir(), "project")
	layout := writeLibraryProject(t, first)
	service := app.NewService()
	_, err := service.Merge(t.Context(), app.MergeRequest{LayoutPath: layout, Incremental: true})
	require.NoError(t, err)

	moved := filepath.Join(t.TempDir(), "moved")
	require.NoError(t, os.Rename(first, moved))
	result, err := service.Merge(t.Context(), app.MergeRequest{
		LayoutPath:  filepath.Join(moved, "layout.yaml"),
		Incremental: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Incremental, "paths below the execution root are stored relative")
	assert.Zero(t, result.Changes)
}

func TestResolveStyleFromLibrary(t *testing.T) {
	dir := t.TempDir()
	layout := writeLibraryProject(t, dir)
	result, err := app.NewService().Resolve(t.Context(), app.ResolveRequest{
		LayoutPath: layout,
		Config:     "de",
		Theme:      "@style/Widget.Base",
		References: []string{"@string/app_name", "@string/widget_label"},
		Attrs:      []string{"tint"},
	})
	require.NoError(t, err)
	got := make([]string, 0, len(result.Values))
	for _, value := range result.Values {
		require.NotNil(t, value.Value, value.Query)
		got = append(got, value.Value.Value)
	}
	if diff := cmp.Diff([]string{"Beispiel", "App widget", "#00ff00"}, got); diff != "" {
		t.Fatalf("unexpected resolved values (-want +got):\n%s", diff)
	}
}
