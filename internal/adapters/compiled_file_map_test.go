package adapters

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCompiledFileMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", CompiledFileMapName)
	adapter := NewCompiledFileMapAdapter()

	empty, err := adapter.Load(path)
	require.NoError(t, err)
	require.Empty(t, empty)

	entries := map[string]string{
		"/src/res/drawable/icon.png":        "/out/drawable_icon.png.flat",
		"/tmp/merged.dir/values/values.xml": "/out/values_values.arsc.flat",
	}
	require.NoError(t, adapter.Save(path, entries))
	loaded, err := adapter.Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(entries, loaded); diff != "" {
		t.Fatalf("unexpected map (-want +got):\n%s", diff)
	}
}

func TestCompiledFileMapRejectsGarbage(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), CompiledFileMapName, "files: [not, a, map]")
	_, err := NewCompiledFileMapAdapter().Load(path)
	require.Error(t, err)
}
