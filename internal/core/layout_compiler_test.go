package core

import (
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"resmerge/internal/types"
)

func baseLayout() types.MergeLayout {
	return types.MergeLayout{
		APIVersion: types.LayoutAPIVersion,
		Name:       "app",
		DataSets: []types.DataSetLayout{
			{Name: "main", Sources: []string{"src/main/res"}},
			{Name: "overlay", Sources: []string{"src/overlay/res"}},
		},
	}
}

func TestLayoutCompilerValidateLayoutCases(t *testing.T) {
	compiler := NewLayoutCompiler()

	tests := []struct {
		name    string
		build   func() types.MergeLayout
		wantErr bool
	}{
		{
			name:  "valid",
			build: baseLayout,
		},
		{
			name: "wrong api version",
			build: func() types.MergeLayout {
				layout := baseLayout()
				layout.APIVersion = "v0"
				return layout
			},
			wantErr: true,
		},
		{
			name: "no data sets",
			build: func() types.MergeLayout {
				layout := baseLayout()
				layout.DataSets = nil
				return layout
			},
			wantErr: true,
		},
		{
			name: "duplicate data set",
			build: func() types.MergeLayout {
				layout := baseLayout()
				layout.DataSets[1].Name = "main"
				return layout
			},
			wantErr: true,
		},
		{
			name: "data set without sources",
			build: func() types.MergeLayout {
				layout := baseLayout()
				layout.DataSets[0].Sources = nil
				return layout
			},
			wantErr: true,
		},
		{
			name: "reserved namespace",
			build: func() types.MergeLayout {
				layout := baseLayout()
				layout.DataSets[0].Namespace = types.NamespaceAndroid
				return layout
			},
			wantErr: true,
		},
		{
			name: "unknown compiler",
			build: func() types.MergeLayout {
				layout := baseLayout()
				layout.Compiler = "zip"
				return layout
			},
			wantErr: true,
		},
		{
			name: "bad ignore pattern",
			build: func() types.MergeLayout {
				layout := baseLayout()
				layout.Ignore = []string{"[x"}
				return layout
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compiler.ValidateLayout(t.Context(), tt.build())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if diff := cmp.Diff(errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err)); diff != "" {
				t.Fatalf("unexpected error code (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLayoutCompilerNormalizeLayout(t *testing.T) {
	base := t.TempDir()
	layout := baseLayout()
	layout.Framework = []string{"/sdk/platforms/android-35/data/res"}
	layout.IDs.Framework = "sdk/R.txt"

	got := NewLayoutCompiler().NormalizeLayout(layout, base)
	require.Equal(t, filepath.Join(base, "src", "main", "res"), got.DataSets[0].Sources[0])
	require.Equal(t, types.NamespaceResAuto, got.DataSets[0].Namespace)
	require.Equal(t, "/sdk/platforms/android-35/data/res", got.Framework[0])
	require.Equal(t, filepath.Join(base, "build", "merged"), got.Output)
	require.Equal(t, filepath.Join(base, "build", "merger"), got.BlobDir)
	require.Equal(t, filepath.Join(base, "sdk", "R.txt"), got.IDs.Framework)
	require.Equal(t, types.CompilerKindFlat, got.Compiler)
	require.Positive(t, got.Workers)
	require.Equal(t, "src/main/res", layout.DataSets[0].Sources[0], "input layout is not modified")
}

func TestLayoutCompilerBuildMerger(t *testing.T) {
	compiler := NewLayoutCompiler()
	layout := compiler.NormalizeLayout(baseLayout(), t.TempDir())
	layout.DataSets[1].Library = "com.example.lib"

	merger, err := compiler.BuildMerger(t.Context(), layout, &lineParser{})
	require.NoError(t, err)
	sets := merger.DataSets()
	require.Len(t, sets, 2)
	require.Equal(t, "main", sets[0].Name())
	require.Equal(t, "com.example.lib", sets[1].LibraryName())
	require.Equal(t, layout.DataSets[1].Sources, sets[1].Sources())
}
