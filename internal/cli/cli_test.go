package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resmerge/internal/adapters"
	"resmerge/internal/core"
	"resmerge/internal/testutil"
	"resmerge/internal/types"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	expected := []string{"merge", "validate", "resolve", "inspect", "export", "watch"}
	for _, name := range expected {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestResolveCommandFlags(t *testing.T) {
	cmd := newResolveCommand()
	flags := []string{"layout", "config-qualifiers", "theme", "device-defaults", "attr", "trace"}
	for _, name := range flags {
		flag := cmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "missing flag: %s", name)
	}
}

func TestExportCommandFlags(t *testing.T) {
	cmd := newExportCommand()
	flags := []string{"layout", "config-qualifiers", "format", "output", "include-framework"}
	for _, name := range flags {
		flag := cmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "missing flag: %s", name)
	}
	assert.Equal(t, "yaml", cmd.Flags().Lookup("format").DefValue)
}

func TestMergeCommandFlags(t *testing.T) {
	cmd := newMergeCommand()
	assert.NotNil(t, cmd.Flags().Lookup("layout"))
	incremental := cmd.Flags().Lookup("incremental")
	require.NotNil(t, incremental)
	assert.Equal(t, "true", incremental.DefValue)
	assert.NotNil(t, newWatchCommand().Flags().Lookup("debounce"))
	assert.NotNil(t, newWatchCommand().Flags().Lookup("show"))
}

// ---------- End to end command tests ----------

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestMergeAndResolveCommands(t *testing.T) {
	project := testutil.NewProject(t)
	testutil.WriteFile(t, project.Main, "values/colors.xml",
		`<resources><color name="primary">#ff0000</color><color name="accent">@color/primary</color></resources>`)

	out, err := runRoot(t, "merge", "--layout", project.Layout, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "merged sample (full): 2 resources")

	out, err = runRoot(t, "resolve", "--layout", project.Layout, "--trace", "@color/accent", "@color/missing")
	require.NoError(t, err)
	assert.Contains(t, out, "@color/accent: #ff0000")
	assert.Contains(t, out, "@color/accent => @color/primary => #ff0000")
	assert.Contains(t, out, "@color/missing: unresolved")

	out, err = runRoot(t, "inspect", "--layout", project.Layout)
	require.NoError(t, err)
	assert.Contains(t, out, "- main (res-auto)")
	assert.Contains(t, out, "compiled outputs: 1")
}

func TestExportCommandWritesFile(t *testing.T) {
	project := testutil.NewProject(t)
	testutil.WriteFile(t, project.Main, "values/strings.xml", `<resources><string name="title">Main</string></resources>`)
	target := filepath.Join(t.TempDir(), "table.cbor")

	out, err := runRoot(t, "export", "--layout", project.Layout, "--format", "cbor", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 1 resources")
	file, err := os.Open(target)
	require.NoError(t, err)
	defer file.Close()
	doc, err := adapters.ReadExport(file, types.ExportFormatCBOR)
	require.NoError(t, err)
	require.Len(t, doc.Resources, 1)
	assert.Equal(t, "Main", doc.Resources[0].Value)
}

func TestValidateCommandFailsOnDuplicates(t *testing.T) {
	project := testutil.NewProject(t)
	testutil.WriteFile(t, project.Main, "values/a.xml", `<resources><string name="title">A</string></resources>`)
	testutil.WriteFile(t, project.Main, "values/b.xml", `<resources><string name="title">B</string></resources>`)

	_, err := runRoot(t, "validate", "--layout", project.Layout)
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))
}

// ---------- Helper function tests ----------

// configured sets viper keys the way a resmerge.yaml would and resets the
// global config afterwards.
func configured(t *testing.T, values map[string]any) {
	t.Helper()
	for key, value := range values {
		viper.Set(key, value)
	}
	t.Cleanup(viper.Reset)
}

func TestLayoutFlagAndConfigPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		config   map[string]any
		flag     string
		expected string
	}{
		{name: "default layout", expected: defaultLayout},
		{name: "config file layout", config: map[string]any{"layout": "app/resmerge-layout.yaml"}, expected: "app/resmerge-layout.yaml"},
		{name: "flag beats config", config: map[string]any{"layout": "app/resmerge-layout.yaml"}, flag: "lib/layout.yaml", expected: "lib/layout.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configured(t, tt.config)
			cmd := &cobra.Command{Use: "merge"}
			var layout string
			addLayoutFlag(cmd, &layout)
			if tt.flag != "" {
				require.NoError(t, cmd.Flags().Set("layout", tt.flag))
			}
			assert.Equal(t, tt.expected, resolveString(cmd, layout, "layout", "layout"))
		})
	}
}

func TestConfigQualifiersWithoutCommand(t *testing.T) {
	configured(t, map[string]any{"config_qualifiers": "de-land"})
	assert.Equal(t, "fr", resolveString(nil, "fr", "config_qualifiers", "config-qualifiers"))
	assert.Equal(t, "de-land", resolveString(nil, "", "config_qualifiers", "config-qualifiers"))
}

func TestWatchShowFromConfig(t *testing.T) {
	configured(t, map[string]any{"watch_show": []string{"@string/title"}})
	cmd := &cobra.Command{Use: "watch"}
	var show []string
	cmd.Flags().StringSliceVar(&show, "show", nil, "")
	assert.Equal(t, []string{"@string/title"}, resolveStrings(cmd, show, "watch_show", "show"))

	require.NoError(t, cmd.Flags().Set("show", "@color/ink"))
	assert.Equal(t, []string{"@color/ink"}, resolveStrings(cmd, show, "watch_show", "show"))
	assert.Equal(t, []string{"@color/ink"}, resolveStrings(nil, show, "watch_show", "show"))
}

func TestIncrementalFromConfig(t *testing.T) {
	cmd := newMergeCommand()
	assert.True(t, resolveBool(cmd, true, "incremental", "incremental"), "flag default")

	configured(t, map[string]any{"incremental": false})
	assert.False(t, resolveBool(cmd, true, "incremental", "incremental"), "config turns incremental off")

	require.NoError(t, cmd.Flags().Set("incremental", "true"))
	assert.True(t, resolveBool(cmd, true, "incremental", "incremental"), "explicit flag wins")
	assert.False(t, resolveBool(nil, false, "incremental", "incremental"))
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "layout"))
	cmd := newExportCommand()
	assert.False(t, flagChanged(cmd, "format"))
	assert.False(t, flagChanged(cmd, "no-such-flag"))
	assert.False(t, flagChanged(cmd, " "))
	require.NoError(t, cmd.Flags().Set("format", "cbor"))
	assert.True(t, flagChanged(cmd, "format"))
}

func TestWatchRejectsInvalidShowReference(t *testing.T) {
	project := testutil.NewProject(t)
	_, err := runRoot(t, "watch", "--layout", project.Layout, "--show", "not-a-reference")
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name: "invalid argument",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("bad input"),
			expected: 2,
		},
		{
			name: "already exists",
			err: errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg("dup"),
			expected: 2,
		},
		{
			name: "failed precondition",
			err: errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("merger state version 2.0 is older than supported version 3.0"),
			expected: 4,
		},
		{
			name:     "duplicate resources",
			err:      &types.MergeError{Kind: types.MergeErrorDuplicate},
			expected: 2,
		},
		{
			name:     "parse error",
			err:      types.NewParseError(types.SourcePosition{File: "values/strings.xml", Line: 3}, "unclosed element", nil),
			expected: 2,
		},
		{
			name:     "incremental state",
			err:      &types.MergeError{Kind: types.MergeErrorIncrementalState},
			expected: 4,
		},
		{
			name: "permission denied",
			err: errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg("nope"),
			expected: 3,
		},
		{
			name: "not found generic",
			err: errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("file missing"),
			expected: 5,
		},
		{
			name: "internal error",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("boom"),
			expected: 5,
		},
		{
			name:     "unknown error",
			err:      assert.AnError,
			expected: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitCodeForError(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name: "errbuilder with msg",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("something broke"),
			expected: "something broke",
		},
		{
			name:     "plain error",
			err:      assert.AnError,
			expected: assert.AnError.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorMessage(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPrintShownReadsServedRepository(t *testing.T) {
	ref := types.ResourceReference{Namespace: types.NamespaceResAuto, Type: types.ResourceTypeString, Name: "title"}
	table := types.NewResourceTable()
	table.Add(types.NewValueItem(ref, types.FolderConfiguration{}, []byte(`<string name="title">Main</string>`),
		func(item *types.ResourceItem) (*types.ResourceValue, error) {
			return &types.ResourceValue{Reference: item.Reference, Value: "Main"}, nil
		}))
	repository := core.NewRepository(nil)
	repository.Replace(table)

	title, ok := types.ParseResourceURL("@string/title")
	require.True(t, ok)
	missing, ok := types.ParseResourceURL("@color/ink")
	require.True(t, ok)

	var out bytes.Buffer
	printShown(&out, repository, []types.ResourceURL{title, missing})
	assert.Equal(t, "  @string/title = Main\n  @color/ink unresolved\n", out.String())
}
