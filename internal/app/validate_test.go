package app

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resmerge/internal/testutil"
	"resmerge/internal/types"
)

func TestValidateApp(t *testing.T) {
	project := testutil.NewProject(t)
	testutil.WriteFile(t, project.Main, "values/strings.xml", `<resources><string name="a">A</string><string name="b">B</string></resources>`)
	testutil.WriteFile(t, project.Flavor, "values/strings.xml", `<resources><string name="a">Flavor A</string></resources>`)
	testutil.WriteFile(t, project.Flavor, "layout/main.xml", `<LinearLayout/>`)

	result, err := NewService().Validate(t.Context(), ValidateRequest{LayoutPath: project.Layout})
	require.NoError(t, err)
	want := ValidateResult{LayoutName: "sample", DataSets: 2, Files: 3, Resources: 3}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("unexpected validate result (-want +got):\n%s", diff)
	}
}

func TestValidateReportsParseErrors(t *testing.T) {
	project := testutil.NewProject(t)
	testutil.WriteFile(t, project.Main, "values/strings.xml", "<resources>\n  <string>nameless</string>\n</resources>")
	testutil.WriteFile(t, project.Flavor, "values/broken.xml", "<resources>\n  <string name=\"x\">")

	_, err := NewService().Validate(t.Context(), ValidateRequest{LayoutPath: project.Layout})
	require.Error(t, err)
	var merr *types.MergeError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, types.MergeErrorParse, merr.Kind)
	require.Len(t, merr.Messages, 2)
	assert.Contains(t, err.Error(), "strings.xml")
	assert.Contains(t, err.Error(), "broken.xml")
}

func TestValidateRejectsBadLayout(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteLayout(t, dir, types.MergeLayout{APIVersion: "v0"})
	_, err := NewService().Validate(t.Context(), ValidateRequest{LayoutPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported api_version")
}
