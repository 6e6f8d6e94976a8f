package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

func value(ns types.ResourceNamespace, resType types.ResourceType, name string, text string) *types.ResourceValue {
	return &types.ResourceValue{
		Reference: types.ResourceReference{Namespace: ns, Type: resType, Name: name},
		Value:     text,
	}
}

func appValue(resType types.ResourceType, name string, text string) *types.ResourceValue {
	return value(types.NamespaceResAuto, resType, name, text)
}

func frameworkValue(resType types.ResourceType, name string, text string) *types.ResourceValue {
	return value(types.NamespaceAndroid, resType, name, text)
}

// style builds a style. parent "-" leaves the parent attribute out so the
// dotted name decides.
func style(ns types.ResourceNamespace, name string, parent string, items ...*types.ResourceValue) *types.ResourceValue {
	out := value(ns, types.ResourceTypeStyle, name, "")
	if parent == "-" {
		out.Style = types.NewStyleValue("", false, items)
	} else {
		out.Style = types.NewStyleValue(parent, true, items)
	}
	return out
}

func styleItem(attrNS types.ResourceNamespace, attr string, text string, context types.ResourceNamespace) *types.ResourceValue {
	out := value(attrNS, types.ResourceTypeAttr, attr, text)
	out.Context = context
	return out
}

func resources(values ...*types.ResourceValue) types.ConfiguredResources {
	out := types.ConfiguredResources{}
	for _, v := range values {
		out.Put(v)
	}
	return out
}

type idSet map[string]bool

func (s idSet) ID(_ types.ResourceType, name string) (int32, bool) {
	if s[name] {
		return 0x7f080000, true
	}
	return 0, false
}

type firstLine struct{}

func (firstLine) SampleDataLine(name string, lines []string) (string, bool) {
	if len(lines) == 0 {
		return "generated " + name, true
	}
	return lines[0], true
}

func TestResolveTwoCycleLogsOnce(t *testing.T) {
	logger := &recordingLog{}
	loopA := appValue(types.ResourceTypeColor, "loop2a", "@color/loop2b")
	loopB := appValue(types.ResourceTypeColor, "loop2b", "@color/loop2a")
	resolver := NewResourceResolver(resources(loopA, loopB), WithResolverLog(logger))

	got := resolver.ResolveResValue(loopA)
	require.NotNil(t, got)
	want := []string{
		"Potential stack overflow trying to resolve '@color/loop2b': cyclic resource definitions? Render may not be accurate.",
	}
	if diff := cmp.Diff(want, logger.errors()); diff != "" {
		t.Fatalf("unexpected diagnostics (-want +got):\n%s", diff)
	}
	assert.Equal(t, ports.ResolverTagCycle, logger.entries[0].Tag)
}

func TestResolveSelfReference(t *testing.T) {
	logger := &recordingLog{}
	self := appValue(types.ResourceTypeColor, "self", "@color/self")
	resolver := NewResourceResolver(resources(self), WithResolverLog(logger))

	assert.Same(t, self, resolver.ResolveResValue(self))
	assert.Equal(t, []string{
		"Potential stack overflow trying to resolve '@color/self': cyclic resource definitions? Render may not be accurate.",
	}, logger.errors())
}

func TestResolveChainStopsAtLiteral(t *testing.T) {
	primary := appValue(types.ResourceTypeColor, "primary", "@color/brand")
	brand := appValue(types.ResourceTypeColor, "brand", "@android:color/black")
	black := frameworkValue(types.ResourceTypeColor, "black", "#ff000000")
	resolver := NewResourceResolver(resources(primary, brand, black), WithResolverLog(&recordingLog{}))

	assert.Same(t, black, resolver.ResolveResValue(primary))
	assert.Same(t, black, resolver.ProjectResource(types.ResourceTypeColor, "primary"))
	assert.Same(t, black, resolver.FrameworkResource(types.ResourceTypeColor, "black"))
	assert.Nil(t, resolver.ProjectResource(types.ResourceTypeColor, "missing"))
}

func TestResolveArrayIsTerminal(t *testing.T) {
	first := appValue(types.ResourceTypeString, "first", "Mercury")
	planets := appValue(types.ResourceTypeArray, "planets", "@string/first")
	planets.ArrayItems = []string{"@string/first", "Venus"}
	resolver := NewResourceResolver(resources(first, planets), WithResolverLog(&recordingLog{}))

	assert.Same(t, planets, resolver.ResolveResValue(planets))
}

func TestResolveUnknownReferenceKeepsValue(t *testing.T) {
	logger := &recordingLog{}
	dangling := appValue(types.ResourceTypeString, "dangling", "@string/gone")
	resolver := NewResourceResolver(resources(dangling), WithResolverLog(logger))

	assert.Same(t, dangling, resolver.ResolveResValue(dangling))
	require.Len(t, logger.entries, 1)
	assert.Equal(t, "Couldn't resolve resource @string/gone", logger.entries[0].Message)
	assert.Equal(t, "warning", logger.entries[0].Level)
}

func TestFindResValueDoesNotFallBackToFramework(t *testing.T) {
	logger := &recordingLog{}
	resolver := NewResourceResolver(resources(frameworkValue(types.ResourceTypeString, "ok", "OK")), WithResolverLog(logger))

	assert.Nil(t, resolver.FindResValue("@string/ok", false))
	assert.NotNil(t, resolver.FindResValue("@string/ok", true))
	assert.NotNil(t, resolver.FindResValue("@android:string/ok", false))
	assert.Equal(t, "Couldn't resolve resource @string/ok", logger.entries[0].Message)
}

func TestFindResValueIDs(t *testing.T) {
	logger := &recordingLog{}
	resolver := NewResourceResolver(types.ConfiguredResources{},
		WithResolverLog(logger),
		WithIDProvider(types.NamespaceResAuto, idSet{"button": true}),
	)

	id := resolver.FindResValue("@id/button", false)
	require.NotNil(t, id)
	assert.Equal(t, types.ResourceReference{Namespace: types.NamespaceResAuto, Type: types.ResourceTypeID, Name: "button"}, id.Reference)
	assert.Empty(t, id.Value)

	assert.Nil(t, resolver.FindResValue("@+id/fresh", false))
	assert.Empty(t, logger.entries, "create references are not diagnosed")

	assert.Nil(t, resolver.FindResValue("@id/missing", false))
	require.Len(t, logger.entries, 1)
	assert.Equal(t, "Couldn't resolve resource @id/missing", logger.entries[0].Message)
}

func TestFindResValueSpecialReferences(t *testing.T) {
	resolver := NewResourceResolver(resources(
		appValue(types.ResourceTypeSampleData, "names", "Ada\nGrace\n"),
	), WithResolverLog(&recordingLog{}), WithSampleData(firstLine{}))

	assert.Nil(t, resolver.FindResValue("@null", false))
	assert.Nil(t, resolver.FindResValue("plain text", false))
	assert.Nil(t, resolver.FindResValue("@aapt:_aapt/aapt1", false))
	assert.Nil(t, resolver.FindResValue("?attr/colorAccent", false), "no theme")

	sample := resolver.FindResValue("@tools:sample/names[1]", false)
	require.NotNil(t, sample)
	assert.Equal(t, "Ada", sample.Value)
	generated := resolver.FindResValue("@tools:sample/full_names", false)
	require.NotNil(t, generated)
	assert.Equal(t, "generated full_names", generated.Value)
}

func themedResolver(t *testing.T, logger *recordingLog) *ResourceResolver {
	t.Helper()
	return NewResourceResolver(resources(
		style(types.NamespaceAndroid, "Theme", "",
			styleItem(types.NamespaceAndroid, "textColor", "@android:color/black", types.NamespaceAndroid),
			styleItem(types.NamespaceAndroid, "windowBackground", "@android:color/white", types.NamespaceAndroid),
		),
		style(types.NamespaceAndroid, "Theme.Light", "-",
			styleItem(types.NamespaceAndroid, "windowBackground", "@android:color/background_light", types.NamespaceAndroid),
		),
		style(types.NamespaceResAuto, "AppTheme", "@android:style/Theme.Light",
			styleItem(types.NamespaceAndroid, "textColor", "@color/ink", types.NamespaceResAuto),
			styleItem(types.NamespaceResAuto, "colorAccent", "?android:attr/textColor", types.NamespaceResAuto),
		),
		style(types.NamespaceResAuto, "Body", "android:TextAppearance"),
		style(types.NamespaceAndroid, "TextAppearance", ""),
		appValue(types.ResourceTypeColor, "ink", "#ff112233"),
		frameworkValue(types.ResourceTypeColor, "black", "#ff000000"),
		frameworkValue(types.ResourceTypeColor, "white", "#ffffffff"),
		frameworkValue(types.ResourceTypeColor, "background_light", "#ffffffff"),
	), WithResolverLog(logger), WithTheme(types.ResourceReference{Namespace: types.NamespaceResAuto, Type: types.ResourceTypeStyle, Name: "AppTheme"}))
}

func TestThemeAttributeLookup(t *testing.T) {
	logger := &recordingLog{}
	resolver := themedResolver(t, logger)
	require.NotNil(t, resolver.DefaultTheme())

	textColor := resolver.FindItemInTheme(types.ResourceReference{Namespace: types.NamespaceAndroid, Type: types.ResourceTypeAttr, Name: "textColor"})
	require.NotNil(t, textColor)
	assert.Equal(t, "#ff112233", resolver.ResolveResValue(textColor).Value, "app reference in an app style")

	background := resolver.FindResValue("?android:attr/windowBackground", false)
	require.NotNil(t, background)
	assert.Equal(t, "@android:color/background_light", background.Value)

	accent := resolver.FindResValue("?attr/colorAccent", false)
	require.NotNil(t, accent)
	assert.Equal(t, "#ff112233", resolver.ResolveResValue(accent).Value)

	assert.Nil(t, resolver.FindResValue("?attr/missing", false))
	assert.Empty(t, logger.errors())
}

func TestThemeStack(t *testing.T) {
	resolver := themedResolver(t, &recordingLog{})
	overlay := style(types.NamespaceResAuto, "Overlay", "", styleItem(types.NamespaceResAuto, "colorAccent", "#ff00ff00", types.NamespaceResAuto))
	attr := types.ResourceReference{Namespace: types.NamespaceResAuto, Type: types.ResourceTypeAttr, Name: "colorAccent"}

	resolver.ApplyStyle(overlay, false)
	assert.Equal(t, "?android:attr/textColor", resolver.FindItemInTheme(attr).Value)

	resolver.ApplyStyle(overlay, true)
	assert.Equal(t, "#ff00ff00", resolver.FindItemInTheme(attr).Value)
	assert.Len(t, resolver.AllThemes(), 3)

	resolver.ClearStyles()
	assert.Equal(t, []*types.ResourceValue{resolver.DefaultTheme()}, resolver.AllThemes())
}

func TestIsTheme(t *testing.T) {
	resolver := themedResolver(t, &recordingLog{})
	cache := map[*types.ResourceValue]bool{}

	tests := []struct {
		name      string
		framework bool
		want      bool
	}{
		{name: "Theme", framework: true, want: true},
		{name: "Theme.Light", framework: true, want: true},
		{name: "AppTheme", want: true},
		{name: "Body", want: false},
		{name: "TextAppearance", framework: true, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := resolver.Style(tc.name, tc.framework)
			require.NotNil(t, s)
			assert.Equal(t, tc.want, resolver.IsTheme(s, cache))
			assert.Equal(t, tc.want, resolver.IsTheme(s, nil))
		})
	}
}

func TestThemeInheritance(t *testing.T) {
	resolver := themedResolver(t, &recordingLog{})
	theme := resolver.Style("Theme", true)
	light := resolver.Style("Theme.Light", true)
	app := resolver.Style("AppTheme", false)

	assert.Same(t, theme, resolver.ParentOf(light), "implicit parent from the dotted name")
	assert.Same(t, light, resolver.ParentOf(app))
	assert.Nil(t, resolver.ParentOf(theme))

	assert.True(t, resolver.ThemeIsParentOf(theme, app))
	assert.False(t, resolver.ThemeIsParentOf(app, theme))
	assert.False(t, resolver.ThemeIsParentOf(app, app))

	assert.True(t, resolver.ThemeExtends("@android:style/Theme", "@style/AppTheme"))
	assert.True(t, resolver.ThemeExtends("@style/AppTheme", "@style/AppTheme"))
	assert.False(t, resolver.ThemeExtends("@style/AppTheme", "@android:style/Theme"))
}

func TestUnresolvedParentIsReported(t *testing.T) {
	logger := &recordingLog{}
	orphan := style(types.NamespaceResAuto, "Orphan", "@style/Nowhere")
	resolver := NewResourceResolver(resources(orphan), WithResolverLog(logger))

	assert.Nil(t, resolver.ParentOf(orphan))
	require.Len(t, logger.entries, 1)
	assert.Equal(t, "Unable to resolve parent style name: @style/Nowhere", logger.entries[0].Message)
}

func TestCyclicStyleParents(t *testing.T) {
	tests := []struct {
		name   string
		styles []*types.ResourceValue
		start  string
		want   string
	}{
		{
			name: "explicit",
			styles: []*types.ResourceValue{
				style(types.NamespaceResAuto, "A", "B"),
				style(types.NamespaceResAuto, "B", "A"),
			},
			start: "A",
			want:  `Cyclic style parent definitions: "A" specifies parent "B" specifies parent "A"`,
		},
		{
			name: "implied",
			styles: []*types.ResourceValue{
				style(types.NamespaceResAuto, "Foo.Bar", "-"),
				style(types.NamespaceResAuto, "Foo", "Foo.Bar"),
			},
			start: "Foo.Bar",
			want:  `Cyclic style parent definitions: "Foo.Bar" implies parent "Foo" specifies parent "Foo.Bar"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger := &recordingLog{}
			resolver := NewResourceResolver(resources(tc.styles...), WithResolverLog(logger))
			start := resolver.Style(tc.start, false)
			attr := types.ResourceReference{Namespace: types.NamespaceResAuto, Type: types.ResourceTypeAttr, Name: "missing"}

			assert.Nil(t, resolver.FindItemInStyle(start, attr))
			assert.Equal(t, []string{tc.want}, logger.errors())
		})
	}
}

func deviceDefaultResolver() *ResourceResolver {
	return NewResourceResolver(resources(
		style(types.NamespaceAndroid, "Theme", ""),
		style(types.NamespaceAndroid, "Theme.Light", "-"),
		style(types.NamespaceAndroid, "Theme.Material", "Theme"),
		style(types.NamespaceAndroid, "Theme.Material.Light", "-"),
		style(types.NamespaceAndroid, "Theme.DeviceDefault", "Theme"),
		style(types.NamespaceAndroid, "Theme.DeviceDefault.Light", "-"),
	), WithResolverLog(&recordingLog{}))
}

func TestSetDeviceDefaults(t *testing.T) {
	resolver := deviceDefaultResolver()
	light := resolver.Style("Theme.DeviceDefault.Light", true)
	parentName := func() string {
		return resolver.ParentOf(light).Reference.Name
	}

	assert.Equal(t, "Theme.DeviceDefault", parentName())

	resolver.SetDeviceDefaults("Material")
	assert.Equal(t, "Theme.Material.Light", parentName())
	assert.Equal(t, "Theme.Material", resolver.ParentOf(resolver.Style("Theme.DeviceDefault", true)).Reference.Name)

	resolver.SetDeviceDefaults(LegacyTheme)
	assert.Equal(t, "Theme.Light", parentName())

	resolver.SetDeviceDefaults("Unknown")
	assert.Equal(t, "Theme.DeviceDefault", parentName(), "missing family falls back to the declared parent")
}

func TestCopyIsIndependent(t *testing.T) {
	resolver := deviceDefaultResolver()
	light := resolver.Style("Theme.DeviceDefault.Light", true)
	copied := resolver.Copy()

	copied.SetDeviceDefaults("Material")
	copied.ApplyStyle(light, true)

	assert.Equal(t, "Theme.DeviceDefault", resolver.ParentOf(light).Reference.Name)
	assert.Equal(t, "Theme.Material.Light", copied.ParentOf(light).Reference.Name)
	assert.Empty(t, resolver.AllThemes())
}

func TestRecorderDisplayString(t *testing.T) {
	foreground := frameworkValue(types.ResourceTypeColor, "bright_foreground_dark", "@android:color/background_light")
	resolver := NewResourceResolver(resources(
		foreground,
		frameworkValue(types.ResourceTypeColor, "background_light", "#ffffffff"),
	), WithResolverLog(&recordingLog{}))

	chain := NewLookupChain()
	recorder := resolver.Recorder(chain)
	resolved := recorder.ResolveResValue(foreground)
	require.NotNil(t, resolved)

	assert.Equal(t,
		"@android:color/bright_foreground_dark => @android:color/background_light => #ffffffff",
		chain.DisplayString("@android:color/bright_foreground_dark"))
	assert.Equal(t, 2, chain.Len())

	chain.Reset()
	resolver.ResolveResValue(foreground)
	assert.Zero(t, chain.Len(), "the original resolver does not record")
}

func TestLookupChainShortensPaths(t *testing.T) {
	chain := NewLookupChain()
	chain.Append(appValue(types.ResourceTypeDrawable, "icon", "@drawable/real_icon"))
	chain.Append(appValue(types.ResourceTypeDrawable, "real_icon", "/project/res/drawable/real_icon.xml"))

	assert.Equal(t, "@drawable/icon => @drawable/real_icon => real_icon.xml", chain.DisplayString("@drawable/icon"))
}
