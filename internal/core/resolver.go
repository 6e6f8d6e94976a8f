package core

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// MaxResourceIndirection bounds every graph walk of the resolver: reference
// chains, style parent chains and theme checks.
const MaxResourceIndirection = 50

// ResolverOption configures a ResourceResolver at construction.
type ResolverOption func(*ResourceResolver)

// WithTheme selects the default theme. The theme is ignored when it does
// not name a style among the resources.
func WithTheme(theme types.ResourceReference) ResolverOption {
	return func(r *ResourceResolver) {
		r.themeRef = &theme
	}
}

func WithResolverLog(logger ports.ResolverLogPort) ResolverOption {
	return func(r *ResourceResolver) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithIDProvider registers the provider confirming ids of namespace that
// are not declared among the resources.
func WithIDProvider(namespace types.ResourceNamespace, provider ports.IDProviderPort) ResolverOption {
	return func(r *ResourceResolver) {
		if provider != nil {
			r.idProviders[namespace] = provider
		}
	}
}

func WithSampleData(provider ports.SampleDataPort) ResolverOption {
	return func(r *ResourceResolver) {
		r.sampleData = provider
	}
}

// WithLookupChain makes the resolver record every value it visits.
func WithLookupChain(chain *LookupChain) ResolverOption {
	return func(r *ResourceResolver) {
		r.chain = chain
	}
}

// ResourceResolver resolves references and style attributes against a
// configuration-filtered resource snapshot. A resolver is meant for one
// lookup session on one goroutine.
type ResourceResolver struct {
	resources   types.ConfiguredResources
	log         ports.ResolverLogPort
	idProviders map[types.ResourceNamespace]ports.IDProviderPort
	sampleData  ports.SampleDataPort
	chain       *LookupChain

	themeRef       *types.ResourceReference
	styles         *styleArena
	defaultTheme   *types.ResourceValue
	themes         []*types.ResourceValue
	deviceDefaults *string
}

func NewResourceResolver(resources types.ConfiguredResources, opts ...ResolverOption) *ResourceResolver {
	if resources == nil {
		resources = types.ConfiguredResources{}
	}
	r := &ResourceResolver{
		resources:   resources,
		log:         zerologResolverLog{},
		idProviders: map[types.ResourceNamespace]ports.IDProviderPort{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.styles = newStyleArena(resources, r.log)
	if r.themeRef != nil {
		theme := resources.Get(r.themeRef.Namespace, types.ResourceTypeStyle, r.themeRef.Name)
		if theme != nil && theme.IsStyle() {
			r.defaultTheme = theme
			r.themes = []*types.ResourceValue{theme}
		}
	}
	return r
}

// Copy returns an independent resolver over the same resources with its
// own theme stack and inheritance edges.
func (r *ResourceResolver) Copy() *ResourceResolver {
	out := *r
	out.styles = r.styles.clone()
	out.themes = append([]*types.ResourceValue(nil), r.themes...)
	out.idProviders = make(map[types.ResourceNamespace]ports.IDProviderPort, len(r.idProviders))
	for ns, provider := range r.idProviders {
		out.idProviders[ns] = provider
	}
	if r.deviceDefaults != nil {
		family := *r.deviceDefaults
		out.deviceDefaults = &family
	}
	return &out
}

// Recorder returns a copy that appends every visited value to chain.
func (r *ResourceResolver) Recorder(chain *LookupChain) *ResourceResolver {
	out := r.Copy()
	out.chain = chain
	return out
}

func (r *ResourceResolver) DefaultTheme() *types.ResourceValue {
	return r.defaultTheme
}

// ApplyStyle pushes a style onto the theme stack, in front when primary.
func (r *ResourceResolver) ApplyStyle(style *types.ResourceValue, primary bool) {
	if style == nil {
		return
	}
	if primary {
		r.themes = append([]*types.ResourceValue{style}, r.themes...)
		return
	}
	r.themes = append(r.themes, style)
}

// ClearStyles resets the theme stack to the default theme.
func (r *ResourceResolver) ClearStyles() {
	r.themes = r.themes[:0]
	if r.defaultTheme != nil {
		r.themes = append(r.themes, r.defaultTheme)
	}
}

// AllThemes returns the theme stack in lookup order.
func (r *ResourceResolver) AllThemes() []*types.ResourceValue {
	return append([]*types.ResourceValue(nil), r.themes...)
}

// ResolveResValue follows references from value until it reaches a literal,
// an array, a value that resolves to itself, or MaxResourceIndirection
// steps. Cycles are reported to the resolver log; the last value reached is
// returned either way.
func (r *ResourceResolver) ResolveResValue(value *types.ResourceValue) *types.ResourceValue {
	if r.chain != nil && value != nil {
		r.chain.Append(value)
	}
	return r.resolveResValue(value)
}

func (r *ResourceResolver) resolveResValue(value *types.ResourceValue) *types.ResourceValue {
	for depth := 0; ; depth++ {
		if value == nil {
			return nil
		}
		if value.Value == "" || value.IsArray() {
			return value
		}
		resolved := r.Dereference(value)
		if resolved == nil {
			return value
		}
		if resolved == value || depth >= MaxResourceIndirection {
			r.log.Error(ports.ResolverTagCycle, fmt.Sprintf(
				"Potential stack overflow trying to resolve '%s': cyclic resource definitions? Render may not be accurate.",
				value.Value))
			return value
		}
		value = resolved
	}
}

// Dereference resolves one step of value's reference, or returns nil when
// value does not reference anything resolvable.
func (r *ResourceResolver) Dereference(value *types.ResourceValue) *types.ResourceValue {
	if value == nil {
		return nil
	}
	context := value.ReferenceContext()
	return r.findResValue(value.Value, context.IsFramework(), context)
}

// FindResValue resolves a reference string. forceFramework restricts the
// lookup to the framework namespace.
func (r *ResourceResolver) FindResValue(reference string, forceFramework bool) *types.ResourceValue {
	return r.findResValue(reference, forceFramework, types.NamespaceResAuto)
}

func (r *ResourceResolver) findResValue(reference string, forceFramework bool, context types.ResourceNamespace) *types.ResourceValue {
	if r.chain != nil && r.chain.Len() > 0 && strings.HasPrefix(reference, types.PrefixResourceRef) {
		prev := r.chain.Last()
		if reference != prev.Value {
			r.chain.Append(prev.WithValue(reference))
		}
	}
	value := r.lookupReference(reference, forceFramework, context)
	if r.chain != nil && value != nil {
		r.chain.Append(value)
	}
	return value
}

func (r *ResourceResolver) lookupReference(reference string, forceFramework bool, context types.ResourceNamespace) *types.ResourceValue {
	url, ok := types.ParseResourceURL(reference)
	if !ok {
		return nil
	}
	if url.Theme {
		if r.defaultTheme == nil {
			return nil
		}
		attr := types.ResourceReference{Namespace: url.Namespace(context), Type: types.ResourceTypeAttr, Name: url.Name}
		if forceFramework || url.IsFramework() {
			attr.Namespace = types.NamespaceAndroid
		}
		return r.FindItemInTheme(attr)
	}
	if url.IsAapt() {
		return nil
	}
	if url.Type == types.ResourceTypeSampleData {
		return r.findSampleDataValue(url)
	}

	namespace := url.Namespace(context)
	if forceFramework {
		namespace = types.NamespaceAndroid
	}
	if value := r.resources.Get(namespace, url.Type, url.Name); value != nil {
		return value
	}
	if url.Type == types.ResourceTypeID {
		if provider, ok := r.idProviders[namespace]; ok {
			if _, found := provider.ID(url.Type, url.Name); found {
				return &types.ResourceValue{Reference: types.ResourceReference{Namespace: namespace, Type: types.ResourceTypeID, Name: url.Name}}
			}
		}
	}
	if !url.Create {
		prefix := ""
		switch {
		case namespace.IsFramework():
			prefix = "android:"
		case namespace != types.NamespaceResAuto:
			prefix = string(namespace) + ":"
		}
		r.log.Warning(ports.ResolverTagUnresolved, fmt.Sprintf("Couldn't resolve resource @%s%s/%s", prefix, url.Type, url.Name))
	}
	return nil
}

// findSampleDataValue serves "@tools:sample/name[selector]". Content lines
// come from the app's sample data resource of that name when present.
func (r *ResourceResolver) findSampleDataValue(url types.ResourceURL) *types.ResourceValue {
	if r.sampleData == nil {
		return nil
	}
	name := url.Name
	var lines []string
	if source := r.resources.Get(types.NamespaceResAuto, types.ResourceTypeSampleData, sampleDataBaseName(url.Name)); source != nil {
		lines = strings.Split(strings.TrimRight(source.Value, "\n"), "\n")
	}
	line, ok := r.sampleData.SampleDataLine(name, lines)
	if !ok {
		return nil
	}
	return &types.ResourceValue{
		Reference: types.ResourceReference{Namespace: url.Namespace(types.NamespaceTools), Type: types.ResourceTypeSampleData, Name: name},
		Value:     line,
	}
}

func sampleDataBaseName(name string) string {
	if idx := strings.IndexByte(name, '['); idx >= 0 {
		return name[:idx]
	}
	return name
}

// FindItemInStyle looks attr up on style and then along its inheritance
// edges. Walking more than MaxResourceIndirection parents logs the chain
// and reports not found.
func (r *ResourceResolver) FindItemInStyle(style *types.ResourceValue, attr types.ResourceReference) *types.ResourceValue {
	value := r.findItemInStyle(style, attr)
	if r.chain != nil && value != nil {
		r.chain.Append(value)
	}
	return value
}

// FindItemInStyleByName looks an attribute up without a namespace: the app
// namespace first, then the framework.
//
// Deprecated: use FindItemInStyle with a namespaced attribute.
func (r *ResourceResolver) FindItemInStyleByName(style *types.ResourceValue, name string) *types.ResourceValue {
	if value := r.FindItemInStyle(style, types.ResourceReference{Namespace: types.NamespaceResAuto, Type: types.ResourceTypeAttr, Name: name}); value != nil {
		return value
	}
	return r.FindItemInStyle(style, types.ResourceReference{Namespace: types.NamespaceAndroid, Type: types.ResourceTypeAttr, Name: name})
}

func (r *ResourceResolver) findItemInStyle(style *types.ResourceValue, attr types.ResourceReference) *types.ResourceValue {
	current := style
	for depth := 0; current != nil; depth++ {
		if item := current.Style.Item(attr.Namespace, attr.Name); item != nil {
			return item
		}
		parent := r.styles.parent(current)
		if parent == nil {
			return nil
		}
		if depth >= MaxResourceIndirection {
			r.log.Error(ports.ResolverTagCycle, "Cyclic style parent definitions: "+r.styles.cyclicStyleChain(current))
			return nil
		}
		current = parent
	}
	return nil
}

// FindItemInTheme looks attr up in every theme of the stack, in order.
func (r *ResourceResolver) FindItemInTheme(attr types.ResourceReference) *types.ResourceValue {
	for _, theme := range r.themes {
		if value := r.FindItemInStyle(theme, attr); value != nil {
			if r.chain != nil {
				r.chain.Append(value)
			}
			return value
		}
	}
	return nil
}

// IsTheme reports whether value is the platform Theme style, one of its
// dotted descendants, or inherits from one. cache, when non-nil, memoizes
// answers across calls.
func (r *ResourceResolver) IsTheme(value *types.ResourceValue, cache map[*types.ResourceValue]bool) bool {
	return r.isTheme(value, cache, 0)
}

func (r *ResourceResolver) isTheme(value *types.ResourceValue, cache map[*types.ResourceValue]bool, depth int) bool {
	if cache != nil {
		if known, ok := cache[value]; ok {
			return known
		}
	}
	if value == nil || !value.IsStyle() {
		return false
	}
	name := value.Reference.Name
	if value.IsFramework() && (name == themeName || strings.HasPrefix(name, themeNameDot)) {
		if cache != nil {
			cache[value] = true
		}
		return true
	}
	parent := r.styles.parent(value)
	if parent == nil {
		return false
	}
	if depth >= MaxResourceIndirection {
		r.log.Error(ports.ResolverTagCycle, "Cyclic style parent definitions: "+r.styles.cyclicStyleChain(value))
		return false
	}
	result := r.isTheme(parent, cache, depth+1)
	if cache != nil {
		cache[value] = result
	}
	return result
}

// SetDeviceDefaults redirects the framework DeviceDefault styles to family,
// for example "Material" makes Theme.DeviceDefault.Light extend
// Theme.Material.Light. LegacyTheme drops the family. Repeating the last
// family is a no-op.
func (r *ResourceResolver) SetDeviceDefaults(family string) {
	if r.deviceDefaults != nil && *r.deviceDefaults == family {
		return
	}
	r.deviceDefaults = &family
	r.styles.setDeviceDefaults(r.resources, family)
}

// ParentOf returns the style style inherits from, after device-default
// patching.
func (r *ResourceResolver) ParentOf(style *types.ResourceValue) *types.ResourceValue {
	return r.styles.parent(style)
}

// ThemeIsParentOf reports whether parent is a proper ancestor of child.
func (r *ResourceResolver) ThemeIsParentOf(parent *types.ResourceValue, child *types.ResourceValue) bool {
	current := child
	for depth := 0; depth <= MaxResourceIndirection; depth++ {
		current = r.styles.parent(current)
		if current == nil {
			return false
		}
		if current == parent {
			return true
		}
	}
	return false
}

// ThemeExtends reports whether the style named by child equals or extends
// the style named by parent. Names are references ("@style/AppTheme",
// "@android:style/Theme") or bare app style names.
func (r *ResourceResolver) ThemeExtends(parent string, child string) bool {
	parent, child = styleReference(parent), styleReference(child)
	parentValue := r.FindResValue(parent, strings.HasPrefix(parent, "@android:style/"))
	if parentValue == nil || !parentValue.IsStyle() {
		return false
	}
	childValue := r.FindResValue(child, strings.HasPrefix(child, "@android:style/"))
	if childValue == parentValue {
		return true
	}
	if childValue == nil || !childValue.IsStyle() {
		return false
	}
	return r.ThemeIsParentOf(parentValue, childValue)
}

func styleReference(name string) string {
	if strings.HasPrefix(name, types.PrefixResourceRef) {
		return name
	}
	return "@style/" + name
}

// Style returns the app or framework style with the given name.
func (r *ResourceResolver) Style(name string, framework bool) *types.ResourceValue {
	namespace := types.NamespaceResAuto
	if framework {
		namespace = types.NamespaceAndroid
	}
	value := r.resources.Get(namespace, types.ResourceTypeStyle, name)
	if value == nil {
		return nil
	}
	if !value.IsStyle() {
		r.log.Error(ports.ResolverTagBroken, fmt.Sprintf("Style %s is not of type STYLE (instead %s)", name, value.Reference.Type))
		return nil
	}
	return value
}

// ProjectResource returns the resolved value of an app resource.
func (r *ResourceResolver) ProjectResource(resType types.ResourceType, name string) *types.ResourceValue {
	return r.resolvedResource(types.NamespaceResAuto, resType, name)
}

// FrameworkResource returns the resolved value of a framework resource.
func (r *ResourceResolver) FrameworkResource(resType types.ResourceType, name string) *types.ResourceValue {
	return r.resolvedResource(types.NamespaceAndroid, resType, name)
}

func (r *ResourceResolver) resolvedResource(namespace types.ResourceNamespace, resType types.ResourceType, name string) *types.ResourceValue {
	value := r.resources.Get(namespace, resType, name)
	if value == nil {
		return nil
	}
	return r.ResolveResValue(value)
}

// zerologResolverLog is the default diagnostics sink.
type zerologResolverLog struct{}

func (zerologResolverLog) Warning(tag string, message string) {
	log.Warn().Str("tag", tag).Msg(message)
}

func (zerologResolverLog) Error(tag string, message string) {
	log.Error().Str("tag", tag).Msg(message)
}
