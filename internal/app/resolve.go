package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/adapters"
	"resmerge/internal/core"
	"resmerge/internal/types"
)

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	if len(req.References) == 0 && len(req.Attrs) == 0 {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one reference or attribute is required")
	}
	layout, err := s.loadLayout(ctx, req.LayoutPath)
	if err != nil {
		return ResolveResult{}, err
	}
	target, err := s.parseConfig(req.Config)
	if err != nil {
		return ResolveResult{}, err
	}
	merger, err := s.loadAll(ctx, layout)
	if err != nil {
		return ResolveResult{}, err
	}
	repository := core.NewRepository(s.Matcher)
	repository.Update(merger)

	diagnostics := adapters.NewZerologResolverLog(log.Ctx(ctx).With().Str("component", "resolver").Logger())
	opts := []core.ResolverOption{
		core.WithResolverLog(diagnostics),
		core.WithSampleData(adapters.NewRoundRobinSampleData()),
	}
	if theme := strings.TrimSpace(req.Theme); theme != "" {
		ref, err := parseStyleReference(theme)
		if err != nil {
			return ResolveResult{}, err
		}
		opts = append(opts, core.WithTheme(ref))
	}
	idOpts, err := idProviders(layout.IDs)
	if err != nil {
		return ResolveResult{}, err
	}
	opts = append(opts, idOpts...)

	resolver := core.NewResourceResolver(repository.ConfiguredResources(target), opts...)
	if req.DeviceDefaults != "" {
		resolver.SetDeviceDefaults(req.DeviceDefaults)
	}
	result := ResolveResult{Config: target.QualifierString(), Theme: req.Theme}
	for _, reference := range req.References {
		result.Values = append(result.Values, resolveReference(resolver, strings.TrimSpace(reference)))
	}
	for _, attr := range req.Attrs {
		result.Values = append(result.Values, resolveAttr(resolver, strings.TrimSpace(attr)))
	}
	result.Diagnostics = diagnostics.Counts()
	log.Ctx(ctx).Debug().
		Str("config", result.Config).
		Int("values", len(result.Values)).
		Msg("resolved references")
	return result, nil
}

func resolveReference(resolver *core.ResourceResolver, reference string) ResolvedValue {
	chain := core.NewLookupChain()
	recorder := resolver.Recorder(chain)
	value := recorder.FindResValue(reference, false)
	if value != nil {
		value = recorder.ResolveResValue(value)
	}
	return ResolvedValue{Query: reference, Value: value, Chain: chain.DisplayString(reference)}
}

// resolveAttr looks an attribute up in the theme stack. "android:name"
// selects the framework attribute.
func resolveAttr(resolver *core.ResourceResolver, attr string) ResolvedValue {
	name := strings.TrimPrefix(strings.TrimPrefix(attr, "?"), "attr/")
	namespace := types.NamespaceResAuto
	if pkg, rest, ok := strings.Cut(name, ":"); ok {
		namespace = types.NamespaceForPackage(pkg)
		name = strings.TrimPrefix(rest, "attr/")
	}
	chain := core.NewLookupChain()
	recorder := resolver.Recorder(chain)
	value := recorder.FindItemInTheme(types.ResourceReference{Namespace: namespace, Type: types.ResourceTypeAttr, Name: name})
	if value != nil {
		value = recorder.ResolveResValue(value)
	}
	return ResolvedValue{Query: attr, Value: value, Chain: chain.DisplayString(attr)}
}

// parseStyleReference accepts "@style/Name", "@android:style/Name" or a
// bare style name.
func parseStyleReference(theme string) (types.ResourceReference, error) {
	if !strings.HasPrefix(theme, types.PrefixResourceRef) {
		theme = "@style/" + theme
	}
	url, ok := types.ParseResourceURL(theme)
	if !ok || url.Type != types.ResourceTypeStyle {
		return types.ResourceReference{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("theme must be a style reference: " + theme)
	}
	return types.ResourceReference{Namespace: url.Namespace(types.NamespaceResAuto), Type: types.ResourceTypeStyle, Name: url.Name}, nil
}

func idProviders(ids types.IDFiles) ([]core.ResolverOption, error) {
	var opts []core.ResolverOption
	if ids.Framework != "" {
		provider, err := adapters.LoadIDFiles(ids.Framework)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithIDProvider(types.NamespaceAndroid, provider))
	}
	if len(ids.Libraries) > 0 {
		provider, err := adapters.LoadIDFiles(ids.Libraries...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithIDProvider(types.NamespaceResAuto, provider))
	}
	return opts, nil
}
