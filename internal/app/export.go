package app

import (
	"context"
	"io"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/core"
	"resmerge/internal/types"
)

// Export writes the resources a device with the requested configuration
// would see. Framework resources are left out unless asked for.
func (s Service) Export(ctx context.Context, req ExportRequest, w io.Writer) (ExportResult, error) {
	format := req.Format
	if format == "" {
		format = types.ExportFormatYAML
	}
	if format != types.ExportFormatYAML && format != types.ExportFormatCBOR {
		return ExportResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported export format " + string(format))
	}
	layout, err := s.loadLayout(ctx, req.LayoutPath)
	if err != nil {
		return ExportResult{}, err
	}
	target, err := s.parseConfig(req.Config)
	if err != nil {
		return ExportResult{}, err
	}
	merger, err := s.loadAll(ctx, layout)
	if err != nil {
		return ExportResult{}, err
	}
	repository := core.NewRepository(s.Matcher)
	repository.Update(merger)

	result := ExportResult{}
	repository.Accept(func(item *types.ResourceItem) types.VisitResult {
		if req.IncludeFramework || !item.Reference.IsFramework() {
			result.Variants++
		}
		return types.VisitContinue
	})

	var values []*types.ResourceValue
	for namespace, byType := range repository.ConfiguredResources(target) {
		if namespace.IsFramework() && !req.IncludeFramework {
			continue
		}
		for _, names := range byType {
			names.Range(func(_ string, value *types.ResourceValue) bool {
				values = append(values, value)
				return true
			})
		}
	}
	if err := s.Exporter.Export(w, format, values); err != nil {
		return ExportResult{}, err
	}
	result.Resources = len(values)
	log.Ctx(ctx).Debug().
		Str("format", string(format)).
		Int("resources", result.Resources).
		Int("variants", result.Variants).
		Msg("exported resources")
	return result, nil
}
