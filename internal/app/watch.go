package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"resmerge/internal/core"
	"resmerge/internal/ports"
)

// Watch runs an incremental merge, then applies every batch of source
// changes serially and merges again until ctx is done. A failing pass is
// logged and the next batch starts over with a full merge.
func (s Service) Watch(ctx context.Context, req WatchRequest) error {
	logger := log.Ctx(ctx)
	layout, err := s.loadLayout(ctx, req.LayoutPath)
	if err != nil {
		return err
	}
	ignore, err := ignorePolicy(layout)
	if err != nil {
		return err
	}
	repository := req.Repository
	if repository == nil {
		repository = core.NewRepository(s.Matcher)
	}

	merger, result, err := s.prepareMerger(ctx, layout, true)
	if err != nil {
		return err
	}
	if err := s.writePass(ctx, layout, merger); err != nil {
		return err
	}
	repository.Update(merger)
	s.reportPass(req, result, merger)

	var roots []string
	for _, set := range merger.DataSets() {
		roots = append(roots, set.Sources()...)
	}
	batches, err := s.NewWatcher(ignore, req.Debounce).Watch(ctx, roots)
	if err != nil {
		return err
	}
	logger.Info().Int("roots", len(roots)).Msg("watching sources")

	broken := false
	for batch := range batches {
		if broken {
			merger, result, err = s.prepareMerger(ctx, layout, false)
		} else {
			result, err = applyBatch(ctx, merger, result, batch)
		}
		if err == nil {
			err = s.writePass(ctx, layout, merger)
		}
		if err != nil {
			logger.Error().Err(err).Int("changes", len(batch)).Msg("merge pass failed")
			if req.OnError != nil {
				req.OnError(err)
			}
			broken = true
			continue
		}
		broken = false
		repository.Update(merger)
		s.reportPass(req, result, merger)
	}
	return nil
}

func applyBatch(ctx context.Context, merger *core.Merger, result MergeResult, batch []ports.SourceChange) (MergeResult, error) {
	result.Incremental = true
	result.Changes = 0
	for _, change := range batch {
		handled, err := merger.UpdateFile(ctx, change.Path, change.Status)
		if err != nil {
			return result, err
		}
		if handled {
			result.Changes++
		}
	}
	return result, nil
}

func (s Service) reportPass(req WatchRequest, result MergeResult, merger *core.Merger) {
	result.Resources = merger.Table().Len()
	if req.OnPass != nil {
		req.OnPass(result)
	}
}
