package adapters

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

const DefaultWatchDebounce = 200 * time.Millisecond

// SourceWatcherAdapter watches resource roots recursively and delivers
// changes in batches once no event arrived for the debounce window.
type SourceWatcherAdapter struct {
	ignore   policies.IgnorePolicy
	debounce time.Duration
}

func NewSourceWatcherAdapter(ignore policies.IgnorePolicy, debounce time.Duration) SourceWatcherAdapter {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return SourceWatcherAdapter{ignore: ignore, debounce: debounce}
}

func (a SourceWatcherAdapter) Watch(ctx context.Context, roots []string) (<-chan []ports.SourceChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create file watcher").
			WithCause(err)
	}
	for _, root := range roots {
		if _, err := a.addTree(watcher, root); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	out := make(chan []ports.SourceChange)
	go a.loop(ctx, watcher, out)
	return out, nil
}

// addTree watches root and its folders. It returns the files found so a
// folder created after the watch started can report its content.
func (a SourceWatcherAdapter) addTree(watcher *fsnotify.Watcher, root string) ([]string, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && a.ignore.IsIgnoredName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
			return nil
		}
		return watcher.Add(path)
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to watch " + root).
			WithCause(err)
	}
	return files, nil
}

func (a SourceWatcherAdapter) loop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- []ports.SourceChange) {
	defer close(out)
	defer watcher.Close()
	logger := log.Ctx(ctx)
	pending := map[string]types.FileStatus{}
	timer := time.NewTimer(a.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	record := func(path string, status types.FileStatus) {
		if previous, ok := pending[path]; ok && previous == types.FileStatusNew && status == types.FileStatusChanged {
			status = types.FileStatusNew
		}
		pending[path] = status
		timer.Reset(a.debounce)
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("file watcher error")
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if a.ignore.IsIgnoredName(filepath.Base(event.Name)) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					files, err := a.addTree(watcher, event.Name)
					if err != nil {
						logger.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new folder")
					}
					for _, file := range files {
						record(file, types.FileStatusNew)
					}
					continue
				}
				record(event.Name, types.FileStatusNew)
			case event.Has(fsnotify.Write):
				record(event.Name, types.FileStatusChanged)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				record(event.Name, types.FileStatusRemoved)
			}
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]ports.SourceChange, 0, len(pending))
			for path, status := range pending {
				batch = append(batch, ports.SourceChange{Path: path, Status: status})
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
			pending = map[string]types.FileStatus{}
			logger.Debug().Int("changes", len(batch)).Msg("delivering change batch")
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

var _ ports.SourceWatcherPort = SourceWatcherAdapter{}
