package core

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// DataSetOptions carries the per-layer attributes of a DataSet.
type DataSetOptions struct {
	Namespace      types.ResourceNamespace
	LibraryName    string
	FromDependency bool
	Generated      bool
	Ignore         policies.IgnorePolicy
}

// DataSet is one overlay layer: an ordered list of source roots and the
// files and items parsed from them. A DataSet is not safe for concurrent
// use; parallel scans must feed UpdateWith serially.
type DataSet struct {
	name string
	opts DataSetOptions

	sources []string
	files   map[string]*types.DataFile
	items   map[types.ItemKey][]*types.ResourceItem
	// deleted holds files reported REMOVED whose tombstones have not been
	// purged yet.
	deleted map[string]bool

	parser ports.ResourceParserPort
}

func NewDataSet(name string, parser ports.ResourceParserPort, opts DataSetOptions) *DataSet {
	if opts.Namespace == "" {
		opts.Namespace = types.NamespaceResAuto
	}
	return &DataSet{
		name:    name,
		opts:    opts,
		files:   map[string]*types.DataFile{},
		items:   map[types.ItemKey][]*types.ResourceItem{},
		deleted: map[string]bool{},
		parser:  parser,
	}
}

func (d *DataSet) Name() string                       { return d.name }
func (d *DataSet) Namespace() types.ResourceNamespace { return d.opts.Namespace }
func (d *DataSet) LibraryName() string                { return d.opts.LibraryName }
func (d *DataSet) FromDependency() bool               { return d.opts.FromDependency }
func (d *DataSet) Generated() bool                    { return d.opts.Generated }

// AddSource registers a root folder. Roots may nest; files resolve to the
// longest matching root.
func (d *DataSet) AddSource(root string) {
	d.sources = append(d.sources, filepath.Clean(root))
}

func (d *DataSet) AddSources(roots ...string) {
	for _, root := range roots {
		d.AddSource(root)
	}
}

func (d *DataSet) Sources() []string {
	out := make([]string, len(d.sources))
	copy(out, d.sources)
	return out
}

// FindMatchingSourceFolder returns the registered root that is the longest
// path prefix of file. ok is false when the file is foreign to the set.
func (d *DataSet) FindMatchingSourceFolder(file string) (string, bool) {
	file = filepath.Clean(file)
	best := ""
	for _, root := range d.sources {
		if !isUnder(root, file) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	return best, best != ""
}

func isUnder(root string, path string) bool {
	if root == string(filepath.Separator) {
		return strings.HasPrefix(path, root) && path != root
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// IsIgnored applies the ignore rules to the part of path below its source
// root.
func (d *DataSet) IsIgnored(path string) bool {
	root, _ := d.FindMatchingSourceFolder(path)
	return d.opts.Ignore.IsIgnored(root, path)
}

func (d *DataSet) parseSource(root string) ports.ParseSource {
	return ports.ParseSource{Namespace: d.opts.Namespace, LibraryName: d.opts.LibraryName, SourceRoot: root}
}

// LoadFromFiles parses every resource file below the registered roots.
// Parse errors of all files are collected into one *types.MergeError.
func (d *DataSet) LoadFromFiles(ctx context.Context) error {
	var failures []types.MergeMessage
	for _, root := range d.sources {
		if !sourceExists(root) {
			log.Ctx(ctx).Debug().Str("data_set", d.name).Str("root", root).Msg("source folder missing, skipping")
			continue
		}
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && d.opts.Ignore.IsIgnoredName(entry.Name()) {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			if owner, _ := d.FindMatchingSourceFolder(path); owner != root {
				// A nested root registered on this set owns the file.
				return nil
			}
			file, err := d.parser.ParseFile(ctx, d.parseSource(root), path)
			if err != nil {
				failures = append(failures, mergeMessages(path, err)...)
				return nil
			}
			if file != nil {
				d.addFile(file)
			}
			return nil
		})
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to scan source folder " + root).
				WithCause(err)
		}
	}
	if len(failures) > 0 {
		return &types.MergeError{Kind: types.MergeErrorParse, Messages: failures}
	}
	log.Ctx(ctx).Debug().
		Str("data_set", d.name).
		Int("files", len(d.files)).
		Int("keys", len(d.items)).
		Msg("loaded data set from files")
	return nil
}

func mergeMessages(path string, err error) []types.MergeMessage {
	var merr *types.MergeError
	if errors.As(err, &merr) && len(merr.Messages) > 0 {
		return merr.Messages
	}
	return []types.MergeMessage{{Text: err.Error(), Position: types.SourcePosition{File: path}}}
}

// UpdateWith applies one file change. It reports false when sourceFolder
// is not a root of this set, in which case nothing changes.
func (d *DataSet) UpdateWith(ctx context.Context, sourceFolder string, file string, status types.FileStatus) (bool, error) {
	sourceFolder = filepath.Clean(sourceFolder)
	file = filepath.Clean(file)
	if !d.hasSource(sourceFolder) {
		return false, nil
	}
	if d.opts.Ignore.IsIgnored(sourceFolder, file) {
		return true, nil
	}
	logger := log.Ctx(ctx).With().Str("data_set", d.name).Str("file", file).Str("status", string(status)).Logger()

	switch status {
	case types.FileStatusRemoved:
		existing, ok := d.files[file]
		if !ok {
			logger.Debug().Msg("removed file was never loaded")
			return true, nil
		}
		for _, item := range existing.Items {
			item.Remove()
		}
		d.deleted[file] = true
		logger.Debug().Int("items", len(existing.Items)).Msg("tombstoned file items")
		return true, nil
	case types.FileStatusNew, types.FileStatusChanged:
		parsed, err := d.parser.ParseFile(ctx, d.parseSource(sourceFolder), file)
		if err != nil {
			var merr *types.MergeError
			if errors.As(err, &merr) {
				return true, merr
			}
			return true, &types.MergeError{Kind: types.MergeErrorParse, Messages: mergeMessages(file, err), Cause: err}
		}
		existing, known := d.files[file]
		switch {
		case parsed == nil && known:
			for _, item := range existing.Items {
				item.Remove()
			}
			d.deleted[file] = true
		case parsed == nil:
			logger.Debug().Msg("not a resource file")
		case !known:
			d.addFile(parsed)
		default:
			delete(d.deleted, file)
			d.handleChangedItems(existing, parsed)
		}
		return true, nil
	default:
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown file status: " + string(status))
	}
}

func (d *DataSet) hasSource(root string) bool {
	for _, source := range d.sources {
		if source == root {
			return true
		}
	}
	return false
}

// handleChangedItems reconciles a re-parsed file with the loaded one: new
// keys are added, changed definitions are touched, vanished keys are
// tombstoned. A changed single file always touches its item.
func (d *DataSet) handleChangedItems(existing *types.DataFile, parsed *types.DataFile) {
	existing.Digest = parsed.Digest
	seen := map[*types.ResourceItem]bool{}
	for _, fresh := range parsed.Items {
		current := existing.Item(fresh.Key())
		switch {
		case current == nil:
			fresh.LibraryName = d.opts.LibraryName
			existing.AddItem(fresh)
			d.indexItem(fresh)
			seen[fresh] = true
		case current.FileBased:
			current.Touch()
			seen[current] = true
		case !current.ContentEquals(fresh):
			current.SetValue(fresh)
			seen[current] = true
		default:
			seen[current] = true
		}
	}
	for _, item := range existing.Items {
		if !item.IsRemoved() && !seen[item] {
			item.Remove()
		}
	}
}

func (d *DataSet) addFile(file *types.DataFile) {
	d.files[file.Path] = file
	delete(d.deleted, file.Path)
	for _, item := range file.Items {
		item.File = file
		item.LibraryName = d.opts.LibraryName
		d.indexItem(item)
	}
}

func (d *DataSet) indexItem(item *types.ResourceItem) {
	key := item.Key()
	d.items[key] = append(d.items[key], item)
}

// Files returns the loaded files sorted by path.
func (d *DataSet) Files() []*types.DataFile {
	out := make([]*types.DataFile, 0, len(d.files))
	for _, file := range d.files {
		out = append(out, file)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (d *DataSet) File(path string) (*types.DataFile, bool) {
	file, ok := d.files[filepath.Clean(path)]
	return file, ok
}

// Items returns every item of a key in load order, tombstones included.
func (d *DataSet) Items(key types.ItemKey) []*types.ResourceItem {
	items := d.items[key]
	out := make([]*types.ResourceItem, len(items))
	copy(out, items)
	return out
}

// Keys returns the item keys of the set sorted by their string form.
func (d *DataSet) Keys() []types.ItemKey {
	out := make([]types.ItemKey, 0, len(d.items))
	for key := range d.items {
		out = append(out, key)
	}
	sortKeys(out)
	return out
}

func sortKeys(keys []types.ItemKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}

// CheckItems reports live items that collide on the same key.
func (d *DataSet) CheckItems() []types.MergeMessage {
	var messages []types.MergeMessage
	for _, key := range d.Keys() {
		var live []*types.ResourceItem
		for _, item := range d.items[key] {
			if !item.IsRemoved() {
				live = append(live, item)
			}
		}
		if len(live) < 2 {
			continue
		}
		paths := make([]string, 0, len(live))
		for _, item := range live {
			paths = append(paths, item.SourcePath())
		}
		messages = append(messages, types.MergeMessage{
			Text:     "Duplicate resources: " + key.String(),
			Position: types.SourcePosition{File: strings.Join(paths, "\t")},
		})
	}
	return messages
}

// purge drops tombstones and files reported removed. Live items are marked
// written.
func (d *DataSet) purge() {
	for key, items := range d.items {
		kept := items[:0]
		for _, item := range items {
			if item.IsRemoved() {
				continue
			}
			item.MarkWritten()
			kept = append(kept, item)
		}
		if len(kept) == 0 {
			delete(d.items, key)
			continue
		}
		d.items[key] = kept
	}
	for path, file := range d.files {
		file.Items = file.LiveItems()
		if d.deleted[path] {
			delete(d.files, path)
		}
	}
	d.deleted = map[string]bool{}
}

// sourceExists reports whether root is present on disk.
func sourceExists(root string) bool {
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}
