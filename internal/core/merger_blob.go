package core

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

const (
	// BlobFormatVersion is the version of the persisted merge state. A
	// blob with any other version is rejected.
	BlobFormatVersion = "3.0"
	BlobFileName      = "merger.xml"

	rootPlaceholder = "$ROOT"
)

type blobMerger struct {
	XMLName  xml.Name      `xml:"merger"`
	Version  string        `xml:"version,attr"`
	DataSets []blobDataSet `xml:"dataSet"`
}

type blobDataSet struct {
	Name           string       `xml:"name,attr"`
	Generation     string       `xml:"generation,attr"`
	Namespace      string       `xml:"namespace,attr,omitempty"`
	Library        string       `xml:"library,attr,omitempty"`
	FromDependency bool         `xml:"fromDependency,attr,omitempty"`
	Generated      bool         `xml:"generated,attr,omitempty"`
	Sources        []blobSource `xml:"source"`
}

type blobSource struct {
	Path  string     `xml:"path,attr"`
	Files []blobFile `xml:"file"`
}

type blobFile struct {
	Path       string     `xml:"path,attr"`
	Kind       string     `xml:"kind,attr"`
	Folder     string     `xml:"folder,attr"`
	Qualifiers string     `xml:"qualifiers,attr,omitempty"`
	Digest     string     `xml:"digest,attr,omitempty"`
	Items      []blobItem `xml:"item"`
}

type blobItem struct {
	Type  string `xml:"type,attr"`
	Name  string `xml:"name,attr"`
	State string `xml:"state,attr"`
	Line  int    `xml:"line,attr,omitempty"`
	Raw   string `xml:",innerxml"`
}

// WriteBlobTo persists the merge state into dir. With doCleanUp, tombstones
// are left out because a writer has consumed them; otherwise they are kept
// so a later pass can still emit their removal. Items the consumer ignores
// are never persisted.
func (m *Merger) WriteBlobTo(dir string, consumer ports.MergeConsumerPort, doCleanUp bool) error {
	doc := blobMerger{Version: BlobFormatVersion}
	for _, set := range m.dataSets {
		doc.DataSets = append(doc.DataSets, m.blobDataSet(set, consumer, doCleanUp))
	}
	data, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode merger state").
			WithCause(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create merger state folder").
			WithCause(err)
	}
	path := filepath.Join(dir, BlobFileName)
	tmp := path + ".tmp"
	payload := append([]byte(xml.Header), data...)
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write merger state").
			WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to replace merger state").
			WithCause(err)
	}
	return nil
}

func (m *Merger) blobDataSet(set *DataSet, consumer ports.MergeConsumerPort, doCleanUp bool) blobDataSet {
	out := blobDataSet{
		Name:           set.Name(),
		Generation:     m.generation,
		Namespace:      string(set.Namespace()),
		Library:        set.LibraryName(),
		FromDependency: set.FromDependency(),
		Generated:      set.Generated(),
	}
	bySource := map[string]*blobSource{}
	for _, root := range set.Sources() {
		out.Sources = append(out.Sources, blobSource{Path: m.relativize(root)})
	}
	for i := range out.Sources {
		bySource[set.sources[i]] = &out.Sources[i]
	}
	for _, file := range set.Files() {
		source, ok := bySource[file.SourceRoot]
		if !ok {
			continue
		}
		entry := blobFile{
			Path:       m.relativize(file.Path),
			Kind:       string(file.Kind),
			Folder:     file.FolderType,
			Qualifiers: file.Config.QualifierString(),
			Digest:     file.Digest,
		}
		for _, item := range file.Items {
			if doCleanUp && item.IsRemoved() {
				continue
			}
			if consumer != nil && consumer.IgnoreItemInMerge(item) {
				continue
			}
			entry.Items = append(entry.Items, blobItem{
				Type:  string(item.Reference.Type),
				Name:  item.Reference.Name,
				State: item.State.String(),
				Line:  item.Position.Line,
				Raw:   string(item.Raw),
			})
		}
		if doCleanUp && len(entry.Items) == 0 && set.deleted[file.Path] {
			continue
		}
		source.Files = append(source.Files, entry)
	}
	return out
}

// LoadFromBlob replaces the data sets of m with the ones persisted in dir.
// With incrementalState the files, items and item states are restored too,
// so the next MergeData only emits what changed since. A missing blob is
// reported as CodeNotFound; a version mismatch or an inconsistent document
// as an incremental-state MergeError. Either way the caller must fall back
// to a full merge.
func (m *Merger) LoadFromBlob(dir string, incrementalState bool) error {
	if err := m.requireParser(); err != nil {
		return err
	}
	path := filepath.Join(dir, BlobFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("merger state not found").
			WithCause(err)
	}
	var doc blobMerger
	if err := xml.Unmarshal(data, &doc); err != nil {
		return invalidState(path, "merger state is not readable", err)
	}
	if err := checkBlobVersion(doc.Version); err != nil {
		return invalidState(path, err.Error(), nil)
	}

	sets := make([]*DataSet, 0, len(doc.DataSets))
	generation := ""
	for _, entry := range doc.DataSets {
		if entry.Name == "" {
			return invalidState(path, "data set without name", nil)
		}
		if generation == "" {
			generation = entry.Generation
		}
		set := NewDataSet(entry.Name, m.parser, DataSetOptions{
			Namespace:      types.ResourceNamespace(entry.Namespace),
			LibraryName:    entry.Library,
			FromDependency: entry.FromDependency,
			Generated:      entry.Generated,
			Ignore:         m.ignore,
		})
		for _, source := range entry.Sources {
			set.AddSource(m.absolutize(source.Path))
		}
		if incrementalState {
			for i, source := range entry.Sources {
				for _, file := range source.Files {
					restored, err := m.restoreFile(set, set.sources[i], file)
					if err != nil {
						return invalidState(path, err.Error(), err)
					}
					set.addFileRestored(restored)
				}
			}
		}
		sets = append(sets, set)
	}
	m.dataSets = sets
	if generation != "" {
		m.generation = generation
	}
	return nil
}

func checkBlobVersion(version string) error {
	current, err := pep440.Parse(BlobFormatVersion)
	if err != nil {
		return err
	}
	persisted, err := pep440.Parse(version)
	if err != nil {
		return fmt.Errorf("unsupported merger state version %q", version)
	}
	switch persisted.Compare(current) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("merger state version %s is newer than supported version %s", version, BlobFormatVersion)
	default:
		return fmt.Errorf("merger state version %s is older than supported version %s", version, BlobFormatVersion)
	}
}

func invalidState(path string, text string, cause error) error {
	return &types.MergeError{
		Kind:     types.MergeErrorIncrementalState,
		Messages: []types.MergeMessage{{Text: text, Position: types.SourcePosition{File: path}}},
		Cause:    cause,
	}
}

func (m *Merger) restoreFile(set *DataSet, root string, entry blobFile) (*types.DataFile, error) {
	config, err := m.parser.ParseQualifiers(entry.Qualifiers)
	if err != nil {
		return nil, err
	}
	file := &types.DataFile{
		Path:       m.absolutize(entry.Path),
		SourceRoot: root,
		Kind:       types.FileKind(entry.Kind),
		FolderType: entry.Folder,
		Config:     config,
		Digest:     entry.Digest,
	}
	source := set.parseSource(root)
	for _, record := range entry.Items {
		state, ok := types.ParseItemState(record.State)
		if !ok {
			return nil, fmt.Errorf("unknown item state %q for %s/%s", record.State, record.Type, record.Name)
		}
		resType, ok := types.ParseResourceType(record.Type)
		if !ok {
			return nil, fmt.Errorf("unknown resource type %q", record.Type)
		}
		var item *types.ResourceItem
		if file.Kind == types.FileKindValues {
			raw := bytes.TrimSpace([]byte(record.Raw))
			item, err = m.parser.DecodeValueItem(source, config, raw)
			if err != nil {
				return nil, err
			}
		} else {
			item = types.NewFileItem(types.ResourceReference{
				Namespace: set.Namespace(),
				Type:      resType,
				Name:      record.Name,
			}, config)
		}
		item.State = state
		item.Position = types.SourcePosition{File: file.Path, Line: record.Line}
		file.AddItem(item)
	}
	return file, nil
}

// addFileRestored indexes a file rebuilt from persisted state. Files whose
// items are all tombstones are remembered as deleted.
func (d *DataSet) addFileRestored(file *types.DataFile) {
	d.addFile(file)
	if len(file.Items) > 0 && len(file.LiveItems()) == 0 {
		d.deleted[file.Path] = true
	}
}

func (m *Merger) relativize(path string) string {
	if m.executionRoot == "" {
		return filepath.ToSlash(path)
	}
	if path == m.executionRoot {
		return rootPlaceholder
	}
	if isUnder(m.executionRoot, path) {
		rel, err := filepath.Rel(m.executionRoot, path)
		if err == nil {
			return rootPlaceholder + "/" + filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func (m *Merger) absolutize(path string) string {
	if path == rootPlaceholder || strings.HasPrefix(path, rootPlaceholder+"/") {
		rel := strings.TrimPrefix(strings.TrimPrefix(path, rootPlaceholder), "/")
		root := m.executionRoot
		if root == "" {
			root = "."
		}
		return filepath.Join(root, filepath.FromSlash(rel))
	}
	return filepath.Clean(filepath.FromSlash(path))
}
