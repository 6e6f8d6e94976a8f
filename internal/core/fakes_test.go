package core

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// lineParser reads a minimal resource format: values folders hold
// "type/name=value" lines, other folders hold one resource per file. The
// folder suffix after the first dash is stored as the locale qualifier.
type lineParser struct {
	parsed []string
}

var _ ports.ResourceParserPort = (*lineParser)(nil)

func (p *lineParser) ParseFile(_ context.Context, source ports.ParseSource, path string) (*types.DataFile, error) {
	folder := filepath.Base(filepath.Dir(path))
	folderType, qualifiers, _ := strings.Cut(folder, "-")
	resType, kind, ok := policies.FolderTypeFor(folderType)
	if !ok {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	p.parsed = append(p.parsed, path)
	config, _ := p.ParseQualifiers(qualifiers)
	file := &types.DataFile{Path: path, SourceRoot: source.SourceRoot, Kind: kind, FolderType: folderType, Config: config}
	if kind == types.FileKindSingle {
		file.AddItem(types.NewFileItem(types.ResourceReference{
			Namespace: source.Namespace,
			Type:      resType,
			Name:      policies.ItemNameForFile(filepath.Base(path)),
		}, config))
		return file, nil
	}
	handle, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer handle.Close()
	scanner := bufio.NewScanner(handle)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		item, err := p.DecodeValueItem(source, config, []byte(text))
		if err != nil {
			return nil, types.NewParseError(types.SourcePosition{File: path, Line: line}, err.Error(), err)
		}
		item.Position = types.SourcePosition{File: path, Line: line}
		file.AddItem(item)
	}
	return file, scanner.Err()
}

func (p *lineParser) DecodeValueItem(source ports.ParseSource, config types.FolderConfiguration, raw []byte) (*types.ResourceItem, error) {
	head, value, ok := strings.Cut(string(raw), "=")
	if !ok {
		return nil, fmt.Errorf("missing '=' in %q", raw)
	}
	typeName, name, ok := strings.Cut(head, "/")
	if !ok {
		return nil, fmt.Errorf("missing type in %q", raw)
	}
	resType, ok := types.ParseResourceType(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}
	ref := types.ResourceReference{Namespace: source.Namespace, Type: resType, Name: name}
	return types.NewValueItem(ref, config, raw, func(item *types.ResourceItem) (*types.ResourceValue, error) {
		return &types.ResourceValue{Reference: item.Reference, Value: value}, nil
	}), nil
}

func (p *lineParser) ParseQualifiers(qualifiers string) (types.FolderConfiguration, error) {
	return types.FolderConfiguration{}.With(types.QualifierLocale, qualifiers), nil
}

// recordingConsumer keeps the merge events in order as "add key" and
// "remove key" entries. A replacement names the layer folder of the new
// item: "remove key by overlay".
type recordingConsumer struct {
	events  []string
	ignored func(item *types.ResourceItem) bool
	started int
	ended   int
}

var _ ports.MergeConsumerPort = (*recordingConsumer)(nil)

func (c *recordingConsumer) Start(context.Context) error {
	c.started++
	c.events = nil
	return nil
}

func (c *recordingConsumer) AddItem(_ context.Context, item *types.ResourceItem) error {
	if item.State.IsTouched() {
		c.events = append(c.events, "add "+item.Key().String()+" "+item.ResourceValue().Value)
	}
	return nil
}

func (c *recordingConsumer) RemoveItem(_ context.Context, removed *types.ResourceItem, replacedBy *types.ResourceItem) error {
	event := "remove " + removed.Key().String()
	if replacedBy != nil {
		event += " by " + filepath.Base(filepath.Dir(replacedBy.File.SourceRoot))
	}
	c.events = append(c.events, event)
	return nil
}

func (c *recordingConsumer) IgnoreItemInMerge(item *types.ResourceItem) bool {
	return c.ignored != nil && c.ignored(item)
}

func (c *recordingConsumer) End(context.Context) error {
	c.ended++
	return nil
}

type logEntry struct {
	Level   string
	Tag     string
	Message string
}

type recordingLog struct {
	entries []logEntry
}

var _ ports.ResolverLogPort = (*recordingLog)(nil)

func (l *recordingLog) Warning(tag string, message string) {
	l.entries = append(l.entries, logEntry{Level: "warning", Tag: tag, Message: message})
}

func (l *recordingLog) Error(tag string, message string) {
	l.entries = append(l.entries, logEntry{Level: "error", Tag: tag, Message: message})
}

func (l *recordingLog) errors() []string {
	var out []string
	for _, entry := range l.entries {
		if entry.Level == "error" {
			out = append(out, entry.Message)
		}
	}
	return out
}

func writeResource(t *testing.T, root string, rel string, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
