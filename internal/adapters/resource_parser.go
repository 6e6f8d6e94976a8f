package adapters

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// Elements of a values file that declare no resource.
var skippedValueTags = map[string]struct{}{
	"eat-comment":          {},
	"skip":                 {},
	"public":               {},
	"public-group":         {},
	"staging-public-group": {},
	"java-symbol":          {},
	"add-resource":         {},
	"overlayable":          {},
}

// ResourceParserAdapter reads Android resource folders: one item per file
// in single-file folders, one item per top-level element of a
// values/*.xml file.
type ResourceParserAdapter struct {
	digest ports.DigestPort
}

func NewResourceParserAdapter(digest ports.DigestPort) ResourceParserAdapter {
	if digest == nil {
		digest = NewDigestAdapter()
	}
	return ResourceParserAdapter{digest: digest}
}

// valueNode mirrors one element of a values file.
type valueNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr  `xml:",any,attr"`
	Inner    []byte      `xml:",innerxml"`
	Children []valueNode `xml:",any"`
}

func (n valueNode) attr(name string) (string, bool) {
	for _, attr := range n.Attrs {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

func (a ResourceParserAdapter) ParseFile(ctx context.Context, source ports.ParseSource, path string) (*types.DataFile, error) {
	path = filepath.Clean(path)
	folderPath := filepath.Dir(path)
	if filepath.Dir(folderPath) != filepath.Clean(source.SourceRoot) {
		return nil, nil
	}
	folderType, qualifiers := SplitFolderName(filepath.Base(folderPath))
	resType, kind, ok := policies.FolderTypeFor(folderType)
	if !ok {
		return nil, nil
	}
	if kind == types.FileKindValues && !strings.EqualFold(filepath.Ext(path), ".xml") {
		return nil, nil
	}
	config, err := a.ParseQualifiers(qualifiers)
	if err != nil {
		return nil, types.NewParseError(types.SourcePosition{File: path}, "invalid resource folder: "+err.Error(), err)
	}
	digest, err := a.digest.DigestFile(path)
	if err != nil {
		return nil, err
	}
	file := &types.DataFile{
		Path:       path,
		SourceRoot: source.SourceRoot,
		Kind:       kind,
		FolderType: folderType,
		Config:     config,
		Digest:     digest,
	}
	if kind == types.FileKindSingle {
		item := types.NewFileItem(types.ResourceReference{
			Namespace: source.Namespace,
			Type:      resType,
			Name:      policies.ItemNameForFile(filepath.Base(path)),
		}, config)
		item.LibraryName = source.LibraryName
		item.Position = types.SourcePosition{File: path}
		file.AddItem(item)
		return file, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read " + path).
			WithCause(err)
	}
	items, err := a.parseValues(source, config, path, content)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		file.AddItem(item)
	}
	log.Ctx(ctx).Debug().Str("file", path).Int("items", len(items)).Msg("parsed values file")
	return file, nil
}

func (a ResourceParserAdapter) parseValues(source ports.ParseSource, config types.FolderConfiguration, path string, content []byte) ([]*types.ResourceItem, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	depth := 0
	sawRoot := false
	var items []*types.ResourceItem
	for {
		start := decoder.InputOffset()
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, types.NewParseError(positionAt(path, content, start), "malformed XML: "+err.Error(), err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			if depth == 0 {
				if tok.Name.Local != "resources" {
					return nil, types.NewParseError(positionAt(path, content, start), "root element must be <resources>", nil)
				}
				sawRoot = true
				depth++
				continue
			}
			if err := decoder.Skip(); err != nil {
				return nil, types.NewParseError(positionAt(path, content, start), "malformed XML: "+err.Error(), err)
			}
			if _, skip := skippedValueTags[tok.Name.Local]; skip {
				continue
			}
			raw := bytes.TrimSpace(content[start:decoder.InputOffset()])
			item, err := a.DecodeValueItem(source, config, raw)
			if err != nil {
				return nil, types.NewParseError(positionAt(path, content, start), err.Error(), err)
			}
			item.Position = positionAt(path, content, start)
			items = append(items, item)
		case xml.EndElement:
			depth--
		}
	}
	if !sawRoot {
		return nil, types.NewParseError(types.SourcePosition{File: path}, "missing <resources> root element", nil)
	}
	return items, nil
}

// positionAt converts a byte offset into a 1-based line and column.
func positionAt(path string, content []byte, offset int64) types.SourcePosition {
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	head := content[:offset]
	// The offset sits before leading whitespace of the token.
	for len(head) < len(content) && isXMLSpace(content[len(head)]) {
		head = content[:len(head)+1]
	}
	line := 1 + bytes.Count(head, []byte("\n"))
	column := len(head) - bytes.LastIndexByte(head, '\n')
	return types.SourcePosition{File: path, Line: line, Column: column}
}

func isXMLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// DecodeValueItem builds the item of one values-file element. The value is
// decoded lazily from raw on first use.
func (a ResourceParserAdapter) DecodeValueItem(source ports.ParseSource, config types.FolderConfiguration, raw []byte) (*types.ResourceItem, error) {
	var node valueNode
	if err := xml.Unmarshal(raw, &node); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("malformed resource element").
			WithCause(err)
	}
	resType, err := elementType(node)
	if err != nil {
		return nil, err
	}
	name, ok := node.attr("name")
	if !ok || strings.TrimSpace(name) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("<%s> is missing the name attribute", node.XMLName.Local))
	}
	ref := types.ResourceReference{Namespace: source.Namespace, Type: resType, Name: name}
	item := types.NewValueItem(ref, config, raw, func(item *types.ResourceItem) (*types.ResourceValue, error) {
		return decodeValue(item.Reference, node), nil
	})
	item.LibraryName = source.LibraryName
	return item, nil
}

func elementType(node valueNode) (types.ResourceType, error) {
	tag := node.XMLName.Local
	if tag == "item" {
		typeName, ok := node.attr("type")
		if !ok {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("<item> is missing the type attribute")
		}
		tag = typeName
	}
	resType, ok := types.ParseResourceType(tag)
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown resource element <%s>", tag))
	}
	return resType, nil
}

func decodeValue(ref types.ResourceReference, node valueNode) *types.ResourceValue {
	value := &types.ResourceValue{Reference: ref}
	switch ref.Type {
	case types.ResourceTypeStyle:
		parent, hasParent := node.attr("parent")
		items := make([]*types.ResourceValue, 0, len(node.Children))
		for _, child := range node.Children {
			if child.XMLName.Local != "item" {
				continue
			}
			attrName, ok := child.attr("name")
			if !ok {
				continue
			}
			pkg, attr := splitAttrName(attrName)
			ns := types.NamespaceForPackage(pkg)
			if ns == "" {
				ns = ref.Namespace
			}
			items = append(items, &types.ResourceValue{
				Reference: types.ResourceReference{Namespace: ns, Type: types.ResourceTypeAttr, Name: attr},
				Value:     strings.TrimSpace(innerText(child.Inner)),
				Context:   ref.Namespace,
			})
		}
		value.Style = types.NewStyleValue(strings.TrimSpace(parent), hasParent, items)
	case types.ResourceTypeArray:
		for _, child := range node.Children {
			if child.XMLName.Local == "item" {
				value.ArrayItems = append(value.ArrayItems, unescapeString(innerText(child.Inner)))
			}
		}
		if len(value.ArrayItems) > 0 {
			value.Value = value.ArrayItems[0]
		}
	case types.ResourceTypePlurals:
		for _, child := range node.Children {
			if child.XMLName.Local != "item" {
				continue
			}
			quantity, _ := child.attr("quantity")
			if value.Value == "" || quantity == "other" {
				value.Value = unescapeString(innerText(child.Inner))
			}
			if quantity == "other" {
				break
			}
		}
	case types.ResourceTypeAttr, types.ResourceTypeStyleable, types.ResourceTypeID:
	case types.ResourceTypeString:
		value.Value = unescapeString(innerText(node.Inner))
	default:
		value.Value = strings.TrimSpace(innerText(node.Inner))
	}
	return value
}

func splitAttrName(name string) (string, string) {
	if pkg, attr, ok := strings.Cut(name, ":"); ok {
		return pkg, attr
	}
	return "", name
}

// innerText concatenates the character data of an element's content,
// dropping markup such as <xliff:g> but keeping its text.
func innerText(inner []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(inner))
	var b strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return b.String()
			}
			return string(inner)
		}
		if data, ok := token.(xml.CharData); ok {
			b.Write(data)
		}
	}
}

// unescapeString applies the string resource rules: whitespace outside
// double quotes collapses to one space, the quotes are dropped, and
// backslash escapes are decoded.
func unescapeString(text string) string {
	var b strings.Builder
	quoted := false
	pendingSpace := false
	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			quoted = !quoted
			continue
		case !quoted && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			pendingSpace = true
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		if r != '\\' || i+1 == len(runes) {
			b.WriteRune(r)
			continue
		}
		i++
		switch next := runes[i]; next {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'u':
			if i+4 < len(runes) {
				var code rune
				if _, err := fmt.Sscanf(string(runes[i+1:i+5]), "%04x", &code); err == nil {
					b.WriteRune(code)
					i += 4
					continue
				}
			}
			b.WriteRune(next)
		default:
			b.WriteRune(next)
		}
	}
	return b.String()
}

func (a ResourceParserAdapter) ParseQualifiers(qualifiers string) (types.FolderConfiguration, error) {
	return ParseFolderQualifiers(qualifiers)
}

var _ ports.ResourceParserPort = ResourceParserAdapter{}
