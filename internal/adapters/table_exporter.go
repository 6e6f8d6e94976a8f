package adapters

import (
	"io"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

const exportVersion = 1

// TableExport is the document written by TableExporter.
type TableExport struct {
	Version   int                    `yaml:"version" cbor:"1,keyasint"`
	Resources []*types.ResourceValue `yaml:"resources" cbor:"2,keyasint"`
}

// Deterministic encoding: the same snapshot always yields the same bytes.
var exportEncMode cbor.EncMode

func init() {
	var err error
	exportEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("adapters: CBOR encoder initialization failed: " + err.Error())
	}
}

type TableExporter struct{}

func NewTableExporter() TableExporter {
	return TableExporter{}
}

// Export writes resources sorted by namespace, type and name.
func (e TableExporter) Export(w io.Writer, format types.ExportFormat, resources []*types.ResourceValue) error {
	ordered := append([]*types.ResourceValue(nil), resources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Reference, ordered[j].Reference
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Name < b.Name
	})
	doc := TableExport{Version: exportVersion, Resources: ordered}
	switch format {
	case types.ExportFormatCBOR:
		if err := exportEncMode.NewEncoder(w).Encode(doc); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode cbor export").
				WithCause(err)
		}
	case types.ExportFormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode yaml export").
				WithCause(err)
		}
		if err := encoder.Close(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to flush yaml export").
				WithCause(err)
		}
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown export format " + string(format))
	}
	return nil
}

// ReadExport decodes a document written by Export.
func ReadExport(r io.Reader, format types.ExportFormat) (TableExport, error) {
	var doc TableExport
	var err error
	switch format {
	case types.ExportFormatCBOR:
		err = cbor.NewDecoder(r).Decode(&doc)
	case types.ExportFormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		return TableExport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown export format " + string(format))
	}
	if err != nil {
		return TableExport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to decode " + string(format) + " export").
			WithCause(err)
	}
	return doc, nil
}

var _ ports.TableExportPort = TableExporter{}
