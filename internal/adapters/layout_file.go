package adapters

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

type LayoutFileAdapter struct{}

func NewLayoutFileAdapter() LayoutFileAdapter {
	return LayoutFileAdapter{}
}

// LoadLayout reads a merge layout. Unknown keys are rejected so a typo in
// a data set never silently drops a layer.
func (a LayoutFileAdapter) LoadLayout(path string) (types.MergeLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.MergeLayout{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("layout file not found").
			WithCause(err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var layout types.MergeLayout
	if err := decoder.Decode(&layout); err != nil && !errors.Is(err, io.EOF) {
		return types.MergeLayout{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse layout yaml").
			WithCause(err)
	}
	return layout, nil
}

// SaveLayout writes a layout in the form LoadLayout reads.
func (a LayoutFileAdapter) SaveLayout(path string, layout types.MergeLayout) error {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode layout yaml").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write layout file").
			WithCause(err)
	}
	return nil
}

var _ ports.LayoutPort = LayoutFileAdapter{}
