package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"resmerge/internal/ports"
)

const CompiledFileMapName = "compiled-files.yaml"

type compiledFileMapDoc struct {
	Version int               `yaml:"version"`
	Files   map[string]string `yaml:"files"`
}

// CompiledFileMapAdapter persists source → compiled output pairs as YAML.
type CompiledFileMapAdapter struct{}

func NewCompiledFileMapAdapter() CompiledFileMapAdapter {
	return CompiledFileMapAdapter{}
}

// Load returns an empty map when no file was written yet.
func (a CompiledFileMapAdapter) Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read compiled file map").
			WithCause(err)
	}
	var doc compiledFileMapDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse compiled file map").
			WithCause(err)
	}
	if doc.Files == nil {
		doc.Files = map[string]string{}
	}
	return doc.Files, nil
}

func (a CompiledFileMapAdapter) Save(path string, entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create compiled file map folder").
			WithCause(err)
	}
	data, err := yaml.Marshal(compiledFileMapDoc{Version: 1, Files: entries})
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode compiled file map").
			WithCause(err)
	}
	return writeOutput(path, data)
}

var _ ports.CompiledFileMapPort = CompiledFileMapAdapter{}
