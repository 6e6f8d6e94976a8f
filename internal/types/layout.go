package types

const LayoutAPIVersion = "v1"

// MergeLayout describes the overlay layers of one build and where merge
// output and persisted merge state go. Relative paths are resolved against
// the directory holding the layout file.
type MergeLayout struct {
	APIVersion string          `yaml:"api_version"`
	Name       string          `yaml:"name,omitempty"`
	DataSets   []DataSetLayout `yaml:"data_sets"`

	// Framework lists platform resource roots loaded into the android
	// namespace for resolution. They are never merged into the output.
	Framework []string `yaml:"framework,omitempty"`

	Output        string       `yaml:"output,omitempty"`
	BlobDir       string       `yaml:"blob_dir,omitempty"`
	ExecutionRoot string       `yaml:"execution_root,omitempty"`
	Compiler      CompilerKind `yaml:"compiler,omitempty"`
	Workers       int          `yaml:"workers,omitempty"`

	IDs IDFiles `yaml:"ids,omitempty"`

	// Ignore adds glob patterns, matched per path segment, to the built-in
	// ignore rules.
	Ignore []string `yaml:"ignore,omitempty"`
}

// DataSetLayout is one overlay layer. Order in MergeLayout.DataSets is
// precedence order: later layers override earlier ones.
type DataSetLayout struct {
	Name           string            `yaml:"name"`
	Namespace      ResourceNamespace `yaml:"namespace,omitempty"`
	Library        string            `yaml:"library,omitempty"`
	FromDependency bool              `yaml:"from_dependency,omitempty"`
	Generated      bool              `yaml:"generated,omitempty"`
	Sources        []string          `yaml:"sources"`
}

// IDFiles points at R.txt style symbol files used to confirm ids that were
// generated outside the merged sources.
type IDFiles struct {
	Framework string   `yaml:"framework,omitempty"`
	Libraries []string `yaml:"libraries,omitempty"`
}
