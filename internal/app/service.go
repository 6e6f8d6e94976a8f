package app

import (
	"time"

	"resmerge/internal/adapters"
	"resmerge/internal/policies"
	"resmerge/internal/ports"
	"resmerge/internal/types"
)

type Service struct {
	Layouts  ports.LayoutPort
	Parser   ports.ResourceParserPort
	Matcher  ports.QualifierMatcherPort
	Digest   ports.DigestPort
	Exporter ports.TableExportPort

	// The factories below depend on the loaded layout.
	NewScanner  func(ignore policies.IgnorePolicy) ports.SourceScannerPort
	NewWatcher  func(ignore policies.IgnorePolicy, debounce time.Duration) ports.SourceWatcherPort
	NewCompiler func(kind types.CompilerKind, workers int) (ports.ResourceCompilerPort, error)
}

func NewService() Service {
	digest := adapters.NewDigestAdapter()
	return Service{
		Layouts:  adapters.NewLayoutFileAdapter(),
		Parser:   adapters.NewResourceParserAdapter(digest),
		Matcher:  adapters.NewQualifierMatcher(),
		Digest:   digest,
		Exporter: adapters.NewTableExporter(),
		NewScanner: func(ignore policies.IgnorePolicy) ports.SourceScannerPort {
			return adapters.NewSourceScannerAdapter(ignore, digest)
		},
		NewWatcher: func(ignore policies.IgnorePolicy, debounce time.Duration) ports.SourceWatcherPort {
			return adapters.NewSourceWatcherAdapter(ignore, debounce)
		},
		NewCompiler: adapters.NewResourceCompiler,
	}
}
