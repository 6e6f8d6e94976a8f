package ports

import "resmerge/internal/types"

// IDProviderPort confirms ids generated outside the resolved resources.
type IDProviderPort interface {
	ID(resType types.ResourceType, name string) (int32, bool)
}

// SampleDataPort supplies one line of design-time sample data. lines holds
// the content of a project sample-data resource with that name, or nil.
type SampleDataPort interface {
	SampleDataLine(name string, lines []string) (string, bool)
}

// ResolverLogPort receives resolution diagnostics. Diagnostics never abort
// resolution.
type ResolverLogPort interface {
	Warning(tag string, message string)
	Error(tag string, message string)
}

const (
	ResolverTagBroken     = "broken"
	ResolverTagUnresolved = "unresolved"
	ResolverTagCycle      = "cycle"
)
