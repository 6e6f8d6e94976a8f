package ports

import "resmerge/internal/types"

// QualifierMatcherPort selects configuration variants.
//
// The contract is deterministic: given the same candidates and target it
// always picks the same item, and it picks at most one. Candidates whose
// configuration contradicts the target are never returned.
type QualifierMatcherPort interface {
	// BestMatch returns the most specific admissible candidate for target,
	// or nil when none is admissible.
	BestMatch(target types.FolderConfiguration, candidates []*types.ResourceItem) *types.ResourceItem
}
