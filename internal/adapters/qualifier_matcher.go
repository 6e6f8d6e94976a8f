package adapters

import (
	"strings"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// QualifierMatcher picks the configuration variant a device with the target
// configuration would load. Candidates are first filtered for
// contradictions; then, in qualifier precedence order, the variants that
// best satisfy each qualifier are kept. Remaining ties go to the first
// candidate in input order.
type QualifierMatcher struct{}

func NewQualifierMatcher() QualifierMatcher {
	return QualifierMatcher{}
}

func (m QualifierMatcher) BestMatch(target types.FolderConfiguration, candidates []*types.ResourceItem) *types.ResourceItem {
	admissible := make([]*types.ResourceItem, 0, len(candidates))
	for _, item := range candidates {
		if !contradicts(item.Config, target) {
			admissible = append(admissible, item)
		}
	}
	for q := types.Qualifier(0); q < types.QualifierCount && len(admissible) > 1; q++ {
		admissible = narrow(q, target.Get(q), admissible)
	}
	if len(admissible) == 0 {
		return nil
	}
	return admissible[0]
}

func contradicts(candidate types.FolderConfiguration, target types.FolderConfiguration) bool {
	for q := types.Qualifier(0); q < types.QualifierCount; q++ {
		have := candidate.Get(q)
		if have == "" {
			continue
		}
		want := target.Get(q)
		switch q {
		case types.QualifierDensity:
			continue
		case types.QualifierLocale:
			if !localeCompatible(have, want) {
				return true
			}
		case types.QualifierVersion, types.QualifierSmallestWidth, types.QualifierScreenWidth,
			types.QualifierScreenHeight, types.QualifierScreenSize:
			if want == "" || qualifierNumber(q, have) > qualifierNumber(q, want) {
				return true
			}
		default:
			if have != want {
				return true
			}
		}
	}
	return false
}

// localeCompatible accepts a candidate locale of the same language whose
// region, when given, equals the target's.
func localeCompatible(have string, want string) bool {
	if want == "" {
		return false
	}
	haveLang, haveRegion := splitLocale(have)
	wantLang, wantRegion := splitLocale(want)
	if !strings.EqualFold(haveLang, wantLang) {
		return false
	}
	return haveRegion == "" || strings.EqualFold(haveRegion, wantRegion)
}

func splitLocale(locale string) (string, string) {
	if strings.HasPrefix(locale, "b+") {
		parts := strings.Split(strings.TrimPrefix(locale, "b+"), "+")
		region := ""
		for _, part := range parts[1:] {
			if len(part) == 2 || len(part) == 3 && part[0] >= '0' && part[0] <= '9' {
				region = part
			}
		}
		return parts[0], region
	}
	lang, region, _ := strings.Cut(locale, "-r")
	return lang, region
}

// narrow keeps the candidates that best satisfy one qualifier. When no
// candidate sets the qualifier, all are kept.
func narrow(q types.Qualifier, want string, candidates []*types.ResourceItem) []*types.ResourceItem {
	best := -1
	var kept []*types.ResourceItem
	for _, item := range candidates {
		have := item.Config.Get(q)
		if have == "" {
			continue
		}
		score := qualifierScore(q, have, want)
		switch {
		case score > best:
			best = score
			kept = []*types.ResourceItem{item}
		case score == best:
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

// qualifierScore ranks an admissible candidate value: higher is better.
func qualifierScore(q types.Qualifier, have string, want string) int {
	switch q {
	case types.QualifierLocale:
		if _, region := splitLocale(have); region != "" {
			return 2
		}
		return 1
	case types.QualifierDensity:
		return densityScore(qualifierNumber(q, have), qualifierNumber(q, want))
	case types.QualifierVersion, types.QualifierSmallestWidth, types.QualifierScreenWidth,
		types.QualifierScreenHeight, types.QualifierScreenSize:
		return qualifierNumber(q, have)
	default:
		return 1
	}
}

// densityScore prefers an exact density, then the closest higher density
// (scaling down looks better), then the closest lower one.
func densityScore(have int, want int) int {
	const exact = 1 << 20
	if want == 0 {
		want = namedDensities["mdpi"]
	}
	switch {
	case have == want || have == namedDensities["anydpi"]:
		return exact
	case have == namedDensities["nodpi"]:
		return exact / 2
	case have > want:
		return exact/2 - (have - want)
	default:
		return exact/4 - (want - have)
	}
}

var _ ports.QualifierMatcherPort = QualifierMatcher{}
