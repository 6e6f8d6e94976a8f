package adapters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"golang.org/x/text/language"

	"resmerge/internal/types"
)

var (
	mccPattern      = regexp.MustCompile(`^mcc\d{3}$`)
	mncPattern      = regexp.MustCompile(`^mnc\d{1,3}$`)
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}$`)
	regionPattern   = regexp.MustCompile(`^r[A-Z]{2}$|^r\d{3}$`)
	widthPattern    = regexp.MustCompile(`^(sw|w|h)(\d+)dp$`)
	densityPattern  = regexp.MustCompile(`^(\d+)dpi$`)
	versionPattern  = regexp.MustCompile(`^v(\d+)$`)
)

var keywordQualifiers = map[string]types.Qualifier{
	"ldltr": types.QualifierLayoutDirection, "ldrtl": types.QualifierLayoutDirection,
	"small": types.QualifierScreenSize, "normal": types.QualifierScreenSize,
	"large": types.QualifierScreenSize, "xlarge": types.QualifierScreenSize,
	"long": types.QualifierScreenRatio, "notlong": types.QualifierScreenRatio,
	"round": types.QualifierScreenRound, "notround": types.QualifierScreenRound,
	"widecg": types.QualifierWideColorGamut, "nowidecg": types.QualifierWideColorGamut,
	"highdr": types.QualifierHighDynamicRange, "lowdr": types.QualifierHighDynamicRange,
	"port": types.QualifierOrientation, "land": types.QualifierOrientation, "square": types.QualifierOrientation,
	"car": types.QualifierUIMode, "desk": types.QualifierUIMode, "television": types.QualifierUIMode,
	"appliance": types.QualifierUIMode, "watch": types.QualifierUIMode, "vrheadset": types.QualifierUIMode,
	"night": types.QualifierNightMode, "notnight": types.QualifierNightMode,
	"ldpi": types.QualifierDensity, "mdpi": types.QualifierDensity, "tvdpi": types.QualifierDensity,
	"hdpi": types.QualifierDensity, "xhdpi": types.QualifierDensity, "xxhdpi": types.QualifierDensity,
	"xxxhdpi": types.QualifierDensity, "nodpi": types.QualifierDensity, "anydpi": types.QualifierDensity,
	"notouch": types.QualifierTouchscreen, "finger": types.QualifierTouchscreen, "stylus": types.QualifierTouchscreen,
	"keysexposed": types.QualifierKeyboard, "keyshidden": types.QualifierKeyboard, "keyssoft": types.QualifierKeyboard,
	"nokeys": types.QualifierTextInput, "qwerty": types.QualifierTextInput, "12key": types.QualifierTextInput,
	"navexposed": types.QualifierNavigationState, "navhidden": types.QualifierNavigationState,
	"nonav": types.QualifierNavigation, "dpad": types.QualifierNavigation,
	"trackball": types.QualifierNavigation, "wheel": types.QualifierNavigation,
}

var namedDensities = map[string]int{
	"ldpi": 120, "mdpi": 160, "tvdpi": 213, "hdpi": 240, "xhdpi": 320,
	"xxhdpi": 480, "xxxhdpi": 640, "anydpi": 0xfffe, "nodpi": 0xffff,
}

var screenSizes = map[string]int{"small": 1, "normal": 2, "large": 3, "xlarge": 4}

// ParseFolderQualifiers parses the qualifier part of a resource folder name
// ("en-rUS-land-hdpi-v21"). Qualifiers must appear in precedence order and
// at most once; locale languages are validated against BCP 47.
func ParseFolderQualifiers(qualifiers string) (types.FolderConfiguration, error) {
	config := types.FolderConfiguration{}
	if qualifiers == "" {
		return config, nil
	}
	segments := strings.Split(qualifiers, "-")
	last := types.Qualifier(-1)
	for i := 0; i < len(segments); i++ {
		segment := segments[i]
		qualifier, value, consumed, err := parseQualifier(segments[i:])
		if err != nil {
			return types.FolderConfiguration{}, err
		}
		if qualifier <= last {
			return types.FolderConfiguration{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("qualifier %q is out of order in %q", segment, qualifiers))
		}
		config = config.With(qualifier, value)
		last = qualifier
		i += consumed - 1
	}
	return config, nil
}

// SplitFolderName splits "values-en-rUS" into "values" and "en-rUS".
func SplitFolderName(folder string) (string, string) {
	folderType, qualifiers, _ := strings.Cut(folder, "-")
	return folderType, qualifiers
}

func parseQualifier(segments []string) (types.Qualifier, string, int, error) {
	segment := segments[0]
	// Keywords first: "car" is also an ISO 639 language code.
	if qualifier, ok := keywordQualifiers[segment]; ok {
		return qualifier, segment, 1, nil
	}
	switch {
	case mccPattern.MatchString(segment):
		return types.QualifierMCC, segment, 1, nil
	case mncPattern.MatchString(segment):
		return types.QualifierMNC, segment, 1, nil
	case strings.HasPrefix(segment, "b+"):
		tag := strings.ReplaceAll(strings.TrimPrefix(segment, "b+"), "+", "-")
		if _, err := language.Parse(tag); err != nil {
			return 0, "", 0, invalidQualifier(segment, err)
		}
		return types.QualifierLocale, segment, 1, nil
	case languagePattern.MatchString(segment):
		if _, err := language.ParseBase(segment); err != nil {
			return 0, "", 0, invalidQualifier(segment, err)
		}
		if len(segments) > 1 && regionPattern.MatchString(segments[1]) {
			if _, err := language.ParseRegion(segments[1][1:]); err != nil {
				return 0, "", 0, invalidQualifier(segments[1], err)
			}
			return types.QualifierLocale, segment + "-" + segments[1], 2, nil
		}
		return types.QualifierLocale, segment, 1, nil
	}
	if match := widthPattern.FindStringSubmatch(segment); match != nil {
		switch match[1] {
		case "sw":
			return types.QualifierSmallestWidth, segment, 1, nil
		case "w":
			return types.QualifierScreenWidth, segment, 1, nil
		default:
			return types.QualifierScreenHeight, segment, 1, nil
		}
	}
	if densityPattern.MatchString(segment) {
		return types.QualifierDensity, segment, 1, nil
	}
	if versionPattern.MatchString(segment) {
		return types.QualifierVersion, segment, 1, nil
	}
	return 0, "", 0, invalidQualifier(segment, nil)
}

func invalidQualifier(segment string, cause error) error {
	err := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid folder qualifier %q", segment))
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}

// qualifierNumber extracts the number of a numeric qualifier value: the
// API level of "v21", the dp of "sw600dp", the dpi of "hdpi".
func qualifierNumber(q types.Qualifier, value string) int {
	switch q {
	case types.QualifierVersion:
		if match := versionPattern.FindStringSubmatch(value); match != nil {
			n, _ := strconv.Atoi(match[1])
			return n
		}
	case types.QualifierSmallestWidth, types.QualifierScreenWidth, types.QualifierScreenHeight:
		if match := widthPattern.FindStringSubmatch(value); match != nil {
			n, _ := strconv.Atoi(match[2])
			return n
		}
	case types.QualifierDensity:
		if dpi, ok := namedDensities[value]; ok {
			return dpi
		}
		if match := densityPattern.FindStringSubmatch(value); match != nil {
			n, _ := strconv.Atoi(match[1])
			return n
		}
	case types.QualifierScreenSize:
		return screenSizes[value]
	}
	return 0
}
