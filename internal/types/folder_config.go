package types

import "strings"

// Qualifier is one dimension of a FolderConfiguration, declared in the
// precedence order used for best-match selection.
type Qualifier int

const (
	QualifierMCC Qualifier = iota
	QualifierMNC
	QualifierLocale
	QualifierLayoutDirection
	QualifierSmallestWidth
	QualifierScreenWidth
	QualifierScreenHeight
	QualifierScreenSize
	QualifierScreenRatio
	QualifierScreenRound
	QualifierWideColorGamut
	QualifierHighDynamicRange
	QualifierOrientation
	QualifierUIMode
	QualifierNightMode
	QualifierDensity
	QualifierTouchscreen
	QualifierKeyboard
	QualifierTextInput
	QualifierNavigationState
	QualifierNavigation
	QualifierVersion

	QualifierCount
)

var qualifierNames = [QualifierCount]string{
	"mcc", "mnc", "locale", "layout-direction", "smallest-width", "screen-width",
	"screen-height", "screen-size", "screen-ratio", "screen-round", "wide-color-gamut",
	"hdr", "orientation", "ui-mode", "night-mode", "density", "touchscreen",
	"keyboard", "text-input", "navigation-state", "navigation", "version",
}

func (q Qualifier) String() string {
	if q < 0 || q >= QualifierCount {
		return "unknown"
	}
	return qualifierNames[q]
}

// FolderConfiguration is the ordered qualifier tuple a resource variant is
// restricted to. The zero value is the default configuration.
type FolderConfiguration struct {
	values [QualifierCount]string
}

func (c FolderConfiguration) Get(q Qualifier) string {
	return c.values[q]
}

// With returns a copy of the configuration with q set to value.
func (c FolderConfiguration) With(q Qualifier, value string) FolderConfiguration {
	c.values[q] = value
	return c
}

func (c FolderConfiguration) IsDefault() bool {
	for _, v := range c.values {
		if v != "" {
			return false
		}
	}
	return true
}

// QualifierString joins the set qualifiers in precedence order, the form
// used in folder names ("en-rUS-land-hdpi-v21").
func (c FolderConfiguration) QualifierString() string {
	parts := make([]string, 0, 4)
	for _, v := range c.values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "-")
}

// FolderName returns the resource folder name for the given folder type.
func (c FolderConfiguration) FolderName(folderType string) string {
	qualifiers := c.QualifierString()
	if qualifiers == "" {
		return folderType
	}
	return folderType + "-" + qualifiers
}

func (c FolderConfiguration) String() string {
	if c.IsDefault() {
		return "default"
	}
	return c.QualifierString()
}
