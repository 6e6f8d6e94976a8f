package types

import (
	"strings"
	"unicode"
)

const (
	PrefixResourceRef = "@"
	PrefixThemeRef    = "?"
	PrefixCreate      = "+"
)

// ResourceReference identifies a resource independent of configuration and
// content.
type ResourceReference struct {
	Namespace ResourceNamespace `yaml:"namespace" cbor:"1,keyasint"`
	Type      ResourceType      `yaml:"type" cbor:"2,keyasint"`
	Name      string            `yaml:"name" cbor:"3,keyasint"`
}

func (r ResourceReference) IsFramework() bool {
	return r.Namespace.IsFramework()
}

// String renders the reference in "@[ns:]type/name" form. The app namespace
// is left implicit.
func (r ResourceReference) String() string {
	var b strings.Builder
	b.WriteString(PrefixResourceRef)
	if r.Namespace != "" && r.Namespace != NamespaceResAuto {
		b.WriteString(string(r.Namespace))
		b.WriteByte(':')
	}
	b.WriteString(string(r.Type))
	b.WriteByte('/')
	b.WriteString(r.Name)
	return b.String()
}

// FlattenName folds the characters AAPT treats as equivalent in resource
// names. Only used for lookup keys.
func FlattenName(name string) string {
	if !strings.ContainsAny(name, ".-:") {
		return name
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', ':':
			return '_'
		default:
			return r
		}
	}, name)
}

// ResourceURL is a parsed reference string such as "@android:color/white",
// "?attr/colorPrimary" or "@+id/title".
type ResourceURL struct {
	Package string
	Type    ResourceType
	Name    string
	Theme   bool
	Create  bool
	Private bool
}

// ParseResourceURL parses a reference string. ok is false for literals,
// "@null", "@empty" and malformed references.
func ParseResourceURL(value string) (ResourceURL, bool) {
	value = strings.TrimSpace(value)
	if len(value) < 2 {
		return ResourceURL{}, false
	}
	url := ResourceURL{}
	switch value[0] {
	case '@':
	case '?':
		url.Theme = true
	default:
		return ResourceURL{}, false
	}
	rest := value[1:]
	if strings.HasPrefix(rest, PrefixCreate) {
		if url.Theme {
			return ResourceURL{}, false
		}
		url.Create = true
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "*") {
		url.Private = true
		rest = rest[1:]
	}

	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		if !url.Theme {
			return ResourceURL{}, false
		}
		url.Type = ResourceTypeAttr
		url.Package, url.Name = splitPackage(rest)
	} else {
		typePart := rest[:slash]
		url.Name = rest[slash+1:]
		url.Package, typePart = splitPackage(typePart)
		parsed, ok := ParseResourceType(typePart)
		if !ok {
			return ResourceURL{}, false
		}
		url.Type = parsed
	}
	if !validResourceName(url.Name) {
		return ResourceURL{}, false
	}
	if url.Create && url.Type != ResourceTypeID {
		return ResourceURL{}, false
	}
	if url.Theme && url.Type != ResourceTypeAttr {
		return ResourceURL{}, false
	}
	return url, true
}

func splitPackage(value string) (string, string) {
	if idx := strings.IndexByte(value, ':'); idx >= 0 {
		return value[:idx], value[idx+1:]
	}
	return "", value
}

func validResourceName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || r == '/' {
			return false
		}
	}
	return true
}

func (u ResourceURL) IsFramework() bool {
	return u.Package == "android"
}

// IsAapt reports whether the URL names a synthetic aapt resource.
func (u ResourceURL) IsAapt() bool {
	return u.Type == ResourceTypeAapt || u.Package == string(NamespaceAapt)
}

// Namespace resolves the URL package against the namespace of the value that
// contains the reference.
func (u ResourceURL) Namespace(context ResourceNamespace) ResourceNamespace {
	if ns := NamespaceForPackage(u.Package); ns != "" {
		return ns
	}
	if context == "" {
		return NamespaceResAuto
	}
	return context
}

// WithFramework returns a copy of the URL qualified with the android package.
func (u ResourceURL) WithFramework() ResourceURL {
	u.Package = "android"
	return u
}

func (u ResourceURL) String() string {
	var b strings.Builder
	if u.Theme {
		b.WriteString(PrefixThemeRef)
	} else {
		b.WriteString(PrefixResourceRef)
	}
	if u.Create {
		b.WriteString(PrefixCreate)
	}
	if u.Private {
		b.WriteByte('*')
	}
	if u.Package != "" {
		b.WriteString(u.Package)
		b.WriteByte(':')
	}
	b.WriteString(string(u.Type))
	b.WriteByte('/')
	b.WriteString(u.Name)
	return b.String()
}
