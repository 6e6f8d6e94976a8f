package core

import (
	"regexp"
	"sort"
	"strings"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

const (
	themeName    = "Theme"
	themeNameDot = "Theme."
	noStyle      = -1
)

// LegacyTheme passed to SetDeviceDefaults points DeviceDefault styles at the
// plain platform styles (Theme.DeviceDefault.Light → Theme.Light).
const LegacyTheme = ""

var deviceDefaultPattern = regexp.MustCompile(`^([A-Za-z]+)?\.?DeviceDefault\.?(.+)?$`)

// styleArena numbers every style of a resolver and stores inheritance as
// index → index edges. declared holds the edges computed from the style
// definitions; parents holds the edges in effect, which device-default
// patching may redirect.
type styleArena struct {
	values   []*types.ResourceValue
	ids      map[*types.ResourceValue]int
	declared []int
	parents  []int
}

func newStyleArena(resources types.ConfiguredResources, logger ports.ResolverLogPort) *styleArena {
	arena := &styleArena{ids: map[*types.ResourceValue]int{}}
	namespaces := make([]types.ResourceNamespace, 0, len(resources))
	for ns := range resources {
		namespaces = append(namespaces, ns)
	}
	sort.Slice(namespaces, func(i, j int) bool { return namespaces[i] < namespaces[j] })
	for _, ns := range namespaces {
		styles := resources[ns][types.ResourceTypeStyle]
		if styles == nil {
			continue
		}
		styles.Range(func(_ string, value *types.ResourceValue) bool {
			if value.IsStyle() {
				arena.ids[value] = len(arena.values)
				arena.values = append(arena.values, value)
			}
			return true
		})
	}

	arena.declared = make([]int, len(arena.values))
	for id, style := range arena.values {
		arena.declared[id] = noStyle
		parentName, ok := parentNameOf(style)
		if !ok {
			continue
		}
		if parent := lookupParentStyle(resources, style, parentName, logger); parent != nil {
			arena.declared[id] = arena.ids[parent]
		}
	}
	arena.parents = make([]int, len(arena.declared))
	copy(arena.parents, arena.declared)
	return arena
}

// clone shares the immutable style values and copies the edges.
func (a *styleArena) clone() *styleArena {
	out := &styleArena{values: a.values, ids: a.ids, declared: a.declared}
	out.parents = make([]int, len(a.parents))
	copy(out.parents, a.parents)
	return out
}

func (a *styleArena) id(style *types.ResourceValue) (int, bool) {
	id, ok := a.ids[style]
	return id, ok
}

// parent returns the style style inherits from, or nil.
func (a *styleArena) parent(style *types.ResourceValue) *types.ResourceValue {
	id, ok := a.ids[style]
	if !ok || a.parents[id] == noStyle {
		return nil
	}
	return a.values[a.parents[id]]
}

// parentNameOf returns the declared parent, or the dotted-name parent when
// no parent attribute is present. An explicit empty parent means the style
// is a root.
func parentNameOf(style *types.ResourceValue) (string, bool) {
	if style.Style.HasParent {
		return style.Style.Parent, style.Style.Parent != ""
	}
	name := style.Reference.Name
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[:idx], true
	}
	return "", false
}

// lookupParentStyle resolves a parent name of the forms "[ns:]Name",
// "[ns:]style/Name" and "@[ns:]style/Name". Framework styles only inherit
// from framework styles; other styles look in their own namespace first
// and then in the framework.
func lookupParentStyle(resources types.ConfiguredResources, child *types.ResourceValue, parentName string, logger ports.ResolverLogPort) *types.ResourceValue {
	name := strings.TrimPrefix(parentName, types.PrefixResourceRef)
	name = strings.TrimPrefix(name, "*")
	var candidates []types.ResourceNamespace
	if idx := strings.IndexByte(name, ':'); idx >= 0 && !strings.Contains(name[:idx], "/") {
		candidates = []types.ResourceNamespace{types.NamespaceForPackage(name[:idx])}
		name = name[idx+1:]
	} else if child.IsFramework() {
		candidates = []types.ResourceNamespace{types.NamespaceAndroid}
	} else {
		candidates = []types.ResourceNamespace{child.Reference.Namespace, types.NamespaceAndroid}
	}
	if rest, ok := strings.CutPrefix(name, "style/"); ok {
		name = rest
	} else if strings.Contains(name, "/") {
		return nil
	}
	for _, ns := range candidates {
		if value := resources.Get(ns, types.ResourceTypeStyle, name); value != nil && value.IsStyle() {
			return value
		}
	}
	if logger != nil {
		logger.Warning(ports.ResolverTagUnresolved, "Unable to resolve parent style name: "+parentName)
	}
	return nil
}

// setDeviceDefaults points every framework DeviceDefault style at the
// matching style of family. Edges are always rederived from the declared
// ones, so successive calls do not accumulate.
func (a *styleArena) setDeviceDefaults(resources types.ConfiguredResources, family string) {
	styles := resources[types.NamespaceAndroid][types.ResourceTypeStyle]
	if styles == nil {
		return
	}
	styles.Range(func(name string, value *types.ResourceValue) bool {
		match := deviceDefaultPattern.FindStringSubmatch(name)
		if match == nil {
			return true
		}
		from, ok := a.ids[value]
		if !ok {
			return true
		}
		a.parents[from] = a.declared[from]
		target := joinNonEmpty(".", match[1], family, match[2])
		if parent, found := styles.Get(target); found && parent.IsStyle() {
			if to, ok := a.ids[parent]; ok {
				a.parents[from] = to
			}
		}
		return true
	})
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

// cyclicStyleChain renders the parent chain starting at style for
// diagnostics: "A" specifies parent "B" implies parent "A".
func (a *styleArena) cyclicStyleChain(style *types.ResourceValue) string {
	var b strings.Builder
	seen := map[*types.ResourceValue]bool{}
	current := style
	for depth := 0; ; depth++ {
		if depth >= MaxResourceIndirection {
			b.WriteString("...")
			return b.String()
		}
		haveSeen := seen[current]
		seen[current] = true
		b.WriteByte('"')
		if current.IsFramework() {
			b.WriteString("android:")
		}
		b.WriteString(current.Reference.Name)
		b.WriteByte('"')
		if haveSeen {
			return b.String()
		}
		parent := a.parent(current)
		if parent == nil {
			return b.String()
		}
		if current.Style.HasParent {
			b.WriteString(" specifies parent ")
		} else {
			b.WriteString(" implies parent ")
		}
		current = parent
	}
}
