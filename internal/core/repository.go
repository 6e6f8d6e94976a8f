package core

import (
	"sync"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// ResourceVisitor is called for every item during Repository.Accept.
type ResourceVisitor func(item *types.ResourceItem) types.VisitResult

// TableSource produces a merged resource table. *Merger implements it.
type TableSource interface {
	Table() *types.ResourceTable
}

// Repository serves one merged ResourceTable snapshot.
//
// Every access to the table happens under mu. Lock order: mu is a leaf
// lock. Callers may hold their own locks while calling into the
// repository, but the matcher and visitors run with mu held and must not
// call back into the repository or wait on a lock whose holder may be
// calling the repository.
type Repository struct {
	mu      sync.Mutex
	table   *types.ResourceTable
	matcher ports.QualifierMatcherPort
}

func NewRepository(matcher ports.QualifierMatcherPort) *Repository {
	return &Repository{table: types.NewResourceTable(), matcher: matcher}
}

// Update replaces the served snapshot with the source's current table. The
// table is built before the lock is taken.
func (r *Repository) Update(source TableSource) {
	r.Replace(source.Table())
}

func (r *Repository) Replace(table *types.ResourceTable) {
	if table == nil {
		table = types.NewResourceTable()
	}
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
}

// WithTable runs fn with the lock held. The table and everything reachable
// from it must not be retained after fn returns.
func (r *Repository) WithTable(fn func(table *types.ResourceTable)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.table)
}

// ResourceItems returns every variant of a resource, all configurations.
func (r *Repository) ResourceItems(namespace types.ResourceNamespace, resType types.ResourceType, name string) []*types.ResourceItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.table.Items(namespace, resType, name)
	out := make([]*types.ResourceItem, len(items))
	copy(out, items)
	return out
}

// ResourceItemsMatching returns the variants of every resource of a type
// whose item satisfies filter.
func (r *Repository) ResourceItemsMatching(namespace types.ResourceNamespace, resType types.ResourceType, filter func(item *types.ResourceItem) bool) []*types.ResourceItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := r.table.Names(namespace, resType)
	if names == nil {
		return nil
	}
	var out []*types.ResourceItem
	names.Range(func(_ string, items []*types.ResourceItem) bool {
		for _, item := range items {
			if filter(item) {
				out = append(out, item)
			}
		}
		return true
	})
	return out
}

func (r *Repository) HasResourceItem(namespace types.ResourceNamespace, resType types.ResourceType, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.table.Items(namespace, resType, name)) > 0
}

// HasResourceItemURL checks a reference string such as "@string/title",
// "?android:attr/textColor" or "@+id/button". Malformed references report
// false.
//
// Deprecated: use HasResourceItem with an explicit namespace.
func (r *Repository) HasResourceItemURL(url string) bool {
	parsed, ok := types.ParseResourceURL(url)
	if !ok {
		return false
	}
	return r.HasResourceItem(parsed.Namespace(types.NamespaceResAuto), parsed.Type, parsed.Name)
}

func (r *Repository) HasResourcesOfType(namespace types.ResourceNamespace, resType types.ResourceType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := r.table.Names(namespace, resType)
	return names != nil && names.Len() > 0
}

func (r *Repository) AvailableResourceTypes(namespace types.ResourceNamespace) []types.ResourceType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Types(namespace)
}

func (r *Repository) Namespaces() []types.ResourceNamespace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Namespaces()
}

// ConfiguredResources returns the best-matching value of every resource for
// target. Resources with no admissible variant are omitted.
func (r *Repository) ConfiguredResources(target types.FolderConfiguration) types.ConfiguredResources {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := types.ConfiguredResources{}
	for _, ns := range r.table.Namespaces() {
		for _, resType := range r.table.Types(ns) {
			r.configureLocked(out, ns, resType, target)
		}
	}
	return out
}

// ConfiguredResourcesOf restricts ConfiguredResources to one namespace.
func (r *Repository) ConfiguredResourcesOf(namespace types.ResourceNamespace, target types.FolderConfiguration) map[types.ResourceType]*types.ResourceValueMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := types.ConfiguredResources{}
	for _, resType := range r.table.Types(namespace) {
		r.configureLocked(out, namespace, resType, target)
	}
	if byType, ok := out[namespace]; ok {
		return byType
	}
	return map[types.ResourceType]*types.ResourceValueMap{}
}

// ConfiguredResourcesOfType restricts ConfiguredResources to one namespace
// and type.
func (r *Repository) ConfiguredResourcesOfType(namespace types.ResourceNamespace, resType types.ResourceType, target types.FolderConfiguration) *types.ResourceValueMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := types.ConfiguredResources{}
	r.configureLocked(out, namespace, resType, target)
	if names := out[namespace][resType]; names != nil {
		return names
	}
	return types.NewResourceValueMap()
}

func (r *Repository) configureLocked(out types.ConfiguredResources, namespace types.ResourceNamespace, resType types.ResourceType, target types.FolderConfiguration) {
	names := r.table.Names(namespace, resType)
	if names == nil {
		return
	}
	names.Range(func(name string, items []*types.ResourceItem) bool {
		best := r.bestMatch(target, items)
		if best == nil {
			return true
		}
		byType, ok := out[namespace]
		if !ok {
			byType = map[types.ResourceType]*types.ResourceValueMap{}
			out[namespace] = byType
		}
		values, ok := byType[resType]
		if !ok {
			values = types.NewResourceValueMap()
			byType[resType] = values
		}
		values.Put(name, best.ResourceValue())
		return true
	})
}

func (r *Repository) bestMatch(target types.FolderConfiguration, items []*types.ResourceItem) *types.ResourceItem {
	if r.matcher != nil {
		return r.matcher.BestMatch(target, items)
	}
	for _, item := range items {
		if item.Config.IsDefault() {
			return item
		}
	}
	return nil
}

// Accept walks every item in namespace, type and name order until the
// visitor aborts. It reports whether the walk ran to completion.
func (r *Repository) Accept(visitor ResourceVisitor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ns := range r.table.Namespaces() {
		for _, resType := range r.table.Types(ns) {
			aborted := false
			r.table.Names(ns, resType).Range(func(_ string, items []*types.ResourceItem) bool {
				for _, item := range items {
					if visitor(item) == types.VisitAbort {
						aborted = true
						return false
					}
				}
				return true
			})
			if aborted {
				return false
			}
		}
	}
	return true
}
