package roster

import "sort"

// IdentityRegistry maps normalized staff names to their employment category.
// It is built once per workbook and read-only afterwards.
type IdentityRegistry struct {
	byName map[string]Identity
	order  []string
}

// NewIdentityRegistry returns an empty registry.
func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{byName: make(map[string]Identity)}
}

// Add registers a raw name with a category string. Rows whose name
// normalizes to empty or whose category is unrecognized are dropped; the
// return value reports whether the row was kept.
func (r *IdentityRegistry) Add(rawName, category string) bool {
	name := NormalizeName(rawName)
	if name == "" {
		return false
	}
	id, ok := ParseIdentity(removeSpaces(category))
	if !ok {
		return false
	}
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = id
	return true
}

// Lookup returns the identity for a normalized name, Unknown if absent.
func (r *IdentityRegistry) Lookup(name string) Identity {
	if r == nil {
		return IdentityUnknown
	}
	return r.byName[name]
}

// Contains reports whether name is registered.
func (r *IdentityRegistry) Contains(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[name]
	return ok
}

// Names returns registered names in sheet order.
func (r *IdentityRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Len returns the number of registered names.
func (r *IdentityRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Count returns how many names carry identity id.
func (r *IdentityRegistry) Count(id Identity) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, v := range r.byName {
		if v == id {
			n++
		}
	}
	return n
}

// Categories returns name -> category string, for API previews.
func (r *IdentityRegistry) Categories() map[string]string {
	out := make(map[string]string, r.Len())
	for _, name := range r.Names() {
		out[name] = r.byName[name].Category()
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
