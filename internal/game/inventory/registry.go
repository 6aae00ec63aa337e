package inventory

import (
	"errors"
	"fmt"
	"sort"
)

// ErrItemNotFound is returned when an item name is absent from the catalog.
var ErrItemNotFound = errors.New("item not found")

// Registry holds all loaded item definitions indexed by name. It is read-only
// after construction and safe for concurrent use by many trials.
type Registry struct {
	items map[string]*ItemDef
}

// NewRegistry indexes items by name.
//
// Precondition: every item has passed Validate.
// Postcondition: returns an error if two items share a name.
func NewRegistry(items []*ItemDef) (*Registry, error) {
	r := &Registry{items: make(map[string]*ItemDef, len(items))}
	for _, d := range items {
		if _, exists := r.items[d.Name]; exists {
			return nil, fmt.Errorf("inventory: NewRegistry: item %q already registered", d.Name)
		}
		r.items[d.Name] = d
	}
	return r, nil
}

// Item returns the ItemDef for name.
//
// Postcondition: err wraps ErrItemNotFound iff name is not registered.
func (r *Registry) Item(name string) (*ItemDef, error) {
	d, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, name)
	}
	return d, nil
}

// Names returns every registered item name in lexical order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered items.
func (r *Registry) Len() int { return len(r.items) }
