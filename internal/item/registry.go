package item

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Details captures static metadata about an item kind.
type Details struct {
	Group     int    `yaml:"group" json:"group"`
	Index     int    `yaml:"index" json:"index"`
	Name      string `yaml:"name" json:"name,omitempty"`
	Width     int    `yaml:"width" json:"width,omitempty"`
	Height    int    `yaml:"height" json:"height,omitempty"`
	Stackable bool   `yaml:"stackable" json:"stackable,omitempty"` // durability holds the stack size
	Wing      bool   `yaml:"wing" json:"wing,omitempty"`
	Jewel     bool   `yaml:"jewel" json:"jewel,omitempty"`
	// MixValue overrides the item's base value inside mix rate formulas.
	MixValue uint64 `yaml:"mix_value" json:"mix_value,omitempty"`
}

// Type returns the type code of the described item.
func (d Details) Type() Type { return MakeType(d.Group, d.Index) }

type registryFile struct {
	Items []Details `yaml:"items"`
}

// Registry stores item details keyed by type code. A nil Registry is valid
// and answers every lookup negatively.
type Registry struct {
	mu    sync.RWMutex
	items map[Type]Details
}

// NewRegistry constructs a registry seeded with the given details.
func NewRegistry(details ...Details) *Registry {
	r := &Registry{items: make(map[Type]Details, len(details))}
	for _, d := range details {
		_ = r.Register(d) // ignore invalid entries during seed
	}
	return r
}

// LoadRegistry reads item details from a YAML file. A missing file yields an
// empty registry so that dependent lookups degrade instead of failing.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("read item registry: %w", err)
	}
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item registry: %w", err)
	}
	r := NewRegistry()
	for i, d := range f.Items {
		if err := r.Register(d); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return r, nil
}

// Register inserts or replaces the details for an item kind.
func (r *Registry) Register(d Details) error {
	if !(Item{Group: d.Group, Index: d.Index}).Valid() {
		return fmt.Errorf("invalid item type %d/%d", d.Group, d.Index)
	}
	if d.Width < 0 || d.Height < 0 {
		return errors.New("item size cannot be negative")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = make(map[Type]Details)
	}
	r.items[d.Type()] = d
	return nil
}

// Lookup returns details for the given type, if present.
func (r *Registry) Lookup(t Type) (Details, bool) {
	if r == nil {
		return Details{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[t]
	return d, ok
}

// IsWing reports whether the type is a wing. Unknown types are not wings.
func (r *Registry) IsWing(t Type) bool {
	d, ok := r.Lookup(t)
	return ok && d.Wing
}

// IsJewel reports whether the type is a jewel.
func (r *Registry) IsJewel(t Type) bool {
	d, ok := r.Lookup(t)
	return ok && d.Jewel
}

// IsStackable reports whether the item's durability is a stack count.
func (r *Registry) IsStackable(t Type) bool {
	d, ok := r.Lookup(t)
	return ok && d.Stackable
}

// MixValue returns the mix value override for the type, if one is configured.
func (r *Registry) MixValue(t Type) (uint64, bool) {
	d, ok := r.Lookup(t)
	if !ok || d.MixValue == 0 {
		return 0, false
	}
	return d.MixValue, true
}

// Size returns the grid footprint for the type, defaulting to 1x1.
func (r *Registry) Size(t Type) (width, height int) {
	d, ok := r.Lookup(t)
	if !ok {
		return 1, 1
	}
	width, height = d.Width, d.Height
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return width, height
}

// Len returns the number of registered item kinds.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Export copies registry contents into a slice sorted by type code.
func (r *Registry) Export() []Details {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.items) == 0 {
		return nil
	}
	out := make([]Details, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Type() < out[j].Type()
	})
	return out
}
