package simulator

import (
	"slices"
	"sync"

	"github.com/platinummonkey/auval/pkg/native"
)

// Catalog is a native.Catalog over a fixed set of specs. It keeps every
// instance it creates so tests can inspect them afterwards.
type Catalog struct {
	mu        sync.Mutex
	specs     map[native.Identity]*Spec
	instances map[native.Identity][]*Instance
}

// NewCatalog creates a catalog of specs. A later spec with the same
// identity replaces an earlier one.
func NewCatalog(specs ...*Spec) *Catalog {
	c := &Catalog{
		specs:     make(map[native.Identity]*Spec, len(specs)),
		instances: map[native.Identity][]*Instance{},
	}
	for _, s := range specs {
		c.specs[s.Identity] = s
	}
	return c
}

// Add registers spec
func (c *Catalog) Add(spec *Spec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs[spec.Identity] = spec
}

func (c *Catalog) Find(id native.Identity) (native.Description, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.specs[id]
	if !ok {
		return native.Description{}, false
	}
	return s.Description(), true
}

func (c *Catalog) Instantiate(id native.Identity) (native.Instance, native.Code) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.specs[id]
	if !ok {
		return nil, native.ErrInvalidProperty
	}
	if s.Faults.InstantiateCode != native.NoErr {
		return nil, s.Faults.InstantiateCode
	}
	inst := New(s)
	c.instances[id] = append(c.instances[id], inst)
	return inst, native.NoErr
}

func (c *Catalog) List(typ native.OSType) []native.Description {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []native.Description
	for id, s := range c.specs {
		if id.Type == typ {
			out = append(out, s.Description())
		}
	}
	slices.SortFunc(out, func(a, b native.Description) int {
		return a.Identity.Compare(b.Identity)
	})
	return out
}

// Instances returns the instances created for id, oldest first
func (c *Catalog) Instances(id native.Identity) []*Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Instance(nil), c.instances[id]...)
}
