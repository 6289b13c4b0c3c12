// Package dict holds the attribute dictionary: the set of known attribute
// definitions and their declared types. The condition evaluator consults
// declared types when normalizing operands, so every attribute referenced by
// a condition tree must be registered here before parsing.
package dict

import (
	"fmt"
	"sync"

	"mercator-hq/janus/pkg/radius/value"
)

// Attribute is a single dictionary entry.
type Attribute struct {
	// Name is the attribute name as written in policies (e.g. "User-Name").
	Name string

	// Number is the attribute number on the wire.
	Number uint32

	// Type is the declared data type of the attribute's values.
	Type value.Type
}

// Dictionary is a registry of attribute definitions. Registration happens at
// startup; lookups are safe for concurrent use.
type Dictionary struct {
	mu       sync.RWMutex
	byName   map[string]*Attribute
	byNumber map[uint32]*Attribute
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{
		byName:   make(map[string]*Attribute),
		byNumber: make(map[uint32]*Attribute),
	}
}

// Register adds an attribute definition. Registering a name twice is an
// error; attribute numbers may repeat only if zero (unnumbered internal
// attributes).
func (d *Dictionary) Register(a *Attribute) error {
	if a.Name == "" {
		return fmt.Errorf("attribute name cannot be empty")
	}
	if a.Type == value.TypeInvalid {
		return fmt.Errorf("attribute %q has no declared type", a.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byName[a.Name]; ok {
		return fmt.Errorf("attribute %q already registered", a.Name)
	}
	if a.Number != 0 {
		if other, ok := d.byNumber[a.Number]; ok {
			return fmt.Errorf("attribute number %d already registered as %q", a.Number, other.Name)
		}
		d.byNumber[a.Number] = a
	}
	d.byName[a.Name] = a
	return nil
}

// MustRegister is Register that panics on error, for static dictionaries.
func (d *Dictionary) MustRegister(a *Attribute) {
	if err := d.Register(a); err != nil {
		panic(err)
	}
}

// Lookup returns the attribute with the given name, or nil.
func (d *Dictionary) Lookup(name string) *Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byName[name]
}

// LookupNumber returns the attribute with the given number, or nil.
func (d *Dictionary) LookupNumber(n uint32) *Attribute {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byNumber[n]
}

// Len returns the number of registered attributes.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byName)
}
