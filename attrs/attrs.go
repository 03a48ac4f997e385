// Package attrs wraps an insertion-ordered key/value mapping so values can be
// read and written by attribute name.
package attrs

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrNoSuchAttribute is returned when reading or deleting an absent name.
var ErrNoSuchAttribute = errors.New("no such attribute")

// Pair is one name/value entry, used to seed a new Attrs.
type Pair struct {
	Name  string
	Value any
}

// P builds a Pair.
func P(name string, value any) Pair {
	return Pair{Name: name, Value: value}
}

// Attrs is an ordered mapping with attribute-style access.
// Not safe for concurrent mutation.
type Attrs struct {
	m *orderedmap.OrderedMap[string, any]
}

// New creates an Attrs holding pairs in the given order.
// A repeated name keeps its first position and its last value.
func New(pairs ...Pair) *Attrs {
	a := &Attrs{m: orderedmap.New[string, any](len(pairs))}
	for _, p := range pairs {
		a.m.Set(p.Name, p.Value)
	}
	return a
}

// Get returns the value stored under name.
func (a *Attrs) Get(name string) (any, error) {
	v, ok := a.m.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchAttribute, name)
	}
	return v, nil
}

// Lookup returns the value stored under name and whether it was present.
func (a *Attrs) Lookup(name string) (any, bool) {
	return a.m.Get(name)
}

// String returns the value under name when it is a string.
func (a *Attrs) String(name string) (string, bool) {
	v, ok := a.m.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores value under name. New names are appended; existing names keep
// their position.
func (a *Attrs) Set(name string, value any) {
	a.m.Set(name, value)
}

// Delete removes name.
func (a *Attrs) Delete(name string) error {
	if _, ok := a.m.Delete(name); !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchAttribute, name)
	}
	return nil
}

// Has reports whether name is present.
func (a *Attrs) Has(name string) bool {
	_, ok := a.m.Get(name)
	return ok
}

// Len returns the number of entries.
func (a *Attrs) Len() int {
	return a.m.Len()
}

// Keys returns the names in insertion order.
func (a *Attrs) Keys() []string {
	keys := make([]string, 0, a.m.Len())
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Pairs returns the entries in insertion order.
func (a *Attrs) Pairs() []Pair {
	pairs := make([]Pair, 0, a.m.Len())
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		pairs = append(pairs, Pair{Name: p.Key, Value: p.Value})
	}
	return pairs
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (a *Attrs) MarshalJSON() ([]byte, error) {
	return a.m.MarshalJSON()
}
