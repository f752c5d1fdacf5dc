// Package property is a pass-through accessor over a component's keyed
// property space. It does not retry, cache or interpret payloads; it only
// turns native status codes into *auerr.Error values.
package property

import (
	"fmt"

	"github.com/platinummonkey/auval/pkg/auerr"
	"github.com/platinummonkey/auval/pkg/native"
)

// Info is the size and writability of a present property
type Info struct {
	Size     uint32
	Writable bool
}

// Accessor reads and writes properties of one instance
type Accessor struct {
	inst native.Instance
}

// New creates an accessor over inst
func New(inst native.Instance) *Accessor {
	return &Accessor{inst: inst}
}

// Instance returns the wrapped instance
func (a *Accessor) Instance() native.Instance {
	return a.inst
}

func op(name string, key native.PropertyKey, scope native.Scope, elem native.Element) string {
	return fmt.Sprintf("%s(%s, %s, %d)", name, key, scope, elem)
}

// QueryInfo reports whether a property is present. A property reported with
// zero size is treated as absent. Any failure code is returned as an error,
// so callers can tell "absent" from "needs initialization".
func (a *Accessor) QueryInfo(key native.PropertyKey, scope native.Scope, elem native.Element) (Info, bool, error) {
	size, writable, code := a.inst.GetPropertyInfo(key, scope, elem)
	if code != native.NoErr {
		return Info{}, false, auerr.FromCode(op("GetPropertyInfo", key, scope, elem), code)
	}
	if size == 0 {
		return Info{Writable: writable}, false, nil
	}
	return Info{Size: size, Writable: writable}, true, nil
}

// Get reads a property into a buffer of expectedSize bytes
func (a *Accessor) Get(key native.PropertyKey, scope native.Scope, elem native.Element, expectedSize uint32) ([]byte, error) {
	return a.Exchange(key, scope, elem, make([]byte, expectedSize))
}

// Exchange reads a property that is filled in place from the caller's buffer
func (a *Accessor) Exchange(key native.PropertyKey, scope native.Scope, elem native.Element, in []byte) ([]byte, error) {
	data, code := a.inst.GetProperty(key, scope, elem, in)
	if err := auerr.FromCode(op("GetProperty", key, scope, elem), code); err != nil {
		return nil, err
	}
	return data, nil
}

// Set writes a property
func (a *Accessor) Set(key native.PropertyKey, scope native.Scope, elem native.Element, data []byte) error {
	return auerr.FromCode(op("SetProperty", key, scope, elem), a.inst.SetProperty(key, scope, elem, data))
}

// SetCallback installs or, when cb is nil, removes a callback-valued property
func (a *Accessor) SetCallback(key native.PropertyKey, scope native.Scope, elem native.Element, cb native.Callback) error {
	return auerr.FromCode(op("SetCallbackProperty", key, scope, elem), a.inst.SetCallbackProperty(key, scope, elem, cb))
}
