// Package exceptions decides, before any testing, whether a component is
// rejected or accepted outright.
//
// The built-in table covers components that crash the host, that are
// superseded by a version in another plugin format, or that are known to be
// broken up to some version. It is built once and never changes; a Policy
// extended with rules from a YAML file is a new value.
package exceptions

import (
	"fmt"
	"slices"

	"github.com/platinummonkey/auval/pkg/native"
)

// Disposition is what a rule says about the versions of a component
type Disposition int

const (
	// AlwaysValid accepts every version without testing
	AlwaysValid Disposition = iota
	// AlwaysInvalid rejects every version without testing
	AlwaysInvalid
	// InvalidAtOrBelowVersion rejects versions up to and including Rule.Version
	InvalidAtOrBelowVersion
)

var dispositionNames = map[Disposition]string{
	AlwaysValid:             "always-valid",
	AlwaysInvalid:           "always-invalid",
	InvalidAtOrBelowVersion: "invalid-at-or-below",
}

func (d Disposition) String() string {
	if name, ok := dispositionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("disposition(%d)", int(d))
}

func (d Disposition) MarshalText() ([]byte, error) {
	name, ok := dispositionNames[d]
	if !ok {
		return nil, fmt.Errorf("unknown disposition %d", int(d))
	}
	return []byte(name), nil
}

func (d *Disposition) UnmarshalText(text []byte) error {
	for k, name := range dispositionNames {
		if name == string(text) {
			*d = k
			return nil
		}
	}
	return fmt.Errorf("unknown disposition %q", text)
}

// Rule is one exception table entry
type Rule struct {
	Identity native.Identity `yaml:",inline"`

	Disposition Disposition `yaml:"disposition"`
	// Version is the highest rejected version for InvalidAtOrBelowVersion
	Version int32  `yaml:"version,omitempty"`
	Reason  string `yaml:"reason,omitempty"`
	// DuplicateFormat marks an AlwaysInvalid component that is superseded by
	// another delivery mechanism rather than broken
	DuplicateFormat bool `yaml:"duplicate_format,omitempty"`
}

// Verdict is the outcome of classification
type Verdict int

const (
	NotListed Verdict = iota
	Whitelisted
	Blacklisted
)

func (v Verdict) String() string {
	switch v {
	case Whitelisted:
		return "whitelisted"
	case Blacklisted:
		return "blacklisted"
	default:
		return "not-listed"
	}
}

// Decision is the classification of one component version
type Decision struct {
	Verdict         Verdict
	Reason          string
	DuplicateFormat bool
}

// Policy is an immutable exception table
type Policy struct {
	rules map[native.Identity]Rule
}

// New builds a policy. Two rules for the same identity are an error.
func New(rules []Rule) (*Policy, error) {
	p := &Policy{rules: make(map[native.Identity]Rule, len(rules))}
	for _, r := range rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := p.rules[r.Identity]; dup {
			return nil, fmt.Errorf("duplicate exception rule for %s", r.Identity)
		}
		p.rules[r.Identity] = r
	}
	return p, nil
}

func (r Rule) validate() error {
	if _, ok := dispositionNames[r.Disposition]; !ok {
		return fmt.Errorf("exception rule for %s: %s", r.Identity, r.Disposition)
	}
	if r.DuplicateFormat && r.Disposition != AlwaysInvalid {
		return fmt.Errorf("exception rule for %s: duplicate_format requires %s", r.Identity, AlwaysInvalid)
	}
	return nil
}

// Extend returns a policy with extra rules added. An extra rule replaces a
// rule of p for the same identity; duplicates within extra are an error.
func (p *Policy) Extend(extra []Rule) (*Policy, error) {
	added, err := New(extra)
	if err != nil {
		return nil, err
	}
	out := &Policy{rules: make(map[native.Identity]Rule, len(p.rules)+len(added.rules))}
	for id, r := range p.rules {
		out.rules[id] = r
	}
	for id, r := range added.rules {
		out.rules[id] = r
	}
	return out, nil
}

// Lookup returns the rule for id
func (p *Policy) Lookup(id native.Identity) (Rule, bool) {
	r, ok := p.rules[id]
	return r, ok
}

// Rules returns every rule in identity order
func (p *Policy) Rules() []Rule {
	out := make([]Rule, 0, len(p.rules))
	for _, r := range p.rules {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Rule) int { return a.Identity.Compare(b.Identity) })
	return out
}

// Len is the number of rules
func (p *Policy) Len() int {
	return len(p.rules)
}

// Classify decides what to do with version of id. It never loads the
// component.
func (p *Policy) Classify(id native.Identity, version int32) Decision {
	r, ok := p.rules[id]
	if !ok {
		return Decision{Verdict: NotListed}
	}

	// -1 is the version of internal Apple debug builds
	exempt := id.Manufacturer == native.ManufacturerApple && version == -1

	switch r.Disposition {
	case AlwaysValid:
		return Decision{Verdict: Whitelisted, Reason: r.Reason}
	case AlwaysInvalid:
		if !exempt {
			return Decision{Verdict: Blacklisted, Reason: r.Reason, DuplicateFormat: r.DuplicateFormat}
		}
	case InvalidAtOrBelowVersion:
		if !exempt && version <= r.Version {
			return Decision{Verdict: Blacklisted, Reason: r.Reason}
		}
	}
	return Decision{Verdict: NotListed}
}
