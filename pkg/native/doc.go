// Package native describes the binary contract an installed audio component exposes.
//
// # Overview
//
// The validator never links against a component directly. Everything it knows
// about a component flows through the interfaces in this package:
//
//   - Catalog: resolves an Identity to an installed component and instantiates it
//   - Instance: one live component (lifecycle, keyed properties, render, scheduling)
//   - Listener: a parameter/preset event subscription created from an Instance
//
// Properties are addressed by (PropertyKey, Scope, Element) and carry raw
// bytes laid out as the component ABI expects. The codec in this package
// encodes the structured payloads (stream formats, parameter info, presets,
// layouts, view descriptors) in that layout.
//
// # Status Codes
//
// Every native call returns a Code. Zero means success. Two codes matter to
// the validator beyond "failed": ErrUninitialized (the call needs an
// initialized component) and ErrUnauthorized. CodeVariableSize (-1) is the
// sentinel a component returns when a property has no fixed size.
//
// # Related Packages
//
//   - pkg/property: pass-through accessor over Instance properties
//   - pkg/component: lifecycle wrapper built on top of the accessor
//   - pkg/simulator: in-memory Instance driven by a declarative spec
//   - pkg/catalog: YAML-backed Catalog of simulated components
package native
