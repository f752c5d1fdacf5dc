// Package component wraps one live audio component instance.
//
// # Overview
//
// A Handle owns exactly one native.Instance and tracks whether it is
// initialized. Initialize is only valid from the uninitialized state and
// Uninitialize only from the initialized state; misuse returns an
// auerr.KindPrecondition error without calling into the component.
//
// On every transition into the initialized state the handle checks for a
// non-empty global parameter list. When there is one it creates a listener
// that forwards value changes, gestures and preset selections to registered
// Observers. The listener is disposed before the component is uninitialized
// and before it is closed.
//
// # Domain Operations
//
// Everything else on Handle is a forwarder over pkg/property with a fixed
// property key and scope: stream formats, parameters, presets, buses,
// channel layouts, view descriptors, bypass, render callbacks, parameter
// scheduling, rendering, host callbacks, saved state and migration.
//
// Property-info queries treat "not present" as an empty result. The one
// failure they never hide is auerr.KindUninitialized, which the validator
// recovers from by re-opening the component initialized.
//
// # Usage
//
//	h, err := component.Open(catalog, id, component.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer h.Close()
//
//	if err := h.Initialize(); err != nil {
//		return err
//	}
//	format, err := h.StreamFormat(native.ScopeOutput, 0)
package component
