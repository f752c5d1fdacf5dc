// Package simulator provides in-memory audio components that implement
// native.Instance.
//
// A Spec describes what a component exposes (parameters, presets, buses,
// views, layouts, saved state, migration) and how it misbehaves (Faults).
// Every call an Instance receives is appended to its call log so tests can
// assert ordering, such as "the render callback was removed before the
// component was uninitialized".
package simulator

import "github.com/platinummonkey/auval/pkg/native"

// Parameter is one simulated parameter
type Parameter struct {
	ID           native.ParameterID
	Info         native.ParameterInfo
	ValueStrings []string
}

// Translation maps a parameter of a replaced plugin onto this component
type Translation struct {
	From         native.OtherPluginDesc
	OtherParamID uint32
	ParamID      uint32
	Scale        float32
}

// Faults injects failures into an Instance
type Faults struct {
	// InstantiateCode is returned by the catalog instead of an instance
	InstantiateCode native.Code
	// InitializeCode is returned by Initialize
	InitializeCode native.Code
	// Unauthorized makes Initialize fail with ErrUnauthorized
	Unauthorized bool
	// RequireInit lists properties that fail with ErrUninitialized until the
	// component is initialized
	RequireInit []native.PropertyKey
	// PropertyCodes are returned by every info and get call for a property
	PropertyCodes map[native.PropertyKey]native.Code
	// RenderCode is returned by Render
	RenderCode native.Code
	// ScheduleCode is returned by ScheduleParameters
	ScheduleCode native.Code
	// PanicOnRender makes Render panic
	PanicOnRender bool
	// PanicOnInitialize makes Initialize panic
	PanicOnInitialize bool
}

// Spec describes a simulated component
type Spec struct {
	Identity native.Identity
	Name     string
	Version  int32

	InputBuses  uint32
	OutputBuses uint32
	Channels    uint32
	SampleRate  float64
	// BusCountWritable lets hosts change the number of buses
	BusCountWritable bool
	// NamedBuses gives every bus a name
	NamedBuses bool

	Parameters           []Parameter
	Presets              []native.Preset
	LegacyPresetOnly     bool
	SupportedNumChannels []native.ChannelInfo
	LayoutTags           []native.ChannelLayoutTag

	Latency  float64
	TailTime *float64

	Views []native.Identity
	Cocoa *native.CocoaViewInfo

	CanBypass         bool
	UsesHostCallbacks bool

	ClassInfo             native.ClassInfo
	ClassInfoVariableSize bool

	Replaces     []native.OtherPluginDesc
	Translations []Translation

	Faults Faults
}

// Description returns the catalog description of the component
func (s *Spec) Description() native.Description {
	return native.Description{Identity: s.Identity, Name: s.Name, Version: s.Version}
}

func (s *Spec) sampleRate() float64 {
	if s.SampleRate <= 0 {
		return 44100
	}
	return s.SampleRate
}

func (s *Spec) channels() uint32 {
	if s.Channels == 0 {
		return 2
	}
	return s.Channels
}

func (s *Spec) buses(scope native.Scope) uint32 {
	switch scope {
	case native.ScopeGlobal:
		return 1
	case native.ScopeInput:
		if s.Identity.IsGenerator() {
			return 0
		}
		if s.InputBuses == 0 {
			return 1
		}
		return s.InputBuses
	case native.ScopeOutput:
		if s.OutputBuses == 0 {
			return 1
		}
		return s.OutputBuses
	}
	return 0
}

func (s *Spec) parameter(id native.ParameterID) (*Parameter, bool) {
	for i := range s.Parameters {
		if s.Parameters[i].ID == id {
			return &s.Parameters[i], true
		}
	}
	return nil, false
}

func (s *Spec) requiresInit(key native.PropertyKey) bool {
	for _, k := range s.Faults.RequireInit {
		if k == key {
			return true
		}
	}
	return false
}

// DefaultFormat is the canonical 32-bit float non-interleaved format
func DefaultFormat(sampleRate float64, channels uint32) native.StreamFormat {
	return native.StreamFormat{
		SampleRate:       sampleRate,
		FormatID:         native.FormatLinearPCM,
		FormatFlags:      native.FormatFlagsNativeFloatPacked | native.FormatFlagIsNonInterleaved,
		BytesPerPacket:   4,
		FramesPerPacket:  1,
		BytesPerFrame:    4,
		ChannelsPerFrame: channels,
		BitsPerChannel:   32,
	}
}
