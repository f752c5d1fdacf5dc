package simulator

import (
	"fmt"
	"sync"

	"github.com/platinummonkey/auval/pkg/native"
)

const defaultMaxFrames = 1156

type busKey struct {
	scope native.Scope
	bus   native.Element
}

// Instance is a live simulated component
type Instance struct {
	spec *Spec

	mu          sync.Mutex
	initialized bool
	closed      bool
	calls       []string

	formats     map[busKey]native.StreamFormat
	layouts     map[busKey]native.ChannelLayout
	busCounts   map[native.Scope]uint32
	values      map[native.ParameterID]float32
	preset      native.Preset
	classInfo   native.ClassInfo
	maxFrames   uint32
	offline     bool
	bypassed    bool
	host        native.HostIdentifier
	renderCBs   map[native.Element]native.RenderCallback
	hostCBs     *native.HostCallbacks
	listeners   []*listener
	scheduled   []native.ParameterEvent
	renders     int
	resets      int
	inputPulls  int
	hostQueries int
}

// New creates an uninitialized instance of spec
func New(spec *Spec) *Instance {
	inst := &Instance{
		spec:      spec,
		formats:   map[busKey]native.StreamFormat{},
		layouts:   map[busKey]native.ChannelLayout{},
		busCounts: map[native.Scope]uint32{},
		values:    map[native.ParameterID]float32{},
		renderCBs: map[native.Element]native.RenderCallback{},
		classInfo: spec.ClassInfo,
		maxFrames: defaultMaxFrames,
		preset:    native.Preset{Number: -1, Name: "Untitled"},
	}
	for _, scope := range []native.Scope{native.ScopeInput, native.ScopeOutput} {
		n := spec.buses(scope)
		inst.busCounts[scope] = n
		for b := uint32(0); b < n; b++ {
			inst.formats[busKey{scope, native.Element(b)}] = DefaultFormat(spec.sampleRate(), spec.channels())
		}
	}
	for _, p := range spec.Parameters {
		inst.values[p.ID] = p.Info.DefaultValue
	}
	if len(spec.Presets) > 0 {
		inst.preset = spec.Presets[0]
	}
	return inst
}

func (i *Instance) record(format string, args ...any) {
	i.calls = append(i.calls, fmt.Sprintf(format, args...))
}

// Calls returns the call log in order
func (i *Instance) Calls() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.calls))
	copy(out, i.calls)
	return out
}

// Initialized reports whether the instance is initialized
func (i *Instance) Initialized() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.initialized
}

// Closed reports whether Close was called
func (i *Instance) Closed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed
}

// RenderCount is the number of successful render calls
func (i *Instance) RenderCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.renders
}

// InputPulls is the number of times the input render callback was called
func (i *Instance) InputPulls() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.inputPulls
}

// HostQueries is the number of host callback invocations made while rendering
func (i *Instance) HostQueries() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hostQueries
}

// Scheduled returns the parameter events accepted so far
func (i *Instance) Scheduled() []native.ParameterEvent {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]native.ParameterEvent(nil), i.scheduled...)
}

// HasRenderCallback reports whether an input callback is installed on bus
func (i *Instance) HasRenderCallback(bus native.Element) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.renderCBs[bus] != nil
}

// HasHostCallbacks reports whether host callbacks are installed
func (i *Instance) HasHostCallbacks() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.hostCBs != nil
}

// ActiveListeners is the number of listeners not yet disposed
func (i *Instance) ActiveListeners() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, l := range i.listeners {
		if !l.disposed {
			n++
		}
	}
	return n
}

// Host returns the last host identifier set
func (i *Instance) Host() native.HostIdentifier {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.host
}

func (i *Instance) Initialize() native.Code {
	i.mu.Lock()
	i.record("Initialize")
	f := i.spec.Faults
	if f.PanicOnInitialize {
		i.mu.Unlock()
		panic("simulated crash in Initialize")
	}
	defer i.mu.Unlock()

	switch {
	case i.closed:
		return native.ErrCannotDoInCurrentContext
	case f.Unauthorized:
		return native.ErrUnauthorized
	case f.InitializeCode != native.NoErr:
		return f.InitializeCode
	}
	i.initialized = true
	return native.NoErr
}

func (i *Instance) Uninitialize() native.Code {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("Uninitialize")
	i.initialized = false
	return native.NoErr
}

func (i *Instance) Version() int32 {
	return i.spec.Version
}

func (i *Instance) Close() native.Code {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("Close")
	i.closed = true
	return native.NoErr
}

func (i *Instance) Reset(scope native.Scope, elem native.Element) native.Code {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("Reset")
	i.resets++
	return native.NoErr
}

func (i *Instance) GetParameter(id native.ParameterID, scope native.Scope, elem native.Element) (float32, native.Code) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.values[id]
	if !ok || scope != native.ScopeGlobal {
		return 0, native.ErrInvalidParameter
	}
	return v, native.NoErr
}

func (i *Instance) SetParameter(id native.ParameterID, scope native.Scope, elem native.Element, value float32, offset uint32) native.Code {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("SetParameter(%d)", id)
	if _, ok := i.values[id]; !ok || scope != native.ScopeGlobal {
		return native.ErrInvalidParameter
	}
	i.values[id] = value
	return native.NoErr
}

func (i *Instance) ScheduleParameters(events []native.ParameterEvent) native.Code {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("ScheduleParameters")
	if i.spec.Faults.ScheduleCode != native.NoErr {
		return i.spec.Faults.ScheduleCode
	}
	for _, ev := range events {
		p, ok := i.spec.parameter(ev.Parameter)
		if !ok {
			return native.ErrInvalidParameter
		}
		if ev.Kind == native.ParameterEventRamped && !p.Info.CanRamp() {
			return native.ErrInvalidParameter
		}
	}
	i.scheduled = append(i.scheduled, events...)
	return native.NoErr
}

// Render pulls input through the installed callback, queries host
// callbacks and writes silence into buffers
func (i *Instance) Render(flags *native.RenderFlags, ts native.TimeStamp, bus uint32, frames uint32, buffers *native.BufferList) native.Code {
	i.mu.Lock()
	i.record("Render(%d)", frames)
	f := i.spec.Faults
	if f.PanicOnRender {
		i.mu.Unlock()
		panic("simulated crash in Render")
	}
	switch {
	case !i.initialized:
		i.mu.Unlock()
		return native.ErrUninitialized
	case f.RenderCode != native.NoErr:
		i.mu.Unlock()
		return f.RenderCode
	case frames > i.maxFrames:
		i.mu.Unlock()
		return native.ErrTooManyFramesToProcess
	case buffers == nil:
		i.mu.Unlock()
		return native.ErrNoConnection
	}
	for _, b := range buffers.Buffers {
		if uint32(len(b.Data)) < frames {
			i.mu.Unlock()
			return native.ErrTooManyFramesToProcess
		}
	}
	input := i.renderCBs[0]
	host := i.hostCBs
	inChannels := i.formats[busKey{native.ScopeInput, 0}].ChannelsPerFrame
	i.mu.Unlock()

	// callbacks run unlocked so they may call back into the instance
	if host != nil {
		queries := 0
		if host.BeatAndTempo != nil {
			host.BeatAndTempo()
			queries++
		}
		if host.MusicalTimeLocation != nil {
			host.MusicalTimeLocation()
			queries++
		}
		if host.TransportState != nil {
			host.TransportState()
			queries++
		}
		i.mu.Lock()
		i.hostQueries += queries
		i.mu.Unlock()
	}
	if input != nil {
		in := &native.BufferList{Buffers: make([]native.Buffer, inChannels)}
		for c := range in.Buffers {
			in.Buffers[c] = native.Buffer{Channels: 1, Data: make([]float32, frames)}
		}
		var inFlags native.RenderFlags
		if code := input(&inFlags, ts, 0, frames, in); code != native.NoErr {
			return code
		}
		i.mu.Lock()
		i.inputPulls++
		i.mu.Unlock()
	}

	for _, b := range buffers.Buffers {
		clear(b.Data[:frames])
	}

	i.mu.Lock()
	i.renders++
	i.mu.Unlock()
	return native.NoErr
}
