package component

import (
	"fmt"

	"github.com/platinummonkey/auval/pkg/auerr"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/property"
)

// present reports whether a property exists. Failures other than
// KindUninitialized count as absent.
func (h *Handle) present(key native.PropertyKey, scope native.Scope, elem native.Element) (property.Info, bool, error) {
	info, ok, err := h.props.QueryInfo(key, scope, elem)
	if err != nil {
		if auerr.Is(err, auerr.KindUninitialized) {
			return info, false, err
		}
		return info, false, nil
	}
	return info, ok, nil
}

func missing(op string, key native.PropertyKey) error {
	return &auerr.Error{Kind: auerr.KindNative, Code: native.ErrInvalidProperty, Op: op, Msg: fmt.Sprintf("%s is not available", key)}
}

func (h *Handle) readUint32(key native.PropertyKey, scope native.Scope, elem native.Element) (uint32, bool, bool, error) {
	info, ok, err := h.present(key, scope, elem)
	if err != nil || !ok {
		return 0, false, false, err
	}
	data, err := h.props.Get(key, scope, elem, native.SizeUint32)
	if err != nil {
		return 0, info.Writable, false, err
	}
	v, err := native.DecodeUint32(data)
	return v, info.Writable, err == nil, err
}

func (h *Handle) readFloat64(key native.PropertyKey) (float64, bool, error) {
	_, ok, err := h.present(key, native.ScopeGlobal, 0)
	if err != nil || !ok {
		return 0, false, err
	}
	data, err := h.props.Get(key, native.ScopeGlobal, 0, native.SizeFloat64)
	if err != nil {
		return 0, false, err
	}
	v, err := native.DecodeFloat64(data)
	return v, err == nil, err
}

// StreamFormat returns the format of one bus
func (h *Handle) StreamFormat(scope native.Scope, bus native.Element) (native.StreamFormat, error) {
	var f native.StreamFormat
	_, ok, err := h.present(native.PropertyStreamFormat, scope, bus)
	if err != nil {
		return f, err
	}
	if !ok {
		return f, missing("StreamFormat", native.PropertyStreamFormat)
	}
	data, err := h.props.Get(native.PropertyStreamFormat, scope, bus, native.SizeStreamFormat)
	if err != nil {
		return f, err
	}
	if err := f.UnmarshalBinary(data); err != nil {
		return f, fmt.Errorf("failed to decode stream format: %w", err)
	}
	return f, nil
}

// SetStreamFormat sets the format of one bus
func (h *Handle) SetStreamFormat(scope native.Scope, bus native.Element, f native.StreamFormat) error {
	data, _ := f.MarshalBinary()
	return h.props.Set(native.PropertyStreamFormat, scope, bus, data)
}

// ParameterList returns the parameter ids of scope; an absent list is empty
func (h *Handle) ParameterList(scope native.Scope) ([]native.ParameterID, error) {
	info, ok, err := h.present(native.PropertyParameterList, scope, 0)
	if err != nil || !ok {
		return nil, err
	}
	data, err := h.props.Get(native.PropertyParameterList, scope, 0, info.Size)
	if err != nil {
		return nil, err
	}
	return native.DecodeParameterList(data)
}

// GlobalParameterList returns the parameter ids of the global scope
func (h *Handle) GlobalParameterList() ([]native.ParameterID, error) {
	return h.ParameterList(native.ScopeGlobal)
}

// ParameterInfo returns the descriptor of one parameter. ok is false when
// the component has no descriptor for it.
func (h *Handle) ParameterInfo(scope native.Scope, id native.ParameterID) (info native.ParameterInfo, ok bool, err error) {
	_, ok, err = h.present(native.PropertyParameterInfo, scope, native.Element(id))
	if err != nil || !ok {
		return info, false, err
	}
	data, err := h.props.Get(native.PropertyParameterInfo, scope, native.Element(id), native.SizeParameterInfo)
	if err != nil {
		return info, false, err
	}
	if err := info.UnmarshalBinary(data); err != nil {
		return info, false, fmt.Errorf("failed to decode parameter info for %d: %w", id, err)
	}
	return info, true, nil
}

// ParameterValueStrings returns the value names of an indexed parameter.
// A component that fails to produce them yields nil.
func (h *Handle) ParameterValueStrings(scope native.Scope, id native.ParameterID) ([]string, error) {
	info, ok, err := h.present(native.PropertyParameterValueStrings, scope, native.Element(id))
	if err != nil || !ok {
		return nil, err
	}
	data, err := h.props.Get(native.PropertyParameterValueStrings, scope, native.Element(id), info.Size)
	if err != nil {
		return nil, nil
	}
	return native.DecodeStrings(data)
}

// ParameterValue reads the current value of a parameter
func (h *Handle) ParameterValue(scope native.Scope, elem native.Element, id native.ParameterID) (float32, error) {
	v, code := h.inst.GetParameter(id, scope, elem)
	if err := auerr.FromCode(fmt.Sprintf("GetParameter(%d)", id), code); err != nil {
		return 0, err
	}
	return v, nil
}

// SetParameter sets a parameter and notifies listeners of the change
func (h *Handle) SetParameter(id native.ParameterID, scope native.Scope, elem native.Element, value float32, offset uint32) error {
	if err := auerr.FromCode(fmt.Sprintf("SetParameter(%d)", id), h.inst.SetParameter(id, scope, elem, value, offset)); err != nil {
		return err
	}
	return auerr.FromCode("Notify", h.inst.Notify(native.Event{
		Kind:      native.EventParameterValueChange,
		Scope:     scope,
		Element:   elem,
		Parameter: id,
		Value:     value,
	}))
}

// BroadcastGesture announces the start or end of a parameter gesture
func (h *Handle) BroadcastGesture(id native.ParameterID, scope native.Scope, elem native.Element, begin bool) error {
	kind := native.EventEndParameterChangeGesture
	if begin {
		kind = native.EventBeginParameterChangeGesture
	}
	return auerr.FromCode("Notify", h.inst.Notify(native.Event{Kind: kind, Scope: scope, Element: elem, Parameter: id}))
}

// MakeAndDeleteListener creates a throwaway listener on every global
// parameter and disposes it
func (h *Handle) MakeAndDeleteListener() error {
	listener, code := h.inst.NewListener(func(native.Event) {})
	if err := auerr.FromCode("NewListener", code); err != nil {
		return err
	}
	defer listener.Dispose()

	params, err := h.GlobalParameterList()
	if err != nil {
		return err
	}
	for _, id := range params {
		listener.Subscribe(native.Event{Kind: native.EventParameterValueChange, Scope: native.ScopeGlobal, Parameter: id})
	}
	return nil
}

// FactoryPresets returns the factory preset list. Only KindUninitialized is
// reported; any other failure yields no presets.
func (h *Handle) FactoryPresets() ([]native.Preset, error) {
	info, ok, err := h.present(native.PropertyFactoryPresets, native.ScopeGlobal, 0)
	if err != nil || !ok {
		return nil, err
	}
	data, err := h.props.Get(native.PropertyFactoryPresets, native.ScopeGlobal, 0, info.Size)
	if err != nil {
		if auerr.Is(err, auerr.KindUninitialized) {
			return nil, err
		}
		return nil, nil
	}
	return native.DecodePresets(data)
}

// PresetsRequireInit reports whether the preset list is only readable once
// the component is initialized
func (h *Handle) PresetsRequireInit() bool {
	info, _, err := h.props.QueryInfo(native.PropertyFactoryPresets, native.ScopeGlobal, 0)
	if auerr.Is(err, auerr.KindUninitialized) {
		return true
	}
	_, err = h.props.Get(native.PropertyFactoryPresets, native.ScopeGlobal, 0, info.Size)
	return auerr.Is(err, auerr.KindUninitialized)
}

func (h *Handle) readPreset(key native.PropertyKey) (native.Preset, error) {
	var p native.Preset
	info, ok, err := h.props.QueryInfo(key, native.ScopeGlobal, 0)
	if err != nil {
		return p, err
	}
	if !ok {
		return p, missing("CurrentPreset", key)
	}
	data, err := h.props.Get(key, native.ScopeGlobal, 0, info.Size)
	if err != nil {
		return p, err
	}
	if err := p.UnmarshalBinary(data); err != nil {
		return p, fmt.Errorf("failed to decode preset: %w", err)
	}
	return p, nil
}

// CurrentPreset reads the current preset, falling back to the legacy
// property when the current one is not implemented
func (h *Handle) CurrentPreset() (native.Preset, error) {
	if p, err := h.readPreset(native.PropertyPresentPreset); err == nil {
		return p, nil
	}
	p, err := h.readPreset(native.PropertyCurrentPreset)
	if err != nil {
		return p, fmt.Errorf("failed to read current preset: %w", err)
	}
	return p, nil
}

// SetCurrentPreset selects a preset, falling back to the legacy property,
// then tells listeners that any parameter may have changed
func (h *Handle) SetCurrentPreset(p native.Preset) error {
	data, _ := p.MarshalBinary()
	if err := h.props.Set(native.PropertyPresentPreset, native.ScopeGlobal, 0, data); err != nil {
		if err := h.props.Set(native.PropertyCurrentPreset, native.ScopeGlobal, 0, data); err != nil {
			return fmt.Errorf("failed to set current preset: %w", err)
		}
	}
	return h.notifyAnyParameter()
}

func (h *Handle) notifyAnyParameter() error {
	return auerr.FromCode("Notify", h.inst.Notify(native.Event{
		Kind:      native.EventParameterValueChange,
		Scope:     native.ScopeGlobal,
		Parameter: native.AnyParameter,
	}))
}

// BusCount returns the number of buses in scope and whether it can be changed
func (h *Handle) BusCount(scope native.Scope) (count uint32, writable bool, err error) {
	count, writable, _, err = h.readUint32(native.PropertyElementCount, scope, 0)
	return count, writable, err
}

// SetBusCount changes the bus count. It does nothing when the component has
// no bus count property.
func (h *Handle) SetBusCount(scope native.Scope, n uint32) error {
	_, ok, err := h.present(native.PropertyElementCount, scope, 0)
	if err != nil || !ok {
		return err
	}
	return h.props.Set(native.PropertyElementCount, scope, 0, native.EncodeUint32(n))
}

// BusName returns the name of one bus. ok is false when it has none.
func (h *Handle) BusName(scope native.Scope, bus native.Element) (name string, ok bool, err error) {
	info, ok, err := h.present(native.PropertyElementName, scope, bus)
	if err != nil || !ok {
		return "", false, err
	}
	data, err := h.props.Get(native.PropertyElementName, scope, bus, info.Size)
	if err != nil {
		return "", false, nil
	}
	return string(data), true, nil
}

// SupportedNumChannels returns the channel configurations the component accepts
func (h *Handle) SupportedNumChannels() ([]native.ChannelInfo, error) {
	info, ok, err := h.present(native.PropertySupportedNumChannels, native.ScopeGlobal, 0)
	if err != nil || !ok {
		return nil, err
	}
	data, err := h.props.Get(native.PropertySupportedNumChannels, native.ScopeGlobal, 0, info.Size)
	if err != nil {
		return nil, err
	}
	return native.DecodeChannelInfos(data)
}

// Latency returns the processing latency in seconds, zero when unreported
func (h *Handle) Latency() (float64, error) {
	v, _, err := h.readFloat64(native.PropertyLatency)
	return v, err
}

// TailTime returns the tail time in seconds. ok is false when unreported.
func (h *Handle) TailTime() (tail float64, ok bool, err error) {
	return h.readFloat64(native.PropertyTailTime)
}

// SetMaxFramesPerSlice sets the largest render request the host will make
func (h *Handle) SetMaxFramesPerSlice(n uint32) error {
	return h.props.Set(native.PropertyMaximumFramesPerSlice, native.ScopeGlobal, 0, native.EncodeUint32(n))
}

// SetRealtimeHint marks rendering as realtime or offline. Many components
// lack the property, so failures are only logged.
func (h *Handle) SetRealtimeHint(realtime bool) {
	var offline uint32
	if !realtime {
		offline = 1
	}
	if err := h.props.Set(native.PropertyOfflineRender, native.ScopeGlobal, 0, native.EncodeUint32(offline)); err != nil {
		h.log.WithError(err).Debug("Offline render hint not accepted")
	}
}

// IsBypassed reports whether the effect is bypassed
func (h *Handle) IsBypassed() (bool, error) {
	v, _, _, err := h.readUint32(native.PropertyBypassEffect, native.ScopeGlobal, 0)
	return v != 0, err
}

// SetBypassed bypasses or engages the effect
func (h *Handle) SetBypassed(bypassed bool) error {
	var v uint32
	if bypassed {
		v = 1
	}
	return h.props.Set(native.PropertyBypassEffect, native.ScopeGlobal, 0, native.EncodeUint32(v))
}

// SetRenderCallback installs the input callback of bus
func (h *Handle) SetRenderCallback(bus native.Element, cb native.RenderCallback) error {
	return h.props.SetCallback(native.PropertySetRenderCallback, native.ScopeInput, bus, cb)
}

// RemoveRenderCallback removes the input callback of bus. Failures are logged.
func (h *Handle) RemoveRenderCallback(bus native.Element) {
	if err := h.props.SetCallback(native.PropertySetRenderCallback, native.ScopeInput, bus, nil); err != nil {
		h.log.WithError(err).Debug("Render callback removal refused")
	}
}

// ScheduleParameters submits parameter events for the next render
func (h *Handle) ScheduleParameters(events []native.ParameterEvent) error {
	return auerr.FromCode("ScheduleParameters", h.inst.ScheduleParameters(events))
}

// Render renders frames on bus into buffers
func (h *Handle) Render(flags *native.RenderFlags, ts native.TimeStamp, bus uint32, frames uint32, buffers *native.BufferList) error {
	return auerr.FromCode(fmt.Sprintf("Render(%d frames)", frames), h.inst.Render(flags, ts, bus, frames, buffers))
}

// Reset clears the render state of an initialized component
func (h *Handle) Reset() error {
	if h.state != Initialized {
		return nil
	}
	return auerr.FromCode("Reset", h.inst.Reset(native.ScopeGlobal, 0))
}

// SetHostCallbacks installs host tempo and transport callbacks when the
// component supports them. Failures are ignored.
func (h *Handle) SetHostCallbacks(cb *native.HostCallbacks) {
	h.installHostCallbacks(cb)
}

// ClearHostCallbacks removes the host callbacks
func (h *Handle) ClearHostCallbacks() {
	h.installHostCallbacks(nil)
}

func (h *Handle) installHostCallbacks(cb *native.HostCallbacks) {
	_, ok, _ := h.props.QueryInfo(native.PropertyHostCallbacks, native.ScopeGlobal, 0)
	if !ok {
		return
	}
	var value native.Callback
	if cb != nil {
		value = cb
	}
	if err := h.props.SetCallback(native.PropertyHostCallbacks, native.ScopeGlobal, 0, value); err != nil {
		h.log.WithError(err).Debug("Host callbacks not accepted")
	}
}

// SetHostIdentity tells the component which host is loading it. An empty
// name sends nothing; failures are ignored.
func (h *Handle) SetHostIdentity(name string, version uint32) {
	if name == "" {
		return
	}
	data, _ := native.HostIdentifier{Name: name, Version: version}.MarshalBinary()
	if err := h.props.Set(native.PropertyHostIdentifier, native.ScopeGlobal, 0, data); err != nil {
		h.log.WithError(err).Debug("Host identifier not accepted")
	}
}

// ReplacementList returns the prior-format plugins this component replaces
func (h *Handle) ReplacementList() []native.OtherPluginDesc {
	info, ok, err := h.present(native.PropertyMigrateFromPlugin, native.ScopeGlobal, 0)
	if err != nil || !ok {
		return nil
	}
	data, err := h.props.Get(native.PropertyMigrateFromPlugin, native.ScopeGlobal, 0, info.Size)
	if err != nil {
		return nil
	}
	descs, err := native.DecodeOtherPluginDescs(data)
	if err != nil {
		h.log.WithError(err).Debug("Malformed replacement list")
		return nil
	}
	return descs
}

// TranslateAutomation maps a parameter id and value of a prior-format
// plugin onto this component. The inputs are returned unchanged when the
// component cannot translate them.
func (h *Handle) TranslateAutomation(desc native.OtherPluginDesc, id uint32, value float32) (uint32, float32) {
	in, _ := native.ParameterValueTranslation{
		Other:        desc,
		OtherParamID: id,
		OtherValue:   value,
		ParamID:      id,
		Value:        value,
	}.MarshalBinary()

	data, err := h.props.Exchange(native.PropertyMigrateOldAutomation, native.ScopeGlobal, 0, in)
	if err != nil {
		return id, value
	}
	var out native.ParameterValueTranslation
	if err := out.UnmarshalBinary(data); err != nil {
		return id, value
	}
	return out.ParamID, out.Value
}

// ClassInfo returns the saved state. The variable-size sentinel yields an
// empty state rather than an error.
func (h *Handle) ClassInfo() (native.ClassInfo, error) {
	info, ok, err := h.props.QueryInfo(native.PropertyClassInfo, native.ScopeGlobal, 0)
	if auerr.Is(err, auerr.KindVariableSize) {
		return native.ClassInfo{}, nil
	}
	if err != nil {
		return native.ClassInfo{}, err
	}
	if !ok {
		return native.ClassInfo{}, &auerr.Error{Kind: auerr.KindNative, Code: native.ErrUnspecified, Op: "ClassInfo", Msg: "component has no saved state"}
	}

	data, err := h.props.Get(native.PropertyClassInfo, native.ScopeGlobal, 0, info.Size)
	if auerr.Is(err, auerr.KindVariableSize) {
		return native.ClassInfo{}, nil
	}
	if err != nil {
		return native.ClassInfo{}, err
	}
	var state native.ClassInfo
	if err := state.UnmarshalBinary(data); err != nil {
		return native.ClassInfo{}, fmt.Errorf("failed to decode saved state: %w", err)
	}
	return state, nil
}

// SetClassInfo restores a saved state and tells listeners that any
// parameter may have changed
func (h *Handle) SetClassInfo(state native.ClassInfo) error {
	data, err := state.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode saved state: %w", err)
	}
	err = h.props.Set(native.PropertyClassInfo, native.ScopeGlobal, 0, data)
	if auerr.Is(err, auerr.KindVariableSize) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.notifyAnyParameter()
}

