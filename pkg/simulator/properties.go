package simulator

import (
	"fmt"

	"github.com/platinummonkey/auval/pkg/native"
)

// hostCallbacksSize is the size the host callback table reports
const hostCallbacksSize = 32

// lookup resolves a property to its encoded value. A nil payload with NoErr
// and a nonzero size is a property that is present but write-only.
func (i *Instance) lookup(key native.PropertyKey, scope native.Scope, elem native.Element) (payload []byte, size uint32, writable bool, code native.Code) {
	s := i.spec
	if c, ok := s.Faults.PropertyCodes[key]; ok {
		return nil, 0, false, c
	}
	if !i.initialized && s.requiresInit(key) {
		return nil, 0, false, native.ErrUninitialized
	}

	global := func() native.Code {
		if scope != native.ScopeGlobal {
			return native.ErrInvalidScope
		}
		return native.NoErr
	}
	bus := func() native.Code {
		if scope != native.ScopeInput && scope != native.ScopeOutput {
			return native.ErrInvalidScope
		}
		if uint32(elem) >= i.busCounts[scope] {
			return native.ErrInvalidElement
		}
		return native.NoErr
	}
	done := func(data []byte, writable bool) ([]byte, uint32, bool, native.Code) {
		return data, uint32(len(data)), writable, native.NoErr
	}

	switch key {
	case native.PropertyClassInfo:
		if c := global(); c != native.NoErr {
			return nil, 0, false, c
		}
		data, _ := i.classInfo.MarshalBinary()
		return done(data, true)

	case native.PropertyParameterList:
		if scope != native.ScopeGlobal {
			return done(nil, false)
		}
		ids := make([]native.ParameterID, 0, len(s.Parameters))
		for _, p := range s.Parameters {
			ids = append(ids, p.ID)
		}
		return done(native.EncodeParameterList(ids), false)

	case native.PropertyParameterInfo:
		p, ok := s.parameter(native.ParameterID(elem))
		if !ok || scope != native.ScopeGlobal {
			return nil, 0, false, native.ErrInvalidParameter
		}
		data, _ := p.Info.MarshalBinary()
		return done(data, false)

	case native.PropertyParameterValueStrings:
		p, ok := s.parameter(native.ParameterID(elem))
		if !ok || len(p.ValueStrings) == 0 {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return done(native.EncodeStrings(p.ValueStrings), false)

	case native.PropertyStreamFormat:
		if c := bus(); c != native.NoErr {
			return nil, 0, false, c
		}
		data, _ := i.formats[busKey{scope, elem}].MarshalBinary()
		return done(data, true)

	case native.PropertyElementCount:
		if scope == native.ScopeGlobal {
			return done(native.EncodeUint32(1), false)
		}
		if scope != native.ScopeInput && scope != native.ScopeOutput {
			return nil, 0, false, native.ErrInvalidScope
		}
		return done(native.EncodeUint32(i.busCounts[scope]), s.BusCountWritable)

	case native.PropertyElementName:
		if !s.NamedBuses {
			return nil, 0, false, native.ErrInvalidProperty
		}
		if c := bus(); c != native.NoErr {
			return nil, 0, false, c
		}
		return done([]byte(fmt.Sprintf("%s %d", scope, elem+1)), false)

	case native.PropertyLatency:
		if c := global(); c != native.NoErr {
			return nil, 0, false, c
		}
		return done(native.EncodeFloat64(s.Latency), false)

	case native.PropertyTailTime:
		if s.TailTime == nil {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return done(native.EncodeFloat64(*s.TailTime), false)

	case native.PropertySupportedNumChannels:
		if len(s.SupportedNumChannels) == 0 {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return done(native.EncodeChannelInfos(s.SupportedNumChannels), false)

	case native.PropertyMaximumFramesPerSlice:
		return done(native.EncodeUint32(i.maxFrames), true)

	case native.PropertyUIComponentList:
		if len(s.Views) == 0 {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return done(native.EncodeIdentities(s.Views), false)

	case native.PropertyCocoaUI:
		if s.Cocoa == nil {
			return nil, 0, false, native.ErrInvalidProperty
		}
		data, _ := s.Cocoa.MarshalBinary()
		return done(data, false)

	case native.PropertySupportedChannelLayoutTags, native.PropertyAudioChannelLayout:
		if len(s.LayoutTags) == 0 {
			return nil, 0, false, native.ErrInvalidProperty
		}
		if c := bus(); c != native.NoErr {
			return nil, 0, false, c
		}
		if key == native.PropertySupportedChannelLayoutTags {
			return done(native.EncodeLayoutTags(s.LayoutTags), false)
		}
		layout, ok := i.layouts[busKey{scope, elem}]
		if !ok {
			return nil, native.SizeChannelLayout, true, native.NoErr
		}
		data, _ := layout.MarshalBinary()
		return done(data, true)

	case native.PropertyBypassEffect:
		if !s.CanBypass {
			return nil, 0, false, native.ErrInvalidProperty
		}
		var v uint32
		if i.bypassed {
			v = 1
		}
		return done(native.EncodeUint32(v), true)

	case native.PropertySetRenderCallback:
		if s.Identity.IsGenerator() || scope != native.ScopeInput {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return nil, 16, true, native.NoErr

	case native.PropertyHostCallbacks:
		if !s.UsesHostCallbacks {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return nil, hostCallbacksSize, true, native.NoErr

	case native.PropertyFactoryPresets:
		if len(s.Presets) == 0 {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return done(native.EncodePresets(s.Presets), false)

	case native.PropertyPresentPreset, native.PropertyCurrentPreset:
		if key == native.PropertyPresentPreset && s.LegacyPresetOnly {
			return nil, 0, false, native.ErrInvalidProperty
		}
		data, _ := i.preset.MarshalBinary()
		return done(data, true)

	case native.PropertyOfflineRender:
		var v uint32
		if i.offline {
			v = 1
		}
		return done(native.EncodeUint32(v), true)

	case native.PropertyHostIdentifier:
		data, _ := i.host.MarshalBinary()
		return done(data, true)

	case native.PropertyMigrateFromPlugin:
		if len(s.Replaces) == 0 {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return done(native.EncodeOtherPluginDescs(s.Replaces), false)

	case native.PropertyMigrateOldAutomation:
		if len(s.Translations) == 0 {
			return nil, 0, false, native.ErrInvalidProperty
		}
		return nil, native.SizeTranslation, false, native.NoErr
	}
	return nil, 0, false, native.ErrInvalidProperty
}

func (i *Instance) GetPropertyInfo(key native.PropertyKey, scope native.Scope, elem native.Element) (uint32, bool, native.Code) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("GetPropertyInfo(%s)", key)
	_, size, writable, code := i.lookup(key, scope, elem)
	return size, writable, code
}

func (i *Instance) GetProperty(key native.PropertyKey, scope native.Scope, elem native.Element, in []byte) ([]byte, native.Code) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("GetProperty(%s)", key)

	data, _, _, code := i.lookup(key, scope, elem)
	if code != native.NoErr {
		return nil, code
	}
	switch key {
	case native.PropertyClassInfo:
		if i.spec.ClassInfoVariableSize {
			return nil, native.CodeVariableSize
		}
	case native.PropertyAudioChannelLayout:
		if data == nil {
			return nil, native.ErrPropertyNotInUse
		}
	case native.PropertyMigrateOldAutomation:
		return i.translate(in)
	case native.PropertySetRenderCallback, native.PropertyHostCallbacks:
		return nil, native.ErrInvalidPropertyValue
	}
	return data, native.NoErr
}

func (i *Instance) translate(in []byte) ([]byte, native.Code) {
	var t native.ParameterValueTranslation
	if err := t.UnmarshalBinary(in); err != nil {
		return nil, native.ErrInvalidPropertyValue
	}
	for _, tr := range i.spec.Translations {
		if tr.From == t.Other && tr.OtherParamID == t.OtherParamID {
			scale := tr.Scale
			if scale == 0 {
				scale = 1
			}
			t.ParamID = tr.ParamID
			t.Value = t.OtherValue * scale
			out, _ := t.MarshalBinary()
			return out, native.NoErr
		}
	}
	return nil, native.ErrInvalidPropertyValue
}

func (i *Instance) SetProperty(key native.PropertyKey, scope native.Scope, elem native.Element, data []byte) native.Code {
	i.mu.Lock()
	i.record("SetProperty(%s)", key)
	code, changed := i.set(key, scope, elem, data)
	i.mu.Unlock()

	if code == native.NoErr && changed {
		i.deliver(native.Event{Kind: native.EventPropertyChange, Scope: scope, Element: elem, Property: key})
	}
	return code
}

func (i *Instance) set(key native.PropertyKey, scope native.Scope, elem native.Element, data []byte) (native.Code, bool) {
	_, _, writable, code := i.lookup(key, scope, elem)
	if code != native.NoErr {
		return code, false
	}
	if !writable {
		return native.ErrPropertyNotWritable, false
	}

	switch key {
	case native.PropertyClassInfo:
		if i.spec.ClassInfoVariableSize {
			return native.CodeVariableSize, false
		}
		var state native.ClassInfo
		if err := state.UnmarshalBinary(data); err != nil {
			return native.ErrInvalidPropertyValue, false
		}
		i.classInfo = state

	case native.PropertyStreamFormat:
		if i.initialized {
			return native.ErrInitialized, false
		}
		var f native.StreamFormat
		if err := f.UnmarshalBinary(data); err != nil {
			return native.ErrInvalidPropertyValue, false
		}
		if f.FormatID != native.FormatLinearPCM || f.SampleRate <= 0 || f.ChannelsPerFrame == 0 {
			return native.ErrFormatNotSupported, false
		}
		i.formats[busKey{scope, elem}] = f

	case native.PropertyElementCount:
		n, err := native.DecodeUint32(data)
		if err != nil || n == 0 {
			return native.ErrInvalidPropertyValue, false
		}
		for b := i.busCounts[scope]; b < n; b++ {
			i.formats[busKey{scope, native.Element(b)}] = DefaultFormat(i.spec.sampleRate(), i.spec.channels())
		}
		i.busCounts[scope] = n

	case native.PropertyMaximumFramesPerSlice:
		n, err := native.DecodeUint32(data)
		if err != nil || n == 0 {
			return native.ErrInvalidPropertyValue, false
		}
		if i.initialized {
			return native.ErrInitialized, false
		}
		i.maxFrames = n

	case native.PropertyAudioChannelLayout:
		var layout native.ChannelLayout
		if err := layout.UnmarshalBinary(data); err != nil {
			return native.ErrInvalidPropertyValue, false
		}
		if !i.supportsLayout(layout.Tag) {
			return native.ErrInvalidPropertyValue, false
		}
		i.layouts[busKey{scope, elem}] = layout

	case native.PropertyBypassEffect:
		v, err := native.DecodeUint32(data)
		if err != nil {
			return native.ErrInvalidPropertyValue, false
		}
		i.bypassed = v != 0

	case native.PropertyPresentPreset, native.PropertyCurrentPreset:
		var p native.Preset
		if err := p.UnmarshalBinary(data); err != nil {
			return native.ErrInvalidPropertyValue, false
		}
		if p.Number >= 0 && !i.hasPreset(p.Number) {
			return native.ErrInvalidPropertyValue, false
		}
		i.preset = p
		return native.NoErr, true

	case native.PropertyOfflineRender:
		v, err := native.DecodeUint32(data)
		if err != nil {
			return native.ErrInvalidPropertyValue, false
		}
		i.offline = v != 0

	case native.PropertyHostIdentifier:
		var h native.HostIdentifier
		if err := h.UnmarshalBinary(data); err != nil {
			return native.ErrInvalidPropertyValue, false
		}
		i.host = h

	default:
		return native.ErrInvalidPropertyValue, false
	}
	return native.NoErr, false
}

func (i *Instance) supportsLayout(tag native.ChannelLayoutTag) bool {
	for _, t := range i.spec.LayoutTags {
		if t == tag {
			return true
		}
	}
	return false
}

func (i *Instance) hasPreset(n int32) bool {
	for _, p := range i.spec.Presets {
		if p.Number == n {
			return true
		}
	}
	return false
}

func (i *Instance) SetCallbackProperty(key native.PropertyKey, scope native.Scope, elem native.Element, cb native.Callback) native.Code {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("SetCallbackProperty(%s)", key)

	_, _, _, code := i.lookup(key, scope, elem)
	if code != native.NoErr {
		return code
	}
	if cb != nil && native.CallbackProperty(cb) != key {
		return native.ErrInvalidPropertyValue
	}

	switch key {
	case native.PropertySetRenderCallback:
		if cb == nil {
			delete(i.renderCBs, elem)
			return native.NoErr
		}
		i.renderCBs[elem] = cb.(native.RenderCallback)
	case native.PropertyHostCallbacks:
		if cb == nil {
			i.hostCBs = nil
			return native.NoErr
		}
		i.hostCBs = cb.(*native.HostCallbacks)
	default:
		return native.ErrInvalidProperty
	}
	return native.NoErr
}
