package component

import (
	"testing"

	"github.com/platinummonkey/auval/pkg/auerr"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamFormat(t *testing.T) {
	h, _ := openHandle(t, delaySpec())

	f, err := h.StreamFormat(native.ScopeOutput, 0)
	require.NoError(t, err)
	assert.Equal(t, 44100.0, f.SampleRate)
	assert.Equal(t, uint32(2), f.ChannelsPerFrame)

	f.ChannelsPerFrame = 1
	require.NoError(t, h.SetStreamFormat(native.ScopeOutput, 0, f))
	got, err := h.StreamFormat(native.ScopeOutput, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.ChannelsPerFrame)

	t.Run("absent bus", func(t *testing.T) {
		_, err := h.StreamFormat(native.ScopeOutput, 3)
		assert.Equal(t, native.ErrInvalidProperty, auerr.CodeOf(err))
	})
}

func TestParameters(t *testing.T) {
	h, _ := openHandle(t, delaySpec())

	ids, err := h.GlobalParameterList()
	require.NoError(t, err)
	assert.Equal(t, []native.ParameterID{0, 1}, ids)

	ids, err = h.ParameterList(native.ScopeInput)
	require.NoError(t, err)
	assert.Empty(t, ids)

	info, ok, err := h.ParameterInfo(native.ScopeGlobal, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Mix", info.Name)
	assert.True(t, info.CanRamp())

	_, ok, err = h.ParameterInfo(native.ScopeGlobal, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := h.ParameterValueStrings(native.ScopeGlobal, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names)

	v, err := h.ParameterValue(native.ScopeGlobal, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), v)
}

func TestPresets(t *testing.T) {
	h, _ := openHandle(t, delaySpec())

	presets, err := h.FactoryPresets()
	require.NoError(t, err)
	assert.Len(t, presets, 2)
	assert.False(t, h.PresetsRequireInit())

	p, err := h.CurrentPreset()
	require.NoError(t, err)
	assert.Equal(t, int32(0), p.Number)

	t.Run("legacy property only", func(t *testing.T) {
		spec := delaySpec()
		spec.LegacyPresetOnly = true
		h, inst := openHandle(t, spec)

		require.NoError(t, h.SetCurrentPreset(native.Preset{Number: 1, Name: "Long"}))
		p, err := h.CurrentPreset()
		require.NoError(t, err)
		assert.Equal(t, int32(1), p.Number)
		assert.NotEqual(t, -1, indexOf(inst.Calls(), "SetProperty(CurrentPreset)"))
	})

	t.Run("presets need initialization", func(t *testing.T) {
		spec := delaySpec()
		spec.Faults.RequireInit = []native.PropertyKey{native.PropertyFactoryPresets}
		h, _ := openHandle(t, spec)

		assert.True(t, h.PresetsRequireInit())
		_, err := h.FactoryPresets()
		assert.True(t, auerr.Is(err, auerr.KindUninitialized))

		require.NoError(t, h.Initialize())
		assert.False(t, h.PresetsRequireInit())
		presets, err := h.FactoryPresets()
		require.NoError(t, err)
		assert.Len(t, presets, 2)
	})

	t.Run("unreadable list is empty", func(t *testing.T) {
		spec := delaySpec()
		spec.Faults.PropertyCodes = map[native.PropertyKey]native.Code{native.PropertyFactoryPresets: native.ErrInvalidPropertyValue}
		h, _ := openHandle(t, spec)

		presets, err := h.FactoryPresets()
		require.NoError(t, err)
		assert.Empty(t, presets)
	})
}

func TestBuses(t *testing.T) {
	spec := delaySpec()
	spec.BusCountWritable = true
	spec.NamedBuses = true
	h, _ := openHandle(t, spec)

	n, writable, err := h.BusCount(native.ScopeOutput)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)
	assert.True(t, writable)

	require.NoError(t, h.SetBusCount(native.ScopeOutput, 2))
	n, _, err = h.BusCount(native.ScopeOutput)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)

	name, ok, err := h.BusName(native.ScopeOutput, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "output 2", name)
}

func TestCurrentChannelLayout(t *testing.T) {
	h, _ := openHandle(t, delaySpec())
	assert.Equal(t, LayoutStatus{State: LayoutNotSupported}, h.CurrentChannelLayout(native.ScopeOutput, 0))
	assert.Nil(t, h.SupportedLayouts(native.ScopeOutput, 0))

	spec := delaySpec()
	spec.LayoutTags = []native.ChannelLayoutTag{native.LayoutTagMono, native.LayoutTagStereo}
	h, _ = openHandle(t, spec)

	assert.Equal(t, LayoutStatus{State: LayoutNotSet, Writable: true}, h.CurrentChannelLayout(native.ScopeOutput, 0))
	assert.Equal(t, spec.LayoutTags, h.SupportedLayouts(native.ScopeOutput, 0))

	require.NoError(t, h.SetChannelLayout(native.ScopeOutput, 0, native.ChannelLayout{Tag: native.LayoutTagStereo}))
	assert.Equal(t, LayoutStatus{State: LayoutSet, Tag: native.LayoutTagStereo, Writable: true}, h.CurrentChannelLayout(native.ScopeOutput, 0))

	err := h.SetChannelLayout(native.ScopeOutput, 0, native.ChannelLayout{Tag: native.LayoutTagQuadraphonic})
	assert.Error(t, err)
}

func TestGUIInfo(t *testing.T) {
	custom := native.NewIdentity("auvc", "dlyv", "tsti")
	generic := native.Identity{Type: native.TypeViewClassic, Subtype: native.SubtypeGenericView, Manufacturer: native.ManufacturerApple}
	cocoa := &native.CocoaViewInfo{BundleLocation: "/Library/Delay.bundle", Classes: []string{"DelayViewFactory"}}

	tests := []struct {
		name        string
		views       []native.Identity
		cocoa       *native.CocoaViewInfo
		wantClassic native.Identity
		wantGeneric bool
		cocoaHost   bool
		classicHost bool
	}{
		{name: "no views falls back to generic", wantClassic: generic, wantGeneric: true},
		{name: "custom view preferred", views: []native.Identity{generic, custom}, wantClassic: custom},
		{name: "cocoa with generic classic", cocoa: cocoa, wantClassic: generic, wantGeneric: true, cocoaHost: true, classicHost: true},
		{name: "cocoa with custom classic", views: []native.Identity{custom}, cocoa: cocoa, wantClassic: custom, cocoaHost: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := delaySpec()
			spec.Views = tt.views
			spec.Cocoa = tt.cocoa
			h, _ := openHandle(t, spec)

			g, err := h.GUIInfo()
			require.NoError(t, err)
			assert.Equal(t, tt.wantClassic, g.Classic)
			assert.Equal(t, tt.wantGeneric, g.ClassicIsGeneric)
			assert.Equal(t, tt.cocoa, g.Cocoa)
			assert.Equal(t, tt.cocoaHost, g.UseCocoa(true))
			assert.Equal(t, tt.classicHost, g.UseCocoa(false))
		})
	}
}

func TestLatencyAndTail(t *testing.T) {
	tail := 1.5
	spec := delaySpec()
	spec.Latency = 0.01
	spec.TailTime = &tail
	h, _ := openHandle(t, spec)

	latency, err := h.Latency()
	require.NoError(t, err)
	assert.Equal(t, 0.01, latency)

	got, ok, err := h.TailTime()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tail, got)

	h, _ = openHandle(t, delaySpec())
	_, ok, err = h.TailTime()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBypass(t *testing.T) {
	spec := delaySpec()
	spec.CanBypass = true
	h, _ := openHandle(t, spec)

	require.NoError(t, h.SetBypassed(true))
	on, err := h.IsBypassed()
	require.NoError(t, err)
	assert.True(t, on)

	h, _ = openHandle(t, delaySpec())
	err = h.SetBypassed(true)
	assert.ErrorContains(t, err, "BypassEffect")
}

func TestCallbacks(t *testing.T) {
	spec := delaySpec()
	spec.UsesHostCallbacks = true
	h, inst := openHandle(t, spec)

	cb := native.RenderCallback(func(*native.RenderFlags, native.TimeStamp, uint32, uint32, *native.BufferList) native.Code {
		return native.NoErr
	})
	require.NoError(t, h.SetRenderCallback(0, cb))
	assert.True(t, inst.HasRenderCallback(0))
	h.RemoveRenderCallback(0)
	assert.False(t, inst.HasRenderCallback(0))

	h.SetHostCallbacks(&native.HostCallbacks{})
	assert.True(t, inst.HasHostCallbacks())
	h.ClearHostCallbacks()
	assert.False(t, inst.HasHostCallbacks())

	t.Run("host callbacks unsupported", func(t *testing.T) {
		h, inst := openHandle(t, delaySpec())
		h.SetHostCallbacks(&native.HostCallbacks{})
		assert.False(t, inst.HasHostCallbacks())
		assert.Equal(t, -1, indexOf(inst.Calls(), "SetCallbackProperty(HostCallbacks)"))
	})
}

func TestClassInfo(t *testing.T) {
	spec := delaySpec()
	spec.ClassInfo = native.ClassInfo{Entries: []native.StateEntry{
		{Key: "version", Value: native.StateValue{Kind: native.StateInteger, Integer: 1}},
	}}
	h, _ := openHandle(t, spec)

	state, err := h.ClassInfo()
	require.NoError(t, err)
	require.Len(t, state.Entries, 1)
	require.NoError(t, h.SetClassInfo(state))

	t.Run("variable size sentinel", func(t *testing.T) {
		spec := delaySpec()
		spec.ClassInfoVariableSize = true
		h, inst := openHandle(t, spec)

		state, err := h.ClassInfo()
		require.NoError(t, err)
		assert.Empty(t, state.Entries)

		require.NoError(t, h.SetClassInfo(state))
		assert.Equal(t, -1, indexOf(inst.Calls(), "Notify(value-change)"))
	})
}

func TestMigration(t *testing.T) {
	from := native.OtherPluginDesc{Format: native.OtherPluginFormatVST, Type: native.TypeEffect, Subtype: native.FourCC("odly"), Manufacturer: native.FourCC("tsti")}
	spec := delaySpec()
	spec.Replaces = []native.OtherPluginDesc{from}
	spec.Translations = []simulator.Translation{{From: from, OtherParamID: 7, ParamID: 0, Scale: 0.5}}
	h, _ := openHandle(t, spec)

	assert.Equal(t, []native.OtherPluginDesc{from}, h.ReplacementList())

	id, v := h.TranslateAutomation(from, 7, 0.8)
	assert.Equal(t, uint32(0), id)
	assert.InDelta(t, 0.4, v, 1e-6)

	id, v = h.TranslateAutomation(from, 3, 0.8)
	assert.Equal(t, uint32(3), id)
	assert.Equal(t, float32(0.8), v)
}

func TestResetOnlyWhenInitialized(t *testing.T) {
	h, inst := openHandle(t, delaySpec())
	require.NoError(t, h.Reset())
	assert.Equal(t, -1, indexOf(inst.Calls(), "Reset"))

	require.NoError(t, h.Initialize())
	require.NoError(t, h.Reset())
	assert.NotEqual(t, -1, indexOf(inst.Calls(), "Reset"))
}

func TestHostIdentityAndListener(t *testing.T) {
	h, inst := openHandle(t, delaySpec())

	h.SetHostIdentity("", 1)
	assert.Equal(t, -1, indexOf(inst.Calls(), "SetProperty(HostIdentifier)"))
	h.SetHostIdentity("auval", 2)
	assert.Equal(t, native.HostIdentifier{Name: "auval", Version: 2}, inst.Host())

	require.NoError(t, h.MakeAndDeleteListener())
	assert.Equal(t, 0, inst.ActiveListeners())
}

func TestRender(t *testing.T) {
	h, inst := openHandle(t, delaySpec())
	buffers := &native.BufferList{Buffers: []native.Buffer{{Channels: 1, Data: make([]float32, 512)}}}

	err := h.Render(new(native.RenderFlags), native.TimeStamp{}, 0, 512, buffers)
	assert.True(t, auerr.Is(err, auerr.KindUninitialized))

	require.NoError(t, h.Initialize())
	require.NoError(t, h.ScheduleParameters([]native.ParameterEvent{native.NewRampedEvent(native.ScopeGlobal, 0, 0, 0, 1, 256, 512)}))
	require.NoError(t, h.Render(new(native.RenderFlags), native.TimeStamp{}, 0, 512, buffers))
	assert.Equal(t, 1, inst.RenderCount())

	err = h.ScheduleParameters([]native.ParameterEvent{native.NewRampedEvent(native.ScopeGlobal, 0, 1, 0, 1, 0, 16)})
	assert.Equal(t, native.ErrInvalidParameter, auerr.CodeOf(err))
}

var _ Observer = (*recordingObserver)(nil)
var _ native.Catalog = (*simulator.Catalog)(nil)
