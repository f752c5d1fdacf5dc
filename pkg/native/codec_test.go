package native

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamFormatLayout(t *testing.T) {
	f := StreamFormat{
		SampleRate:       44100,
		FormatID:         FormatLinearPCM,
		FormatFlags:      FormatFlagsNativeFloatPacked | FormatFlagIsNonInterleaved,
		BytesPerPacket:   4,
		FramesPerPacket:  1,
		BytesPerFrame:    4,
		ChannelsPerFrame: 2,
		BitsPerChannel:   32,
	}

	data, err := f.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, SizeStreamFormat)

	var got StreamFormat
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, f, got)

	err = got.UnmarshalBinary(data[:20])
	assert.True(t, errors.Is(err, ErrShortPayload))
}

func TestParameterInfoName(t *testing.T) {
	info := ParameterInfo{Name: "Cutoff", Unit: UnitGeneric, MinValue: 20, MaxValue: 20000, Flags: ParameterFlagCanRamp}
	data, err := info.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, SizeParameterInfo)

	var got ParameterInfo
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, "Cutoff", got.Name)
	assert.True(t, got.CanRamp())

	long := ParameterInfo{Name: strings.Repeat("x", 80)}
	data, err = long.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Len(t, got.Name, ParameterNameSize-1)
}

func TestDecodeParameterList(t *testing.T) {
	ids, err := DecodeParameterList(EncodeParameterList([]ParameterID{0, 7, 42}))
	require.NoError(t, err)
	assert.Equal(t, []ParameterID{0, 7, 42}, ids)

	ids, err = DecodeParameterList(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = DecodeParameterList([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestDecodePresetsRejectsBogusCount(t *testing.T) {
	data := EncodeUint32(1000)
	_, err := DecodePresets(data)
	assert.ErrorIs(t, err, ErrShortPayload)

	presets, err := DecodePresets(EncodePresets([]Preset{{Number: 0, Name: "Init"}, {Number: -1, Name: "Mine"}}))
	require.NoError(t, err)
	assert.Equal(t, []Preset{{Number: 0, Name: "Init"}, {Number: -1, Name: "Mine"}}, presets)
}

func TestClassInfo(t *testing.T) {
	state := ClassInfo{Entries: []StateEntry{
		{Key: "version", Value: StateValue{Kind: StateInteger, Integer: 0}},
		{Key: "name", Value: StateValue{Kind: StateString, String: "Untitled"}},
		{Key: "gain", Value: StateValue{Kind: StateFloat, Float: 0.5}},
		{Key: "data", Value: StateValue{Kind: StateData, Data: []byte{0xde, 0xad}}},
	}}

	data, err := state.MarshalBinary()
	require.NoError(t, err)

	var got ClassInfo
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, state, got)

	v, ok := got.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "Untitled", v.String)

	_, ok = got.Lookup("missing")
	assert.False(t, ok)

	bad := ClassInfo{Entries: []StateEntry{{Key: "x"}}}
	_, err = bad.MarshalBinary()
	assert.Error(t, err)
}

func TestChannelLayoutUsesTag(t *testing.T) {
	assert.True(t, ChannelLayout{Tag: LayoutTagStereo}.UsesTag())
	assert.False(t, ChannelLayout{Tag: LayoutTagUseChannelBitmap}.UsesTag())
	assert.False(t, ChannelLayout{Tag: LayoutTagUseChannelDescriptions}.UsesTag())
}

func TestDecodeLayoutTagsIgnoresPartialTail(t *testing.T) {
	data := append(EncodeLayoutTags([]ChannelLayoutTag{LayoutTagMono, LayoutTagStereo}), 0xff)
	assert.Equal(t, []ChannelLayoutTag{LayoutTagMono, LayoutTagStereo}, DecodeLayoutTags(data))
}

func TestEventMatches(t *testing.T) {
	sub := Event{Kind: EventParameterValueChange, Scope: ScopeGlobal, Parameter: 3}

	assert.True(t, Event{Kind: EventParameterValueChange, Scope: ScopeGlobal, Parameter: 3}.Matches(sub))
	assert.True(t, Event{Kind: EventParameterValueChange, Scope: ScopeGlobal, Parameter: AnyParameter}.Matches(sub))
	assert.False(t, Event{Kind: EventParameterValueChange, Scope: ScopeGlobal, Parameter: 4}.Matches(sub))
	assert.False(t, Event{Kind: EventBeginParameterChangeGesture, Scope: ScopeGlobal, Parameter: 3}.Matches(sub))

	presetSub := Event{Kind: EventPropertyChange, Scope: ScopeGlobal, Property: PropertyPresentPreset}
	assert.True(t, Event{Kind: EventPropertyChange, Property: PropertyPresentPreset}.Matches(presetSub))
	assert.False(t, Event{Kind: EventPropertyChange, Property: PropertyCurrentPreset}.Matches(presetSub))
}
