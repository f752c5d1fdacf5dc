package native

import "fmt"

// Scope is the addressing axis of a property or parameter
type Scope uint32

const (
	ScopeGlobal Scope = 0
	ScopeInput  Scope = 1
	ScopeOutput Scope = 2
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeInput:
		return "input"
	case ScopeOutput:
		return "output"
	default:
		return fmt.Sprintf("scope(%d)", uint32(s))
	}
}

// Element is the index within a scope, usually a bus number
type Element uint32

// ParameterID identifies a parameter within a scope
type ParameterID uint32

// AnyParameter addresses every parameter of a component in a notification
const AnyParameter ParameterID = 0xFFFFFFFF

// PropertyKey is an opaque property selector
type PropertyKey uint32

const (
	PropertyClassInfo                  PropertyKey = 0
	PropertyParameterList              PropertyKey = 3
	PropertyParameterInfo              PropertyKey = 4
	PropertyStreamFormat               PropertyKey = 8
	PropertyElementCount               PropertyKey = 11
	PropertyLatency                    PropertyKey = 12
	PropertySupportedNumChannels       PropertyKey = 13
	PropertyMaximumFramesPerSlice      PropertyKey = 14
	PropertyParameterValueStrings      PropertyKey = 16
	PropertyUIComponentList            PropertyKey = 18
	PropertyAudioChannelLayout         PropertyKey = 19
	PropertyTailTime                   PropertyKey = 20
	PropertyBypassEffect               PropertyKey = 21
	PropertySetRenderCallback          PropertyKey = 23
	PropertyFactoryPresets             PropertyKey = 24
	PropertyHostCallbacks              PropertyKey = 27
	PropertyCurrentPreset              PropertyKey = 28
	PropertyElementName                PropertyKey = 30
	PropertyCocoaUI                    PropertyKey = 31
	PropertySupportedChannelLayoutTags PropertyKey = 32
	PropertyPresentPreset              PropertyKey = 36
	PropertyOfflineRender              PropertyKey = 37
	PropertyHostIdentifier             PropertyKey = 46
	PropertyMigrateFromPlugin          PropertyKey = 4000
	PropertyMigrateOldAutomation       PropertyKey = 4001
)

var propertyNames = map[PropertyKey]string{
	PropertyClassInfo:                  "ClassInfo",
	PropertyParameterList:              "ParameterList",
	PropertyParameterInfo:              "ParameterInfo",
	PropertyStreamFormat:               "StreamFormat",
	PropertyElementCount:               "ElementCount",
	PropertyLatency:                    "Latency",
	PropertySupportedNumChannels:       "SupportedNumChannels",
	PropertyMaximumFramesPerSlice:      "MaximumFramesPerSlice",
	PropertyParameterValueStrings:      "ParameterValueStrings",
	PropertyUIComponentList:            "UIComponentList",
	PropertyAudioChannelLayout:         "AudioChannelLayout",
	PropertyTailTime:                   "TailTime",
	PropertyBypassEffect:               "BypassEffect",
	PropertySetRenderCallback:          "SetRenderCallback",
	PropertyFactoryPresets:             "FactoryPresets",
	PropertyHostCallbacks:              "HostCallbacks",
	PropertyCurrentPreset:              "CurrentPreset",
	PropertyElementName:                "ElementName",
	PropertyCocoaUI:                    "CocoaUI",
	PropertySupportedChannelLayoutTags: "SupportedChannelLayoutTags",
	PropertyPresentPreset:              "PresentPreset",
	PropertyOfflineRender:              "OfflineRender",
	PropertyHostIdentifier:             "HostIdentifier",
	PropertyMigrateFromPlugin:          "MigrateFromPlugin",
	PropertyMigrateOldAutomation:       "MigrateOldAutomation",
}

// ParsePropertyKey returns the key with the given name
func ParsePropertyKey(name string) (PropertyKey, bool) {
	for k, n := range propertyNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

func (k PropertyKey) String() string {
	if name, ok := propertyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("property(%d)", uint32(k))
}

// Stream format identifiers and flags
const (
	FormatLinearPCM OSType = 0x6c70636d // 'lpcm'

	FormatFlagIsFloat          uint32 = 1 << 0
	FormatFlagIsBigEndian      uint32 = 1 << 1
	FormatFlagIsPacked         uint32 = 1 << 3
	FormatFlagIsNonInterleaved uint32 = 1 << 5

	FormatFlagsNativeFloatPacked = FormatFlagIsFloat | FormatFlagIsPacked
)

// StreamFormat describes the sample layout of one bus
type StreamFormat struct {
	SampleRate       float64
	FormatID         OSType
	FormatFlags      uint32
	BytesPerPacket   uint32
	FramesPerPacket  uint32
	BytesPerFrame    uint32
	ChannelsPerFrame uint32
	BitsPerChannel   uint32
	Reserved         uint32
}

// Parameter units and flags
const (
	UnitGeneric uint32 = 0
	UnitIndexed uint32 = 1

	ParameterFlagCanRamp    uint32 = 1 << 25
	ParameterFlagIsReadable uint32 = 1 << 30
	ParameterFlagIsWritable uint32 = 1 << 31
)

// ParameterNameSize is the fixed byte width of a parameter name
const ParameterNameSize = 52

// ParameterInfo is the descriptor of one parameter
type ParameterInfo struct {
	Name         string
	ClumpID      uint32
	Unit         uint32
	MinValue     float32
	MaxValue     float32
	DefaultValue float32
	Flags        uint32
}

// CanRamp reports whether the parameter accepts ramped events
func (p ParameterInfo) CanRamp() bool {
	return p.Flags&ParameterFlagCanRamp != 0
}

// Preset is a factory or user preset. User presets have a negative number.
type Preset struct {
	Number int32
	Name   string
}

// ChannelInfo is one supported (input, output) channel configuration.
// Negative counts are wildcards.
type ChannelInfo struct {
	InChannels  int16
	OutChannels int16
}

// ChannelLayoutTag identifies a channel layout
type ChannelLayoutTag uint32

const (
	LayoutTagUseChannelDescriptions ChannelLayoutTag = 0
	LayoutTagUseChannelBitmap       ChannelLayoutTag = 1 << 16
	LayoutTagMono                   ChannelLayoutTag = 100<<16 | 1
	LayoutTagStereo                 ChannelLayoutTag = 101<<16 | 2
	LayoutTagQuadraphonic           ChannelLayoutTag = 108<<16 | 4
)

// ChannelLayout is the header of an audio channel layout
type ChannelLayout struct {
	Tag     ChannelLayoutTag
	Bitmap  uint32
	Entries uint32
}

// UsesTag reports whether the layout is described by its tag alone
func (l ChannelLayout) UsesTag() bool {
	return l.Tag != LayoutTagUseChannelDescriptions && l.Tag != LayoutTagUseChannelBitmap
}

// CocoaViewInfo names the bundle and view classes of a Cocoa editor
type CocoaViewInfo struct {
	BundleLocation string
	Classes        []string
}

// Prior plugin formats a component can migrate from
const (
	OtherPluginFormatUndefined uint32 = 0
	OtherPluginFormatMAS       uint32 = 1
	OtherPluginFormatVST       uint32 = 4
	OtherPluginFormatAU        uint32 = 3
)

// OtherPluginDesc describes a plugin in a prior delivery format
type OtherPluginDesc struct {
	Format       uint32
	Type         OSType
	Subtype      OSType
	Manufacturer OSType
}

// ParameterValueTranslation maps a parameter of a prior format onto this component
type ParameterValueTranslation struct {
	Other        OtherPluginDesc
	OtherParamID uint32
	OtherValue   float32
	ParamID      uint32
	Value        float32
}

// HostIdentifier names the host application to a component
type HostIdentifier struct {
	Name    string
	Version uint32
}

// StateValueKind tags the type of a saved-state value
type StateValueKind uint8

const (
	StateString StateValueKind = iota + 1
	StateInteger
	StateFloat
	StateData
)

// StateValue is one typed saved-state value
type StateValue struct {
	Kind    StateValueKind
	String  string
	Integer int64
	Float   float64
	Data    []byte
}

// StateEntry is one key/value pair of a saved state
type StateEntry struct {
	Key   string
	Value StateValue
}

// ClassInfo is the saved state of a component instance
type ClassInfo struct {
	Entries []StateEntry
}

// Lookup returns the value stored under key
func (c ClassInfo) Lookup(key string) (StateValue, bool) {
	for _, e := range c.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return StateValue{}, false
}
