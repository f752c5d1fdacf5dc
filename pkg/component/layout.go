package component

import (
	"github.com/platinummonkey/auval/pkg/auerr"
	"github.com/platinummonkey/auval/pkg/native"
)

// LayoutState says whether a bus has a channel layout
type LayoutState int

const (
	// LayoutNotSupported means the bus has no channel layout property
	LayoutNotSupported LayoutState = iota
	// LayoutNotSet means the property exists but holds no tagged layout
	LayoutNotSet
	// LayoutSet means Tag holds the current layout
	LayoutSet
)

func (s LayoutState) String() string {
	switch s {
	case LayoutNotSet:
		return "not set"
	case LayoutSet:
		return "set"
	default:
		return "not supported"
	}
}

// LayoutStatus is the channel layout of one bus
type LayoutStatus struct {
	State    LayoutState
	Tag      native.ChannelLayoutTag
	Writable bool
}

// SupportedLayouts returns the layout tags a bus accepts. Failures yield nil.
func (h *Handle) SupportedLayouts(scope native.Scope, bus native.Element) []native.ChannelLayoutTag {
	info, ok, err := h.props.QueryInfo(native.PropertySupportedChannelLayoutTags, scope, bus)
	if err != nil || !ok {
		return nil
	}
	data, err := h.props.Get(native.PropertySupportedChannelLayoutTags, scope, bus, info.Size)
	if err != nil {
		return nil
	}
	return native.DecodeLayoutTags(data)
}

// CurrentChannelLayout reads the channel layout of a bus
func (h *Handle) CurrentChannelLayout(scope native.Scope, bus native.Element) LayoutStatus {
	info, _, err := h.props.QueryInfo(native.PropertyAudioChannelLayout, scope, bus)
	if err != nil {
		return LayoutStatus{State: LayoutNotSupported}
	}
	status := LayoutStatus{State: LayoutNotSet, Writable: info.Writable}

	size := info.Size
	if size < native.SizeChannelLayout {
		size = native.SizeChannelLayout
	}
	data, err := h.props.Get(native.PropertyAudioChannelLayout, scope, bus, size)
	if auerr.Is(err, auerr.KindNotInUse) {
		return status
	}
	if err != nil {
		return LayoutStatus{State: LayoutNotSupported}
	}

	var layout native.ChannelLayout
	if err := layout.UnmarshalBinary(data); err != nil || !layout.UsesTag() {
		return status
	}
	status.State = LayoutSet
	status.Tag = layout.Tag
	return status
}

// SetChannelLayout sets the channel layout of a bus
func (h *Handle) SetChannelLayout(scope native.Scope, bus native.Element, layout native.ChannelLayout) error {
	data, _ := layout.MarshalBinary()
	return h.props.Set(native.PropertyAudioChannelLayout, scope, bus, data)
}
