package component

import (
	"fmt"

	"github.com/platinummonkey/auval/pkg/native"
)

// genericView is the host-drawn editor every component can fall back to
var genericView = native.Identity{
	Type:         native.TypeViewClassic,
	Subtype:      native.SubtypeGenericView,
	Manufacturer: native.ManufacturerApple,
}

// GUIInfo describes the editors a component offers
type GUIInfo struct {
	// Cocoa is nil when the component has no Cocoa view
	Cocoa *native.CocoaViewInfo
	// Classic is the preferred classic view component
	Classic native.Identity
	// ClassicIsGeneric is true when only the generic view is available
	ClassicIsGeneric bool
}

// UseCocoa reports whether a host should open the Cocoa view
func (g GUIInfo) UseCocoa(hostIsCocoa bool) bool {
	if g.Cocoa == nil {
		return false
	}
	return hostIsCocoa || g.ClassicIsGeneric
}

// UIComponentList returns the classic view components. The generic view is
// returned when the component lists none.
func (h *Handle) UIComponentList() ([]native.Identity, error) {
	info, ok, err := h.present(native.PropertyUIComponentList, native.ScopeGlobal, 0)
	if err != nil {
		return nil, err
	}
	var views []native.Identity
	if ok {
		data, err := h.props.Get(native.PropertyUIComponentList, native.ScopeGlobal, 0, info.Size)
		if err != nil {
			return nil, err
		}
		views = native.DecodeIdentities(data)
	}
	if len(views) == 0 {
		views = append(views, genericView)
	}
	return views, nil
}

// CocoaView returns the Cocoa view descriptor, or nil when there is none
func (h *Handle) CocoaView() (*native.CocoaViewInfo, error) {
	info, ok, err := h.present(native.PropertyCocoaUI, native.ScopeGlobal, 0)
	if err != nil || !ok {
		return nil, err
	}
	data, err := h.props.Get(native.PropertyCocoaUI, native.ScopeGlobal, 0, info.Size)
	if err != nil {
		return nil, err
	}
	var view native.CocoaViewInfo
	if err := view.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to decode cocoa view info: %w", err)
	}
	return &view, nil
}

// GUIInfo collects the classic and Cocoa view descriptors
func (h *Handle) GUIInfo() (GUIInfo, error) {
	views, err := h.UIComponentList()
	if err != nil {
		return GUIInfo{}, err
	}

	g := GUIInfo{Classic: views[0], ClassicIsGeneric: true}
	for _, v := range views {
		if v.Subtype != native.SubtypeGenericView {
			g.Classic = v
			g.ClassicIsGeneric = false
			break
		}
	}

	if g.Cocoa, err = h.CocoaView(); err != nil {
		return GUIInfo{}, err
	}
	return g, nil
}
