package validator

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/auval/pkg/native"
	"github.com/sirupsen/logrus"
)

// Probe is one test run against the shared component
type Probe struct {
	Name string
	Run  func(rc *RunContext) error
}

var errNoHandle = errors.New("no component handle is open")

// DefaultProbes returns the full probe battery
func DefaultProbes() []Probe {
	return []Probe{
		{Name: "ReinitializeInstance", Run: reinitializeInstance},
		{Name: "InspectClassInfo", Run: inspectClassInfo},
		{Name: "InspectPresetInfo", Run: inspectPresetInfo},
		{Name: "InspectParameterInfo", Run: inspectParameterInfo},
		{Name: "InspectBusAndChannelInfo", Run: inspectBusAndChannelInfo},
		{Name: "InspectLatency", Run: inspectLatency},
		{Name: "InspectUIComponentList", Run: inspectUIComponentList},
		{Name: "InspectStreamFormat", Run: inspectStreamFormat},
		{Name: "MakeAndDeleteListener", Run: makeAndDeleteListener},
		{Name: "TestComponentVersion", Run: testComponentVersion},
		{Name: "TestSchedulingAbility", Run: testSchedulingAbility},
		{Name: "InspectChannelLayouts", Run: inspectChannelLayouts},
		{Name: "InspectBypass", Run: inspectBypass},
		{Name: "InspectMigration", Run: inspectMigration},
	}
}

func reinitializeInstance(rc *RunContext) error {
	return rc.ReplaceHandle()
}

func inspectClassInfo(rc *RunContext) error {
	state, err := rc.Handle.ClassInfo()
	if err != nil {
		return err
	}
	for _, e := range state.Entries {
		rc.Log.WithField("key", e.Key).Debugf("Saved state entry of kind %d", e.Value.Kind)
	}
	rc.Notef("%d saved state entries", len(state.Entries))
	return nil
}

func inspectPresetInfo(rc *RunContext) error {
	presets, err := rc.Handle.FactoryPresets()
	if err != nil {
		return err
	}
	rc.Notef("%d factory presets", len(presets))

	current, err := rc.Handle.CurrentPreset()
	if err != nil {
		return err
	}
	rc.Notef("current preset %d %q", current.Number, current.Name)
	return nil
}

func inspectParameterInfo(rc *RunContext) error {
	ids, err := rc.Handle.GlobalParameterList()
	if err != nil {
		return err
	}

	blank := 0
	for _, id := range ids {
		info, ok, err := rc.Handle.ParameterInfo(native.ScopeGlobal, id)
		if err != nil {
			return err
		}
		if !ok {
			rc.Notef("parameter %d has no descriptor", id)
			continue
		}
		if info.Name == "" {
			blank++
		}
		if info.Unit == native.UnitIndexed {
			values, err := rc.Handle.ParameterValueStrings(native.ScopeGlobal, id)
			if err != nil {
				return err
			}
			if values == nil {
				rc.Notef("indexed parameter %d has no value strings", id)
			}
		}
	}
	if blank > 0 {
		rc.Notef("%d of %d parameters have a blank name", blank, len(ids))
	}
	return nil
}

func inspectBusAndChannelInfo(rc *RunContext) error {
	channels, err := rc.Handle.SupportedNumChannels()
	if err != nil {
		return err
	}
	rc.Notef("%d supported channel configurations", len(channels))

	for _, scope := range []native.Scope{native.ScopeInput, native.ScopeOutput} {
		count, writable, err := rc.Handle.BusCount(scope)
		if err != nil {
			return err
		}
		for bus := uint32(0); bus < count; bus++ {
			name, ok, err := rc.Handle.BusName(scope, native.Element(bus))
			if err != nil {
				return err
			}
			if ok {
				rc.Log.WithFields(logrus.Fields{"scope": scope, "bus": bus}).Debugf("Bus name %q", name)
			}
		}
		rc.Notef("%d %s buses (writable %t)", count, scope, writable)
	}
	return nil
}

func inspectLatency(rc *RunContext) error {
	latency, err := rc.Handle.Latency()
	if err != nil {
		return err
	}
	tail, ok, err := rc.Handle.TailTime()
	if err != nil {
		return err
	}
	if ok {
		rc.Notef("latency %.6fs, tail %.6fs", latency, tail)
	} else {
		rc.Notef("latency %.6fs", latency)
	}
	return nil
}

func inspectUIComponentList(rc *RunContext) error {
	info, err := rc.Handle.GUIInfo()
	if err != nil {
		return err
	}
	if info.UseCocoa(rc.HostIsCocoa) {
		rc.Notef("cocoa view from %s", info.Cocoa.BundleLocation)
		return nil
	}
	if info.ClassicIsGeneric {
		rc.Notef("generic view only")
		return nil
	}
	if desc, ok := rc.catalog.Find(info.Classic); ok {
		rc.Notef("classic view %s %q", info.Classic, desc.Name)
	} else {
		rc.Notef("classic view %s is not installed", info.Classic)
	}
	return nil
}

// inspectStreamFormat writes back each format the component reports. The
// component is left initialized.
func inspectStreamFormat(rc *RunContext) error {
	scopes := []native.Scope{native.ScopeOutput}
	if !rc.Handle.IsGenerator() {
		scopes = []native.Scope{native.ScopeInput, native.ScopeOutput}
	}

	for _, scope := range scopes {
		format, err := rc.Handle.StreamFormat(scope, 0)
		if err != nil {
			return err
		}
		if rc.Handle.IsInitialized() {
			if err := rc.Handle.Uninitialize(); err != nil {
				return err
			}
		}
		if err := rc.Handle.SetStreamFormat(scope, 0, format); err != nil {
			return fmt.Errorf("failed to restore %s format: %w", scope, err)
		}
		if err := rc.Handle.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

func makeAndDeleteListener(rc *RunContext) error {
	return rc.Handle.MakeAndDeleteListener()
}

func testComponentVersion(rc *RunContext) error {
	version := rc.Handle.Version()
	if version != rc.Version {
		rc.Notef("instance reports version %d, catalog reports %d", version, rc.Version)
	}
	return nil
}

func inspectChannelLayouts(rc *RunContext) error {
	scopes := []native.Scope{native.ScopeOutput}
	if !rc.Handle.IsGenerator() {
		scopes = []native.Scope{native.ScopeInput, native.ScopeOutput}
	}

	for _, scope := range scopes {
		supported := rc.Handle.SupportedLayouts(scope, 0)
		status := rc.Handle.CurrentChannelLayout(scope, 0)
		rc.Notef("%s layout %s, %d supported tags", scope, status.State, len(supported))
	}
	return nil
}

// inspectBypass toggles bypass on components that offer it and restores
// the original setting
func inspectBypass(rc *RunContext) error {
	if rc.Handle.IsGenerator() {
		return nil
	}
	was, err := rc.Handle.IsBypassed()
	if err != nil {
		return err
	}
	if err := rc.Handle.SetBypassed(!was); err != nil {
		rc.Notef("bypass not supported: %v", err)
		return nil
	}
	now, err := rc.Handle.IsBypassed()
	if err != nil {
		return err
	}
	if now == was {
		return fmt.Errorf("bypass accepted but still reads %t", now)
	}
	return rc.Handle.SetBypassed(was)
}

func inspectMigration(rc *RunContext) error {
	for _, desc := range rc.Handle.ReplacementList() {
		id, value := rc.Handle.TranslateAutomation(desc, 0, 0)
		rc.Notef("replaces %s/%s/%s (format %d), parameter 0 maps to %d = %g",
			desc.Type, desc.Subtype, desc.Manufacturer, desc.Format, id, value)
	}
	return nil
}
