package validator

import (
	"testing"

	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProbes(t *testing.T) {
	probes := DefaultProbes()
	require.Len(t, probes, 14)

	names := map[string]bool{}
	for _, p := range probes {
		assert.NotNil(t, p.Run, p.Name)
		names[p.Name] = true
	}
	assert.Len(t, names, 14)
	assert.True(t, names["TestSchedulingAbility"])
	assert.True(t, names["ReinitializeInstance"])
}

func TestDefaultProbesPassOnWellBehavedComponents(t *testing.T) {
	specs := map[string]func() *simulator.Spec{
		"effect": delaySpec,
		"generator": synthSpec,
	}
	for name, spec := range specs {
		for _, initialized := range []bool{false, true} {
			for _, p := range DefaultProbes() {
				t.Run(name+"/"+p.Name, func(t *testing.T) {
					rc, _ := newRunContext(t, spec(), initialized)
					assert.NoError(t, p.Run(rc))
				})
			}
		}
	}
}

func TestReinitializeInstance(t *testing.T) {
	rc, cat := newRunContext(t, delaySpec(), true)
	first := lastInstance(t, cat, delayID)

	require.NoError(t, reinitializeInstance(rc))

	instances := cat.Instances(delayID)
	require.Len(t, instances, 2)
	assert.True(t, first.Closed())
	assert.False(t, instances[1].Closed())
	assert.True(t, rc.Handle.IsInitialized())
}

func TestInspectStreamFormatLeavesComponentInitialized(t *testing.T) {
	rc, cat := newRunContext(t, delaySpec(), false)

	require.NoError(t, inspectStreamFormat(rc))
	assert.True(t, rc.Handle.IsInitialized())

	calls := lastInstance(t, cat, delayID).Calls()
	initCount := 0
	for _, c := range calls {
		if c == "Initialize" {
			initCount++
		}
	}
	assert.Equal(t, 2, initCount)
}

func TestInspectPresetInfoNeedsInitialization(t *testing.T) {
	spec := delaySpec()
	spec.Faults.RequireInit = []native.PropertyKey{native.PropertyFactoryPresets}
	rc, _ := newRunContext(t, spec, false)

	err := inspectPresetInfo(rc)
	require.Error(t, err)
}

func TestInspectParameterInfoNotesBlankNames(t *testing.T) {
	spec := delaySpec()
	spec.Parameters[0].Info.Name = ""
	rc, _ := newRunContext(t, spec, false)

	require.NoError(t, inspectParameterInfo(rc))
	assert.Contains(t, rc.takeNotes(), "1 of 2 parameters have a blank name")
}

func TestInspectBypass(t *testing.T) {
	t.Run("toggles and restores", func(t *testing.T) {
		spec := delaySpec()
		spec.CanBypass = true
		rc, _ := newRunContext(t, spec, true)

		require.NoError(t, inspectBypass(rc))
		bypassed, err := rc.Handle.IsBypassed()
		require.NoError(t, err)
		assert.False(t, bypassed)
	})

	t.Run("unsupported is only noted", func(t *testing.T) {
		rc, _ := newRunContext(t, delaySpec(), true)
		require.NoError(t, inspectBypass(rc))
		notes := rc.takeNotes()
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0], "bypass not supported")
	})
}

func TestInspectUIComponentList(t *testing.T) {
	view := native.NewIdentity("auvc", "dlyv", "tsti")

	t.Run("generic only", func(t *testing.T) {
		rc, _ := newRunContext(t, delaySpec(), false)
		require.NoError(t, inspectUIComponentList(rc))
		assert.Equal(t, []string{"generic view only"}, rc.takeNotes())
	})

	t.Run("cocoa host", func(t *testing.T) {
		spec := delaySpec()
		spec.Views = []native.Identity{view}
		spec.Cocoa = &native.CocoaViewInfo{BundleLocation: "/Library/Delay.bundle", Classes: []string{"DelayView"}}
		rc, _ := newRunContext(t, spec, false)
		rc.HostIsCocoa = true

		require.NoError(t, inspectUIComponentList(rc))
		assert.Equal(t, []string{"cocoa view from /Library/Delay.bundle"}, rc.takeNotes())
	})

	t.Run("classic view not installed", func(t *testing.T) {
		spec := delaySpec()
		spec.Views = []native.Identity{view}
		rc, _ := newRunContext(t, spec, false)

		require.NoError(t, inspectUIComponentList(rc))
		assert.Equal(t, []string{"classic view auvc/dlyv/tsti is not installed"}, rc.takeNotes())
	})
}

func TestInspectMigration(t *testing.T) {
	mas := native.OtherPluginDesc{
		Format:       native.OtherPluginFormatMAS,
		Type:         native.FourCC("aufx"),
		Subtype:      native.FourCC("dely"),
		Manufacturer: native.FourCC("tsti"),
	}
	spec := delaySpec()
	spec.Replaces = []native.OtherPluginDesc{mas}
	spec.Translations = []simulator.Translation{{From: mas, OtherParamID: 0, ParamID: 1, Scale: 2}}
	rc, _ := newRunContext(t, spec, false)

	require.NoError(t, inspectMigration(rc))
	notes := rc.takeNotes()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "maps to 1")
}

func TestComponentVersionMismatchIsNoted(t *testing.T) {
	rc, _ := newRunContext(t, delaySpec(), false)
	rc.Version = 3

	require.NoError(t, testComponentVersion(rc))
	assert.Equal(t, []string{"instance reports version 65536, catalog reports 3"}, rc.takeNotes())
}
