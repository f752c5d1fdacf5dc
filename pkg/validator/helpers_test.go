package validator

import (
	"testing"

	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/simulator"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var (
	delayID = native.NewIdentity("aufx", "dely", "tsti")
	synthID = native.NewIdentity("aumu", "synt", "tsti")
)

func delaySpec() *simulator.Spec {
	return &simulator.Spec{
		Identity: delayID,
		Name:     "Test Delay",
		Version:  0x00010000,
		Parameters: []simulator.Parameter{
			{ID: 0, Info: native.ParameterInfo{Name: "Mix", MaxValue: 1, DefaultValue: 0.5, Flags: native.ParameterFlagCanRamp}},
			{ID: 1, Info: native.ParameterInfo{Name: "Mode", Unit: native.UnitIndexed, MaxValue: 2}, ValueStrings: []string{"A", "B", "C"}},
		},
		Presets:           []native.Preset{{Number: 0, Name: "Short"}, {Number: 1, Name: "Long"}},
		UsesHostCallbacks: true,
	}
}

func synthSpec() *simulator.Spec {
	return &simulator.Spec{
		Identity: synthID,
		Name:     "Test Synth",
		Version:  0x00020000,
		Parameters: []simulator.Parameter{
			{ID: 7, Info: native.ParameterInfo{Name: "Cutoff", MinValue: 20, MaxValue: 20000, DefaultValue: 1000}},
		},
	}
}

func nullLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

// newRunContext opens a handle the way a run does
func newRunContext(t *testing.T, spec *simulator.Spec, requiresInit bool) (*RunContext, *simulator.Catalog) {
	t.Helper()
	cat := simulator.NewCatalog(spec)
	rc := &RunContext{
		Identity:             spec.Identity,
		Version:              spec.Version,
		RequiresExplicitInit: requiresInit,
		Allocator:            HeapAllocator{},
		Log:                  logrus.NewEntry(nullLogger()),
		catalog:              cat,
	}
	require.NoError(t, rc.ReplaceHandle())
	t.Cleanup(rc.closeHandle)
	return rc, cat
}

func lastInstance(t *testing.T, cat *simulator.Catalog, id native.Identity) *simulator.Instance {
	t.Helper()
	instances := cat.Instances(id)
	require.NotEmpty(t, instances)
	return instances[len(instances)-1]
}

func probeNamed(name string) Probe {
	for _, p := range DefaultProbes() {
		if p.Name == name {
			return p
		}
	}
	panic("unknown probe " + name)
}

func boolPtr(b bool) *bool { return &b }

// countingAllocator tracks how often each buffer is freed
type countingAllocator struct {
	allocated []*float32
	frees     map[*float32]int
}

func newCountingAllocator() *countingAllocator {
	return &countingAllocator{frees: map[*float32]int{}}
}

func (a *countingAllocator) Alloc(frames int) []float32 {
	buf := make([]float32, frames)
	a.allocated = append(a.allocated, &buf[0])
	return buf
}

func (a *countingAllocator) Free(buf []float32) {
	a.frees[&buf[0]]++
}

func (a *countingAllocator) freedOnce(t *testing.T) {
	t.Helper()
	require.Len(t, a.frees, len(a.allocated))
	for _, p := range a.allocated {
		require.Equal(t, 1, a.frees[p])
	}
}
