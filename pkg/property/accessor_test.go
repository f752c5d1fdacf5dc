package property

import (
	"testing"

	"github.com/platinummonkey/auval/pkg/auerr"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type propKey struct {
	key   native.PropertyKey
	scope native.Scope
	elem  native.Element
}

// mockInstance answers property calls from a table. Methods it does not
// override panic through the nil embedded interface.
type mockInstance struct {
	native.Instance

	sizes     map[propKey]uint32
	infoCodes map[propKey]native.Code
	values    map[propKey][]byte
	getCodes  map[propKey]native.Code
	setCodes  map[propKey]native.Code
	callbacks map[propKey]native.Callback
	lastIn    []byte
	getCalls  int
}

func newMockInstance() *mockInstance {
	return &mockInstance{
		sizes:     map[propKey]uint32{},
		infoCodes: map[propKey]native.Code{},
		values:    map[propKey][]byte{},
		getCodes:  map[propKey]native.Code{},
		setCodes:  map[propKey]native.Code{},
		callbacks: map[propKey]native.Callback{},
	}
}

func (m *mockInstance) GetPropertyInfo(key native.PropertyKey, scope native.Scope, elem native.Element) (uint32, bool, native.Code) {
	k := propKey{key, scope, elem}
	if code, ok := m.infoCodes[k]; ok {
		return 0, false, code
	}
	size, ok := m.sizes[k]
	if !ok {
		return 0, false, native.ErrInvalidProperty
	}
	return size, true, native.NoErr
}

func (m *mockInstance) GetProperty(key native.PropertyKey, scope native.Scope, elem native.Element, in []byte) ([]byte, native.Code) {
	m.getCalls++
	m.lastIn = in
	k := propKey{key, scope, elem}
	if code, ok := m.getCodes[k]; ok {
		return nil, code
	}
	return m.values[k], native.NoErr
}

func (m *mockInstance) SetProperty(key native.PropertyKey, scope native.Scope, elem native.Element, data []byte) native.Code {
	k := propKey{key, scope, elem}
	if code, ok := m.setCodes[k]; ok {
		return code
	}
	m.values[k] = data
	return native.NoErr
}

func (m *mockInstance) SetCallbackProperty(key native.PropertyKey, scope native.Scope, elem native.Element, cb native.Callback) native.Code {
	m.callbacks[propKey{key, scope, elem}] = cb
	return native.NoErr
}

func TestQueryInfo(t *testing.T) {
	inst := newMockInstance()
	latency := propKey{native.PropertyLatency, native.ScopeGlobal, 0}
	empty := propKey{native.PropertyParameterList, native.ScopeGlobal, 0}
	uninit := propKey{native.PropertyStreamFormat, native.ScopeInput, 0}
	inst.sizes[latency] = 8
	inst.sizes[empty] = 0
	inst.infoCodes[uninit] = native.ErrUninitialized

	a := New(inst)

	info, ok, err := a.QueryInfo(native.PropertyLatency, native.ScopeGlobal, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Info{Size: 8, Writable: true}, info)

	t.Run("zero size is absent", func(t *testing.T) {
		_, ok, err := a.QueryInfo(native.PropertyParameterList, native.ScopeGlobal, 0)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("failure codes are typed", func(t *testing.T) {
		_, ok, err := a.QueryInfo(native.PropertyStreamFormat, native.ScopeInput, 0)
		assert.False(t, ok)
		assert.True(t, auerr.Is(err, auerr.KindUninitialized))

		_, _, err = a.QueryInfo(native.PropertyTailTime, native.ScopeGlobal, 0)
		assert.True(t, auerr.Is(err, auerr.KindNative))
		assert.Equal(t, native.ErrInvalidProperty, auerr.CodeOf(err))
	})
}

func TestGet(t *testing.T) {
	inst := newMockInstance()
	k := propKey{native.PropertyLatency, native.ScopeGlobal, 0}
	inst.values[k] = native.EncodeFloat64(0.25)

	a := New(inst)
	data, err := a.Get(native.PropertyLatency, native.ScopeGlobal, 0, native.SizeFloat64)
	require.NoError(t, err)
	assert.Len(t, inst.lastIn, native.SizeFloat64)

	v, err := native.DecodeFloat64(data)
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)
}

func TestGetVariableSizeSentinel(t *testing.T) {
	inst := newMockInstance()
	inst.getCodes[propKey{native.PropertyClassInfo, native.ScopeGlobal, 0}] = native.CodeVariableSize

	_, err := New(inst).Get(native.PropertyClassInfo, native.ScopeGlobal, 0, 0)
	require.Error(t, err)
	assert.True(t, auerr.Is(err, auerr.KindVariableSize))
	assert.False(t, auerr.Is(err, auerr.KindNative))
}

func TestGetDoesNotRetry(t *testing.T) {
	inst := newMockInstance()
	inst.getCodes[propKey{native.PropertyFactoryPresets, native.ScopeGlobal, 0}] = native.ErrUninitialized

	_, err := New(inst).Get(native.PropertyFactoryPresets, native.ScopeGlobal, 0, 4)
	assert.True(t, auerr.Is(err, auerr.KindUninitialized))
	assert.Equal(t, 1, inst.getCalls)
}

func TestExchangePassesInput(t *testing.T) {
	inst := newMockInstance()
	in := []byte{1, 2, 3, 4}
	_, err := New(inst).Exchange(native.PropertyMigrateOldAutomation, native.ScopeGlobal, 0, in)
	require.NoError(t, err)
	assert.Equal(t, in, inst.lastIn)
}

func TestSet(t *testing.T) {
	inst := newMockInstance()
	k := propKey{native.PropertyBypassEffect, native.ScopeGlobal, 0}
	a := New(inst)

	require.NoError(t, a.Set(native.PropertyBypassEffect, native.ScopeGlobal, 0, native.EncodeUint32(1)))
	assert.Equal(t, native.EncodeUint32(1), inst.values[k])

	inst.setCodes[k] = native.ErrPropertyNotWritable
	err := a.Set(native.PropertyBypassEffect, native.ScopeGlobal, 0, native.EncodeUint32(0))
	assert.Equal(t, native.ErrPropertyNotWritable, auerr.CodeOf(err))
	assert.Contains(t, err.Error(), "BypassEffect")
}

func TestSetCallback(t *testing.T) {
	inst := newMockInstance()
	a := New(inst)
	k := propKey{native.PropertySetRenderCallback, native.ScopeInput, 0}

	var cb native.RenderCallback = func(*native.RenderFlags, native.TimeStamp, uint32, uint32, *native.BufferList) native.Code {
		return native.NoErr
	}
	require.NoError(t, a.SetCallback(native.PropertySetRenderCallback, native.ScopeInput, 0, cb))
	assert.NotNil(t, inst.callbacks[k])

	require.NoError(t, a.SetCallback(native.PropertySetRenderCallback, native.ScopeInput, 0, nil))
	assert.Nil(t, inst.callbacks[k])
}
