package native

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFourCC(t *testing.T) {
	assert.Equal(t, TypeEffect, FourCC("aufx"))
	assert.Equal(t, ManufacturerApple, FourCC("appl"))
	assert.Equal(t, OSType(1634758764), ManufacturerApple)
	assert.Panics(t, func() { FourCC("abc") })
}

func TestParseOSType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		numeric bool
		want    OSType
		wantErr bool
	}{
		{name: "four characters", input: "aumu", want: TypeMusicDevice},
		{name: "trailing space", input: "USB ", want: FourCC("USB ")},
		{name: "decimal", input: "1635085685", want: TypeMusicDevice},
		{name: "numeric forces decimal", input: "1234", numeric: true, want: OSType(1234)},
		{name: "signed decimal", input: "-1", want: OSType(0xFFFFFFFF)},
		{name: "garbage", input: "not-a-code", wantErr: true},
		{name: "numeric garbage", input: "aufx", numeric: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOSType(tt.input, tt.numeric)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOSTypeString(t *testing.T) {
	assert.Equal(t, "aufx", TypeEffect.String())
	assert.Equal(t, "MVO ", FourCC("MVO ").String())
	assert.Equal(t, "1", OSType(1).String())
}

func TestOSTypeText(t *testing.T) {
	var v OSType
	require.NoError(t, v.UnmarshalText([]byte("MOTU")))
	assert.Equal(t, FourCC("MOTU"), v)

	text, err := v.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "MOTU", string(text))

	assert.Error(t, v.UnmarshalText([]byte("toolong")))
}

func TestIdentityOrder(t *testing.T) {
	// type first, then manufacturer, then subtype
	a := NewIdentity("aufx", "zzzz", "AAAA")
	b := NewIdentity("aufx", "aaaa", "BBBB")
	c := NewIdentity("aumu", "aaaa", "AAAA")

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, b.Less(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestIdentityIsGenerator(t *testing.T) {
	assert.True(t, NewIdentity("aumu", "Volt", "Motu").IsGenerator())
	assert.False(t, NewIdentity("aufx", "dely", "appl").IsGenerator())
}

func TestIdentityString(t *testing.T) {
	assert.Equal(t, "aumu/Volt/Motu", NewIdentity("aumu", "Volt", "Motu").String())
}

func identityGen() *rapid.Generator[Identity] {
	return rapid.Custom(func(t *rapid.T) Identity {
		// small ranges make ties on the leading fields likely
		return Identity{
			Type:         OSType(rapid.Uint32Range(0, 3).Draw(t, "type")),
			Subtype:      OSType(rapid.Uint32Range(0, 3).Draw(t, "subtype")),
			Manufacturer: OSType(rapid.Uint32Range(0, 3).Draw(t, "manufacturer")),
		}
	})
}

func TestIdentityCompareProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := identityGen().Draw(t, "a")
		b := identityGen().Draw(t, "b")
		c := identityGen().Draw(t, "c")

		if a.Compare(b) != -b.Compare(a) {
			t.Fatalf("compare is not antisymmetric for %v and %v", a, b)
		}
		if (a.Compare(b) == 0) != (a == b) {
			t.Fatalf("compare equality disagrees with value equality for %v and %v", a, b)
		}
		if a.Less(b) && b.Less(c) && !a.Less(c) {
			t.Fatalf("order is not transitive for %v < %v < %v", a, b, c)
		}
	})
}

func TestIdentitySortMatchesTupleOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOf(identityGen()).Draw(t, "ids")
		sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

		for i := 1; i < len(ids); i++ {
			prev, cur := ids[i-1], ids[i]
			key := func(id Identity) [3]OSType { return [3]OSType{id.Type, id.Manufacturer, id.Subtype} }
			p, c := key(prev), key(cur)
			for k := 0; k < 3; k++ {
				if p[k] != c[k] {
					if p[k] > c[k] {
						t.Fatalf("%v sorted before %v", prev, cur)
					}
					break
				}
			}
		}
	})
}
