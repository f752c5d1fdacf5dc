package exceptions

import (
	"bytes"
	"strings"
	"testing"

	"github.com/platinummonkey/auval/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultIsBuiltOnce(t *testing.T) {
	p := Default()
	assert.Same(t, p, Default())
	assert.Equal(t, 27, p.Len())
}

func TestClassifyBuiltin(t *testing.T) {
	volta := native.NewIdentity("aumu", "Volt", "Motu")
	uvi := native.NewIdentity("aumu", "UPLA", "USB ")
	tcEffect := native.Identity{Type: native.TypeEffect, Subtype: 842282819, Manufacturer: 1448301600}
	dls := native.Identity{Type: native.TypeMusicDevice, Subtype: native.FourCC("dls "), Manufacturer: native.ManufacturerApple}

	tests := []struct {
		name    string
		id      native.Identity
		version int32
		want    Decision
	}{
		{"superseded", volta, 0x00020000, Decision{Verdict: Blacklisted, Reason: "Use the MAS version of Volta", DuplicateFormat: true}},
		{"superseded with padded code", uvi, 1, Decision{Verdict: Blacklisted, Reason: reasonUseMAS, DuplicateFormat: true}},
		{"at threshold", tcEffect, 500, Decision{Verdict: Blacklisted, Reason: reasonContactVendor}},
		{"below threshold", tcEffect, 3, Decision{Verdict: Blacklisted, Reason: reasonContactVendor}},
		{"above threshold", tcEffect, 501, Decision{Verdict: NotListed}},
		{"apple debug build", dls, -1, Decision{Verdict: NotListed}},
		{"old apple build", dls, 65536, Decision{Verdict: Blacklisted, Reason: reasonContactVendor}},
		{"unknown", native.NewIdentity("aufx", "dely", "tsti"), 1, Decision{Verdict: NotListed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Default().Classify(tt.id, tt.version))
		})
	}
}

func TestAppleDebugBuildCanBeWhitelisted(t *testing.T) {
	id := native.NewIdentity("aufx", "dbug", "appl")
	p, err := New([]Rule{{Identity: id, Disposition: AlwaysValid, Reason: "trusted"}})
	require.NoError(t, err)

	assert.Equal(t, Decision{Verdict: Whitelisted, Reason: "trusted"}, p.Classify(id, -1))
}

func TestNewRejectsInvalidRules(t *testing.T) {
	id := native.NewIdentity("aufx", "dely", "tsti")

	_, err := New([]Rule{{Identity: id, Disposition: AlwaysValid}, {Identity: id, Disposition: AlwaysInvalid}})
	assert.ErrorContains(t, err, "duplicate")

	_, err = New([]Rule{{Identity: id, Disposition: AlwaysValid, DuplicateFormat: true}})
	assert.ErrorContains(t, err, "duplicate_format")

	_, err = New([]Rule{{Identity: id, Disposition: Disposition(9)}})
	assert.Error(t, err)
}

func TestExtend(t *testing.T) {
	volta := native.NewIdentity("aumu", "Volt", "Motu")
	p, err := Default().Extend([]Rule{{Identity: volta, Disposition: AlwaysValid}})
	require.NoError(t, err)

	assert.Equal(t, Whitelisted, p.Classify(volta, 1).Verdict)
	assert.Equal(t, Blacklisted, Default().Classify(volta, 1).Verdict, "the built-in table must not change")
	assert.Equal(t, Default().Len(), p.Len())
}

func TestDecode(t *testing.T) {
	doc := `
rules:
  - type: aufx
    subtype: dely
    manufacturer: 'USB '
    disposition: invalid-at-or-below
    version: 65536
    reason: crashes on render
  - type: 1635085685
    subtype: synt
    manufacturer: tsti
    disposition: always-valid
`
	rules, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, native.NewIdentity("aufx", "dely", "USB "), rules[0].Identity)
	assert.Equal(t, InvalidAtOrBelowVersion, rules[0].Disposition)
	assert.Equal(t, int32(65536), rules[0].Version)
	assert.Equal(t, native.TypeMusicDevice, rules[1].Identity.Type)
	assert.Equal(t, AlwaysValid, rules[1].Disposition)

	t.Run("empty document", func(t *testing.T) {
		rules, err := Decode(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, rules)
	})

	t.Run("unknown disposition", func(t *testing.T) {
		_, err := Decode(strings.NewReader("rules:\n  - type: aufx\n    subtype: dely\n    manufacturer: tsti\n    disposition: sometimes\n"))
		assert.ErrorContains(t, err, "sometimes")
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Decode(strings.NewReader("rules:\n  - type: aufx\n    colour: red\n"))
		assert.Error(t, err)
	})
}

func TestEncodeDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Encode(&buf))

	rules, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Default().Rules(), rules)
}

func TestVersionThresholdProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		threshold := rapid.Int32().Draw(t, "threshold")
		version := rapid.Int32().Draw(t, "version")
		manufacturer := native.OSType(rapid.Uint32().Draw(t, "manufacturer"))
		id := native.Identity{Type: native.TypeEffect, Subtype: native.FourCC("test"), Manufacturer: manufacturer}

		p, err := New([]Rule{{Identity: id, Disposition: InvalidAtOrBelowVersion, Version: threshold}})
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		got := p.Classify(id, version).Verdict
		want := NotListed
		if version <= threshold && !(manufacturer == native.ManufacturerApple && version == -1) {
			want = Blacklisted
		}
		if got != want {
			t.Fatalf("Classify(version=%d) with threshold %d = %s, want %s", version, threshold, got, want)
		}
	})
}
