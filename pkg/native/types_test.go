package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePropertyKey(t *testing.T) {
	for key, name := range propertyNames {
		got, ok := ParsePropertyKey(name)
		assert.True(t, ok, name)
		assert.Equal(t, key, got)
	}

	_, ok := ParsePropertyKey("NoSuchProperty")
	assert.False(t, ok)
}

func TestPropertyKeyString(t *testing.T) {
	assert.Equal(t, "FactoryPresets", PropertyFactoryPresets.String())
	assert.Equal(t, "property(9999)", PropertyKey(9999).String())
}
