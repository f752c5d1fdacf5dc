package native

import (
	"fmt"
	"strconv"
)

// OSType is a 32-bit four-character code
type OSType uint32

// Well-known component types and manufacturers
const (
	TypeEffect      OSType = 0x61756678 // 'aufx'
	TypeMusicEffect OSType = 0x61756d66 // 'aumf'
	TypeMusicDevice OSType = 0x61756d75 // 'aumu'
	TypeGenerator   OSType = 0x6175676e // 'augn'
	TypeViewClassic OSType = 0x61757663 // 'auvc'

	ManufacturerApple OSType = 0x6170706c // 'appl'

	// SubtypeGenericView is the subtype of the host-drawn fallback view
	SubtypeGenericView OSType = 0x676e7263 // 'gnrc'
)

// FourCC builds an OSType from a four-character string. It panics if s is not
// exactly four bytes long, so it is meant for constants and tables.
func FourCC(s string) OSType {
	if len(s) != 4 {
		panic(fmt.Sprintf("native: four-character code must be 4 bytes, got %q", s))
	}
	return OSType(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3]))
}

// ParseOSType parses a four-character code, or a decimal integer when the
// input is not exactly four bytes or numeric is set.
func ParseOSType(s string, numeric bool) (OSType, error) {
	if !numeric && len(s) == 4 {
		return FourCC(s), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		// Negative values show up when a code was printed as a signed int32
		signed, serr := strconv.ParseInt(s, 10, 32)
		if serr != nil {
			return 0, fmt.Errorf("invalid component code %q: want four characters or a decimal integer", s)
		}
		return OSType(uint32(int32(signed))), nil
	}
	return OSType(v), nil
}

// String renders printable codes as their four characters and everything else as a number
func (t OSType) String() string {
	b := []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return strconv.FormatUint(uint64(t), 10)
		}
	}
	return string(b)
}

// Identity names one installed component
type Identity struct {
	Type         OSType `yaml:"type" json:"type"`
	Subtype      OSType `yaml:"subtype" json:"subtype"`
	Manufacturer OSType `yaml:"manufacturer" json:"manufacturer"`
}

// NewIdentity builds an Identity from three four-character codes
func NewIdentity(typ, subtype, manufacturer string) Identity {
	return Identity{Type: FourCC(typ), Subtype: FourCC(subtype), Manufacturer: FourCC(manufacturer)}
}

// Compare orders identities by type, then manufacturer, then subtype.
// It returns -1, 0 or +1.
func (id Identity) Compare(other Identity) int {
	switch {
	case id.Type != other.Type:
		return cmpOSType(id.Type, other.Type)
	case id.Manufacturer != other.Manufacturer:
		return cmpOSType(id.Manufacturer, other.Manufacturer)
	default:
		return cmpOSType(id.Subtype, other.Subtype)
	}
}

// Less reports whether id sorts before other
func (id Identity) Less(other Identity) bool {
	return id.Compare(other) < 0
}

// IsGenerator reports whether the component produces audio without an input bus
func (id Identity) IsGenerator() bool {
	return id.Type == TypeMusicDevice
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Type, id.Subtype, id.Manufacturer)
}

func cmpOSType(a, b OSType) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MarshalText lets OSType appear as a four-character code in YAML and JSON
func (t OSType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts either a four-character code or a decimal integer
func (t *OSType) UnmarshalText(text []byte) error {
	v, err := ParseOSType(string(text), false)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
