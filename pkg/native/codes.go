package native

import "fmt"

// Code is a native status code. Zero is success.
type Code int32

const (
	NoErr Code = 0

	// CodeVariableSize is returned by components for properties whose size is not fixed
	CodeVariableSize Code = -1

	ErrInvalidProperty          Code = -10879
	ErrInvalidParameter         Code = -10878
	ErrInvalidElement           Code = -10877
	ErrNoConnection             Code = -10876
	ErrFailedInitialization     Code = -10875
	ErrTooManyFramesToProcess   Code = -10874
	ErrFormatNotSupported       Code = -10868
	ErrUninitialized            Code = -10867
	ErrInvalidScope             Code = -10866
	ErrPropertyNotWritable      Code = -10865
	ErrCannotDoInCurrentContext Code = -10863
	ErrInvalidPropertyValue     Code = -10851
	ErrPropertyNotInUse         Code = -10850
	ErrInitialized              Code = -10849
	ErrUnauthorized             Code = -10847
	ErrUnspecified              Code = 0x77686174 // 'what'
)

var codeNames = map[Code]string{
	NoErr:                       "noErr",
	CodeVariableSize:            "variable size",
	ErrInvalidProperty:          "invalid property",
	ErrInvalidParameter:         "invalid parameter",
	ErrInvalidElement:           "invalid element",
	ErrNoConnection:             "no connection",
	ErrFailedInitialization:     "failed initialization",
	ErrTooManyFramesToProcess:   "too many frames to process",
	ErrFormatNotSupported:       "format not supported",
	ErrUninitialized:            "uninitialized",
	ErrInvalidScope:             "invalid scope",
	ErrPropertyNotWritable:      "property not writable",
	ErrCannotDoInCurrentContext: "cannot do in current context",
	ErrInvalidPropertyValue:     "invalid property value",
	ErrPropertyNotInUse:         "property not in use",
	ErrInitialized:              "initialized",
	ErrUnauthorized:             "unauthorized",
	ErrUnspecified:              "unspecified",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return fmt.Sprintf("%s (%d)", name, int32(c))
	}
	return fmt.Sprintf("code %d", int32(c))
}
