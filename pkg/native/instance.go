package native

// RenderFlags are the action flags passed to and from a render call
type RenderFlags uint32

// TimeStampFlags mark which fields of a TimeStamp are valid
type TimeStampFlags uint32

const TimeStampSampleTimeValid TimeStampFlags = 1 << 0

// TimeStamp positions a render call on the sample timeline
type TimeStamp struct {
	SampleTime float64
	Flags      TimeStampFlags
}

// Buffer is one non-interleaved channel buffer
type Buffer struct {
	Channels uint32
	Data     []float32
}

// ByteSize is the size of the buffer payload in bytes
func (b Buffer) ByteSize() uint32 {
	return uint32(len(b.Data)) * 4
}

// BufferList is the set of buffers a render call writes into
type BufferList struct {
	Buffers []Buffer
}

// ParameterEventKind distinguishes immediate from ramped events
type ParameterEventKind uint32

const (
	ParameterEventImmediate ParameterEventKind = 1
	ParameterEventRamped    ParameterEventKind = 2
)

// ImmediateValue is the payload of an immediate parameter event
type ImmediateValue struct {
	BufferOffset uint32
	Value        float32
}

// RampValue is the payload of a ramped parameter event
type RampValue struct {
	StartBufferOffset int32
	DurationInFrames  uint32
	StartValue        float32
	EndValue          float32
}

// ParameterEvent is a scheduled change to one parameter
type ParameterEvent struct {
	Scope     Scope
	Element   Element
	Parameter ParameterID
	Kind      ParameterEventKind
	Immediate ImmediateValue
	Ramp      RampValue
}

// NewImmediateEvent schedules value at offset frames into the next buffer
func NewImmediateEvent(scope Scope, elem Element, id ParameterID, value float32, offset uint32) ParameterEvent {
	return ParameterEvent{
		Scope:     scope,
		Element:   elem,
		Parameter: id,
		Kind:      ParameterEventImmediate,
		Immediate: ImmediateValue{BufferOffset: offset, Value: value},
	}
}

// NewRampedEvent schedules a ramp from start to end over duration frames
func NewRampedEvent(scope Scope, elem Element, id ParameterID, start, end float32, offset int32, duration uint32) ParameterEvent {
	return ParameterEvent{
		Scope:     scope,
		Element:   elem,
		Parameter: id,
		Kind:      ParameterEventRamped,
		Ramp: RampValue{
			StartBufferOffset: offset,
			DurationInFrames:  duration,
			StartValue:        start,
			EndValue:          end,
		},
	}
}

// Callback is a property value that carries a function rather than bytes
type Callback interface {
	callbackProperty() PropertyKey
}

// RenderCallback supplies input audio to a component
type RenderCallback func(flags *RenderFlags, ts TimeStamp, bus uint32, frames uint32, buffers *BufferList) Code

func (RenderCallback) callbackProperty() PropertyKey { return PropertySetRenderCallback }

// MusicalTime is the host's position within the current measure
type MusicalTime struct {
	DeltaSampleOffsetToNextBeat uint32
	TimeSigNumerator            float32
	TimeSigDenominator          uint32
	CurrentMeasureDownBeat      float64
}

// TransportState is the host's transport position
type TransportState struct {
	IsPlaying               bool
	TransportStateChanged   bool
	CurrentSampleInTimeLine float64
	IsCycling               bool
	CycleStartBeat          float64
	CycleEndBeat            float64
}

// HostCallbacks are the tempo and transport queries a host answers.
// Any field may be nil.
type HostCallbacks struct {
	BeatAndTempo        func() (beat, tempo float64, code Code)
	MusicalTimeLocation func() (MusicalTime, Code)
	TransportState      func() (TransportState, Code)
}

func (*HostCallbacks) callbackProperty() PropertyKey { return PropertyHostCallbacks }

// CallbackProperty returns the property a callback is installed through
func CallbackProperty(cb Callback) PropertyKey {
	return cb.callbackProperty()
}

// EventKind is the kind of a listener event
type EventKind uint32

const (
	EventParameterValueChange EventKind = iota
	EventBeginParameterChangeGesture
	EventEndParameterChangeGesture
	EventPropertyChange
)

func (k EventKind) String() string {
	switch k {
	case EventParameterValueChange:
		return "value-change"
	case EventBeginParameterChangeGesture:
		return "begin-gesture"
	case EventEndParameterChangeGesture:
		return "end-gesture"
	case EventPropertyChange:
		return "property-change"
	default:
		return "unknown"
	}
}

// Event is a parameter or property notification. Parameter is set for the
// parameter kinds, Property for EventPropertyChange.
type Event struct {
	Kind      EventKind
	Scope     Scope
	Element   Element
	Parameter ParameterID
	Property  PropertyKey
	Value     float32
}

// Matches reports whether a delivered event satisfies a subscription
func (e Event) Matches(sub Event) bool {
	if e.Kind != sub.Kind || e.Scope != sub.Scope || e.Element != sub.Element {
		return false
	}
	if e.Kind == EventPropertyChange {
		return e.Property == sub.Property
	}
	return e.Parameter == sub.Parameter || e.Parameter == AnyParameter
}

// Listener is an event subscription created from an Instance
type Listener interface {
	// Subscribe adds an event kind and target to the subscription
	Subscribe(target Event) Code
	// Dispose removes every subscription. The listener is unusable afterwards.
	Dispose() Code
}

// Instance is one live component
type Instance interface {
	Initialize() Code
	Uninitialize() Code

	// GetPropertyInfo reports the size and writability of a property
	GetPropertyInfo(key PropertyKey, scope Scope, elem Element) (size uint32, writable bool, code Code)
	// GetProperty reads a property. in carries the caller's buffer; its
	// length is the expected size and its contents are passed to properties
	// that are read in place.
	GetProperty(key PropertyKey, scope Scope, elem Element, in []byte) ([]byte, Code)
	SetProperty(key PropertyKey, scope Scope, elem Element, data []byte) Code
	// SetCallbackProperty installs a callback-valued property. A nil cb removes it.
	SetCallbackProperty(key PropertyKey, scope Scope, elem Element, cb Callback) Code

	GetParameter(id ParameterID, scope Scope, elem Element) (float32, Code)
	SetParameter(id ParameterID, scope Scope, elem Element, value float32, offset uint32) Code
	ScheduleParameters(events []ParameterEvent) Code

	Render(flags *RenderFlags, ts TimeStamp, bus uint32, frames uint32, buffers *BufferList) Code
	Reset(scope Scope, elem Element) Code

	// NewListener creates an event listener whose deliveries call fn
	NewListener(fn func(Event)) (Listener, Code)
	// Notify delivers an event to every matching listener
	Notify(ev Event) Code

	Version() int32
	Close() Code
}

// Description is what a catalog knows about an installed component without
// instantiating it
type Description struct {
	Identity Identity
	Name     string
	Version  int32
}

// Catalog resolves identities to installed components
type Catalog interface {
	Find(id Identity) (Description, bool)
	Instantiate(id Identity) (Instance, Code)
	// List returns every installed component of typ in identity order
	List(typ OSType) []Description
}
