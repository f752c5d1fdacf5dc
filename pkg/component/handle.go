package component

import (
	"fmt"

	"github.com/platinummonkey/auval/pkg/auerr"
	"github.com/platinummonkey/auval/pkg/native"
	"github.com/platinummonkey/auval/pkg/property"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a Handle
type State int

const (
	Uninitialized State = iota
	Initialized
)

func (s State) String() string {
	if s == Initialized {
		return "initialized"
	}
	return "uninitialized"
}

// Observer receives component notifications. Calls are made synchronously
// from within the handle operation that triggered them.
type Observer interface {
	GestureChanged(begin bool, ev native.Event)
	ValueChanged(ev native.Event)
	PresetChanged(p native.Preset)
}

// Option configures a Handle
type Option func(*Handle)

// WithLogger sets the logger used for failures Close and the best-effort
// setters cannot return
func WithLogger(log *logrus.Entry) Option {
	return func(h *Handle) {
		h.log = log
	}
}

type observerEntry struct {
	o Observer
}

// Handle owns one native instance
type Handle struct {
	id        native.Identity
	inst      native.Instance
	props     *property.Accessor
	state     State
	listener  native.Listener
	observers []*observerEntry
	closed    bool
	log       *logrus.Entry
}

// Open resolves id through catalog and instantiates it. No handle is
// returned on failure.
func Open(catalog native.Catalog, id native.Identity, opts ...Option) (*Handle, error) {
	if _, ok := catalog.Find(id); !ok {
		return nil, auerr.NotFound("Open", id)
	}

	inst, code := catalog.Instantiate(id)
	if code == native.NoErr && inst == nil {
		code = native.ErrFailedInitialization
	}
	if code != native.NoErr {
		return nil, fmt.Errorf("failed to instantiate %s: %w", id, auerr.FromCode("Instantiate", code))
	}

	h := &Handle{
		id:    id,
		inst:  inst,
		props: property.New(inst),
		log:   logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithField("component", id.String())

	return h, nil
}

// Identity returns the identity the handle was opened with
func (h *Handle) Identity() native.Identity { return h.id }

// State returns the lifecycle state
func (h *Handle) State() State { return h.state }

// IsInitialized reports whether the handle is in the initialized state
func (h *Handle) IsInitialized() bool { return h.state == Initialized }

// IsGenerator reports whether the component has no input bus to feed
func (h *Handle) IsGenerator() bool { return h.id.IsGenerator() }

// Version returns the version reported by the live instance
func (h *Handle) Version() int32 { return h.inst.Version() }

// Props exposes the underlying accessor
func (h *Handle) Props() *property.Accessor { return h.props }

// Initialize moves the handle to the initialized state. The state changes
// as soon as the component accepts; a failure to create the parameter
// listener afterwards is still returned.
func (h *Handle) Initialize() error {
	if h.closed {
		return auerr.Precondition("Initialize", "handle is closed")
	}
	if h.state == Initialized {
		return auerr.Precondition("Initialize", "component is already initialized")
	}
	if err := auerr.FromCode("Initialize", h.inst.Initialize()); err != nil {
		return err
	}
	h.state = Initialized

	if _, ok, err := h.props.QueryInfo(native.PropertyParameterList, native.ScopeGlobal, 0); err == nil && ok {
		if err := h.createListener(); err != nil {
			return fmt.Errorf("failed to create parameter listener: %w", err)
		}
	}
	return nil
}

// Uninitialize disposes the listener and returns the component to the
// uninitialized state
func (h *Handle) Uninitialize() error {
	if h.closed {
		return auerr.Precondition("Uninitialize", "handle is closed")
	}
	if h.state != Initialized {
		return auerr.Precondition("Uninitialize", "component is not initialized")
	}
	h.disposeListener()
	code := h.inst.Uninitialize()
	h.state = Uninitialized
	return auerr.FromCode("Uninitialize", code)
}

// Close disposes the listener, uninitializes if needed and releases the
// instance. It never fails; errors are logged. Calling Close twice is a no-op.
func (h *Handle) Close() {
	if h.closed {
		return
	}
	h.closed = true
	h.observers = nil

	h.disposeListener()
	if h.state == Initialized {
		if code := h.inst.Uninitialize(); code != native.NoErr {
			h.log.WithField("code", code).Warn("Uninitialize failed during close")
		}
		h.state = Uninitialized
	}
	if code := h.inst.Close(); code != native.NoErr {
		h.log.WithField("code", code).Warn("Close failed")
	}
}

// AddObserver registers o and returns a function that removes it
func (h *Handle) AddObserver(o Observer) (remove func()) {
	entry := &observerEntry{o: o}
	h.observers = append(h.observers, entry)
	return func() {
		for i, e := range h.observers {
			if e == entry {
				h.observers = append(h.observers[:i], h.observers[i+1:]...)
				return
			}
		}
	}
}

func (h *Handle) createListener() error {
	params, err := h.GlobalParameterList()
	if err != nil {
		return err
	}

	listener, code := h.inst.NewListener(h.dispatch)
	if err := auerr.FromCode("NewListener", code); err != nil {
		return err
	}
	h.listener = listener

	subscribe := func(target native.Event) {
		if code := listener.Subscribe(target); code != native.NoErr {
			h.log.WithFields(logrus.Fields{"kind": target.Kind, "code": code}).Debug("Listener subscription refused")
		}
	}
	for _, id := range params {
		for _, kind := range []native.EventKind{
			native.EventParameterValueChange,
			native.EventBeginParameterChangeGesture,
			native.EventEndParameterChangeGesture,
		} {
			subscribe(native.Event{Kind: kind, Scope: native.ScopeGlobal, Parameter: id})
		}
	}
	subscribe(native.Event{Kind: native.EventPropertyChange, Scope: native.ScopeGlobal, Property: native.PropertyPresentPreset})
	subscribe(native.Event{Kind: native.EventPropertyChange, Scope: native.ScopeGlobal, Property: native.PropertyCurrentPreset})
	return nil
}

func (h *Handle) disposeListener() {
	if h.listener == nil {
		return
	}
	if code := h.listener.Dispose(); code != native.NoErr {
		h.log.WithField("code", code).Warn("Listener dispose failed")
	}
	h.listener = nil
}

// dispatch is the listener closure. It snapshots the observer list so an
// observer may remove itself while being notified.
func (h *Handle) dispatch(ev native.Event) {
	observers := make([]*observerEntry, len(h.observers))
	copy(observers, h.observers)

	switch ev.Kind {
	case native.EventParameterValueChange:
		for _, e := range observers {
			e.o.ValueChanged(ev)
		}
	case native.EventBeginParameterChangeGesture, native.EventEndParameterChangeGesture:
		begin := ev.Kind == native.EventBeginParameterChangeGesture
		for _, e := range observers {
			e.o.GestureChanged(begin, ev)
		}
	case native.EventPropertyChange:
		if ev.Property != native.PropertyPresentPreset && ev.Property != native.PropertyCurrentPreset {
			return
		}
		p, err := h.CurrentPreset()
		if err != nil {
			h.log.WithError(err).Debug("Preset change without a readable current preset")
			return
		}
		// -1 is a user preset, which only this host sets
		if p.Number == -1 {
			return
		}
		for _, e := range observers {
			e.o.PresetChanged(p)
		}
	}
}
