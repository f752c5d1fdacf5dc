package simulator

import "github.com/platinummonkey/auval/pkg/native"

type listener struct {
	inst     *Instance
	fn       func(native.Event)
	subs     []native.Event
	disposed bool
}

func (l *listener) Subscribe(target native.Event) native.Code {
	l.inst.mu.Lock()
	defer l.inst.mu.Unlock()
	if l.disposed {
		return native.ErrInvalidPropertyValue
	}
	l.subs = append(l.subs, target)
	return native.NoErr
}

func (l *listener) Dispose() native.Code {
	l.inst.mu.Lock()
	defer l.inst.mu.Unlock()
	l.inst.record("DisposeListener")
	l.disposed = true
	l.subs = nil
	return native.NoErr
}

func (i *Instance) NewListener(fn func(native.Event)) (native.Listener, native.Code) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.record("NewListener")
	l := &listener{inst: i, fn: fn}
	i.listeners = append(i.listeners, l)
	return l, native.NoErr
}

func (i *Instance) Notify(ev native.Event) native.Code {
	i.mu.Lock()
	i.record("Notify(%s)", ev.Kind)
	i.mu.Unlock()
	i.deliver(ev)
	return native.NoErr
}

// deliver calls every matching listener without holding the lock
func (i *Instance) deliver(ev native.Event) {
	i.mu.Lock()
	var targets []func(native.Event)
	for _, l := range i.listeners {
		if l.disposed {
			continue
		}
		for _, sub := range l.subs {
			if ev.Matches(sub) {
				targets = append(targets, l.fn)
				break
			}
		}
	}
	i.mu.Unlock()

	for _, fn := range targets {
		fn(ev)
	}
}
