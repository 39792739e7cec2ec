package dispatch

import "sync/atomic"

// Flag is a latched boolean event. Raises that happen before the listener
// resets it coalesce into one dispatch.
type Flag struct {
	Base

	set    atomic.Bool
	reg    *Registry[*Flag]
	closed atomic.Bool
}

// NewFlag creates a lowered flag and adds it to reg when reg is not nil.
func NewFlag(reg *Registry[*Flag]) *Flag {
	f := &Flag{reg: reg}
	if reg != nil {
		reg.Add(f)
	}
	return f
}

// Raise sets the flag and notifies the listener.
func (f *Flag) Raise() {
	f.set.Store(true)
	f.Notify()
}

func (f *Flag) Trigger() bool { return f.set.Load() }

func (f *Flag) Reset() { f.set.Store(false) }

// Close removes the flag from its registry.
func (f *Flag) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	if f.reg != nil {
		f.reg.Remove(f)
	}
	return nil
}

// RaiseAll raises every live flag of reg and returns how many were raised.
func RaiseAll(reg *Registry[*Flag]) int {
	n := 0
	reg.Each(func(f *Flag) {
		f.Raise()
		n++
	})
	return n
}
