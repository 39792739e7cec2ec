package dispatch

import "time"

// loop is the listener goroutine: wait, pick one triggered event, run its
// callbacks, reset it, repeat until a stop is requested.
func (l *Listener) loop(done chan struct{}) {
	defer close(done)
	defer l.tasks.Add(-1)

	for {
		reg, ok := l.wait()
		if !ok {
			return
		}
		if err := l.dispatch(reg); err != nil {
			l.setErr(err)
			l.log.Error().Err(err).Msg("listener terminated by callback panic")
			l.pub.Publish(LifecycleEvent{Name: EventListenerFailed, Listener: l.name, Fields: map[string]any{"error": err.Error()}})
			return
		}
	}
}

// wait blocks until a stop is requested or a registered event triggers. The
// predicate is evaluated under the wake mutex, which Notify also takes, so a
// producer's notification is either seen by the check or wakes the Wait.
func (l *Listener) wait() (*registration, bool) {
	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	for {
		if l.stopReq {
			return nil, false
		}
		if reg := l.scan(); reg != nil {
			return reg, true
		}
		l.w.cond.Wait()
	}
}

// scan returns the first triggered registration according to the policy.
func (l *Listener) scan() *registration {
	n := len(l.regs)
	if n == 0 {
		return nil
	}
	start := 0
	if l.policy == ScanRoundRobin {
		start = l.next % n
	}
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if reg := l.regs[idx]; reg.ev.Trigger() {
			if l.policy == ScanRoundRobin {
				l.next = idx + 1
			}
			return reg
		}
	}
	return nil
}

// dispatch runs the callbacks of reg in order and then resets the event once.
// A panicking callback skips the reset and is returned as an error.
func (l *Listener) dispatch(reg *registration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackPanicError{Listener: l.name, Value: r}
		}
	}()
	trace := l.log.Trace()
	timed := l.publishes || trace.Enabled()
	var start time.Time
	if timed {
		start = time.Now()
	}
	for _, cb := range reg.callbacks {
		cb(reg.ev)
		l.callbacksRun.Add(1)
	}
	reg.ev.Reset()
	l.dispatched.Add(1)

	if !timed {
		return nil
	}
	dur := time.Since(start)
	trace.Int("callbacks", len(reg.callbacks)).Dur("dur", dur).Msg("dispatched")
	if l.publishes {
		l.pub.Publish(LifecycleEvent{Name: EventDispatch, Listener: l.name, Fields: map[string]any{
			"callbacks": len(reg.callbacks),
			"duration":  dur,
		}})
	}
	return nil
}
