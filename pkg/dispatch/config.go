package dispatch

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ScanPolicy selects which triggered event a listener dispatches when several
// trigger at once.
type ScanPolicy int

const (
	// ScanFirst dispatches the first triggered event in registration order.
	// An event that re-triggers faster than it drains can starve the events
	// registered after it.
	ScanFirst ScanPolicy = iota
	// ScanRoundRobin starts each scan after the last dispatched event.
	ScanRoundRobin
)

func (p ScanPolicy) String() string {
	switch p {
	case ScanFirst:
		return "first"
	case ScanRoundRobin:
		return "round-robin"
	default:
		return fmt.Sprintf("ScanPolicy(%d)", int(p))
	}
}

// ParseScanPolicy maps "first" / "round-robin" (or "rr") to a ScanPolicy.
func ParseScanPolicy(s string) (ScanPolicy, error) {
	switch s {
	case "", "first":
		return ScanFirst, nil
	case "round-robin", "roundrobin", "rr":
		return ScanRoundRobin, nil
	default:
		return ScanFirst, fmt.Errorf("dispatch: unknown scan policy %q", s)
	}
}

// Ownership decides whether a Handler closes its listeners on Cleanup.
type Ownership int

const (
	// Owning handlers close every listener on Cleanup.
	Owning Ownership = iota
	// Borrowing handlers only coordinate listeners owned elsewhere.
	Borrowing
)

func (o Ownership) String() string {
	switch o {
	case Owning:
		return "owning"
	case Borrowing:
		return "borrowing"
	default:
		return fmt.Sprintf("Ownership(%d)", int(o))
	}
}

// ParseOwnership maps "owning" / "borrowing" to an Ownership.
func ParseOwnership(s string) (Ownership, error) {
	switch s {
	case "", "owning", "dynamic":
		return Owning, nil
	case "borrowing", "static":
		return Borrowing, nil
	default:
		return Owning, fmt.Errorf("dispatch: unknown ownership %q", s)
	}
}

// ListenerConfig encapsulates the tunables of a Listener.
type ListenerConfig struct {
	// Name identifies the listener in logs, metrics and status. Generated when empty.
	Name       string
	ScanPolicy ScanPolicy
	// Logger overrides the package logger (see SetLogger).
	Logger    *zerolog.Logger
	Publisher Publisher
}

// HandlerConfig encapsulates the tunables of a Handler.
type HandlerConfig struct {
	Name      string
	Ownership Ownership
	Logger    *zerolog.Logger
	Publisher Publisher
}

var (
	listenerSeq atomic.Uint64
	handlerSeq  atomic.Uint64
)

func nextListenerName() string { return fmt.Sprintf("listener-%d", listenerSeq.Add(1)) }

func nextHandlerName() string { return fmt.Sprintf("handler-%d", handlerSeq.Add(1)) }
