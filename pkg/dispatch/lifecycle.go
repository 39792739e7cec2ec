package dispatch

// Lifecycle event names.
const (
	EventListenerStart       = "listener_start"
	EventListenerStop        = "listener_stop"
	EventListenerFailed      = "listener_failed"
	EventListenerStartFailed = "listener_start_failed"
	EventListenerRejected    = "listener_rejected"
	EventRebound             = "event_rebound"
	EventDispatch            = "dispatch"
	EventHandlerStart        = "handler_start"
	EventHandlerStop         = "handler_stop"
	EventHandlerCleanup      = "handler_cleanup"
)

// LifecycleEvent describes something that happened to a listener or handler.
// Minimal and stable: name + listener name and optional fields.
type LifecycleEvent struct {
	Name     string
	Listener string
	Fields   map[string]any
}

// Publisher receives lifecycle events. Publish is called on the dispatch
// goroutine for EventDispatch, so implementations must be cheap and must not
// block or panic.
type Publisher interface {
	Publish(LifecycleEvent)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(LifecycleEvent) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func isNoop(p Publisher) bool {
	_, ok := p.(noopPublisher)
	return ok
}
