package types

// ListenerStatus is a point-in-time view of one listener.
type ListenerStatus struct {
	// Listener name.
	// example: keyboard
	Name string `json:"name" example:"keyboard"`
	// Lifecycle state: stopped, running or failed.
	// example: running
	State string `json:"state" example:"running"`
	// Number of distinct events registered.
	Events int `json:"events"`
	// Number of registered callbacks across all events.
	Callbacks int `json:"callbacks"`
	// Completed dispatch cycles (callbacks run + reset).
	Dispatched uint64 `json:"dispatched"`
	// Individual callback invocations.
	CallbacksRun uint64 `json:"callbacks_run"`
	// Terminal error of a failed listener, if any.
	Error string `json:"error,omitempty"`
}

// HandlerStatus is a point-in-time view of an event handler and its listeners.
type HandlerStatus struct {
	Name      string           `json:"name"`
	Running   bool             `json:"running"`
	Ownership string           `json:"ownership" example:"owning"`
	Listeners []ListenerStatus `json:"listeners"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: failed to encode response
	Error string `json:"error" example:"failed to encode response"`
	// HTTP status code.
	// example: 500
	Code int `json:"code" example:"500"`
}
