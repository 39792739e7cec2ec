package types

import "time"

// RunReport summarizes one bench run.
type RunReport struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Listeners int           `json:"listeners" yaml:"listeners"`
	Events    int           `json:"events" yaml:"events"`
	Producers int           `json:"producers" yaml:"producers"`
	Produced  int           `json:"produced" yaml:"produced"`
	Accepted  int           `json:"accepted" yaml:"accepted"`
	Dropped   int           `json:"dropped" yaml:"dropped"`
	Delivered uint64        `json:"delivered" yaml:"delivered"`
	Callbacks uint64        `json:"callbacks" yaml:"callbacks"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	// Drained is true when every accepted item was dispatched before the drain timeout.
	Drained bool `json:"drained" yaml:"drained"`
}
