package interfaces

// Logger defines the interface for logging
// Minimal interface with only essential formatted logging methods
type Logger interface {
	// Core logging methods
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
	Debugf(format string, args ...interface{})
}

// Step status values reported with step events
const (
	StatusStepReplayed = "replayed"
	StatusStepRecorded = "recorded"
	StatusStepMismatch = "mismatch"
)

// StepEvent describes one step of a recorded transaction.
type StepEvent struct {
	Transaction string `json:"transaction"`
	Step        int    `json:"step"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status,omitempty"`
}

// EventEmitter receives record and playback events.
// Implementations must be safe for concurrent use.
type EventEmitter interface {
	EmitStepReplayed(event StepEvent)
	EmitStepMismatch(event StepEvent, err error)
	EmitStepRecorded(event StepEvent)
}
