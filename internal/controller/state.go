package controller

// State is the lifecycle of the current request
type State int

const (
	// StateIdle means no request is in flight
	StateIdle State = iota
	// StateSending means the request was sent and no response has arrived
	StateSending
	// StateStreaming means the response is being read
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Outcome is how a request ended
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the end of one request. Text holds the full translation for
// OutcomeCompleted; Err the cause for OutcomeFailed.
type Result struct {
	Generation uint64
	Outcome    Outcome
	Text       string
	Err        error
}
