package decision

import "time"

// Observer receives pipeline measurements. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveModelCall(purpose, outcome string, took time.Duration)
	ObserveClamp()
}

// Model call outcomes reported to Observer.
const (
	OutcomeOK          = "ok"
	OutcomeCallError   = "call_error"
	OutcomeParseError  = "parse_error"
	OutcomeSkippedNoop = "noop"
)

type nopObserver struct{}

func (nopObserver) ObserveModelCall(string, string, time.Duration) {}
func (nopObserver) ObserveClamp()                                  {}

func observerOr(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
