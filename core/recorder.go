package core

import "time"

// Message outcomes reported to a Recorder.
const (
	OutcomeEmpty          = "empty"
	OutcomeNoSender       = "no_sender"
	OutcomeDenied         = "denied"
	OutcomeAttributed     = "attributed"
	OutcomeNotAttributed  = "not_attributed"
	OutcomeNotFound       = "not_found"
	OutcomeTransportError = "transport_error"
)

// Recorder receives operator-facing counters. The user-facing reply collapses
// lookup failures into one string; the recorder keeps the distinction.
type Recorder interface {
	MessageHandled(outcome string)
	LookupObserved(result string, d time.Duration)
	ReplyFailed()
}

type nopRecorder struct{}

func (nopRecorder) MessageHandled(string)                {}
func (nopRecorder) LookupObserved(string, time.Duration) {}
func (nopRecorder) ReplyFailed()                         {}
