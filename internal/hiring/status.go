package hiring

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of an application. It is only ever changed
// through a Transition applied by the store; nothing else writes the column.
type Status string

const (
	StatusApplied     Status = "Applied"
	StatusShortlisted Status = "Shortlisted"
	StatusRejected    Status = "Rejected"
	StatusInvited     Status = "Invited"
	StatusTerminated  Status = "Terminated"
	StatusCompleted   Status = "Completed"
	StatusAccepted    Status = "Accepted"
)

// ErrInvalidTransition is returned when a requested status change is not an
// edge of the lifecycle state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// edges enumerates the allowed lifecycle transitions. Terminated, Accepted
// and a Rejected reached from Completed are terminal.
var edges = map[Status][]Status{
	StatusApplied:     {StatusShortlisted, StatusRejected},
	StatusShortlisted: {StatusInvited},
	StatusInvited:     {StatusTerminated, StatusCompleted},
	StatusCompleted:   {StatusAccepted, StatusRejected},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to Status) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is a named status change together with the fields that must be
// written atomically with it. Use the constructors below; a zero Transition
// is not valid.
type Transition struct {
	To               Status
	ShortlistReason  *string
	ReportPath       *string
	InterviewResults *string
}

// Validate checks the transition against the state machine for the given
// current status.
func (t Transition) Validate(from Status) error {
	if !CanTransition(from, t.To) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, t.To)
	}
	return nil
}

// Shortlist moves an applied candidate forward, recording the reason.
func Shortlist(reason string) Transition {
	return Transition{To: StatusShortlisted, ShortlistReason: &reason}
}

// RejectApplied screens out an applied candidate, recording the reason.
func RejectApplied(reason string) Transition {
	return Transition{To: StatusRejected, ShortlistReason: &reason}
}

// Invite marks a shortlisted candidate as invited to an interview.
func Invite() Transition {
	return Transition{To: StatusInvited}
}

// Terminate ends an interview for proctoring violations, persisting the
// termination snapshot as the interview results.
func Terminate(resultsJSON string) Transition {
	return Transition{To: StatusTerminated, InterviewResults: &resultsJSON}
}

// Complete finishes an interview, persisting the report artifact reference
// and the serialized scored answers together with the status.
func Complete(reportPath, resultsJSON string) Transition {
	return Transition{To: StatusCompleted, ReportPath: &reportPath, InterviewResults: &resultsJSON}
}

// Accept advances a completed candidate to the next hiring round.
func Accept() Transition {
	return Transition{To: StatusAccepted}
}

// RejectCompleted turns down a candidate after a completed interview.
func RejectCompleted() Transition {
	return Transition{To: StatusRejected}
}
