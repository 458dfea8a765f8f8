package notifications

import "github.com/google/uuid"

type EventKind string

const (
	KindSignup       EventKind = "Signup"
	KindTransaction  EventKind = "Transaction"
	KindFundsUpdated EventKind = "FundsUpdated"
)

// Event is a post-commit notification. Events are fire-and-forget: the ledger
// transaction that produced one is already committed and is never unwound on
// delivery failure.
type Event struct {
	ID        string
	UserEmail string
	Kind      EventKind
	Payload   map[string]string
}

func NewEvent(userEmail string, kind EventKind, payload map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		UserEmail: userEmail,
		Kind:      kind,
		Payload:   payload,
	}
}
