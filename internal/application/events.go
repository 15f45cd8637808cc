package application

import (
	"fmt"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

// EventKind names one external trigger of the rating workflow.
type EventKind string

// Supported events.
const (
	EventIdentify EventKind = "identify"
	EventLoad     EventKind = "load"
	EventResume   EventKind = "resume"
	EventBegin    EventKind = "begin"
	EventSubmit   EventKind = "submit"
	EventFinish   EventKind = "finish"
	EventRestart  EventKind = "restart"
)

// Event carries the payload for one transition. Only the fields relevant to
// Kind are read.
type Event struct {
	Kind EventKind

	RaterID string

	Catalog ports.SubjectCatalog
	Pairs   []domain.RawPair
	Seed    uint64

	Snapshot []byte

	Choice     domain.Choice
	Confidence int
}

// Apply runs ev against s. Hosts that re-enter their driving logic on every
// trigger call Apply once per trigger with the session they own.
func Apply(s *Session, store *ProgressStore, ev Event) error {
	var err error
	switch ev.Kind {
	case EventIdentify:
		err = s.Identify(ev.RaterID)
	case EventLoad:
		_, err = s.Load(ev.Catalog, ev.Pairs, ev.Seed)
	case EventResume:
		_, err = s.Resume(ev.Snapshot, store)
	case EventBegin:
		err = s.Begin()
	case EventSubmit:
		_, err = s.Submit(ev.Choice, ev.Confidence)
	case EventFinish:
		err = s.Finish()
	case EventRestart:
		_, err = s.Restart()
	default:
		return fmt.Errorf("unknown event kind %q: %w", ev.Kind, domain.ErrInvalidTransition)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ev.Kind, err)
	}
	return nil
}
