package stack

import(
	"fmt"
	"log"
	"sync"
)

// A Reporter receives status text, progress and warnings from the loader.
// Implementations must be safe to call from worker goroutines.
type Reporter interface {
	Status(text string)
	Progress(percent int, text string)
	Warn(err error)
}

type EventKind int

const(
	StatusEvent EventKind = iota
	ProgressEvent
	WarningEvent
)

type Event struct {
	Kind    EventKind
	Text    string
	Percent int
	Err     error
}

func (e Event)String() string {
	switch e.Kind {
	case ProgressEvent: return fmt.Sprintf("[%3d%%] %s", e.Percent, e.Text)
	case WarningEvent:  return e.Err.Error()
	default:            return e.Text
	}
}

// Events is a Reporter that queues everything for the interactive thread,
// which calls Drain once per tick. Events are delivered in the order they
// were sent. Once the queue holds capacity events, further progress events
// are dropped (a later one supersedes them anyway); status and warning
// events are always kept.
type Events struct {
	capacity int

	mu       sync.Mutex
	queue    []Event
	dropped  int
}

func NewEvents(capacity int) *Events {
	if capacity < 1 {
		capacity = 256
	}
	return &Events{capacity: capacity}
}

func (ev *Events)send(e Event) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	if e.Kind == ProgressEvent && len(ev.queue) >= ev.capacity {
		ev.dropped++
		return
	}
	ev.queue = append(ev.queue, e)
}

func (ev *Events)Status(text string)                { ev.send(Event{Kind: StatusEvent, Text: text}) }
func (ev *Events)Progress(percent int, text string) { ev.send(Event{Kind: ProgressEvent, Percent: percent, Text: text}) }
func (ev *Events)Warn(err error)                    { ev.send(Event{Kind: WarningEvent, Err: err}) }

// Drain hands every queued event to fn, without blocking. Events sent
// from inside fn are left for the next Drain. Returns how many events
// were delivered.
func (ev *Events)Drain(fn func(Event)) int {
	ev.mu.Lock()
	pending := ev.queue
	ev.queue = nil
	ev.mu.Unlock()

	for _, e := range pending {
		fn(e)
	}
	return len(pending)
}

// Dropped is the number of progress events discarded because the queue was full.
func (ev *Events)Dropped() int {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.dropped
}

// LogReporter writes everything to the log. Progress is only logged at
// Verbosity > 1.
type LogReporter struct {
	Verbosity int
}

func (lr LogReporter)Status(text string) { log.Printf("%s\n", text) }
func (lr LogReporter)Warn(err error)     { log.Printf("%v\n", err) }
func (lr LogReporter)Progress(percent int, text string) {
	if lr.Verbosity > 1 {
		log.Printf("[%3d%%] %s\n", percent, text)
	}
}

// Discard drops everything.
type Discard struct{}

func (Discard)Status(string)        {}
func (Discard)Progress(int, string) {}
func (Discard)Warn(error)           {}
