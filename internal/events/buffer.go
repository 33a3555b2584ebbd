// Package events is the ordered log of state-transition records. The engine
// and the ledger publish into it; indexers and UIs read it by sequence or
// subscribe to it, so the core never depends on a notification mechanism.
package events

import (
	"strconv"
	"sync"
	"time"
)

const (
	RoomCreated         = "room_created"
	RoomJoined          = "room_joined"
	CommitmentRecorded  = "commitment_recorded"
	RevealRecorded      = "reveal_recorded"
	PhaseChanged        = "phase_changed"
	RoomSettled         = "room_settled"
	RoomCancelled       = "room_cancelled"
	BalanceCredited     = "balance_credited"
	WithdrawalCompleted = "withdrawal_completed"
	WithdrawalFailed    = "withdrawal_failed"
	NullifierIssued     = "nullifier_issued"
	CheaterFlagged      = "cheater_flagged"
	CheaterUnflagged    = "cheater_unflagged"
)

type Event struct {
	EventID  string `json:"event_id"`
	Event    string `json:"event"`
	RoomID   uint64 `json:"room_id,omitempty"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

type Publisher interface {
	Publish(event string, roomID uint64, data any) Event
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(string, uint64, any) Event { return Event{} }

type Buffer struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
}

func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = 1000
	}
	return &Buffer{
		max:      max,
		watchers: map[chan Event]struct{}{},
	}
}

func (b *Buffer) Publish(event string, roomID uint64, data any) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Event{}
	}
	b.nextID++
	ev := Event{
		EventID:  strconv.FormatInt(b.nextID, 10),
		Event:    event,
		RoomID:   roomID,
		ServerTS: time.Now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns the retained events with an id above lastEventID, in
// publication order. An empty or malformed id replays everything retained.
func (b *Buffer) ReplayAfter(lastEventID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		out := make([]Event, len(b.events))
		copy(out, b.events)
		return out
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *Buffer) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *Buffer) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}
