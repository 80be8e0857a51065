// Package session keeps one authenticated connection to a TimeFlip alive and
// feeds its facet changes to an interval recorder.
package session

import (
	"sync"
	"time"

	"github.com/chaz8081/timeflip-logger/internal/ble"
)

// eventQueueSize bounds buffered callbacks. Callbacks block when it is full,
// so nothing is dropped while the session is live.
const eventQueueSize = 64

type eventKind int

const (
	eventFacet eventKind = iota
	eventDisconnect
)

// event is a transport callback stamped with its arrival time.
type event struct {
	kind    eventKind
	payload []byte
	at      time.Time
}

// Session is one connection attempt. It owns the connection handle and the
// single-consumer queue that serializes notification and disconnect
// callbacks in arrival order.
type Session struct {
	ID      string
	Address string

	conn   ble.Connection
	now    func() time.Time
	events chan event

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id, address string, now func() time.Time) *Session {
	return &Session{
		ID:      id,
		Address: address,
		now:     now,
		events:  make(chan event, eventQueueSize),
		done:    make(chan struct{}),
	}
}

// attach takes ownership of conn and starts listening for link loss.
func (s *Session) attach(conn ble.Connection) {
	s.conn = conn
	conn.OnDisconnect(s.onDisconnect)
}

func (s *Session) onNotify(data []byte) {
	s.push(event{kind: eventFacet, payload: data, at: s.now()})
}

func (s *Session) onDisconnect() {
	s.push(event{kind: eventDisconnect, at: s.now()})
}

// push enqueues ev, or discards it once the session has ended.
func (s *Session) push(ev event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// pendingDisconnect drains the queue and reports whether it held a
// disconnect. It is used before subscribing, when nothing else is queued.
func (s *Session) pendingDisconnect() bool {
	for {
		select {
		case ev := <-s.events:
			if ev.kind == eventDisconnect {
				return true
			}
		default:
			return false
		}
	}
}

// close ends the session and releases the connection. Callbacks arriving
// afterwards are ignored.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Disconnect()
		}
	})
}
