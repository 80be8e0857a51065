// Package facet maps TimeFlip facet IDs to activity names.
package facet

import (
	"fmt"
	"math/big"
)

// Size is the number of slots in a Map: one per physical facet plus a
// wraparound slot.
const Size = 19

// Map is an immutable facet-to-activity lookup table. An empty name means
// "no defined activity", which is a valid state.
type Map struct {
	names [Size]string
}

// Default returns the built-in activity table.
func Default() *Map {
	m := &Map{}
	m.names[5] = "Break"
	m.names[7] = "Plan"
	m.names[9] = "Chore"
	m.names[10] = "Mindless"
	m.names[11] = "Build"
	m.names[12] = "Think"
	m.names[13] = "Profile"
	return m
}

// New builds a Map from exactly Size names.
func New(names []string) (*Map, error) {
	if len(names) != Size {
		return nil, fmt.Errorf("facet: need %d activity names, got %d", Size, len(names))
	}
	m := &Map{}
	copy(m.names[:], names)
	return m, nil
}

// Activity returns the activity name for facet index id.
func (m *Map) Activity(id int) (string, error) {
	if id < 0 || id >= Size {
		return "", &ProtocolError{Facet: id, Reason: "facet out of range"}
	}
	return m.names[id], nil
}

// Names returns a copy of the table.
func (m *Map) Names() []string {
	out := make([]string, Size)
	copy(out, m.names[:])
	return out
}

// Decode interprets a FACETS payload as an unsigned big-endian integer and
// resolves it to an activity.
func (m *Map) Decode(payload []byte) (id int, activity string, err error) {
	if len(payload) == 0 {
		return -1, "", &ProtocolError{Facet: -1, Reason: "empty facet payload"}
	}
	n := new(big.Int).SetBytes(payload)
	if !n.IsInt64() || n.Int64() >= Size {
		return -1, "", &ProtocolError{Facet: -1, Payload: payload, Reason: "facet out of range"}
	}
	id = int(n.Int64())
	activity, err = m.Activity(id)
	return id, activity, err
}

// ProtocolError reports facet data the cube should never send.
type ProtocolError struct {
	Facet   int
	Payload []byte
	Reason  string
}

func (e *ProtocolError) Error() string {
	if e.Payload != nil {
		return fmt.Sprintf("facet: %s (payload %x)", e.Reason, e.Payload)
	}
	if e.Facet >= 0 {
		return fmt.Sprintf("facet: %s (facet %d)", e.Reason, e.Facet)
	}
	return "facet: " + e.Reason
}
