package ble

import (
	"context"
	"fmt"
	"sync"
)

// FakeCharacteristic is a test double that records writes, returns a scripted
// read value and lets tests push notifications.
type FakeCharacteristic struct {
	mu       sync.Mutex
	value    []byte
	writes   [][]byte
	callback func([]byte)

	subscribed chan struct{}
	once       sync.Once

	// ReadErr, WriteErr and SubscribeErr, if set, are returned by the
	// corresponding method.
	ReadErr      error
	WriteErr     error
	SubscribeErr error
}

// NewFakeCharacteristic creates a FakeCharacteristic whose Read returns value.
func NewFakeCharacteristic(value []byte) *FakeCharacteristic {
	return &FakeCharacteristic{
		value:      value,
		subscribed: make(chan struct{}),
	}
}

func (c *FakeCharacteristic) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReadErr != nil {
		return nil, c.ReadErr
	}
	cp := make([]byte, len(c.value))
	copy(cp, c.value)
	return cp, nil
}

func (c *FakeCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WriteErr != nil {
		return c.WriteErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *FakeCharacteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	if c.SubscribeErr != nil {
		c.mu.Unlock()
		return c.SubscribeErr
	}
	c.callback = cb
	c.mu.Unlock()
	c.once.Do(func() { close(c.subscribed) })
	return nil
}

// Writes returns a copy of everything written so far.
func (c *FakeCharacteristic) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// Subscribed is closed once a subscriber has registered.
func (c *FakeCharacteristic) Subscribed() <-chan struct{} {
	return c.subscribed
}

// SimulateNotification sends a notification to the subscriber.
func (c *FakeCharacteristic) SimulateNotification(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

// FakeConnection simulates a connected TimeFlip.
type FakeConnection struct {
	Facets   *FakeCharacteristic
	Password *FakeCharacteristic

	mu           sync.Mutex
	disconnectCb func()
	disconnected bool

	// DiscoverErr, if set, is returned by DiscoverCharacteristic.
	DiscoverErr error
}

// NewFakeConnection creates a connection whose FACETS characteristic reads facet.
func NewFakeConnection(facet byte) *FakeConnection {
	return &FakeConnection{
		Facets:   NewFakeCharacteristic([]byte{facet}),
		Password: NewFakeCharacteristic(nil),
	}
}

func (c *FakeConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error) {
	if c.DiscoverErr != nil {
		return nil, c.DiscoverErr
	}
	switch charUUID {
	case FacetsCharUUID:
		return c.Facets, nil
	case PasswordCharUUID:
		return c.Password, nil
	default:
		return nil, fmt.Errorf("fake: unknown characteristic UUID %q", charUUID)
	}
}

func (c *FakeConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *FakeConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

// Disconnected reports whether Disconnect was called.
func (c *FakeConnection) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// SimulateDisconnect triggers the disconnect callback.
func (c *FakeConnection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// FakeAdapter simulates the BLE adapter. Each Connect call consumes the next
// entry of ConnectErrs; once they run out every call succeeds.
type FakeAdapter struct {
	mu          sync.Mutex
	connectErrs []error
	attempts    int
	connections []*FakeConnection
	newConn     func() *FakeConnection
	connected   chan *FakeConnection

	enableCalls int

	// EnableErr, if set, is returned by Enable. With EnableFailures > 0 only
	// the first EnableFailures calls fail.
	EnableErr      error
	EnableFailures int
}

// NewFakeAdapter creates an adapter whose connections start on facet.
func NewFakeAdapter(facet byte, connectErrs ...error) *FakeAdapter {
	return &FakeAdapter{
		connectErrs: connectErrs,
		newConn:     func() *FakeConnection { return NewFakeConnection(facet) },
		connected:   make(chan *FakeConnection, 16),
	}
}

// SetConnectionFactory overrides how new connections are built.
func (a *FakeAdapter) SetConnectionFactory(fn func() *FakeConnection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.newConn = fn
}

func (a *FakeAdapter) Enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enableCalls++
	if a.EnableErr != nil && (a.EnableFailures == 0 || a.enableCalls <= a.EnableFailures) {
		return a.EnableErr
	}
	return nil
}

// EnableCalls returns the number of Enable calls so far.
func (a *FakeAdapter) EnableCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enableCalls
}

func (a *FakeAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	attempt := a.attempts
	a.attempts++
	if attempt < len(a.connectErrs) && a.connectErrs[attempt] != nil {
		err := a.connectErrs[attempt]
		a.mu.Unlock()
		return nil, fmt.Errorf("ble: connect to %s: %w", address, err)
	}
	conn := a.newConn()
	a.connections = append(a.connections, conn)
	a.mu.Unlock()

	select {
	case a.connected <- conn:
	default:
	}
	return conn, nil
}

// Attempts returns the number of Connect calls so far.
func (a *FakeAdapter) Attempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

// Connections returns every connection handed out so far.
func (a *FakeAdapter) Connections() []*FakeConnection {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*FakeConnection, len(a.connections))
	copy(out, a.connections)
	return out
}

// Connected delivers each successful connection as it is made.
func (a *FakeAdapter) Connected() <-chan *FakeConnection {
	return a.connected
}

var (
	_ Adapter        = (*FakeAdapter)(nil)
	_ Connection     = (*FakeConnection)(nil)
	_ Characteristic = (*FakeCharacteristic)(nil)
)
