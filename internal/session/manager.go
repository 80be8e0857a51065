package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chaz8081/timeflip-logger/internal/ble"
	"github.com/chaz8081/timeflip-logger/internal/facet"
)

// ErrDisconnected reports that the transport signalled a dropped link.
var ErrDisconnected = errors.New("session: disconnected")

// PasswordLength is the size of the TimeFlip shared secret.
const PasswordLength = 6

// Recorder receives interval transitions. intervals.Logger implements it.
type Recorder interface {
	SetSession(id string)
	OnIntervalStart(activity string, ts time.Time) error
	OnFacetChanged(activity string, ts time.Time) error
	OnIntervalEnd(ts time.Time) error
}

// Options configures the Manager.
type Options struct {
	Address        string
	Password       string
	Backoff        time.Duration // wait after a failed attempt
	ReconnectDelay time.Duration // wait after a dropped link
	SettleDelay    time.Duration // wait after the password write
	ConnectTimeout time.Duration
}

// DefaultOptions returns the timings the TimeFlip needs.
func DefaultOptions() Options {
	return Options{
		Password:       "000000",
		Backoff:        60 * time.Second,
		ReconnectDelay: 2 * time.Second,
		SettleDelay:    time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}

// Manager maintains one live authenticated session to a TimeFlip, forever.
type Manager struct {
	adapter  ble.Adapter
	facets   *facet.Map
	recorder Recorder
	opts     Options

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	newID func() string
}

// NewManager creates a Manager. The password must be exactly six ASCII characters.
func NewManager(adapter ble.Adapter, facets *facet.Map, recorder Recorder, opts Options) (*Manager, error) {
	if opts.Address == "" {
		return nil, errors.New("session: address must not be empty")
	}
	if err := ValidatePassword(opts.Password); err != nil {
		return nil, err
	}
	defaults := DefaultOptions()
	if opts.Backoff <= 0 {
		opts.Backoff = defaults.Backoff
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaults.ReconnectDelay
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaults.SettleDelay
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaults.ConnectTimeout
	}
	if facets == nil {
		facets = facet.Default()
	}
	return &Manager{
		adapter:  adapter,
		facets:   facets,
		recorder: recorder,
		opts:     opts,
		now:      time.Now,
		sleep:    sleepContext,
		newID:    uuid.NewString,
	}, nil
}

// ValidatePassword checks that p is a six character ASCII secret.
func ValidatePassword(p string) error {
	if len(p) != PasswordLength {
		return fmt.Errorf("session: password must be %d characters, got %d", PasswordLength, len(p))
	}
	for i := 0; i < len(p); i++ {
		if p[i] > 0x7f {
			return fmt.Errorf("session: password must be ASCII")
		}
	}
	return nil
}

// Run connects and reconnects until ctx is cancelled, returning ctx.Err().
// A dropped link is retried after ReconnectDelay; any other failure,
// including an adapter that cannot be powered on, waits Backoff first.
func (m *Manager) Run(ctx context.Context) error {
	enabled := false
	for attempt := 1; ; attempt++ {
		var err error
		if !enabled {
			if err = m.adapter.Enable(); err != nil {
				err = fmt.Errorf("session: enable adapter: %w", err)
			} else {
				enabled = true
			}
		}
		if enabled {
			err = m.runSession(ctx, attempt)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrDisconnected) {
			slog.Info("[SESSION] disconnected, reconnecting", "address", m.opts.Address, "retry_in", m.opts.ReconnectDelay)
			if err := m.sleep(ctx, m.opts.ReconnectDelay); err != nil {
				return err
			}
			continue
		}

		slog.Warn("[SESSION] attempt failed", "attempt", attempt, "error", err, "retry_in", m.opts.Backoff)
		if err := m.sleep(ctx, m.opts.Backoff); err != nil {
			return err
		}
	}
}

// runSession performs one attempt: connect, authenticate, bootstrap the
// current facet, subscribe and block until the link drops or ctx ends.
func (m *Manager) runSession(ctx context.Context, attempt int) (err error) {
	s := newSession(m.newID(), m.opts.Address, m.now)
	log := slog.With("session", s.ID, "address", s.Address)
	log.Debug("[SESSION] connecting", "attempt", attempt)

	connectCtx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	conn, err := m.adapter.Connect(connectCtx, s.Address)
	cancel()
	if err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}
	s.attach(conn)
	defer s.close()
	log.Info("[SESSION] connected")

	m.recorder.SetSession(s.ID)

	started := false
	var startAt, endAt time.Time
	defer func() {
		// Shutdown leaves the interval open.
		if !started || ctx.Err() != nil {
			return
		}
		if endAt.IsZero() {
			endAt = m.now()
		}
		if endAt.Before(startAt) {
			endAt = startAt
		}
		if rerr := m.recorder.OnIntervalEnd(endAt); rerr != nil {
			log.Error("[SESSION] record interval end", "error", rerr)
		}
	}()

	facets, id, activity, err := m.bootstrap(ctx, log, conn)
	if err != nil {
		return err
	}
	log.Info("[SESSION] currently set to facet", "facet", id, "activity", activity)

	// A link lost during authentication or the initial read opens nothing.
	startAt = m.now()
	if s.pendingDisconnect() {
		return ErrDisconnected
	}
	started = true
	if rerr := m.recorder.OnIntervalStart(activity, startAt); rerr != nil {
		log.Error("[SESSION] record interval start", "error", rerr)
	}

	if err := facets.Subscribe(s.onNotify); err != nil {
		return fmt.Errorf("session: subscribe to facets: %w", err)
	}
	log.Debug("[SESSION] waiting for disconnection")

	for {
		select {
		case <-ctx.Done():
			log.Info("[SESSION] stopping")
			return ctx.Err()
		case ev := <-s.events:
			switch ev.kind {
			case eventDisconnect:
				endAt = ev.at
				return ErrDisconnected
			case eventFacet:
				m.handleFacet(log, ev)
			}
		}
	}
}

// bootstrap authenticates, waits the settle delay and reads the current
// facet. It returns the FACETS characteristic for subscribing.
func (m *Manager) bootstrap(ctx context.Context, log *slog.Logger, conn ble.Connection) (ble.Characteristic, int, string, error) {
	password, err := conn.DiscoverCharacteristic(ble.ServiceUUID, ble.PasswordCharUUID)
	if err != nil {
		return nil, 0, "", fmt.Errorf("session: discover password characteristic: %w", err)
	}
	log.Debug("[SESSION] sending password")
	if err := password.Write([]byte(m.opts.Password)); err != nil {
		return nil, 0, "", fmt.Errorf("session: write password: %w", err)
	}
	if err := m.sleep(ctx, m.opts.SettleDelay); err != nil {
		return nil, 0, "", err
	}

	facets, err := conn.DiscoverCharacteristic(ble.ServiceUUID, ble.FacetsCharUUID)
	if err != nil {
		return nil, 0, "", fmt.Errorf("session: discover facets characteristic: %w", err)
	}
	log.Debug("[SESSION] finding starting facet")
	raw, err := facets.Read()
	if err != nil {
		return nil, 0, "", fmt.Errorf("session: read facet: %w", err)
	}
	id, activity, err := m.facets.Decode(raw)
	if err != nil {
		return nil, 0, "", fmt.Errorf("session: initial facet: %w", err)
	}
	return facets, id, activity, nil
}

// Probe connects once, authenticates, reads the current facet and
// disconnects. Nothing is recorded.
func (m *Manager) Probe(ctx context.Context) (int, string, error) {
	if err := m.adapter.Enable(); err != nil {
		return 0, "", fmt.Errorf("session: enable adapter: %w", err)
	}
	connectCtx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	conn, err := m.adapter.Connect(connectCtx, m.opts.Address)
	cancel()
	if err != nil {
		return 0, "", fmt.Errorf("session: connect: %w", err)
	}
	defer func() { _ = conn.Disconnect() }()

	_, id, activity, err := m.bootstrap(ctx, slog.With("address", m.opts.Address), conn)
	return id, activity, err
}

// handleFacet applies one notification. Malformed payloads are reported
// and dropped without touching the open interval.
func (m *Manager) handleFacet(log *slog.Logger, ev event) {
	log.Debug("[SESSION] facet notification", "payload", ev.payload)
	id, activity, err := m.facets.Decode(ev.payload)
	if err != nil {
		log.Warn("[SESSION] dropping notification", "error", err)
		return
	}
	log.Info("[SESSION] new activity", "facet", id, "activity", activity)
	if err := m.recorder.OnFacetChanged(activity, ev.at); err != nil {
		log.Error("[SESSION] record facet change", "error", err)
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
