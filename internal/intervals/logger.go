package intervals

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RecordMode selects how a record reaches the sink.
type RecordMode string

const (
	// ModeSplit writes "start,activity," when an interval opens and
	// "end,duration\n" when it closes. A crash in between leaves a
	// dangling open half in the file.
	ModeSplit RecordMode = "split"
	// ModeAtomic keeps the open half in memory and writes the whole line
	// when the interval closes.
	ModeAtomic RecordMode = "atomic"
)

// Observer is notified of interval transitions after the sink write.
// Observer errors are logged and never affect the log or the session.
type Observer interface {
	IntervalStarted(sessionID string, start time.Time, activity string) error
	IntervalClosed(iv Interval) error
}

// Options configures a Logger.
type Options struct {
	Mode      RecordMode
	Observers []Observer
}

// Logger owns the currently open interval and is the only writer to the
// sink. Not safe for concurrent use: the session manager delivers events
// from a single goroutine.
type Logger struct {
	sink      Sink
	mode      RecordMode
	observers []Observer

	sessionID string

	open     bool
	current  Interval
	startedN int
	closedN  int
}

// NewLogger creates a Logger writing to sink.
func NewLogger(sink Sink, opts Options) *Logger {
	if opts.Mode == "" {
		opts.Mode = ModeSplit
	}
	return &Logger{
		sink:      sink,
		mode:      opts.Mode,
		observers: opts.Observers,
	}
}

// SetSession tags intervals opened from now on with id.
func (l *Logger) SetSession(id string) {
	l.sessionID = id
}

// OnIntervalStart opens a new interval for activity at ts.
func (l *Logger) OnIntervalStart(activity string, ts time.Time) error {
	var errs []error
	if l.open {
		// A session always ends its interval, so this only happens if an
		// end event was lost. Close at ts to keep the file well formed.
		slog.Warn("[LOG] interval already open, closing it", "activity", l.current.Activity)
		errs = append(errs, l.close(ts))
	}

	start := ts.Truncate(time.Second)
	l.open = true
	l.current = Interval{SessionID: l.sessionID, Start: start, Activity: activity}
	l.startedN++

	if l.mode == ModeSplit {
		if err := l.sink.Append(openHalf(start, activity)); err != nil {
			errs = append(errs, err)
		}
	}
	slog.Debug("[LOG] interval started", "activity", activity, "start", start.Unix())

	for _, o := range l.observers {
		if err := o.IntervalStarted(l.sessionID, start, activity); err != nil {
			slog.Error("[LOG] observer failed", "event", "start", "error", err)
		}
	}
	return errors.Join(errs...)
}

// OnFacetChanged closes the current interval at ts and opens the next one
// for activity. Both writes happen within this call.
func (l *Logger) OnFacetChanged(activity string, ts time.Time) error {
	var errs []error
	if l.open {
		errs = append(errs, l.close(ts))
	} else {
		slog.Debug("[LOG] facet changed with no open interval", "activity", activity)
	}
	errs = append(errs, l.OnIntervalStart(activity, ts))
	return errors.Join(errs...)
}

// OnIntervalEnd closes the current interval at ts without opening another.
// It is a no-op when nothing is open.
func (l *Logger) OnIntervalEnd(ts time.Time) error {
	if !l.open {
		slog.Debug("[LOG] interval end with no open interval")
		return nil
	}
	return l.close(ts)
}

func (l *Logger) close(ts time.Time) error {
	iv := l.current
	iv.End = ts.Truncate(time.Second)
	if iv.End.Before(iv.Start) {
		slog.Warn("[LOG] clock moved backwards, recording zero duration",
			"start", iv.Start.Unix(), "end", iv.End.Unix())
	}
	l.open = false
	l.current = Interval{}
	l.closedN++

	var record []byte
	switch l.mode {
	case ModeAtomic:
		record = FormatRecord(iv)
	default:
		record = closeHalf(iv)
	}
	var err error
	if werr := l.sink.Append(record); werr != nil {
		err = fmt.Errorf("intervals: close %q: %w", iv.Activity, werr)
	}
	slog.Debug("[LOG] interval closed", "activity", iv.Activity, "duration", iv.Seconds())

	for _, o := range l.observers {
		if oerr := o.IntervalClosed(iv); oerr != nil {
			slog.Error("[LOG] observer failed", "event", "close", "error", oerr)
		}
	}
	return err
}

// Current returns the open interval, if any.
func (l *Logger) Current() (Interval, bool) {
	return l.current, l.open
}

// Counts returns how many intervals have been opened and closed.
func (l *Logger) Counts() (started, closed int) {
	return l.startedN, l.closedN
}

// Close closes the sink. An open interval stays open: in split mode its
// open half is already on disk, in atomic mode it is discarded.
func (l *Logger) Close() error {
	if l.open {
		slog.Info("[LOG] shutting down with open interval",
			"activity", l.current.Activity, "start", l.current.Start.Unix())
	}
	return l.sink.Close()
}
