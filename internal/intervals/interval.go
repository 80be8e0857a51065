// Package intervals turns the TimeFlip event stream into closed activity
// intervals and appends them to a CSV log.
package intervals

import (
	"fmt"
	"time"
)

// Interval is a contiguous span of time attributed to one activity.
// Start and End are truncated to whole seconds when recorded.
type Interval struct {
	SessionID string
	Start     time.Time
	Activity  string
	End       time.Time
}

// Seconds returns end - start in whole seconds, never negative.
func (iv Interval) Seconds() int64 {
	d := iv.End.Unix() - iv.Start.Unix()
	if d < 0 {
		return 0
	}
	return d
}

// openHalf is the first write of a record: "start,activity,".
func openHalf(start time.Time, activity string) []byte {
	return []byte(fmt.Sprintf("%d,%s,", start.Unix(), activity))
}

// closeHalf completes a record: "end,duration\n".
func closeHalf(iv Interval) []byte {
	return []byte(fmt.Sprintf("%d,%d\n", iv.End.Unix(), iv.Seconds()))
}

// FormatRecord returns the complete CSV line for iv.
func FormatRecord(iv Interval) []byte {
	return append(openHalf(iv.Start, iv.Activity), closeHalf(iv)...)
}
