// Package mqtt publishes TimeFlip activity transitions to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// DefaultTopic is the topic prefix used when none is configured.
const DefaultTopic = "timeflip"

// Topic suffixes under the configured prefix.
const (
	SuffixActivity  = "activity"  // retained: the activity currently in progress
	SuffixIntervals = "intervals" // one message per closed interval
	SuffixStatus    = "status"    // retained: "online" / "offline" (LWT)
)

// Topic joins the configured prefix and a suffix.
func Topic(prefix, suffix string) string {
	if prefix == "" {
		prefix = DefaultTopic
	}
	return prefix + "/" + suffix
}

// ActivityPayload is published when an interval opens.
type ActivityPayload struct {
	Session  string `json:"session"`
	Activity string `json:"activity"`
	Since    string `json:"since"`
	SinceTS  int64  `json:"since_ts"`
}

// IntervalPayload is published when an interval closes.
type IntervalPayload struct {
	Session  string `json:"session"`
	Activity string `json:"activity"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Duration int64  `json:"duration"`
}

// FormatActivityPayload creates the JSON payload for an opened interval.
func FormatActivityPayload(session string, start time.Time, activity string) ([]byte, error) {
	return json.Marshal(ActivityPayload{
		Session:  session,
		Activity: activity,
		Since:    start.UTC().Format(time.RFC3339),
		SinceTS:  start.Unix(),
	})
}

// FormatIntervalPayload creates the JSON payload for a closed interval.
func FormatIntervalPayload(session string, start, end time.Time, activity string, duration int64) ([]byte, error) {
	return json.Marshal(IntervalPayload{
		Session:  session,
		Activity: activity,
		Start:    start.Unix(),
		End:      end.Unix(),
		Duration: duration,
	})
}
