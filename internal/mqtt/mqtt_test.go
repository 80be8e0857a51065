package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/chaz8081/timeflip-logger/internal/intervals"
)

// fakeToken is a completed paho.Token.
type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient records publishes.
type fakeClient struct {
	msgs         []published
	err          error
	timeout      bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	var body string
	switch p := payload.(type) {
	case []byte:
		body = string(p)
	case string:
		body = p
	}
	c.msgs = append(c.msgs, published{topic: topic, qos: qos, retained: retained, payload: body})
	return &fakeToken{err: c.err, timeout: c.timeout}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestTopic(t *testing.T) {
	if got := Topic("home/desk", SuffixActivity); got != "home/desk/activity" {
		t.Errorf("Topic() = %q", got)
	}
	if got := Topic("", SuffixIntervals); got != "timeflip/intervals" {
		t.Errorf("Topic(empty prefix) = %q", got)
	}
}

func TestFormatActivityPayloadExactJSON(t *testing.T) {
	got, err := FormatActivityPayload("abc", time.Unix(1000, 0), "Break")
	if err != nil {
		t.Fatalf("FormatActivityPayload() error = %v", err)
	}
	want := `{"session":"abc","activity":"Break","since":"1970-01-01T00:16:40Z","since_ts":1000}`
	if string(got) != want {
		t.Errorf("payload = %s, want %s", got, want)
	}
}

func TestFormatIntervalPayloadExactJSON(t *testing.T) {
	got, err := FormatIntervalPayload("abc", time.Unix(1050, 0), time.Unix(1200, 0), "Build", 150)
	if err != nil {
		t.Fatalf("FormatIntervalPayload() error = %v", err)
	}
	want := `{"session":"abc","activity":"Build","start":1050,"end":1200,"duration":150}`
	if string(got) != want {
		t.Errorf("payload = %s, want %s", got, want)
	}
}

func TestPublisherMirrorsTransitions(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "desk")

	if err := p.IntervalStarted("s1", time.Unix(1000, 0), "Break"); err != nil {
		t.Fatalf("IntervalStarted() error = %v", err)
	}
	iv := intervals.Interval{SessionID: "s1", Start: time.Unix(1000, 0), Activity: "Break", End: time.Unix(1050, 0)}
	if err := p.IntervalClosed(iv); err != nil {
		t.Fatalf("IntervalClosed() error = %v", err)
	}

	if len(c.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(c.msgs))
	}
	if c.msgs[0].topic != "desk/activity" || !c.msgs[0].retained {
		t.Errorf("activity message = %+v, want retained on desk/activity", c.msgs[0])
	}
	if c.msgs[1].topic != "desk/intervals" || c.msgs[1].retained {
		t.Errorf("interval message = %+v, want non-retained on desk/intervals", c.msgs[1])
	}
	want := `{"session":"s1","activity":"Break","start":1000,"end":1050,"duration":50}`
	if c.msgs[1].payload != want {
		t.Errorf("interval payload = %s, want %s", c.msgs[1].payload, want)
	}
}

func TestPublisherErrors(t *testing.T) {
	c := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(c, "")
	if err := p.IntervalStarted("s", time.Unix(1, 0), ""); err == nil {
		t.Error("IntervalStarted() should surface publish errors")
	}

	c = &fakeClient{timeout: true}
	p = newPublisher(c, "")
	if err := p.IntervalClosed(intervals.Interval{}); err == nil {
		t.Error("IntervalClosed() should surface publish timeouts")
	}
}

func TestPublisherClose(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "desk")
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !c.disconnected {
		t.Error("Close() should disconnect the client")
	}
	if len(c.msgs) != 1 || c.msgs[0].topic != "desk/status" || c.msgs[0].payload != "offline" {
		t.Errorf("Close() published %+v, want offline status", c.msgs)
	}
}
