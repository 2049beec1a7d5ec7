// internal/writer/thingsboard/client_test.go
package thingsboard

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ---- fakes ----

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
	topic   string
	payload []byte
}

type fakePublisher struct {
	msgs    []published
	err     error
	timeout bool
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: p.err, timeout: p.timeout}
}

func (p *fakePublisher) Disconnect(uint) {}

// ---- tests ----

func TestPublishTelemetry_ConnectsDeviceOnce(t *testing.T) {
	pub := &fakePublisher{}
	c := newWithPublisher(pub, time.Second)

	if err := c.PublishTelemetry("N01", 1700000000000, map[string]float64{"101_3090": 1.5}); err != nil {
		t.Fatalf("PublishTelemetry err=%v", err)
	}
	if err := c.PublishTelemetry("N01", 1700000060000, map[string]float64{"101_3090": 1.6}); err != nil {
		t.Fatalf("PublishTelemetry err=%v", err)
	}

	if len(pub.msgs) != 3 {
		t.Fatalf("expected connect + 2 telemetry, got %d", len(pub.msgs))
	}
	if pub.msgs[0].topic != TopicConnect || string(pub.msgs[0].payload) != `{"device":"N01"}` {
		t.Fatalf("unexpected connect message: %s %s", pub.msgs[0].topic, pub.msgs[0].payload)
	}
	if pub.msgs[1].topic != TopicTelemetry {
		t.Fatalf("unexpected topic %s", pub.msgs[1].topic)
	}

	var body map[string][]struct {
		TS     int64              `json:"ts"`
		Values map[string]float64 `json:"values"`
	}
	if err := json.Unmarshal(pub.msgs[1].payload, &body); err != nil {
		t.Fatalf("decode telemetry: %v", err)
	}
	pts := body["N01"]
	if len(pts) != 1 || pts[0].TS != 1700000000000 || pts[0].Values["101_3090"] != 1.5 {
		t.Fatalf("unexpected telemetry body: %s", pub.msgs[1].payload)
	}
}

func TestPublishAttributes(t *testing.T) {
	pub := &fakePublisher{}
	c := newWithPublisher(pub, time.Second)

	if err := c.PublishAttributes("N02", map[string]any{"101_health": "OK"}); err != nil {
		t.Fatalf("PublishAttributes err=%v", err)
	}

	last := pub.msgs[len(pub.msgs)-1]
	if last.topic != TopicAttributes || string(last.payload) != `{"N02":{"101_health":"OK"}}` {
		t.Fatalf("unexpected attributes message: %s %s", last.topic, last.payload)
	}
}

func TestPublish_ErrorsSurface(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	c := newWithPublisher(pub, time.Second)

	if err := c.PublishTelemetry("N01", 0, nil); err == nil {
		t.Fatalf("expected error")
	}
	// Failed connect is retried on the next publish.
	pub.err = nil
	if err := c.PublishTelemetry("N01", 0, nil); err != nil {
		t.Fatalf("unexpected err=%v", err)
	}
	if pub.msgs[1].topic != TopicConnect {
		t.Fatalf("connect not retried: %s", pub.msgs[1].topic)
	}
}

func TestPublish_Timeout(t *testing.T) {
	c := newWithPublisher(&fakePublisher{timeout: true}, time.Millisecond)

	if err := c.ConnectDevice("N01"); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestResetDevices(t *testing.T) {
	pub := &fakePublisher{}
	c := newWithPublisher(pub, time.Second)

	_ = c.ConnectDevice("N01")
	c.resetDevices()
	_ = c.ConnectDevice("N01")

	if len(pub.msgs) != 2 {
		t.Fatalf("expected re-announce after reset, got %d messages", len(pub.msgs))
	}
}

func TestNew_RequiresHost(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected host error")
	}
}
