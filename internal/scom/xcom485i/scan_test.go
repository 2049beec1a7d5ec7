// internal/scom/xcom485i/scan_test.go
package xcom485i

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/scom-bridge/internal/config"
	"github.com/tamzrod/scom-bridge/internal/node"
	"github.com/tamzrod/scom-bridge/internal/scom"
)

// slowBus answers only for present slaves; any other slave costs the
// currently configured handler timeout, like a real gateway.
type slowBus struct {
	mu       sync.Mutex
	present  map[byte]bool
	slave    byte
	timeout  time.Duration
	timeouts []time.Duration
}

func (b *slowBus) setSlave(id byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slave = id
}

func (b *slowBus) setTimeout(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeout = d
	b.timeouts = append(b.timeouts, d)
}

func (b *slowBus) ReadInputRegisters(addr, qty uint16) ([]byte, error) {
	b.mu.Lock()
	present, wait := b.present[b.slave], b.timeout
	b.mu.Unlock()

	if !present {
		time.Sleep(wait)
		return nil, errors.New("modbus: timeout")
	}
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, math.Float32bits(1))
	return out, nil
}

func newSlowClient(b *slowBus, read, probe time.Duration) *Client {
	c := newClient(b, b.setSlave, nil)
	c.setTimeout = b.setTimeout
	c.readTimeout = read
	c.probeTimeout = probe
	return c
}

func TestDiscoveryAndRead_UseTheirOwnTimeouts(t *testing.T) {
	b := &slowBus{present: map[byte]bool{11: true}}
	c := newSlowClient(b, 2*time.Second, 5*time.Millisecond)

	_ = c.Probe(context.Background(), scom.Xtender, 102)
	_, _ = c.ReadInfo(context.Background(), scom.Xtender, 101, 3090)

	if len(b.timeouts) != 2 || b.timeouts[0] != 5*time.Millisecond || b.timeouts[1] != 2*time.Second {
		t.Fatalf("timeouts got=%v want=[5ms 2s]", b.timeouts)
	}
}

func TestReadDuringScan(t *testing.T) {
	// XT 101 is the only device; every other address times out.
	b := &slowBus{present: map[byte]bool{11: true}}
	c := newSlowClient(b, time.Second, 5*time.Millisecond)

	m, err := node.Open("N01", config.DefaultBus(), func(string, config.Bus) (scom.Bus, error) {
		return c, nil
	})
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}

	scanDone := make(chan time.Duration, 1)
	go func() {
		start := time.Now()
		_ = m.Scan(context.Background())
		scanDone <- time.Since(start)
	}()

	time.Sleep(20 * time.Millisecond)

	dev := scom.NewDevice("N01", scom.Xtender, 101, false, c)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := dev.ReadInfos(ctx, []int{3090, 3113, 3116}); err != nil {
		t.Fatalf("read during scan failed: %v", err)
	}

	select {
	case took := <-scanDone:
		// 43 absent addresses at 5ms each, with slack for the scheduler.
		if took > 2*time.Second {
			t.Fatalf("scan took %s", took)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scan did not finish")
	}
}

func TestReadInfo_GivesUpWaitingForBus(t *testing.T) {
	c := newFakeClient(&fakeReader{})
	c.sem <- struct{}{} // bus held elsewhere

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := c.ReadInfo(ctx, scom.Xtender, 101, 3090); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while waiting for bus, got %v", err)
	}
}
