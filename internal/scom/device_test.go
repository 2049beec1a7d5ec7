// internal/scom/device_test.go
package scom

import (
	"context"
	"errors"
	"testing"
)

type fakeBus struct {
	failID int
	reads  []int
}

func (f *fakeBus) Probe(ctx context.Context, t DeviceType, addr Address) error { return nil }

func (f *fakeBus) ReadInfo(ctx context.Context, t DeviceType, addr Address, id int) (float64, error) {
	f.reads = append(f.reads, id)
	if id == f.failID {
		return 0, errors.New("bus timeout")
	}
	return float64(id) / 10, nil
}

func (f *fakeBus) Close() error { return nil }

func TestReadInfos_Success(t *testing.T) {
	bus := &fakeBus{}
	d := NewDevice("N01", Xtender, 101, false, bus)

	got, err := d.ReadInfos(context.Background(), []int{3000, 3001})
	if err != nil {
		t.Fatalf("ReadInfos err=%v", err)
	}
	if len(got) != 2 || got[3000] != 300 || got[3001] != 300.1 {
		t.Fatalf("unexpected values: %v", got)
	}
}

func TestReadInfos_AbortsOnFirstFailure(t *testing.T) {
	bus := &fakeBus{failID: 3001}
	d := NewDevice("N01", Xtender, 101, false, bus)

	if _, err := d.ReadInfos(context.Background(), []int{3000, 3001, 3002}); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(bus.reads) != 2 {
		t.Fatalf("expected read to stop after failure, reads=%v", bus.reads)
	}
}

func TestReadInfos_CancelledContext(t *testing.T) {
	bus := &fakeBus{}
	d := NewDevice("N01", BSP, 601, false, bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.ReadInfos(ctx, []int{7030}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(bus.reads) != 0 {
		t.Fatalf("no read expected after cancellation, reads=%v", bus.reads)
	}
}

func TestScanRangeAddresses(t *testing.T) {
	got := XtenderScanRange.Addresses()
	if len(got) != 9 || got[0] != 101 || got[8] != 109 {
		t.Fatalf("unexpected XT range: %v", got)
	}
	if n := len(BSPScanRange.Addresses()); n != 1 {
		t.Fatalf("BSP range len=%d want=1", n)
	}
	if got := (ScanRange{First: 5, Last: 4}).Addresses(); got != nil {
		t.Fatalf("inverted range should be empty, got %v", got)
	}
}

func TestGroupAddress(t *testing.T) {
	if a, ok := GroupAddress(Xtender); !ok || a != 100 {
		t.Fatalf("XT group = %d,%v", a, ok)
	}
	if _, ok := GroupAddress(BSP); ok {
		t.Fatalf("BSP has no group address")
	}
}
