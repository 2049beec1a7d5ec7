// internal/node/manager.go
package node

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/scom-bridge/internal/config"
	"github.com/tamzrod/scom-bridge/internal/scom"
)

// Opener opens the bus of one site.
type Opener func(site string, cfg config.Bus) (scom.Bus, error)

// Listener is notified with every new device set.
type Listener func(Snapshot)

// Manager discovers the devices present on one site's bus.
type Manager struct {
	site   string
	cfg    config.Bus
	bus    scom.Bus
	logger *log.Logger

	mu        sync.Mutex
	devices   map[scom.Address]*scom.Device
	version   uint64
	listeners []Listener

	scanned atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// Open opens the site's bus. The configuration is copied.
func Open(site string, cfg config.Bus, open Opener) (*Manager, error) {
	if open == nil {
		return nil, errors.New("node: nil opener")
	}

	bus, err := open(site, cfg)
	if err != nil {
		return nil, fmt.Errorf("node: connect site %s on %q: %w", site, cfg.Interface, err)
	}

	return &Manager{
		site:    site,
		cfg:     cfg.ForSite(config.Site{ID: site, Interface: cfg.Interface}),
		bus:     bus,
		logger:  log.Default(),
		devices: map[scom.Address]*scom.Device{},
	}, nil
}

// SetLogger replaces the logger used by Run.
func (m *Manager) SetLogger(l *log.Logger) {
	if l != nil {
		m.logger = l
	}
}

func (m *Manager) Site() string { return m.site }

// Subscribe registers l and immediately delivers the current device set.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	l(snap)
}

// Scan probes every configured address and every group address.
// Listeners are notified only when the device set changed.
func (m *Manager) Scan(ctx context.Context) error {
	found := make(map[scom.Address]*scom.Device)

	for _, t := range scom.AllDeviceTypes {
		r, ok := m.cfg.ScanRanges[t]
		if !ok {
			continue
		}

		for _, addr := range r.Addresses() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if m.bus.Probe(ctx, t, addr) == nil {
				found[addr] = scom.NewDevice(m.site, t, addr, false, m.bus)
			}
		}

		group, ok := scom.GroupAddress(t)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.bus.Probe(ctx, t, group) == nil {
			found[group] = scom.NewDevice(m.site, t, group, true, m.bus)
		}
	}

	m.scanned.Store(true)

	m.mu.Lock()
	if sameDevices(m.devices, found) {
		m.mu.Unlock()
		return nil
	}
	m.devices = found
	m.version++
	snap := m.snapshotLocked()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return nil
}

// Run scans once, then rescans every interval until ctx is done.
// The first scan is skipped when one already completed.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	skip := m.scanned.Load()
	for {
		if !skip {
			m.rescan(ctx, interval)
		}
		skip = false

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Manager) rescan(ctx context.Context, interval time.Duration) {
	start := time.Now()
	if err := m.Scan(ctx); err != nil {
		if ctx.Err() == nil {
			m.logger.Printf("scan failed (site=%s): %v", m.site, err)
		}
		return
	}
	if took := time.Since(start); took > interval {
		m.logger.Printf("scan slower than rescan interval (site=%s took=%s interval=%s)", m.site, took, interval)
	}
}

// Close closes the bus. Safe to call more than once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.bus.Close()
	})
	return m.closeErr
}

// snapshotLocked must be called with m.mu held.
func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Site:    m.site,
		Version: m.version,
		Devices: m.devices,
	}
}

func sameDevices(a, b map[scom.Address]*scom.Device) bool {
	if len(a) != len(b) {
		return false
	}
	for addr, da := range a {
		db, ok := b[addr]
		if !ok || da.Type != db.Type || da.Multicast != db.Multicast {
			return false
		}
	}
	return true
}
