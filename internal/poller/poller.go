// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/scom-bridge/internal/metrics"
	"github.com/tamzrod/scom-bridge/internal/scom"
	"github.com/tamzrod/scom-bridge/internal/selection"
)

// Config is the minimal runtime config the driver needs.
type Config struct {
	Interval    time.Duration
	ReadTimeout time.Duration
	MaxWorkers  int
}

// Driver is the clock-driven polling loop over all sites.
type Driver struct {
	cfg     Config
	sources []Source
	handle  Handler
	logger  *log.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a driver with immutable config.
func New(cfg Config, sources []Source, handle Handler, logger *log.Logger) (*Driver, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if handle == nil {
		return nil, errors.New("poller: handler required")
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Driver{
		cfg:     cfg,
		sources: append([]Source(nil), sources...),
		handle:  handle,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepCtx,
	}, nil
}

// PollOnce performs exactly one dispatch pass and waits for every read
// it started. Devices with nothing to read are skipped.
// The returned error is only ever the context's.
func (d *Driver) PollOnce(ctx context.Context) error {
	start := d.now()
	defer func() { metrics.ObserveCycle(d.now().Sub(start)) }()

	var g errgroup.Group
	g.SetLimit(d.cfg.MaxWorkers)

dispatch:
	for _, src := range d.sources {
		snap := src.Snapshot()
		metrics.SetConnectedDevices(src.Site(), len(snap.Devices))

		for _, dev := range sortedDevices(snap.Devices) {
			ids := selection.ForDevice(dev)
			if len(ids) == 0 {
				continue
			}
			if ctx.Err() != nil {
				break dispatch
			}

			dev := dev
			g.Go(func() error {
				d.read(ctx, dev, ids)
				return nil
			})
		}
	}

	_ = g.Wait()
	return ctx.Err()
}

func (d *Driver) read(ctx context.Context, dev *scom.Device, ids []int) {
	readCtx := ctx
	if d.cfg.ReadTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, d.cfg.ReadTimeout)
		defer cancel()
	}

	at := d.now()
	values, err := dev.ReadInfos(readCtx, ids)
	metrics.ObserveRead(dev.Site, err, d.now().Sub(at))

	if err != nil {
		d.logger.Printf("read failed (site=%s addr=%d type=%s): %v", dev.Site, dev.Address, dev.Type, err)
	}

	d.handle(ctx, PollResult{
		Site:      dev.Site,
		Address:   dev.Address,
		Type:      dev.Type,
		Multicast: dev.Multicast,
		At:        at,
		Values:    values,
		Err:       err,
	})
}

func sortedDevices(m map[scom.Address]*scom.Device) []*scom.Device {
	out := make([]*scom.Device, 0, len(m))
	for _, dev := range m {
		if dev != nil {
			out = append(out, dev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
