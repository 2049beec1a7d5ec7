// internal/writer/status_writer.go
package writer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/tamzrod/scom-bridge/internal/poller"
	"github.com/tamzrod/scom-bridge/internal/status"
)

// StatusWriter publishes device health as gateway attributes.
// It writes only when a device's snapshot changed; after a failed
// write the next result re-asserts the full snapshot.
type StatusWriter struct {
	cli     endpointClient
	tracker *status.Tracker
	logger  *log.Logger

	mu       sync.Mutex
	needFull map[string]bool
}

func NewStatusWriter(cli endpointClient, tracker *status.Tracker, logger *log.Logger) *StatusWriter {
	if tracker == nil {
		tracker = status.NewTracker()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &StatusWriter{
		cli:      cli,
		tracker:  tracker,
		logger:   logger,
		needFull: map[string]bool{},
	}
}

// WriteStatus folds res into the tracker and delivers the snapshot if needed.
func (sw *StatusWriter) WriteStatus(res poller.PollResult) error {
	snap, changed := sw.tracker.Observe(res)
	key := fmt.Sprintf("%s/%d", res.Site, res.Address)

	sw.mu.Lock()
	pending := sw.needFull[key]
	sw.mu.Unlock()

	if !changed && !pending {
		return nil
	}

	err := sw.cli.PublishAttributes(res.Site, status.Encode(res.Address, snap))

	sw.mu.Lock()
	if err != nil {
		sw.needFull[key] = true
	} else {
		delete(sw.needFull, key)
	}
	sw.mu.Unlock()

	if err != nil {
		return fmt.Errorf("status writer: site=%s addr=%d: %w", res.Site, res.Address, err)
	}
	return nil
}

// Handle adapts WriteStatus to poller.Handler.
func (sw *StatusWriter) Handle(ctx context.Context, res poller.PollResult) {
	if err := sw.WriteStatus(res); err != nil {
		sw.logger.Printf("status write failed (site=%s addr=%d): %v", res.Site, res.Address, err)
	}
}
