// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/scom-bridge/internal/config"
	"github.com/tamzrod/scom-bridge/internal/metrics"
	"github.com/tamzrod/scom-bridge/internal/poller"
	"github.com/tamzrod/scom-bridge/internal/scom"
)

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	PublishTelemetry(site string, tsMillis int64, values map[string]float64) error
	PublishAttributes(site string, attrs map[string]any) error
}

// Writer forwards successful reads to the dashboard.
type Writer struct {
	mode   config.DeliveryMode
	cli    endpointClient
	queue  *Queue
	logger *log.Logger
	now    func() time.Time
}

// New builds a writer for one delivery mode. queueSize is used in
// enqueue mode only.
func New(mode config.DeliveryMode, cli endpointClient, queueSize int, logger *log.Logger) (*Writer, error) {
	if cli == nil {
		return nil, errors.New("writer: client required")
	}
	if logger == nil {
		logger = log.Default()
	}

	w := &Writer{
		mode:   mode,
		cli:    cli,
		logger: logger,
		now:    time.Now,
	}

	switch mode {
	case config.ModeSend:
	case config.ModeEnqueue:
		w.queue = NewQueue(queueSize)
	default:
		return nil, fmt.Errorf("writer: unknown delivery mode %q", mode)
	}
	return w, nil
}

// Write forwards one read result. Failed reads are not forwarded.
func (w *Writer) Write(ctx context.Context, res poller.PollResult) error {
	if res.Err != nil || len(res.Values) == 0 {
		return nil
	}
	values := TelemetryValues(res.Address, res.Values)

	if w.mode == config.ModeSend {
		err := w.cli.PublishTelemetry(res.Site, w.now().UnixMilli(), values)
		metrics.IncDelivery(string(w.mode), resultLabel(err))
		if err != nil {
			return fmt.Errorf("writer: send (site=%s addr=%d): %w", res.Site, res.Address, err)
		}
		return nil
	}

	err := w.queue.Publish(Message{
		ID:     uuid.NewString(),
		Site:   res.Site,
		TS:     res.At.UnixMilli(),
		Values: values,
	})
	metrics.SetQueueDepth(w.queue.Len())
	if err != nil {
		metrics.IncDelivery(string(w.mode), metrics.ResultDropped)
		return fmt.Errorf("writer: enqueue (site=%s addr=%d): %w", res.Site, res.Address, err)
	}
	return nil
}

// Handle adapts Write to poller.Handler, logging failures.
func (w *Writer) Handle(ctx context.Context, res poller.PollResult) {
	if err := w.Write(ctx, res); err != nil {
		w.logger.Printf("delivery failed (site=%s addr=%d): %v", res.Site, res.Address, err)
	}
}

// Run drains the queue in order until ctx is done or the queue is closed.
// In send mode there is nothing to drain and Run returns immediately.
func (w *Writer) Run(ctx context.Context) {
	if w.queue == nil {
		return
	}

	for {
		// Leftovers belong to Drain once ctx is done.
		if ctx.Err() != nil {
			return
		}
		msg, err := w.queue.Consume(ctx)
		if err != nil {
			return
		}
		metrics.SetQueueDepth(w.queue.Len())

		err = w.cli.PublishTelemetry(msg.Site, msg.TS, msg.Values)
		metrics.IncDelivery(string(w.mode), resultLabel(err))
		if err != nil {
			w.logger.Printf("delivery failed (site=%s msg=%s): %v", msg.Site, msg.ID, err)
		}
	}
}

// Drain stops accepting samples and delivers what is still queued until
// ctx is done. Samples left over or failing delivery count as dropped.
func (w *Writer) Drain(ctx context.Context) (delivered, dropped int) {
	if w.queue == nil {
		return 0, 0
	}
	w.queue.Close()

	for {
		if ctx.Err() != nil {
			dropped += w.queue.Len()
			break
		}
		msg, err := w.queue.Consume(ctx)
		if errors.Is(err, ErrClosed) {
			break
		}
		if err != nil {
			dropped += w.queue.Len()
			break
		}

		if err := w.cli.PublishTelemetry(msg.Site, msg.TS, msg.Values); err != nil {
			metrics.IncDelivery(string(w.mode), metrics.ResultDropped)
			w.logger.Printf("delivery failed (site=%s msg=%s): %v", msg.Site, msg.ID, err)
			dropped++
			continue
		}
		metrics.IncDelivery(string(w.mode), metrics.ResultSuccess)
		delivered++
	}
	metrics.SetQueueDepth(w.queue.Len())

	if dropped > 0 {
		w.logger.Printf("samples dropped at shutdown (count=%d)", dropped)
	}
	return delivered, dropped
}

// Close stops accepting samples. Queued samples can still be drained.
func (w *Writer) Close() {
	if w.queue != nil {
		w.queue.Close()
	}
}

// TelemetryValues keys each value as <address>_<infoID>.
func TelemetryValues(addr scom.Address, values map[int]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for id, v := range values {
		out[fmt.Sprintf("%d_%d", addr, id)] = v
	}
	return out
}

func resultLabel(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
