// cmd/scombridge/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/goburrow/serial"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/scom-bridge/internal/config"
	"github.com/tamzrod/scom-bridge/internal/metrics"
	"github.com/tamzrod/scom-bridge/internal/node"
	"github.com/tamzrod/scom-bridge/internal/poller"
	"github.com/tamzrod/scom-bridge/internal/scom"
	"github.com/tamzrod/scom-bridge/internal/scom/xcom485i"
	"github.com/tamzrod/scom-bridge/internal/status"
	"github.com/tamzrod/scom-bridge/internal/writer"
	"github.com/tamzrod/scom-bridge/internal/writer/thingsboard"
)

func main() {
	logger := log.New(os.Stdout, "[scombridge] ", log.LstdFlags|log.LUTC)

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		logger.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Metrics
	// --------------------

	metrics.Init()
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, logger)
	}

	// --------------------
	// Dashboard
	// --------------------

	tb, err := thingsboard.New(thingsboard.Config{
		Host:    cfg.ThingsBoard.Host,
		Port:    cfg.ThingsBoard.Port,
		Token:   cfg.ThingsBoard.Token,
		Timeout: cfg.Poll.ReadTimeout,
	})
	if err != nil {
		logger.Fatalf("dashboard client failed: %v", err)
	}
	defer tb.Close()

	dataWriter, err := writer.New(cfg.Delivery.Mode, tb, cfg.Delivery.QueueSize, logger)
	if err != nil {
		logger.Fatalf("writer build failed: %v", err)
	}
	statusWriter := writer.NewStatusWriter(tb, status.NewTracker(), logger)

	// --------------------
	// Sites
	// --------------------

	observers := node.Connect(cfg.Sites, cfg.Bus, openBus(cfg.Poll.ReadTimeout, cfg.Poll.ProbeTimeout), logger)
	if len(observers) == 0 {
		logger.Printf("no site connected; polling nothing")
	}

	// First discovery before the first pass, so it has devices to read.
	initialScan(ctx, observers, logger)

	var wg sync.WaitGroup
	sources := make([]poller.Source, 0, len(observers))

	for _, o := range observers {
		m := o.Manager()
		defer m.Close()

		publishSiteAttributes(tb, cfg.Sites, o.Site(), logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Run(ctx, cfg.Poll.RescanInterval)
		}()

		sources = append(sources, o)
	}

	// --------------------
	// Delivery
	// --------------------

	wg.Add(1)
	go func() {
		defer wg.Done()
		dataWriter.Run(ctx)
	}()

	handle := func(ctx context.Context, res poller.PollResult) {
		dataWriter.Handle(ctx, res)
		statusWriter.Handle(ctx, res)
	}

	driver, err := poller.New(poller.Config{
		Interval:    cfg.Poll.Interval,
		ReadTimeout: cfg.Poll.ReadTimeout,
		MaxWorkers:  cfg.Poll.MaxWorkers,
	}, sources, handle, logger)
	if err != nil {
		logger.Fatalf("poller build failed: %v", err)
	}

	logger.Printf("polling %d site(s) every %s (mode=%s)", len(sources), cfg.Poll.Interval, cfg.Delivery.Mode)
	driver.Run(ctx)

	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	delivered, dropped := dataWriter.Drain(drainCtx)
	cancel()

	logger.Printf("stopped (drained=%d dropped=%d)", delivered, dropped)
}

const drainTimeout = 5 * time.Second

// initialScan runs one discovery per site in parallel and waits for all.
func initialScan(ctx context.Context, observers []*node.Observer, logger *log.Logger) {
	var g errgroup.Group
	for _, o := range observers {
		m := o.Manager()
		g.Go(func() error {
			if err := m.Scan(ctx); err != nil && ctx.Err() == nil {
				logger.Printf("scan failed (site=%s): %v", m.Site(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// openBus adapts a site's protocol configuration to the Xcom-485i gateway.
func openBus(timeout, probeTimeout time.Duration) node.Opener {
	return func(site string, b config.Bus) (scom.Bus, error) {
		c, err := xcom485i.Open(xcom485i.Config{
			Interface: b.Interface,
			Serial: serial.Config{
				BaudRate: b.BaudRate,
				DataBits: b.DataBits,
				StopBits: b.StopBits,
				Parity:   b.Parity,
			},
			Timeout:      timeout,
			ProbeTimeout: probeTimeout,
		})
		if err != nil {
			metrics.IncSiteFailure(site)
			return nil, err
		}
		return c, nil
	}
}

// publishSiteAttributes sends the site's static location once at startup.
func publishSiteAttributes(tb *thingsboard.Client, sites []config.Site, id string, logger *log.Logger) {
	for _, s := range sites {
		if s.ID != id {
			continue
		}
		if s.Longitude == 0 && s.Latitude == 0 {
			return
		}
		err := tb.PublishAttributes(id, map[string]any{
			"longitude": s.Longitude,
			"latitude":  s.Latitude,
		})
		if err != nil {
			logger.Printf("site attributes failed (site=%s): %v", id, err)
		}
		return
	}
}

func serveMetrics(ctx context.Context, addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("metrics listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("metrics server failed: %v", err)
	}
}
