// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/scom-bridge/internal/scom"
)

type Config struct {
	ThingsBoard ThingsBoardConfig
	Poll        PollConfig
	Delivery    DeliveryConfig

	MetricsAddr string
	SitesFile   string

	Sites []Site
	Bus   Bus
}

// ---- DASHBOARD ----

type ThingsBoardConfig struct {
	Host  string
	Port  int
	Token string
}

// ---- POLL ----

type PollConfig struct {
	Interval       time.Duration
	ReadTimeout    time.Duration
	ProbeTimeout   time.Duration
	MaxWorkers     int
	RescanInterval time.Duration
}

// Defaults shared by FromEnv and Normalize.
const (
	DefaultInterval       = 60 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultProbeTimeout   = 300 * time.Millisecond
	DefaultMaxWorkers     = 8
	DefaultRescanInterval = 5 * time.Minute
	DefaultQueueSize      = 1000
)

// ---- DELIVERY ----

type DeliveryMode string

const (
	// ModeSend publishes in-line from the read worker.
	ModeSend DeliveryMode = "send"
	// ModeEnqueue hands samples to a bounded queue drained in the background.
	ModeEnqueue DeliveryMode = "enqueue"
)

type DeliveryConfig struct {
	Mode      DeliveryMode
	QueueSize int
}

// ---- SITE ----

// Site is one named node of the installation. An empty Interface means
// the site has no bus attached and is never polled.
type Site struct {
	ID        string  `yaml:"id"`
	Interface string  `yaml:"interface"`
	Longitude float64 `yaml:"longitude"`
	Latitude  float64 `yaml:"latitude"`

	// Optional per-site serial overrides.
	BaudRate int    `yaml:"baudrate"`
	Parity   string `yaml:"parity"`
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// ---- BUS TEMPLATE ----

// Bus is the protocol configuration of one site.
type Bus struct {
	Interface  string
	BaudRate   int
	Parity     string // N | E | O
	DataBits   int
	StopBits   int
	ScanRanges map[scom.DeviceType]scom.ScanRange
}

// DefaultBus is the protocol template shared by all sites before
// per-site specialisation.
func DefaultBus() Bus {
	return Bus{
		BaudRate:   115200,
		Parity:     "N",
		DataBits:   8,
		StopBits:   1,
		ScanRanges: scom.DefaultScanRanges(),
	}
}

// ForSite returns an independent copy of the template bound to one site.
// The receiver is never modified and the result shares no state with it.
func (b Bus) ForSite(s Site) Bus {
	out := b
	out.Interface = s.Interface
	if s.BaudRate > 0 {
		out.BaudRate = s.BaudRate
	}
	if s.Parity != "" {
		out.Parity = s.Parity
	}

	out.ScanRanges = make(map[scom.DeviceType]scom.ScanRange, len(b.ScanRanges))
	for t, r := range b.ScanRanges {
		out.ScanRanges[t] = r
	}
	return out
}

// DefaultSites is the built-in site table.
func DefaultSites() []Site {
	return []Site{
		{ID: "N01", Interface: "COM10"},
		{ID: "N02", Interface: "COM12"},
		{ID: "N03"},
		{ID: "N04"},
		{ID: "N05"},
	}
}
