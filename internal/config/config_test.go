// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tamzrod/scom-bridge/internal/scom"
)

func TestForSite_IsolatedPerSite(t *testing.T) {
	template := DefaultBus()

	n01 := template.ForSite(Site{ID: "N01", Interface: "COM10"})
	n02 := template.ForSite(Site{ID: "N02", Interface: "COM12"})

	// Each site keeps its own interface after the other was built.
	if n01.Interface != "COM10" {
		t.Fatalf("N01 interface overwritten: %q", n01.Interface)
	}
	if n02.Interface != "COM12" {
		t.Fatalf("N02 interface got=%q want=COM12", n02.Interface)
	}
	if template.Interface != "" {
		t.Fatalf("template mutated: %q", template.Interface)
	}

	// Scan ranges are copies, not shared references.
	n01.ScanRanges[scom.Xtender] = scom.ScanRange{First: 101, Last: 101}
	if n02.ScanRanges[scom.Xtender] != scom.XtenderScanRange {
		t.Fatalf("N02 scan range shared with N01")
	}
	if template.ScanRanges[scom.Xtender] != scom.XtenderScanRange {
		t.Fatalf("template scan range shared with N01")
	}
}

func TestForSite_SerialOverrides(t *testing.T) {
	b := DefaultBus().ForSite(Site{ID: "N01", Interface: "COM10", BaudRate: 38400, Parity: "E"})

	if b.BaudRate != 38400 || b.Parity != "E" {
		t.Fatalf("overrides not applied: %+v", b)
	}
	if b.DataBits != 8 || b.StopBits != 1 {
		t.Fatalf("template values lost: %+v", b)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("THINGSBOARD_SERVER", "")
	t.Setenv("READINGS_DELAY_IN_SECONDS", "")
	t.Setenv("DELIVERY_MODE", "")

	cfg := FromEnv()

	if cfg.ThingsBoard.Host != "localhost" {
		t.Fatalf("host got=%q want=localhost", cfg.ThingsBoard.Host)
	}
	if cfg.Poll.Interval != 60*time.Second {
		t.Fatalf("interval got=%s want=60s", cfg.Poll.Interval)
	}
	if cfg.Delivery.Mode != ModeEnqueue {
		t.Fatalf("mode got=%q want=%q", cfg.Delivery.Mode, ModeEnqueue)
	}
	if len(cfg.Sites) != 5 {
		t.Fatalf("expected built-in site table, got %d sites", len(cfg.Sites))
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("THINGSBOARD_SERVER", "tb.example.org")
	t.Setenv("GATEWAY_Access_TOKEN", "secret")
	t.Setenv("READINGS_DELAY_IN_SECONDS", "20")
	t.Setenv("DELIVERY_MODE", "send")

	cfg := FromEnv()

	if cfg.ThingsBoard.Host != "tb.example.org" || cfg.ThingsBoard.Token != "secret" {
		t.Fatalf("dashboard config not read: %+v", cfg.ThingsBoard)
	}
	if cfg.Poll.Interval != 20*time.Second {
		t.Fatalf("interval got=%s want=20s", cfg.Poll.Interval)
	}
	if cfg.Delivery.Mode != ModeSend {
		t.Fatalf("mode got=%q want=%q", cfg.Delivery.Mode, ModeSend)
	}
}

func TestFromEnv_MalformedIntervalFallsBack(t *testing.T) {
	t.Setenv("READINGS_DELAY_IN_SECONDS", "soon")

	if got := FromEnv().Poll.Interval; got != 60*time.Second {
		t.Fatalf("interval got=%s want=60s", got)
	}
}

func TestLoadSites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	body := `
sites:
  - id: N01
    interface: /dev/ttyUSB0
    baudrate: 38400
  - id: N02
    interface: tcp://10.0.0.5:502
  - id: N03
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write sites: %v", err)
	}

	sites, err := LoadSites(path)
	if err != nil {
		t.Fatalf("LoadSites err=%v", err)
	}
	if len(sites) != 3 {
		t.Fatalf("expected 3 sites, got %d", len(sites))
	}
	if sites[0].Interface != "/dev/ttyUSB0" || sites[0].BaudRate != 38400 {
		t.Fatalf("unexpected N01: %+v", sites[0])
	}
	if sites[2].Interface != "" {
		t.Fatalf("N03 should have no interface, got %q", sites[2].Interface)
	}
}

func TestLoadSites_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	if err := os.WriteFile(path, []byte("sites: []\n"), 0o644); err != nil {
		t.Fatalf("write sites: %v", err)
	}

	if _, err := LoadSites(path); err == nil {
		t.Fatalf("expected error for empty site table")
	}
}
