// internal/scom/xcom485i/client.go
package xcom485i

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"

	"github.com/tamzrod/scom-bridge/internal/scom"
)

// registerReader is the only Modbus operation the bus needs.
type registerReader interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// handlerWithConn is a goburrow handler with an explicit lifecycle.
type handlerWithConn interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Config is the minimal transport config of one site.
type Config struct {
	// Interface is a serial device (COM10, /dev/ttyUSB0, rtu:///dev/ttyS1)
	// or a Modbus TCP gateway (tcp://host:port).
	Interface string
	Serial    serial.Config

	// Timeout bounds one info read. ProbeTimeout bounds one discovery
	// probe; absent slaves cost a full probe timeout, so keep it short.
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

const (
	defaultTimeout      = 5 * time.Second
	defaultProbeTimeout = 300 * time.Millisecond
)

// Client implements scom.Bus on top of a Modbus gateway.
// Requests are serialized because SlaveId is mutated per request and the
// field bus is half-duplex. Waiting for the bus honours the caller's ctx.
type Client struct {
	sem        chan struct{}
	reader     registerReader
	setSlave   func(byte)
	setTimeout func(time.Duration)
	closer     func() error

	readTimeout  time.Duration
	probeTimeout time.Duration
}

// Open creates a connected client. It fails if the interface cannot be opened.
func Open(cfg Config) (*Client, error) {
	iface := strings.TrimSpace(cfg.Interface)
	if iface == "" {
		return nil, errors.New("xcom485i: interface required")
	}

	readTimeout := cfg.Timeout
	if readTimeout <= 0 {
		readTimeout = defaultTimeout
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}

	var (
		h          handlerWithConn
		setSlave   func(byte)
		setTimeout func(time.Duration)
	)

	if strings.HasPrefix(iface, "tcp://") {
		th := modbus.NewTCPClientHandler(strings.TrimPrefix(iface, "tcp://"))
		th.Timeout = readTimeout
		h = th
		setSlave = func(id byte) { th.SlaveId = id }
		// Applied as a deadline on every request.
		setTimeout = func(d time.Duration) { th.Timeout = d }
	} else {
		sc := cfg.Serial
		sc.Address = strings.TrimPrefix(iface, "rtu://")
		sc.Timeout = readTimeout
		EnsureSerialDefaults(&sc)

		rh := modbus.NewRTUClientHandler(sc.Address)
		rh.Config = sc
		h = rh
		setSlave = func(id byte) { rh.SlaveId = id }
		// The serial read timeout is fixed when the port opens; the
		// transporter reopens the port lazily on the next request.
		setTimeout = func(d time.Duration) {
			if rh.Config.Timeout == d {
				return
			}
			_ = rh.Close()
			rh.Config.Timeout = d
		}
	}

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("xcom485i: connect %s: %w", iface, err)
	}

	c := newClient(modbus.NewClient(h), setSlave, h.Close)
	c.setTimeout = setTimeout
	c.readTimeout = readTimeout
	c.probeTimeout = probeTimeout
	return c, nil
}

func newClient(r registerReader, setSlave func(byte), closer func() error) *Client {
	return &Client{
		sem:          make(chan struct{}, 1),
		reader:       r,
		setSlave:     setSlave,
		closer:       closer,
		readTimeout:  defaultTimeout,
		probeTimeout: defaultProbeTimeout,
	}
}

// EnsureSerialDefaults fills unset serial parameters with the SCOM defaults
// (115200 baud, 8 data bits, 1 stop bit, no parity).
func EnsureSerialDefaults(sc *serial.Config) {
	if sc.BaudRate == 0 {
		sc.BaudRate = 115200
	}
	if sc.DataBits == 0 {
		sc.DataBits = 8
	}
	if sc.StopBits == 0 {
		sc.StopBits = 1
	}
	if sc.Parity == "" {
		sc.Parity = "N"
	}
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	c.sem <- struct{}{}
	defer func() { <-c.sem }()
	return c.closer()
}

// ---- scom.Bus interface ----

// Probe reads the first user info of the device type at addr,
// bounded by the probe timeout.
func (c *Client) Probe(ctx context.Context, t scom.DeviceType, addr scom.Address) error {
	id, ok := probeInfo(t)
	if !ok {
		return fmt.Errorf("%w: cannot probe %s", scom.ErrUnsupported, t)
	}
	_, err := c.read(ctx, t, addr, id, c.probeTimeout)
	return err
}

// ReadInfo reads one user info as float32.
func (c *Client) ReadInfo(ctx context.Context, t scom.DeviceType, addr scom.Address, infoID int) (float64, error) {
	return c.read(ctx, t, addr, infoID, c.readTimeout)
}

func (c *Client) read(ctx context.Context, t scom.DeviceType, addr scom.Address, infoID int, timeout time.Duration) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	slave, err := SlaveID(t, addr)
	if err != nil {
		return 0, err
	}
	reg, err := Register(t, infoID)
	if err != nil {
		return 0, err
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-c.sem }()

	// Waiting for the bus may have outlived the caller.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if c.setTimeout != nil {
		c.setTimeout(timeout)
	}
	c.setSlave(slave)
	data, err := c.reader.ReadInputRegisters(reg, registersPerInfo)
	if err != nil {
		return 0, err
	}
	if len(data) < 2*registersPerInfo {
		return 0, fmt.Errorf("xcom485i: short payload for info %d: %d bytes", infoID, len(data))
	}

	return float64(math.Float32frombits(binary.BigEndian.Uint32(data[:4]))), nil
}
