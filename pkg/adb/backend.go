// Package adb wraps an ADB server connection with the retry and logging
// behaviour the rig tooling relies on.
package adb

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/electricbubble/gadb"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5037

	// DevicePort is the adbd TCP port on rig devices.
	DevicePort = 5555
)

// Backend is the subset of an ADB client the tooling needs.
type Backend interface {
	// Serials lists devices in the "device" (online) state.
	Serials() ([]string, error)
	Connect(ip string, port int) error
	// Shell runs cmd on the device and returns its output stream.
	Shell(serial, cmd string) (io.ReadCloser, error)
	Host() string
}

// GadbBackend talks to an ADB server through gadb.
type GadbBackend struct {
	client gadb.Client
	host   string
	port   int
}

// NewGadbBackend connects to the ADB server at host:port.
func NewGadbBackend(host string, port int) (*GadbBackend, error) {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	client, err := gadb.NewClientWith(host, port)
	if err != nil {
		return nil, fmt.Errorf("connecting to adb server %s:%d: %w", host, port, err)
	}
	return &GadbBackend{client: client, host: host, port: port}, nil
}

func (g *GadbBackend) Serials() ([]string, error) {
	devices, err := g.client.DeviceList()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	serials := make([]string, 0, len(devices))
	for _, d := range devices {
		state, err := d.State()
		if err != nil || state != gadb.StateOnline {
			continue
		}
		serials = append(serials, d.Serial())
	}
	sort.Strings(serials)
	return serials, nil
}

func (g *GadbBackend) Connect(ip string, port int) error {
	if err := g.client.Connect(ip, port); err != nil {
		return fmt.Errorf("connecting to %s:%d: %w", ip, port, err)
	}
	return nil
}

func (g *GadbBackend) Shell(serial, cmd string) (io.ReadCloser, error) {
	device, err := g.device(serial)
	if err != nil {
		return nil, err
	}
	raw, err := device.RunShellCommandWithBytes(cmd)
	if err != nil {
		return nil, fmt.Errorf("running %q on %s: %w", cmd, serial, err)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (g *GadbBackend) Host() string {
	return g.host
}

func (g *GadbBackend) device(serial string) (gadb.Device, error) {
	devices, err := g.client.DeviceList()
	if err != nil {
		return gadb.Device{}, fmt.Errorf("listing devices: %w", err)
	}
	for _, d := range devices {
		if d.Serial() == serial {
			return d, nil
		}
	}
	return gadb.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
}
