package adb

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arnavsurve/adblogs/pkg/types"
)

// DefaultRetry is how many attempts connect and shell calls get.
const DefaultRetry = 2

var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Handler consumes the output stream of a shell command.
type Handler func(r io.Reader) error

// SafeClient adds bounded retries and diagnostics on top of a Backend. None of
// its methods panic on ADB failures; callers check the returned error or the
// empty result.
type SafeClient struct {
	backend Backend
	logger  types.Logger
	verbose bool

	// Retry is the number of attempts per operation. No backoff between them.
	Retry int
}

func NewSafeClient(backend Backend, logger types.Logger, verbose bool) *SafeClient {
	logger.Info().Msgf("ADBClient: Initializing service to server %s", backend.Host())
	return &SafeClient{
		backend: backend,
		logger:  logger,
		verbose: verbose,
		Retry:   DefaultRetry,
	}
}

// WithLogger returns a copy of c that logs through logger, e.g. a logger
// scoped to a log region. Retry settings are shared by value.
func (c *SafeClient) WithLogger(logger types.Logger) *SafeClient {
	cp := *c
	cp.logger = logger
	return &cp
}

func (c *SafeClient) attempts() int {
	if c.Retry < 1 {
		return 1
	}
	return c.Retry
}

// Serials returns the online device serials, or none when the server cannot
// be queried.
func (c *SafeClient) Serials() []string {
	serials, err := c.backend.Serials()
	if err != nil {
		c.logger.Error().Err(err).Msg("ADBClient: Exception while reading devices")
		serials = nil
	}
	sort.Strings(serials)

	if c.verbose {
		c.logger.Info().Strs("serials", serials).Msgf("ADBClient: Reading devices = [%s]", strings.Join(serials, ", "))
	} else {
		c.logger.Info().Msgf("ADBClient: Reading %d devices", len(serials))
	}
	return serials
}

// RemoteConnect connects the ADB server to ip:port, retrying on failure.
func (c *SafeClient) RemoteConnect(ip string, port int) error {
	var lastErr error
	retry := c.attempts()
	for attempt := 1; attempt <= retry; attempt++ {
		if c.verbose {
			c.logger.Info().Msgf("ADBClient: Try %d/%d connecting to '%s:%d'", attempt, retry, ip, port)
		}
		err := c.backend.Connect(ip, port)
		if err == nil {
			return nil
		}
		lastErr = err
		c.logger.Error().Err(err).Int("attempt", attempt).Msg("ADBClient: Exception while connecting")
	}
	return fmt.Errorf("connecting to %s:%d: %w: %w", ip, port, ErrRetriesExhausted, lastErr)
}

// DeviceShell runs cmd on serial and passes its output to handler. message is
// logged once the command succeeded. A nil handler discards the output.
func (c *SafeClient) DeviceShell(serial, cmd, message string, handler Handler) error {
	logger := c.logger.With().Str("serial", serial).Logger()

	var lastErr error
	retry := c.attempts()
	for attempt := 1; attempt <= retry; attempt++ {
		if c.verbose {
			logger.Info().Msgf("ADBClient: Try %d/%d running shell command '%s'", attempt, retry, cmd)
		}
		err := c.runShell(serial, cmd, handler)
		if err == nil {
			logger.Info().Msg(message)
			return nil
		}
		lastErr = err
		logger.Error().Err(err).Int("attempt", attempt).
			Msgf("ADBClient: Could not connect to Device: Device '%s' may be switched OFF", serial)
	}
	return fmt.Errorf("running shell command on %s: %w: %w", serial, ErrRetriesExhausted, lastErr)
}

func (c *SafeClient) runShell(serial, cmd string, handler Handler) error {
	stream, err := c.backend.Shell(serial, cmd)
	if err != nil {
		return err
	}
	defer stream.Close()

	if handler == nil {
		_, err = io.Copy(io.Discard, stream)
		return err
	}
	return handler(stream)
}

func (c *SafeClient) Host() string {
	return c.backend.Host()
}
