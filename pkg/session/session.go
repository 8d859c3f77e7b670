// Package session drives logcat queries against rig devices addressed by
// server and slot.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/arnavsurve/adblogs/pkg/adb"
	"github.com/arnavsurve/adblogs/pkg/config"
	"github.com/arnavsurve/adblogs/pkg/keymap"
	"github.com/arnavsurve/adblogs/pkg/log"
	"github.com/arnavsurve/adblogs/pkg/logcat"
	"github.com/arnavsurve/adblogs/pkg/output"
	"github.com/arnavsurve/adblogs/pkg/types"
)

// LogRegion is the region printing and saving operations log under.
const LogRegion = "ADB Logs"

// Fetch is the outcome of one shell command run against a slot. An empty
// Serial means no device could be reached; the Result is then empty too.
type Fetch struct {
	Server  string
	Slot    int
	Serial  string
	Command string
	logcat.Result
}

// Connected reports whether the command reached a device.
func (f Fetch) Connected() bool {
	return f.Serial != ""
}

// Lines counts the log lines in the fetched text.
func (f Fetch) Lines() int {
	return countLines(f.Text())
}

type Options struct {
	Verbose bool

	// Out receives printed logs. Defaults to os.Stdout.
	Out io.Writer

	// Table translates key codes. Defaults to keymap.Default.
	Table *keymap.Table

	// OutputDir is where SaveAllLogs writes. Defaults to the working directory.
	OutputDir string
	Compress  bool

	Now func() time.Time
}

// Session owns the list of known device serials for one ADB server.
type Session struct {
	cfg     *config.Config
	client  *adb.SafeClient
	logger  types.Logger
	opts    Options
	devices []string
	builder *logcat.Builder
}

// New reads the currently connected devices from client.
func New(cfg *config.Config, client *adb.SafeClient, logger types.Logger, opts Options) *Session {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Table == nil {
		opts.Table = keymap.Default
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		cfg:     cfg,
		client:  client,
		logger:  logger,
		opts:    opts,
		devices: client.Serials(),
		builder: &logcat.Builder{Logger: logger, Now: opts.Now},
	}
}

// SetStartTime pins the start of time-bounded queries. The zero time restores
// the sliding window.
func (s *Session) SetStartTime(t time.Time) {
	s.builder.Start = t
}

// Devices returns the serials known to the session.
func (s *Session) Devices() []string {
	return slices.Clone(s.devices)
}

func (s *Session) deviceExists(serial string) bool {
	return slices.Contains(s.devices, serial)
}

// SlotsConnected lists the configured slots of server whose device is
// attached to the ADB server.
func (s *Session) SlotsConnected(server string) []int {
	var slots []int
	for _, no := range s.cfg.Slots(server) {
		serial, err := s.cfg.Serial(server, no)
		if err != nil {
			continue
		}
		if s.deviceExists(serial) {
			slots = append(slots, no)
		}
	}
	return slots
}

// AttemptConnect asks the ADB server to connect to the slot's device. It
// returns the device serial, or an error when the slot is not configured or
// every connection attempt failed.
func (s *Session) AttemptConnect(server string, slot int) (string, error) {
	return s.attemptConnect(s.logger, server, slot)
}

func (s *Session) attemptConnect(logger types.Logger, server string, slot int) (string, error) {
	entry, err := s.cfg.Lookup(server, slot)
	if err != nil {
		return "", err
	}
	serial, err := s.cfg.Serial(server, slot)
	if err != nil {
		return "", err
	}

	known := s.deviceExists(serial)
	if !known {
		logger.Warn().Int("slot", slot).
			Msgf("ADBLog: The slot '%d' seems not to be connected to the ADB server on %s", slot, s.client.Host())
	}

	if err := s.client.WithLogger(logger).RemoteConnect(entry.IP, s.cfg.DevicePort); err != nil {
		return "", err
	}
	if !known {
		s.devices = append(s.devices, serial)
	}
	return serial, nil
}

// runDeviceShell connects to the slot and runs cmd, logging through logger.
// With collect set the command output is gathered into the Fetch. Only
// configuration errors are returned; unreachable devices yield an empty Fetch.
func (s *Session) runDeviceShell(logger types.Logger, server string, slot int, cmd, message string, collect bool) (Fetch, error) {
	fetch := Fetch{Server: server, Slot: slot, Command: cmd}
	started := s.opts.Now()

	serial, err := s.attemptConnect(logger, server, slot)
	if err != nil {
		if errors.Is(err, config.ErrUnknownSlot) {
			return fetch, err
		}
		logger.Error().Err(err).Int("slot", slot).Msg("ADBLog: No device reachable, returning no logs")
		return fetch, nil
	}

	var handler adb.Handler
	if collect {
		collector := &logcat.Collector{Logger: logger}
		handler = func(r io.Reader) error {
			res, err := collector.Collect(r)
			fetch.Result = res
			return err
		}
	}

	if err := s.client.WithLogger(logger).DeviceShell(serial, cmd, message, handler); err != nil {
		logger.Error().Err(err).Str("serial", serial).Msg("ADBLog: Shell command failed, returning no logs")
		fetch.Result = logcat.Result{}
		return fetch, nil
	}

	fetch.Serial = serial
	if fetch.Degraded > 0 {
		logger.Warn().Str("serial", serial).Int("degraded_chunks", fetch.Degraded).
			Msg("ADBLog: Some log chunks were not valid UTF-8 and were decoded best-effort")
	}
	logger.Debug().Str("serial", serial).Int("chunks", len(fetch.Chunks)).
		Dur("elapsed", s.opts.Now().Sub(started)).Msg("ADBLog: Shell command finished")
	return fetch, nil
}

// ClearLogCat empties the device's log buffer.
func (s *Session) ClearLogCat(server string, slot int) (Fetch, error) {
	logger, end := log.BeginRegion(s.logger, LogRegion)
	defer end()
	return s.runDeviceShell(logger, server, slot, s.builder.Clear(), "ADBLog: The logcat is now cleared", false)
}

// Logs fetches the remote control key logs, filtered by search. An empty
// search selects key release lines. A non-empty region groups the fetch's
// diagnostics.
func (s *Session) Logs(server string, slot int, search, region string) (Fetch, error) {
	logger, end := log.BeginRegion(s.logger, region)
	defer end()
	return s.keyLogs(logger, server, slot, search)
}

func (s *Session) keyLogs(logger types.Logger, server string, slot int, search string) (Fetch, error) {
	cmd := s.builder.KeyLogs(search)
	return s.runDeviceShell(logger, server, slot, cmd, "ADBLog: Requested logs received", true)
}

// GenericLogs fetches lines of tag matching search within limit.
func (s *Session) GenericLogs(server string, slot int, tag, search string, limit logcat.Limit, timeLimited bool, region string) (Fetch, error) {
	logger, end := log.BeginRegion(s.logger, region)
	defer end()
	return s.genericLogs(logger, server, slot, tag, search, limit, timeLimited)
}

func (s *Session) genericLogs(logger types.Logger, server string, slot int, tag, search string, limit logcat.Limit, timeLimited bool) (Fetch, error) {
	b := *s.builder
	b.Logger = logger
	cmd := b.Generic(tag, search, limit, timeLimited)
	return s.runDeviceShell(logger, server, slot, cmd, "ADBLog: Requested logs received", true)
}

// AllLogs fetches the whole log buffer within limit.
func (s *Session) AllLogs(server string, slot int, limit logcat.Limit, region string) (Fetch, error) {
	logger, end := log.BeginRegion(s.logger, region)
	defer end()
	return s.allLogs(logger, server, slot, limit)
}

func (s *Session) allLogs(logger types.Logger, server string, slot int, limit logcat.Limit) (Fetch, error) {
	b := *s.builder
	b.Logger = logger
	cmd := b.All(limit)
	return s.runDeviceShell(logger, server, slot, cmd, "ADBLog: Logs received", true)
}

// PrintLogs prints the key logs. Without a search expression key codes are
// translated to button names.
func (s *Session) PrintLogs(server string, slot int, search string) error {
	logger, end := log.BeginRegion(s.logger, LogRegion)
	defer end()

	fetch, err := s.keyLogs(logger, server, slot, search)
	if err != nil {
		return err
	}
	if s.opts.Verbose {
		logger.Info().Msgf("ADBLog: Searching %d logs for '%s'", len(fetch.Chunks), search)
	}

	if search != "" {
		return s.writeChunks(fetch.Chunks)
	}

	stream := keymap.NewStream(s.opts.Table, keymap.DefaultMarker)
	for _, chunk := range fetch.Chunks {
		if _, err := io.WriteString(s.opts.Out, stream.Write(chunk)); err != nil {
			return fmt.Errorf("printing logs: %w", err)
		}
	}
	if _, err := io.WriteString(s.opts.Out, stream.Flush()); err != nil {
		return fmt.Errorf("printing logs: %w", err)
	}
	if stream.Unknown > 0 {
		logger.Warn().Int("unknown", stream.Unknown).Msg("ADBLog: Some key codes are not in the key map and were left untranslated")
	}
	return nil
}

// PrintGenericLogs prints the lines of tag matching search within limit.
func (s *Session) PrintGenericLogs(server string, slot int, tag, search string, limit logcat.Limit, timeLimited bool) error {
	logger, end := log.BeginRegion(s.logger, LogRegion)
	defer end()

	fetch, err := s.genericLogs(logger, server, slot, tag, search, limit, timeLimited)
	if err != nil {
		return err
	}
	if s.opts.Verbose {
		logger.Info().Msgf("ADBLog: Searching %d logs for '%s'", len(fetch.Chunks), search)
	}
	return s.writeChunks(fetch.Chunks)
}

// PrintAllLogs prints the whole log buffer within limit followed by a summary.
func (s *Session) PrintAllLogs(server string, slot int, limit logcat.Limit) error {
	logger, end := log.BeginRegion(s.logger, LogRegion)
	defer end()

	fetch, err := s.allLogs(logger, server, slot, limit)
	if err != nil {
		return err
	}
	if fetch.Empty() {
		return nil
	}
	if err := s.writeChunks(fetch.Chunks); err != nil {
		return err
	}
	logger.Info().Int("lines", fetch.Lines()).Msgf("ADBLog: Summary: %d log lines", fetch.Lines())
	return nil
}

// SaveAllLogs writes the slot's log buffer within limit to
// device<kdsn>-<HHMMSS>.log and returns the file path. Chunks that fail to
// write are skipped and reported. When no device could be reached no file is
// created and the returned path is empty.
func (s *Session) SaveAllLogs(server string, slot int, limit logcat.Limit) (string, error) {
	entry, err := s.cfg.Lookup(server, slot)
	if err != nil {
		return "", err
	}

	name := output.FileName(entry.KDSN, s.opts.Now())
	if s.opts.OutputDir != "" {
		name = filepath.Join(s.opts.OutputDir, name)
	}

	logger, end := log.BeginRegion(s.logger, LogRegion)
	defer end()

	fetch, err := s.allLogs(logger, server, slot, limit)
	if err != nil {
		return "", err
	}
	if !fetch.Connected() {
		logger.Warn().Int("slot", slot).Msgf("ADBLog: No logs received from slot %d, nothing saved", slot)
		return "", nil
	}

	f, err := output.Create(name, s.opts.Compress)
	if err != nil {
		return "", err
	}

	failed := 0
	for _, chunk := range fetch.Chunks {
		if err := f.WriteLog(chunk); err != nil {
			failed++
			logger.Warn().Err(err).Msg("ADBLog: Could not write log chunk")
		}
	}
	if err := f.Close(); err != nil {
		return f.Path(), fmt.Errorf("closing %q: %w", f.Path(), err)
	}

	logger.Info().Int("lines", fetch.Lines()).Int("failed_writes", failed).
		Msgf("ADBLog: Summary: %d log lines saved in file: %s", fetch.Lines(), f.Path())
	return f.Path(), nil
}

func (s *Session) writeChunks(chunks []string) error {
	for _, chunk := range chunks {
		if _, err := io.WriteString(s.opts.Out, chunk); err != nil {
			return fmt.Errorf("printing logs: %w", err)
		}
	}
	return nil
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
