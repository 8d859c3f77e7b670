package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arnavsurve/adblogs/pkg/adb"
	"github.com/arnavsurve/adblogs/pkg/config"
	"github.com/arnavsurve/adblogs/pkg/log"
	"github.com/arnavsurve/adblogs/pkg/log/sinks"
	"github.com/arnavsurve/adblogs/pkg/session"
	"github.com/arnavsurve/adblogs/pkg/types"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// StartLayout is the accepted format of --start.
const StartLayout = "2006-01-02 15:04:05"

// Globals are the flags shared by every command.
type Globals struct {
	Config  string `help:"The YAML slot file." default:"slots.yml" type:"path"`
	Server  string `help:"Rig server the slot belongs to." env:"ADBLOGS_SERVER"`
	ADBHost string `help:"ADB server host. Overrides the slot file." name:"adb-host" env:"ADBLOGS_ADB_HOST"`
	ADBPort int    `help:"ADB server port. Overrides the slot file." name:"adb-port" env:"ADBLOGS_ADB_PORT"`
	Start   string `help:"Fixed start of time-bounded queries (YYYY-MM-DD HH:MM:SS, local time)."`
	LogDir  string `help:"Directory for JSON run logs." default:".adblogs/logs" type:"path"`
	Verbose bool   `help:"Log every attempt and debug diagnostics." short:"v"`
}

type CLI struct {
	Globals

	Slots   SlotsCmd   `cmd:"" help:"List the slots of a server whose device is attached."`
	Connect ConnectCmd `cmd:"" help:"Connect the ADB server to a slot's device."`
	Clear   ClearCmd   `cmd:"" help:"Clear a device's logcat buffer."`
	Logs    LogsCmd    `cmd:"" help:"Print remote control key logs, translating key codes."`
	Generic GenericCmd `cmd:"" help:"Print logs of one tag matching a search expression."`
	All     AllCmd     `cmd:"" help:"Print the whole logcat buffer."`
	Save    SaveCmd    `cmd:"" help:"Save the logcat buffer to device<kdsn>-<HHMMSS>.log."`
	Lint    LintCmd    `cmd:"" help:"Validate the slot file."`
}

// runtime is what a device command needs once flags and config are resolved.
type runtime struct {
	logger  types.Logger
	router  *log.Router
	cfg     *config.Config
	session *session.Session
}

func (r *runtime) Close() {
	r.logger.Debug().Msg("Shutting down logger...")
	if err := r.router.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error during log shutdown: %v\n", err)
	}
}

// newLogger builds the console logger, plus a JSON file sink under logDir
// when logDir is set.
func newLogger(logDir string, verbose bool) (types.Logger, *log.Router, error) {
	logRouter := log.NewRouter()
	logRouter.AddSink(sinks.NewConsoleSink())
	if !verbose {
		logRouter.MinLevel = types.InfoLevel
	}

	runID := uuid.New().String()
	if logDir != "" {
		logFilePath := filepath.Join(logDir, fmt.Sprintf("%s.json", runID))
		fileSink, err := sinks.NewFileSink(logFilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("creating file log sink: %w", err)
		}
		logRouter.AddSink(fileSink)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	base := zerolog.New(logRouter).With().Timestamp().Str("run_id", runID).Logger()
	return log.NewZerologAdapter(base), logRouter, nil
}

// loadConfig reads .env and the slot file, logging unresolved env references.
func loadConfig(path string, logger types.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("No .env file found, relying on existing ENV")
	}

	cfg, warnings, err := config.Load(path)
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Failed to load slot file %s", path)
		return nil, fmt.Errorf("loading slot file %q: %w", path, err)
	}
	return cfg, nil
}

func (g *Globals) setup(opts session.Options) (*runtime, error) {
	logger, router, err := newLogger(g.LogDir, g.Verbose)
	if err != nil {
		return nil, err
	}
	rt := &runtime{logger: logger, router: router}

	cfg, err := loadConfig(g.Config, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.cfg = cfg

	host, port := cfg.ADB.Host, cfg.ADB.Port
	if g.ADBHost != "" {
		host = g.ADBHost
	}
	if g.ADBPort != 0 {
		port = g.ADBPort
	}

	backend, err := adb.NewGadbBackend(host, port)
	if err != nil {
		logger.Error().Err(err).Msg("Could not reach the ADB server")
		rt.Close()
		return nil, err
	}

	client := adb.NewSafeClient(backend, logger, g.Verbose)
	opts.Verbose = g.Verbose
	rt.session = session.New(cfg, client, logger, opts)

	if g.Start != "" {
		start, err := time.ParseInLocation(StartLayout, g.Start, time.Local)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("parsing --start %q: %w", g.Start, err)
		}
		rt.session.SetStartTime(start)
	}
	return rt, nil
}

// server returns --server, or the only configured server when there is one.
func (g *Globals) server(cfg *config.Config) (string, error) {
	if g.Server != "" {
		return g.Server, nil
	}
	names := cfg.ServerNames()
	if len(names) == 1 {
		return names[0], nil
	}
	return "", fmt.Errorf("--server is required when the slot file defines %d servers", len(names))
}
