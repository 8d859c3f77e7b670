package cli

import (
	"fmt"
)

type LintCmd struct{}

func (l *LintCmd) Run(g *Globals) error {
	logger, router, err := newLogger("", g.Verbose)
	if err != nil {
		return err
	}
	defer router.Close()

	logger.Info().Msgf("Validating %s", g.Config)

	cfg, err := loadConfig(g.Config, logger)
	if err != nil {
		return err
	}

	for _, server := range cfg.ServerNames() {
		logger.Info().Msgf("Server %s: %d slots", server, len(cfg.Slots(server)))
	}
	if g.Server != "" {
		if _, ok := cfg.Servers[g.Server]; !ok {
			return fmt.Errorf("server %q is not defined in %s", g.Server, g.Config)
		}
	}

	logger.Info().Msg("Successfully validated slot file ✅")
	return nil
}
