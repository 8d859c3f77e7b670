package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/arnavsurve/adblogs/pkg/logcat"
	"github.com/arnavsurve/adblogs/pkg/session"
)

type SlotsCmd struct{}

func (c *SlotsCmd) Run(g *Globals) error {
	rt, err := g.setup(session.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := g.server(rt.cfg)
	if err != nil {
		return err
	}

	slots := rt.session.SlotsConnected(server)
	rt.logger.Info().Msgf("%d of %d configured slots on %s are attached", len(slots), len(rt.cfg.Slots(server)), server)

	parts := make([]string, len(slots))
	for i, no := range slots {
		parts[i] = strconv.Itoa(no)
	}
	fmt.Println(strings.Join(parts, " "))
	return nil
}

type ConnectCmd struct {
	Slot int `arg:"" help:"Slot number (1-16)."`
}

func (c *ConnectCmd) Run(g *Globals) error {
	rt, err := g.setup(session.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := g.server(rt.cfg)
	if err != nil {
		return err
	}

	serial, err := rt.session.AttemptConnect(server, c.Slot)
	if err != nil {
		return fmt.Errorf("connecting to slot %d: %w", c.Slot, err)
	}
	rt.logger.Info().Str("serial", serial).Msgf("Connected to slot %d", c.Slot)
	return nil
}

type ClearCmd struct {
	Slot int `arg:"" help:"Slot number (1-16)."`
}

func (c *ClearCmd) Run(g *Globals) error {
	rt, err := g.setup(session.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := g.server(rt.cfg)
	if err != nil {
		return err
	}

	fetch, err := rt.session.ClearLogCat(server, c.Slot)
	if err != nil {
		return err
	}
	if !fetch.Connected() {
		return fmt.Errorf("could not clear logcat on slot %d", c.Slot)
	}
	return nil
}

type LogsCmd struct {
	Slot   int    `arg:"" help:"Slot number (1-16)."`
	Search string `help:"Search expression. Without it key release lines are printed with button names."`
}

func (c *LogsCmd) Run(g *Globals) error {
	rt, err := g.setup(session.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := g.server(rt.cfg)
	if err != nil {
		return err
	}
	return rt.session.PrintLogs(server, c.Slot, c.Search)
}

type GenericCmd struct {
	Slot        int    `arg:"" help:"Slot number (1-16)."`
	Tag         string `help:"logcat filter spec, e.g. DhcpClient:D." required:""`
	Search      string `help:"Search expression." required:""`
	Limit       string `help:"Duration (5m), line count (100) or 'all'." default:"5m"`
	TimeLimited bool   `help:"Apply the limit to the query." default:"true" negatable:""`
}

func (c *GenericCmd) Run(g *Globals) error {
	rt, err := g.setup(session.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := g.server(rt.cfg)
	if err != nil {
		return err
	}
	return rt.session.PrintGenericLogs(server, c.Slot, c.Tag, c.Search, logcat.ParseLimit(c.Limit), c.TimeLimited)
}

type AllCmd struct {
	Slot  int    `arg:"" help:"Slot number (1-16)."`
	Limit string `help:"Duration (5m), line count (100) or 'all'." default:"all"`
}

func (c *AllCmd) Run(g *Globals) error {
	rt, err := g.setup(session.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := g.server(rt.cfg)
	if err != nil {
		return err
	}
	return rt.session.PrintAllLogs(server, c.Slot, logcat.ParseLimit(c.Limit))
}

type SaveCmd struct {
	Slots    []int  `arg:"" help:"Slot numbers (1-16)."`
	Limit    string `help:"Duration (5m), line count (100) or 'all'." default:"5m"`
	Dir      string `help:"Output directory." default:"." type:"path"`
	Compress bool   `help:"Write zstd compressed files (.log.zst)."`
}

func (c *SaveCmd) Run(g *Globals) error {
	rt, err := g.setup(session.Options{OutputDir: c.Dir, Compress: c.Compress})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := g.server(rt.cfg)
	if err != nil {
		return err
	}

	limit := logcat.ParseLimit(c.Limit)
	for _, slot := range c.Slots {
		path, err := rt.session.SaveAllLogs(server, slot, limit)
		if err != nil {
			return fmt.Errorf("saving logs of slot %d: %w", slot, err)
		}
		if path != "" {
			fmt.Fprintln(os.Stdout, path)
		}
	}
	return nil
}
