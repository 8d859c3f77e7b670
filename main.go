package main

import (
	"github.com/alecthomas/kong"
	"github.com/arnavsurve/adblogs/cmd/cli"
)

func main() {
	var app cli.CLI
	ctx := kong.Parse(&app,
		kong.Name("adblogs"),
		kong.Description("Fetch, translate and save logcat output from test rig devices addressed by server and slot."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&app.Globals)
	ctx.FatalIfErrorf(err)
}
