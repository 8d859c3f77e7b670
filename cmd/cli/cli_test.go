package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/arnavsurve/adblogs/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSlotFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slots.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGlobals_Server(t *testing.T) {
	single, _, err := config.Parse([]byte("servers:\n  rig-a:\n    1: {ip: 10.0.0.1, kdsn: K1}\n"))
	require.NoError(t, err)
	multi, _, err := config.Parse([]byte("servers:\n  rig-a:\n    1: {ip: 10.0.0.1, kdsn: K1}\n  rig-b:\n    1: {ip: 10.0.1.1, kdsn: K9}\n"))
	require.NoError(t, err)

	g := &Globals{}
	server, err := g.server(single)
	require.NoError(t, err)
	assert.Equal(t, "rig-a", server)

	_, err = g.server(multi)
	assert.ErrorContains(t, err, "--server is required")

	g.Server = "rig-b"
	server, err = g.server(multi)
	require.NoError(t, err)
	assert.Equal(t, "rig-b", server)
}

func TestLintCmd(t *testing.T) {
	good := writeSlotFile(t, "servers:\n  rig-a:\n    1: {ip: 10.0.0.1, kdsn: K1}\n")
	bad := writeSlotFile(t, "servers:\n  rig-a:\n    0: {ip: 10.0.0.1, kdsn: K1}\n")

	require.NoError(t, (&LintCmd{}).Run(&Globals{Config: good}))
	assert.ErrorContains(t, (&LintCmd{}).Run(&Globals{Config: good, Server: "rig-z"}), `server "rig-z" is not defined`)
	assert.ErrorContains(t, (&LintCmd{}).Run(&Globals{Config: bad}), "slot 0 is outside 1..16")
}

func TestParseFlags(t *testing.T) {
	var app CLI
	parser, err := kong.New(&app, kong.Name("adblogs"))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{"--server", "rig-a", "generic", "13", "--tag", "DhcpClient:D", "--search", "ACK", "--no-time-limited", "--limit", "100"})
	require.NoError(t, err)
	assert.Equal(t, "generic <slot>", ctx.Command())
	assert.Equal(t, "rig-a", app.Server)
	assert.Equal(t, 13, app.Generic.Slot)
	assert.Equal(t, "100", app.Generic.Limit)
	assert.False(t, app.Generic.TimeLimited)

	_, err = parser.Parse([]string{"save", "1", "2", "--compress"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, app.Save.Slots)
	assert.True(t, app.Save.Compress)
	assert.Equal(t, "5m", app.Save.Limit)
}
