package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/pkg"
)

func TestFindUserConfig(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	assert.Equal(t, "a.yaml", FindUserConfig([]string{"tone", "--config=a.yaml"}))
	assert.Equal(t, "b.toml", FindUserConfig([]string{"--config", "b.toml", "tone"}))
	assert.Empty(t, FindUserConfig([]string{"tone", "--config"}))

	t.Setenv(ConfigEnv, "env.json")
	assert.Equal(t, "env.json", FindUserConfig(nil))
}

func TestCandidatePaths_User(t *testing.T) {
	tests := []struct {
		path string
		want Paths
	}{
		{"cfg.json", Paths{JSON: []string{"cfg.json"}}},
		{"cfg.YML", Paths{YAML: []string{"cfg.YML"}}},
		{"cfg.yaml", Paths{YAML: []string{"cfg.yaml"}}},
		{"cfg.toml", Paths{TOML: []string{"cfg.toml"}}},
		{"cfg", Paths{JSON: []string{"cfg"}}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidatePaths("badgesim", tt.path))
		})
	}
}

func TestCandidatePaths_Search(t *testing.T) {
	p := CandidatePaths("badgesim", "")
	require.NotEmpty(t, p.JSON)
	assert.Equal(t, "badgesim.json", p.JSON[0])
	assert.Equal(t, []string{"badgesim.yaml", "badgesim.yml"}, p.YAML[:2])
	assert.Equal(t, "badgesim.toml", p.TOML[0])
}

type testCLI struct {
	Config string `help:"Config file"`
	Log    Log    `embed:"" prefix:"log."`
	Rate   int    `default:"1000"`
}

func parse(t *testing.T, args ...string) testCLI {
	t.Helper()
	var cli testCLI
	opts := append([]kong.Option{kong.Name("test"), kong.Exit(func(int) { t.Fatal("exit") })},
		Options("badgetest", args)...)
	parser, err := kong.New(&cli, opts...)
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return cli
}

func TestOptions_Loaders(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	dir := t.TempDir()
	files := map[string]string{
		"c.json": `{"rate": 11, "log.level": "debug"}`,
		"c.yaml": "rate: 22\n",
		"c.toml": "rate = 33\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	cli := parse(t, "--config", filepath.Join(dir, "c.json"))
	assert.Equal(t, 11, cli.Rate)
	assert.Equal(t, "debug", cli.Log.Level)

	cli = parse(t, "--config="+filepath.Join(dir, "c.yaml"))
	assert.Equal(t, 22, cli.Rate)
	assert.Equal(t, "text", cli.Log.Format)

	cli = parse(t, "--config", filepath.Join(dir, "c.toml"), "--rate", "44")
	assert.Equal(t, 44, cli.Rate, "flags override files")
}

func TestLog_Apply(t *testing.T) {
	prev := pkg.GetLogLevel()
	t.Cleanup(func() {
		pkg.SetLogLevel(prev)
		pkg.SetLogFormat(nil, pkg.LogFormatText)
	})

	var buf bytes.Buffer
	Log{Level: "debug", Format: "json"}.Apply(&buf)
	assert.Equal(t, slog.LevelDebug, pkg.GetLogLevel())

	pkg.LogDebug(pkg.ComponentSim, "hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
