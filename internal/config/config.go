// Package config defines the command-line and configuration-file surface
// shared by the badge host tools.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/ardnew/softbadge/pkg"
)

// Log selects the driver log level and format.
type Log struct {
	Level  string `help:"Log level: debug, info, warn, error" default:"warn" enum:"debug,info,warn,error" env:"SOFTBADGE_LOG_LEVEL"`
	Format string `help:"Log format: text, json" default:"text" enum:"text,json" env:"SOFTBADGE_LOG_FORMAT"`
}

// Apply points the driver logger at w with the selected level and format.
func (l Log) Apply(w io.Writer) {
	pkg.SetLogLevel(pkg.ParseLogLevel(l.Level))
	pkg.SetLogFormat(w, pkg.ParseLogFormat(l.Format))
}

// Profile enables profiling in builds tagged "profile".
type Profile struct {
	CPU  string `name:"cpu-profile" help:"Write a CPU profile to this file (requires -tags profile)" type:"path" env:"SOFTBADGE_CPU_PROFILE"`
	Heap string `name:"heap-profile" help:"Write a heap profile to this file on exit (requires -tags profile)" type:"path" env:"SOFTBADGE_HEAP_PROFILE"`
}

// ConfigEnv names the environment variable holding an explicit config file.
const ConfigEnv = "SOFTBADGE_CONFIG"

// FindUserConfig returns the --config value from args, falling back to the
// SOFTBADGE_CONFIG environment variable. Kong has not parsed args yet when
// this runs, so the flag is scanned by hand.
func FindUserConfig(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv(ConfigEnv)
}

// Paths lists candidate configuration files per loader.
type Paths struct {
	JSON []string
	YAML []string
	TOML []string
}

// CandidatePaths returns the files an application named app reads its
// configuration from. An explicit user file is the only candidate for its
// format; otherwise the working directory is searched before the user
// configuration directory.
func CandidatePaths(app, user string) Paths {
	var p Paths
	if user != "" {
		p.add(user)
		return p
	}
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, app))
	}
	for _, dir := range dirs {
		for _, ext := range []string{".json", ".yaml", ".yml", ".toml"} {
			name := app + ext
			if dir != "." {
				name = "config" + ext
			}
			p.add(filepath.Join(dir, name))
		}
	}
	return p
}

func (p *Paths) add(path string) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p.YAML = append(p.YAML, path)
	case ".toml":
		p.TOML = append(p.TOML, path)
	default:
		p.JSON = append(p.JSON, path)
	}
}

// Options returns the kong options that load configuration files for app.
// Flags and environment variables override file values.
func Options(app string, args []string) []kong.Option {
	p := CandidatePaths(app, FindUserConfig(args))
	return []kong.Option{
		kong.Configuration(kong.JSON, p.JSON...),
		kong.Configuration(kongyaml.Loader, p.YAML...),
		kong.Configuration(kongtoml.Loader, p.TOML...),
	}
}
