package config

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of one export run. Sources are applied in
// order: YAML file, environment, command-line flags.
type Config struct {
	InputPath    string `yaml:"input"     env:"SWF2JS_INPUT"`
	OutputPath   string `yaml:"output"    env:"SWF2JS_OUTPUT"`
	TimelinePath string `yaml:"timeline"  env:"SWF2JS_TIMELINE"`
	InputDir     string `yaml:"input_dir" env:"SWF2JS_INPUT_DIR"`
	OutputDir    string `yaml:"output_dir" env:"SWF2JS_OUTPUT_DIR"`
	Workers      int    `yaml:"workers"   env:"SWF2JS_WORKERS"`
	Check        bool   `yaml:"check"     env:"SWF2JS_CHECK"`
	SceneOnly    bool   `yaml:"scene_only" env:"SWF2JS_SCENE_ONLY"`
	ShowStats    bool   `yaml:"stats"     env:"SWF2JS_STATS"`
	BuildVersion string `yaml:"-"`
}

// Load reads a YAML config file. Fields not set in the file keep their
// zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig builds a Config from an optional YAML file (-config or
// SWF2JS_CONFIG), the environment and the flags in args.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var path string
	var flags Config

	fs.StringVar(&path, "config", os.Getenv("SWF2JS_CONFIG"), "YAML config file")
	fs.StringVar(&flags.InputPath, "input", "", "Movie tag stream (default: newest .yaml in -input-dir)")
	fs.StringVar(&flags.OutputPath, "output", "", "JavaScript module to write (default: <output-dir>/<movie>.js)")
	fs.StringVar(&flags.TimelinePath, "timeline", "", "Also write the timeline as YAML to this path")
	fs.StringVar(&flags.InputDir, "input-dir", "", "Where to look for movies when -input is empty")
	fs.StringVar(&flags.OutputDir, "output-dir", "", "Where to put the module when -output is empty")
	fs.IntVar(&flags.Workers, "workers", 0, "Parallel action compilers (default: number of CPUs)")
	fs.BoolVar(&flags.Check, "check", false, "Parse every generated function before writing")
	fs.BoolVar(&flags.SceneOnly, "scene-only", false, "Track placements only: no names, no actions")
	fs.BoolVar(&flags.ShowStats, "stats", false, "Print a performance report")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var cfg Config
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = flags.InputPath
		case "output":
			cfg.OutputPath = flags.OutputPath
		case "timeline":
			cfg.TimelinePath = flags.TimelinePath
		case "input-dir":
			cfg.InputDir = flags.InputDir
		case "output-dir":
			cfg.OutputDir = flags.OutputDir
		case "workers":
			cfg.Workers = flags.Workers
		case "check":
			cfg.Check = flags.Check
		case "scene-only":
			cfg.SceneOnly = flags.SceneOnly
		case "stats":
			cfg.ShowStats = flags.ShowStats
		}
	})

	cfg.Resolve()
	return cfg, nil
}

// Resolve fills in defaults for anything still unset.
func (c *Config) Resolve() {
	if c.InputDir == "" {
		c.InputDir = "input"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}
