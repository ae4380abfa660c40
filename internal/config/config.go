package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultReturnInterval = 125
	DefaultMaxRotations   = 30
	DefaultMaxIterations  = 10000
	DefaultSteps          = 100
)

type Config struct {
	Model   string       `yaml:"model"`
	Backend string       `yaml:"backend"`
	Data    DataConfig   `yaml:"data"`
	Spinup  SpinupConfig `yaml:"spinup"`
	Step    StepConfig   `yaml:"step"`
	Output  OutputConfig `yaml:"output"`
}

// DataConfig names the input tables, as paths relative to the config file's
// working directory.
type DataConfig struct {
	Inventory    string `yaml:"inventory"`
	Turnover     string `yaml:"turnover"`
	Decay        string `yaml:"decay"`
	Disturbances string `yaml:"disturbances"`
	Curves       string `yaml:"curves"`
	Transitions  string `yaml:"transitions"`
	Classifiers  string `yaml:"classifiers"`
}

type SpinupConfig struct {
	ReturnInterval int  `yaml:"return_interval"`
	MaxRotations   int  `yaml:"max_rotations"`
	MaxIterations  int  `yaml:"max_iterations"`
	Trace          bool `yaml:"trace"`
}

type StepConfig struct {
	Steps        int    `yaml:"steps"`
	Disturbances string `yaml:"disturbance_events"`
}

type OutputConfig struct {
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   "cbm",
		Backend: "auto",
		Spinup: SpinupConfig{
			ReturnInterval: DefaultReturnInterval,
			MaxRotations:   DefaultMaxRotations,
			MaxIterations:  DefaultMaxIterations,
		},
		Step: StepConfig{
			Steps: DefaultSteps,
		},
		Output: OutputConfig{
			Dir:  "runs",
			Name: "run",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Model {
	case "cbm", "moss":
	default:
		return fmt.Errorf("config: unknown model %q", c.Model)
	}
	switch c.Backend {
	case "auto", "serial", "parallel":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Spinup.ReturnInterval <= 0 {
		return fmt.Errorf("config: return_interval must be positive")
	}
	if c.Spinup.MaxRotations <= 0 {
		return fmt.Errorf("config: max_rotations must be positive")
	}
	if c.Spinup.MaxIterations <= 0 {
		return fmt.Errorf("config: max_iterations must be positive")
	}
	if c.Step.Steps < 0 {
		return fmt.Errorf("config: steps must not be negative")
	}
	return nil
}
