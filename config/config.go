// Package config loads the player settings from a YAML file with
// environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/vimy/vimy-bc/model"
	"github.com/nstehr/vimy/vimy-bc/rules"
)

type Config struct {
	Simulator SimulatorConfig `yaml:"simulator"`
	Player    string          `yaml:"player" env:"BC_PLAYER"`
	Seed      int64           `yaml:"seed" env:"BC_SEED"`
	LogLevel  string          `yaml:"log_level" env:"BC_LOG_LEVEL"`
	Journal   string          `yaml:"journal" env:"BC_JOURNAL"`
	Research  []string        `yaml:"research" env:"BC_RESEARCH" envSeparator:","`
	Policy    PolicyConfig    `yaml:"policy"`
}

type SimulatorConfig struct {
	Addr string `yaml:"addr" env:"BC_SIMULATOR_ADDR"`
}

type PolicyConfig struct {
	SenseRadius   int    `yaml:"sense_radius" env:"BC_SENSE_RADIUS"`
	Robot         string `yaml:"robot" env:"BC_ROBOT"`
	LandingWidth  int    `yaml:"landing_width" env:"BC_LANDING_WIDTH"`
	LandingHeight int    `yaml:"landing_height" env:"BC_LANDING_HEIGHT"`
}

func Default() Config {
	return Config{
		Simulator: SimulatorConfig{Addr: "unix:///tmp/bc.sock"},
		Player:    "vimy-bc",
		Seed:      1234,
		LogLevel:  "info",
		Research:  []string{"rocket", "worker", "knight"},
		Policy: PolicyConfig{
			SenseRadius:   2,
			Robot:         "knight",
			LandingWidth:  100,
			LandingHeight: 100,
		},
	}
}

// Load reads path over the defaults, then applies BC_* environment
// variables. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile exports the variables in a dotenv file so Load picks them up.
// Variables already set in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Simulator.Addr == "" {
		errs = append(errs, errors.New("simulator.addr is required"))
	}
	if c.Policy.SenseRadius < 0 {
		errs = append(errs, fmt.Errorf("policy.sense_radius must be >= 0, got %d", c.Policy.SenseRadius))
	}
	if c.Policy.LandingWidth <= 0 || c.Policy.LandingHeight <= 0 {
		errs = append(errs, fmt.Errorf("policy landing range must be positive, got %dx%d",
			c.Policy.LandingWidth, c.Policy.LandingHeight))
	}
	if robot, err := model.ParseUnitType(c.Policy.Robot); err != nil {
		errs = append(errs, fmt.Errorf("policy.robot: %w", err))
	} else if robot.IsStructure() {
		errs = append(errs, fmt.Errorf("policy.robot: %s is a structure", robot))
	}
	if _, err := c.ResearchQueue(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options converts the policy section for the rule engine.
func (c Config) Options() (rules.Options, error) {
	robot, err := model.ParseUnitType(c.Policy.Robot)
	if err != nil {
		return rules.Options{}, fmt.Errorf("policy.robot: %w", err)
	}
	return rules.Options{
		SenseRadius: c.Policy.SenseRadius,
		Robot:       robot,
		Landing:     model.Bounds{Width: c.Policy.LandingWidth, Height: c.Policy.LandingHeight},
	}, nil
}

func (c Config) ResearchQueue() ([]model.UnitType, error) {
	out := make([]model.UnitType, 0, len(c.Research))
	for _, name := range c.Research {
		t, err := model.ParseUnitType(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("research: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
