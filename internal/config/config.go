// Package config loads planloom's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/planloom/internal/model"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "PLANLOOM_CONFIG"

type Config struct {
	Defaults Defaults     `yaml:"defaults" json:"defaults"`
	Log      LogConfig    `yaml:"log" json:"log"`
	Viewer   ViewerConfig `yaml:"viewer" json:"viewer"`
	Shift    ShiftConfig  `yaml:"shift" json:"shift"`
}

// Defaults apply to new projects and resources.
type Defaults struct {
	Days          int    `yaml:"days" json:"days" validate:"gte=1"`
	MaxRows       int    `yaml:"max_rows" json:"max_rows" validate:"gte=1"`
	Color         string `yaml:"color" json:"color" validate:"palette"`
	WorksWeekends bool   `yaml:"works_weekends" json:"works_weekends"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`
}

type ViewerConfig struct {
	Port int `yaml:"port" json:"port" validate:"gte=1,lte=65535"`
}

// ShiftConfig answers start-date shift prompts. "ask" prompts on a
// terminal and aborts otherwise.
type ShiftConfig struct {
	Overflow    string `yaml:"overflow" json:"overflow" validate:"oneof=ask truncate delete abort"`
	Unreachable string `yaml:"unreachable" json:"unreachable" validate:"oneof=ask delete abort"`
}

func Default() Config {
	return Config{
		Defaults: Defaults{
			Days:          model.DefaultDays,
			MaxRows:       model.DefaultMaxRows,
			Color:         model.DefaultColor,
			WorksWeekends: true,
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Viewer: ViewerConfig{Port: 7171},
		Shift:  ShiftConfig{Overflow: "ask", Unreachable: "ask"},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("palette", func(fl validator.FieldLevel) bool {
		return model.ValidColor(fl.Field().String())
	})
}

// Validate checks field ranges and enumerations.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Path resolves the config file: the explicit flag value, else
// $PLANLOOM_CONFIG, else $XDG_CONFIG_HOME/planloom/config.yaml (falling back
// to ~/.config). The boolean reports whether the path was asked for
// explicitly, in which case it must exist.
func Path(flag string) (string, bool) {
	if flag != "" {
		return flag, true
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, true
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "planloom", "config.yaml"), false
}

// Load reads the config at the resolved path over the defaults, then
// applies environment overrides. A missing default file is not an error.
func Load(flag string) (Config, error) {
	cfg := Default()

	path, explicit := Path(flag)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Window returns a default project window sized from the config.
func (c Config) Window(base model.Window) model.Window {
	base.Days = c.Defaults.Days
	base.MaxRows = c.Defaults.MaxRows
	return base
}

// SlogLevel maps log.level onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
