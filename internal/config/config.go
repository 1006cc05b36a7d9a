// Package config loads the snake server and terminal settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jaminalder/codex-snake/internal/domain"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config is the file format. Zero fields keep their defaults.
type Config struct {
	Addr         string        `yaml:"addr"`
	Board        BoardConfig   `yaml:"board"`
	Snake        SnakeConfig   `yaml:"snake"`
	TickInterval time.Duration `yaml:"tick_interval"`
	IdleTTL      time.Duration `yaml:"idle_ttl"`
	Seed         uint64        `yaml:"seed"`
	LogLevel     string        `yaml:"log_level"`
}

type BoardConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Edge   string `yaml:"edge"`
}

type SnakeConfig struct {
	Length    int    `yaml:"length"`
	StartX    int    `yaml:"start_x"`
	StartY    int    `yaml:"start_y"`
	Direction string `yaml:"direction"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:         ":8080",
		Board:        BoardConfig{Width: 30, Height: 10, Edge: "wrap"},
		Snake:        SnakeConfig{Length: 3, Direction: "right"},
		TickInterval: 150 * time.Millisecond,
		IdleTTL:      30 * time.Minute,
		LogLevel:     "info",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Parse(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values the document does not set,
// and validates the result.
func Parse(b []byte, cfg *Config) error {
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg.Validate()
}

// Validate checks ranges and that the game settings build a valid game.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalid)
	}
	if c.IdleTTL < 0 {
		return fmt.Errorf("%w: idle_ttl must not be negative", ErrInvalid)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Game(); err != nil {
		return err
	}
	return nil
}

// Game converts the board and snake settings into a domain config.
func (c Config) Game() (domain.Config, error) {
	edge, err := domain.ParseEdgePolicy(c.Board.Edge)
	if err != nil {
		return domain.Config{}, fmt.Errorf("%w: board.edge: %v", ErrInvalid, err)
	}
	dir, err := domain.ParseDirection(c.Snake.Direction)
	if err != nil {
		return domain.Config{}, fmt.Errorf("%w: snake.direction: %v", ErrInvalid, err)
	}
	gc := domain.Config{
		Board:         domain.Board{Width: c.Board.Width, Height: c.Board.Height, Edge: edge},
		Start:         domain.Position{X: c.Snake.StartX, Y: c.Snake.StartY},
		InitialLength: c.Snake.Length,
		StartDir:      dir,
	}
	if err := gc.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return gc, nil
}

// ParseLevel maps a log_level string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
}

// Logger builds a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
