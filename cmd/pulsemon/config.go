package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the pulsemon configuration, loaded from a TOML file.
type Config struct {
	// WatchDirs are directories whose file changes are posted onto the
	// bus.
	WatchDirs []string `toml:"watch_dirs"`

	// TickInterval is the synthetic tick event interval.
	TickInterval duration `toml:"tick_interval"`

	// Script is an optional Lua script receiving every event on the
	// background context.
	Script string `toml:"script"`

	// ArchivePath is where the async archiver appends event lines.
	ArchivePath string `toml:"archive_path"`

	// WorkerCount bounds the delivery worker pool.
	WorkerCount int `toml:"worker_count"`

	// QueueSize bounds the delivery queue.
	QueueSize int `toml:"queue_size"`
}

// duration lets TOML carry values like "250ms".
type duration time.Duration

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func defaultConfig() Config {
	return Config{
		WatchDirs:    []string{"."},
		TickInterval: duration(time.Second),
		ArchivePath:  "pulsemon.log",
		WorkerCount:  4,
		QueueSize:    1024,
	}
}

// loadConfig reads a TOML config file, falling back to defaults when the
// path is empty.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
