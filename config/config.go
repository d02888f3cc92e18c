// Package config loads daemon and channel settings from a TOML file.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/alephchan/alephd/internal/shm"
)

// Config is the top-level daemon configuration file.
type Config struct {
	Channel ChannelSettings `toml:"channel"`
	Log     LogSettings     `toml:"log"`
}

// ChannelSettings maps directly onto shm.ChannelConfig, plus the channel's
// logical name (not itself part of the on-disk layout).
type ChannelSettings struct {
	Name       string `toml:"name"`
	DataSize   uint64 `toml:"data_size"`
	CmdSlots   uint64 `toml:"cmd_slots"`
	MaxClients uint64 `toml:"max_clients"`
}

// LogSettings controls the daemon's stats-ticker cadence.
type LogSettings struct {
	StatsIntervalSeconds int `toml:"stats_interval_seconds"`
}

// ChannelConfig converts ChannelSettings into the shm package's config type.
func (c ChannelSettings) ChannelConfig() shm.ChannelConfig {
	return shm.ChannelConfig{
		DataSize:   c.DataSize,
		CmdSlots:   c.CmdSlots,
		MaxClients: c.MaxClients,
	}
}

// Default returns the configuration used when no config file is given. Load
// starts from these values and overrides the fields the file sets.
func Default() *Config {
	return &Config{
		Channel: ChannelSettings{
			Name:     "alephd",
			DataSize: 4096,
			CmdSlots: 64,
		},
		Log: LogSettings{StatsIntervalSeconds: 5},
	}
}

// Load reads and parses a daemon configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := Default()
	if err := toml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}
