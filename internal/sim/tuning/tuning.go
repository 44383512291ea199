package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	EventJournalSize   int `yaml:"event_journal_size"`

	StartSector string `yaml:"start_sector"`

	DiscoveryRadius float64 `yaml:"discovery_radius"`
	WarmupSeconds   int     `yaml:"warmup_seconds"`

	AutoDiscoverBeacons bool `yaml:"auto_discover_beacons"`
	DiscoverAllOnLoad   bool `yaml:"discover_all_on_load"`

	// Cached targets: how many recently-seen out-of-range entries are kept
	// for manual-navigation cycling.
	CachedTargetLimit int `yaml:"cached_target_limit"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:     "1.0",
		TickRateHz:          10,
		SnapshotEveryTicks:  3000,
		EventJournalSize:    4096,
		StartSector:         "A0",
		DiscoveryRadius:     150,
		WarmupSeconds:       10,
		AutoDiscoverBeacons: true,
		CachedTargetLimit:   16,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if t.DiscoveryRadius <= 0 {
		return fmt.Errorf("discovery_radius must be positive, got %v", t.DiscoveryRadius)
	}
	if t.WarmupSeconds < 0 {
		return fmt.Errorf("warmup_seconds must not be negative, got %d", t.WarmupSeconds)
	}
	if t.StartSector == "" {
		return fmt.Errorf("start_sector must be set")
	}
	return nil
}

// WarmupTicks converts the warmup window into ticks at the configured rate.
func (t Tuning) WarmupTicks() uint64 {
	return uint64(t.WarmupSeconds) * uint64(t.TickRateHz)
}
