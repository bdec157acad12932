package rotation

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rpcpool/rill/rillerr"
)

// Config holds the quantum ladder and retention horizon a rotation run
// applies. Durations are all in seconds, matching every other timestamp in
// this module.
type Config struct {
	HourSecs  uint64 `yaml:"hour_secs"`
	DaySecs   uint64 `yaml:"day_secs"`
	WeekSecs  uint64 `yaml:"week_secs"`
	MonthSecs uint64 `yaml:"month_secs"`

	HoursInDay    uint64 `yaml:"hours_in_day"`
	DaysInWeek    uint64 `yaml:"days_in_week"`
	WeeksInMonth  uint64 `yaml:"weeks_in_month"`
	RetentionSecs uint64 `yaml:"retention_secs"`
}

// DefaultConfig reproduces the example quanta: a 60-minute hour, a 24-hour
// day, an 8-day week, a 4-week month, and 13 months of retention.
func DefaultConfig() Config {
	c := Config{
		HourSecs:     3600,
		HoursInDay:   24,
		DaysInWeek:   8,
		WeeksInMonth: 4,
	}
	c.DaySecs = c.HourSecs * c.HoursInDay
	c.WeekSecs = c.DaySecs * c.DaysInWeek
	c.MonthSecs = c.WeekSecs * c.WeeksInMonth
	c.RetentionSecs = c.MonthSecs * 13
	return c
}

// LoadConfig reads a YAML-encoded Config from path. Any field the file
// omits keeps its DefaultConfig value.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, rillerr.Wrap("rotation.LoadConfig", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, rillerr.Wrap("rotation.LoadConfig", path, err)
	}
	return c, nil
}

// quanta returns the tiers in merge order: finest first.
func (c Config) quanta() []uint64 {
	return []uint64{c.HourSecs, c.DaySecs, c.WeekSecs, c.MonthSecs}
}
