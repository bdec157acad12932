package rotation

import (
	"fmt"
	"os"
	"path/filepath"
)

// name builds the canonical file name for a merge at ts covering quant,
// encoding the quantum level and bucket index: NNNNN.rill (monthly),
// NNNNN-WW.rill (weekly), NNNNN-WW-DD.rill (daily), NNNNN-WW-DD-HH.rill
// (hourly). If the computed name already exists, a numeric .N suffix is
// appended until a free name is found.
func (c Config) name(dir string, ts, quant uint64) string {
	month := ts / c.MonthSecs
	week := (ts / c.WeekSecs) % c.WeeksInMonth
	day := (ts / c.DaySecs) % c.DaysInWeek
	hour := (ts / c.HourSecs) % c.HoursInDay

	var base string
	switch quant {
	case c.HourSecs:
		base = fmt.Sprintf("%05d-%02d-%02d-%02d.rill", month, week, day, hour)
	case c.DaySecs:
		base = fmt.Sprintf("%05d-%02d-%02d.rill", month, week, day)
	case c.WeekSecs:
		base = fmt.Sprintf("%05d-%02d.rill", month, week)
	case c.MonthSecs:
		base = fmt.Sprintf("%05d.rill", month)
	default:
		base = fmt.Sprintf("%020d.rill", ts)
	}

	out := filepath.Join(dir, base)
	for i := 0; fileExists(out); i++ {
		out = filepath.Join(dir, fmt.Sprintf("%s.%d", base, i))
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
