package engine

import (
	"sort"
	"time"

	"github.com/fundquant/fund-backtest/internal/types"
)

// GenerateSchedule produces the candidate investment dates for the given
// frequency over [start, end]. Candidates always land on weekdays: daily
// steps skip weekends, weekly steps a full week from the first weekday, and
// monthly steps calendar months from the start date, pushing a weekend
// candidate back to the preceding Friday.
func GenerateSchedule(start, end time.Time, freq types.Frequency) []time.Time {
	start = types.DateKey(start)
	end = types.DateKey(end)

	if end.Before(start) {
		return nil
	}

	var candidates []time.Time

	switch freq {
	case types.FrequencyDaily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if isWeekday(d) {
				candidates = append(candidates, d)
			}
		}
	case types.FrequencyWeekly:
		d := start
		for !isWeekday(d) {
			d = d.AddDate(0, 0, 1)
		}

		for ; !d.After(end); d = d.AddDate(0, 0, 7) {
			candidates = append(candidates, d)
		}
	case types.FrequencyMonthly:
		for i := 0; ; i++ {
			d := start.AddDate(0, i, 0)
			if d.After(end) {
				break
			}

			for !isWeekday(d) {
				d = d.AddDate(0, 0, -1)
			}

			if !d.Before(start) && !d.After(end) {
				candidates = append(candidates, d)
			}
		}
	}

	return candidates
}

// SnapToTradingDays maps each candidate to the nearest trading day at or
// before it. Candidates with no earlier trading day are dropped; a schedule
// never moves an investment forward in time. The result is deduplicated and
// sorted ascending.
func SnapToTradingDays(candidates []time.Time, series *types.NavSeries) []time.Time {
	tradingDays := series.Dates()
	if len(tradingDays) == 0 {
		return nil
	}

	seen := make(map[time.Time]bool, len(candidates))

	var snapped []time.Time

	for _, c := range candidates {
		c = types.DateKey(c)

		// Last trading day <= candidate.
		idx := sort.Search(len(tradingDays), func(i int) bool {
			return tradingDays[i].After(c)
		})
		if idx == 0 {
			continue
		}

		day := tradingDays[idx-1]
		if !seen[day] {
			seen[day] = true

			snapped = append(snapped, day)
		}
	}

	sort.Slice(snapped, func(i, j int) bool { return snapped[i].Before(snapped[j]) })

	return snapped
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()

	return wd != time.Saturday && wd != time.Sunday
}
