package stats

import (
	"sort"
	"time"

	"github.com/periolifts/periolifts/internal/workouts"
)

// streakDays reduces completed records to the distinct calendar days on
// which at least one workout was completed, newest first. Days after the
// reference day are dropped so a scheduled-date fallback cannot produce
// a streak out of future plans.
func streakDays(records []workouts.Workout, opts Options) []time.Time {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	todayDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	seen := make(map[time.Time]struct{})
	var days []time.Time
	for _, workout := range records {
		if !workout.IsCompleted() {
			continue
		}
		date, ok := workout.StreakDate(opts.FallbackToScheduled)
		if !ok {
			continue
		}
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		if day.After(todayDay) {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})

	return days
}

// CurrentStreak walks back from the most recent completion day and counts
// how many consecutive calendar days have at least one completed workout.
// One completion day is a streak of 1, no completions is 0.
func CurrentStreak(records []workouts.Workout, opts Options) int {
	days := streakDays(records, opts)
	if len(days) == 0 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i].AddDate(0, 0, 1).Equal(days[i-1]) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak scans the whole history for the longest run of
// consecutive completion days.
func LongestStreak(records []workouts.Workout, opts Options) int {
	days := streakDays(records, opts)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].AddDate(0, 0, 1).Equal(days[i-1]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
