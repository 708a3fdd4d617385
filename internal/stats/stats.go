package stats

import (
	"sort"
	"time"

	"github.com/periolifts/periolifts/internal/workouts"
)

// Options tweak how derived stats are computed.
type Options struct {
	// FallbackToScheduled makes a completed workout without a completion
	// timestamp count on its scheduled date instead of being skipped.
	FallbackToScheduled bool
	// Today is the reference day for the current streak walk.
	// Zero value means time.Now().
	Today time.Time
}

// ExerciseProgress aggregates completed sets of a single exercise.
type ExerciseProgress struct {
	MaxKilos    float64 `json:"maxKilos"`
	AvgKilos    float64 `json:"avgKilos"`
	TotalVolume float64 `json:"totalVolume"`
	TotalReps   int     `json:"totalReps"`
}

type RankedExercise struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HistoryStats is derived from a workout history snapshot and never persisted.
type HistoryStats struct {
	TotalWorkouts     int                         `json:"totalWorkouts"`
	CompletedWorkouts int                         `json:"completedWorkouts"`
	CompletionRate    float64                     `json:"completionRate"`
	TotalKilosLifted  float64                     `json:"totalKilosLifted"`
	TotalDuration     time.Duration               `json:"totalDuration"`
	AvgDuration       time.Duration               `json:"avgDuration"`
	ExerciseFrequency map[string]int              `json:"exerciseFrequency"`
	ExerciseProgress  map[string]ExerciseProgress `json:"exerciseProgress"`
	TopExercises      []RankedExercise            `json:"topExercises"`
	WeeklyActivity    map[time.Weekday]int        `json:"weeklyActivity"`
	CurrentStreak     int                         `json:"currentStreak"`
	LongestStreak     int                         `json:"longestStreak"`
}

// Compute derives history stats from the given records. It is a pure
// function: filtering by user, date range or status happens before this,
// at the repository. The completion rate is kept unrounded, rounding is
// a display concern.
func Compute(records []workouts.Workout, opts Options) HistoryStats {
	stats := HistoryStats{
		TotalWorkouts:     len(records),
		ExerciseFrequency: make(map[string]int),
		ExerciseProgress:  make(map[string]ExerciseProgress),
		WeeklyActivity:    make(map[time.Weekday]int),
	}

	kilosSum := make(map[string]float64)
	completedSets := make(map[string]int)
	var firstSeen []string

	var durationsCounted int
	for _, workout := range records {
		if workout.IsCompleted() {
			stats.CompletedWorkouts++
			if d := workout.Duration(); d > 0 {
				stats.TotalDuration += d
				durationsCounted++
			}
			if date, ok := workout.StreakDate(opts.FallbackToScheduled); ok {
				stats.WeeklyActivity[date.Weekday()]++
			}
		}

		for _, exercise := range workout.Exercises {
			if exercise.IsCompleted() {
				stats.ExerciseFrequency[exercise.Name]++
			}
			for _, set := range exercise.Sets {
				if !set.Completed {
					continue
				}
				if completedSets[exercise.Name] == 0 {
					firstSeen = append(firstSeen, exercise.Name)
				}
				completedSets[exercise.Name]++
				kilosSum[exercise.Name] += set.ActualKilos

				progress := stats.ExerciseProgress[exercise.Name]
				if set.ActualKilos > progress.MaxKilos {
					progress.MaxKilos = set.ActualKilos
				}
				progress.TotalVolume += set.Volume()
				progress.TotalReps += set.ActualReps
				stats.ExerciseProgress[exercise.Name] = progress

				stats.TotalKilosLifted += set.Volume()
			}
		}
	}

	for name, sets := range completedSets {
		progress := stats.ExerciseProgress[name]
		progress.AvgKilos = kilosSum[name] / float64(sets)
		stats.ExerciseProgress[name] = progress
	}

	if stats.TotalWorkouts > 0 {
		stats.CompletionRate = 100 * float64(stats.CompletedWorkouts) / float64(stats.TotalWorkouts)
	}
	if durationsCounted > 0 {
		stats.AvgDuration = stats.TotalDuration / time.Duration(durationsCounted)
	}

	// only exercises with at least one completed set get ranked;
	// stable sort keeps first-encountered order on equal counts
	for _, name := range firstSeen {
		stats.TopExercises = append(stats.TopExercises, RankedExercise{
			Name:  name,
			Count: stats.ExerciseFrequency[name],
		})
	}
	sort.SliceStable(stats.TopExercises, func(i, j int) bool {
		return stats.TopExercises[i].Count > stats.TopExercises[j].Count
	})

	stats.CurrentStreak = CurrentStreak(records, opts)
	stats.LongestStreak = LongestStreak(records, opts)

	return stats
}
