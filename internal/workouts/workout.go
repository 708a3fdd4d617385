package workouts

import (
	"fmt"
	"time"
)

// Status of a workout record. A workout is created as scheduled, moves to
// in_progress when the user starts it, and ends up completed or abandoned.
// Completed records are immutable history.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusAbandoned:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

type Workout struct {
	ID          int             `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Status      Status          `json:"status"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Exercises   []ExerciseEntry `json:"exercises"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type ExerciseEntry struct {
	Name string     `json:"name"`
	Sets []SetEntry `json:"sets"`
}

type SetEntry struct {
	TargetReps  int     `json:"targetReps"`
	ActualReps  int     `json:"actualReps"`
	TargetKilos float64 `json:"targetKilos"`
	ActualKilos float64 `json:"actualKilos"`
	Completed   bool    `json:"completed"`
	RestSeconds int     `json:"restSeconds,omitempty"`
}

// Volume is reps x kilos for a completed set, 0 otherwise.
func (s SetEntry) Volume() float64 {
	if !s.Completed {
		return 0
	}
	return float64(s.ActualReps) * s.ActualKilos
}

// IsCompleted reports whether the exercise occurrence counts as completed:
// it has at least one set and every set is marked completed.
func (e ExerciseEntry) IsCompleted() bool {
	if len(e.Sets) == 0 {
		return false
	}
	for _, set := range e.Sets {
		if !set.Completed {
			return false
		}
	}
	return true
}

// IsCompleted reports whether the workout is marked completed.
func (w Workout) IsCompleted() bool {
	return w.Status == StatusCompleted
}

// Duration is the time between starting and completing the workout.
// Zero when either timestamp is missing.
func (w Workout) Duration() time.Duration {
	if w.StartedAt == nil || w.CompletedAt == nil {
		return 0
	}
	d := w.CompletedAt.Sub(*w.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// StreakDate is the calendar date used for streak and bucketing purposes:
// the completion date when present, else the scheduled date when the
// fallback is enabled. Returns false when the workout carries no usable date.
func (w Workout) StreakDate(fallbackToScheduled bool) (time.Time, bool) {
	if w.CompletedAt != nil {
		return *w.CompletedAt, true
	}
	if fallbackToScheduled && !w.ScheduledAt.IsZero() {
		return w.ScheduledAt, true
	}
	return time.Time{}, false
}

// Validate rejects malformed records before they can reach the stats
// aggregation, which assumes well-formed input.
func (w Workout) Validate() error {
	if w.UserID == "" {
		return fmt.Errorf("user id empty")
	}
	if w.Name == "" {
		return fmt.Errorf("workout name empty")
	}
	if !w.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", w.Status)
	}
	if w.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled date empty")
	}
	if w.StartedAt != nil && w.CompletedAt != nil && w.CompletedAt.Before(*w.StartedAt) {
		return fmt.Errorf("completion date before start date")
	}
	for _, exercise := range w.Exercises {
		if exercise.Name == "" {
			return fmt.Errorf("exercise name empty")
		}
		for i, set := range exercise.Sets {
			if set.TargetReps < 0 || set.ActualReps < 0 {
				return fmt.Errorf("exercise %q set %d: negative reps", exercise.Name, i)
			}
			if set.TargetKilos < 0 || set.ActualKilos < 0 {
				return fmt.Errorf("exercise %q set %d: negative kilos", exercise.Name, i)
			}
			if set.RestSeconds < 0 {
				return fmt.Errorf("exercise %q set %d: negative rest time", exercise.Name, i)
			}
		}
	}
	return nil
}
