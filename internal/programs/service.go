package programs

import (
	"context"
	"fmt"
	"time"

	"github.com/periolifts/periolifts/internal/telemetry/tracing"
	"github.com/periolifts/periolifts/internal/workouts"

	"go.opentelemetry.io/otel/attribute"
)

type programsRepo interface {
	Get(ctx context.Context, id int) (*Program, error)
}

type workoutsCreator interface {
	Add(ctx context.Context, workout workouts.Workout) (*workouts.Workout, error)
}

// Service turns program templates into scheduled workouts.
type Service struct {
	programs programsRepo
	workouts workoutsCreator
}

func NewService(programs programsRepo, workoutsCreator workoutsCreator) *Service {
	return &Service{
		programs: programs,
		workouts: workoutsCreator,
	}
}

// Instantiate creates scheduled workouts for every training day of the
// program, across all its weeks, starting from startDate. Each training
// day lands on its first matching weekday on or after startDate, shifted
// by seven days per week.
func (s *Service) Instantiate(
	ctx context.Context,
	programID int,
	startDate time.Time,
) (_ []workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.programs.instantiate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("program.id", programID))

	program, err := s.programs.Get(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("get program %d: %w", programID, err)
	}

	var created []workouts.Workout
	for week := 0; week < program.Weeks; week++ {
		for _, day := range program.Days {
			scheduledAt := nextWeekday(startDate, day.Weekday).AddDate(0, 0, 7*week)
			workout := workouts.Workout{
				UserID:      program.UserID,
				Name:        fmt.Sprintf("%s: %s (week %d)", program.Name, day.Name, week+1),
				Status:      workouts.StatusScheduled,
				ScheduledAt: scheduledAt,
				Exercises:   day.workoutExercises(),
				CreatedAt:   time.Now(),
			}
			added, err := s.workouts.Add(ctx, workout)
			if err != nil {
				return nil, fmt.Errorf("add workout for program %d, week %d, day %q: %w",
					programID, week+1, day.Name, err)
			}
			created = append(created, *added)
		}
	}

	span.SetAttributes(attribute.Int("workouts.created", len(created)))

	return created, nil
}

// nextWeekday returns the first day on or after t that falls on the
// given weekday, at the same time of day as t.
func nextWeekday(t time.Time, weekday time.Weekday) time.Time {
	daysAhead := (int(weekday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, daysAhead)
}

// workoutExercises expands the day's templates into workout exercise
// entries, one set entry per configured set.
func (d TemplateDay) workoutExercises() []workouts.ExerciseEntry {
	exercises := make([]workouts.ExerciseEntry, 0, len(d.Exercises))
	for _, template := range d.Exercises {
		sets := make([]workouts.SetEntry, 0, template.Sets)
		for i := 0; i < template.Sets; i++ {
			sets = append(sets, workouts.SetEntry{
				TargetReps:  template.TargetReps,
				TargetKilos: template.TargetKilos,
				RestSeconds: template.RestSeconds,
			})
		}
		exercises = append(exercises, workouts.ExerciseEntry{
			Name: template.Name,
			Sets: sets,
		})
	}
	return exercises
}
