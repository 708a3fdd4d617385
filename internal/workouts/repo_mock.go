package workouts

import (
	"context"
	"sort"

	"github.com/periolifts/periolifts/internal/apperrors"
)

type repoMock struct {
	workouts map[int]*Workout
	nextID   int
}

func NewMockWorkoutsRepo() *repoMock {
	return &repoMock{
		workouts: make(map[int]*Workout),
	}
}

func (r *repoMock) Add(_ context.Context, workout Workout) (*Workout, error) {
	if err := workout.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err)
	}
	r.nextID++
	workout.ID = r.nextID
	stored := workout
	r.workouts[workout.ID] = &stored
	return &workout, nil
}

func (r *repoMock) Update(_ context.Context, workout *Workout) error {
	if err := workout.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err)
	}
	if _, ok := r.workouts[workout.ID]; !ok {
		return ErrWorkoutNotFound
	}
	updated := *workout
	r.workouts[workout.ID] = &updated
	return nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Workout, error) {
	workout, ok := r.workouts[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	ret := *workout
	return &ret, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	if _, ok := r.workouts[id]; !ok {
		return ErrWorkoutNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *repoMock) matches(workout *Workout, params WorkoutParams) bool {
	if params.UserID != "" && workout.UserID != params.UserID {
		return false
	}
	if params.Status != "" && workout.Status != params.Status {
		return false
	}
	if params.From != nil && workout.ScheduledAt.Before(*params.From) {
		return false
	}
	if params.To != nil && workout.ScheduledAt.After(*params.To) {
		return false
	}
	return true
}

func (r *repoMock) ListAll(_ context.Context, params WorkoutParams) ([]Workout, error) {
	var list []Workout
	for _, workout := range r.workouts {
		if r.matches(workout, params) {
			list = append(list, *workout)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ScheduledAt.After(list[j].ScheduledAt)
	})
	return list, nil
}

func (r *repoMock) List(ctx context.Context, params ListParams) ([]Workout, int, error) {
	all, err := r.ListAll(ctx, params.WorkoutParams)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	offset := (params.Page - 1) * params.Size
	if offset >= total {
		return []Workout{}, total, nil
	}
	end := offset + params.Size
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *repoMock) Count(ctx context.Context, params WorkoutParams) (int, error) {
	all, err := r.ListAll(ctx, params)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
