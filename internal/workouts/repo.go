package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/periolifts/periolifts/internal/apperrors"
	"github.com/periolifts/periolifts/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

// WorkoutParams filter the workout collection. Zero values mean "no filter",
// so an empty params lists everything for a user.
type WorkoutParams struct {
	UserID string
	Status Status
	From   *time.Time
	To     *time.Time
}

type ListParams struct {
	WorkoutParams
	Page int
	Size int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := workout.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err)
	}

	exercisesJson, err := json.Marshal(workout.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	var id int
	err = apperrors.RetryNetwork(ctx, func() error {
		rows, err := r.db.Query(
			ctx,
			`INSERT INTO workout
					(user_id, name, status, scheduled_at, started_at, completed_at, exercises, created_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id;`,
			workout.UserID, workout.Name, workout.Status,
			workout.ScheduledAt, workout.StartedAt, workout.CompletedAt, exercisesJson, workout.CreatedAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		if err := rows.Err(); err != nil {
			return err
		}
		if !rows.Next() {
			return errors.New("unexpected error [no rows next]")
		}
		return rows.Scan(&id)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workout.id", id))

	workout.ID = id
	return &workout, nil
}

func (r *Repo) Update(ctx context.Context, workout *Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", workout.ID))

	if err := workout.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err)
	}

	exercisesJson, err := json.Marshal(workout.Exercises)
	if err != nil {
		return fmt.Errorf("marshal exercises: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout SET
			user_id = $1, name = $2, status = $3,
			scheduled_at = $4, started_at = $5, completed_at = $6, exercises = $7
		WHERE id = $8;`,
		workout.UserID, workout.Name, workout.Status,
		workout.ScheduledAt, workout.StartedAt, workout.CompletedAt, exercisesJson, workout.ID,
	)
	if err != nil {
		return apperrors.Classify(err)
	}

	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout WHERE id = $1`,
		id,
	)
	if err != nil {
		return apperrors.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, status, scheduled_at, started_at, completed_at, exercises, created_at
			FROM workout
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, apperrors.Classify(err)
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

// ListAll returns all workouts matching the given filters, newest first.
func (r *Repo) ListAll(ctx context.Context, params WorkoutParams) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", params.UserID))
	span.SetAttributes(attribute.String("status", params.Status.String()))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	var workouts []Workout
	err = apperrors.RetryNetwork(ctx, func() error {
		rows, err := r.db.Query(
			ctx,
			`SELECT id, user_id, name, status, scheduled_at, started_at, completed_at, exercises, created_at
				FROM workout
				WHERE ($1::text = '' OR user_id = $1)
				AND ($2::text = '' OR status = $2)
				AND ($3::timestamptz IS NULL OR scheduled_at >= $3)
				AND ($4::timestamptz IS NULL OR scheduled_at <= $4)
			ORDER BY scheduled_at DESC;`,
			params.UserID, params.Status, params.From, params.To,
		)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows: %w", err)
		}

		workouts, err = r.rows2workouts(rows)
		if err != nil {
			return fmt.Errorf("rows2workouts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return workouts, nil
}

// List is like ListAll, but returns the specific PAGE of workouts,
// i.e. is used for pagination.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Workout, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", params.Page))
	span.SetAttributes(attribute.Int("size", params.Size))
	span.SetAttributes(attribute.String("user_id", params.UserID))

	if params.Page < 1 {
		return nil, -1, apperrors.New(apperrors.KindValidation, "page must be greater than 0")
	}
	if params.Size < 1 {
		return nil, -1, apperrors.New(apperrors.KindValidation, "size must be greater than 0")
	}

	limit := params.Size
	offset := (params.Page - 1) * params.Size
	countAll, err := r.Count(ctx, params.WorkoutParams)
	if err != nil {
		return nil, -1, err
	}

	if countAll <= limit {
		limit = countAll
		offset = 0
	}

	if countAll-offset < limit {
		offset = countAll - limit
	}

	span.SetAttributes(attribute.Int("count_all", countAll))
	span.SetAttributes(attribute.Int("limit", limit))
	span.SetAttributes(attribute.Int("offset", offset))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, status, scheduled_at, started_at, completed_at, exercises, created_at
			FROM workout
			WHERE ($1::text = '' OR user_id = $1)
			AND ($2::text = '' OR status = $2)
			AND ($3::timestamptz IS NULL OR scheduled_at >= $3)
			AND ($4::timestamptz IS NULL OR scheduled_at <= $4)
		ORDER BY scheduled_at DESC
		LIMIT $5
		OFFSET $6;`,
		params.UserID, params.Status, params.From, params.To,
		limit, offset,
	)
	if err != nil {
		return nil, -1, apperrors.Classify(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, -1, apperrors.Classify(err)
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, -1, err
	}
	return workouts, countAll, nil
}

func (r *Repo) Count(ctx context.Context, params WorkoutParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM workout
			WHERE ($1::text = '' OR user_id = $1)
			AND ($2::text = '' OR status = $2)
			AND ($3::timestamptz IS NULL OR scheduled_at >= $3)
			AND ($4::timestamptz IS NULL OR scheduled_at <= $4);`,
		params.UserID, params.Status, params.From, params.To,
	)
	if err != nil {
		return -1, apperrors.Classify(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, apperrors.Classify(err)
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get workouts count")
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var id int
		var userID string
		var name string
		var status string
		var scheduledAt time.Time
		var startedAt *time.Time
		var completedAt *time.Time
		var exercisesBytes []byte
		var createdAt time.Time
		if err := rows.Scan(
			&id, &userID, &name, &status,
			&scheduledAt, &startedAt, &completedAt, &exercisesBytes, &createdAt,
		); err != nil {
			return nil, err
		}

		w := Workout{
			ID:          id,
			UserID:      userID,
			Name:        name,
			Status:      Status(status),
			ScheduledAt: scheduledAt,
			StartedAt:   startedAt,
			CompletedAt: completedAt,
			CreatedAt:   createdAt,
		}

		if len(exercisesBytes) > 0 {
			if err := json.Unmarshal(exercisesBytes, &w.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises for workout %d: %w", id, err)
			}
		}
		if w.Exercises == nil {
			w.Exercises = make([]ExerciseEntry, 0)
		}

		workouts = append(workouts, w)
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}

	return workouts, nil
}
