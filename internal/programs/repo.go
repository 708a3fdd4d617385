package programs

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

var ErrProgramNotFound = errors.New("program not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, program Program) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := program.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err)
	}

	daysJson, err := json.Marshal(program.Days)
	if err != nil {
		return nil, fmt.Errorf("marshal days: %w", err)
	}

	var id int
	err = apperrors.RetryNetwork(ctx, func() error {
		rows, err := r.db.Query(
			ctx,
			`INSERT INTO program
					(user_id, name, weeks, days, created_at)
					VALUES ($1, $2, $3, $4, $5)
				RETURNING id;`,
			program.UserID, program.Name, program.Weeks, daysJson, program.CreatedAt,
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

	span.SetAttributes(attribute.Int("program.id", id))

	program.ID = id
	return &program, nil
}

func (r *Repo) Update(ctx context.Context, program *Program) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", program.ID))

	if err := program.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err)
	}

	daysJson, err := json.Marshal(program.Days)
	if err != nil {
		return fmt.Errorf("marshal days: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE program SET
			user_id = $1, name = $2, weeks = $3, days = $4
		WHERE id = $5;`,
		program.UserID, program.Name, program.Weeks, daysJson, program.ID,
	)
	if err != nil {
		return apperrors.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM program WHERE id = $1;`, id)
	if err != nil {
		return apperrors.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}

	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, weeks, days, created_at
			FROM program
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

	programs, err := r.rows2programs(rows)
	if err != nil {
		return nil, err
	}

	if len(programs) != 1 {
		return nil, ErrProgramNotFound
	}

	return &programs[0], nil
}

// ListAll returns all programs of a user, newest first. An empty user id
// lists everything.
func (r *Repo) ListAll(ctx context.Context, userID string) (_ []Program, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programs.listall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", userID))

	var programs []Program
	err = apperrors.RetryNetwork(ctx, func() error {
		rows, err := r.db.Query(
			ctx,
			`SELECT id, user_id, name, weeks, days, created_at
				FROM program
				WHERE ($1::text = '' OR user_id = $1)
				ORDER BY created_at DESC;`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		if err := rows.Err(); err != nil {
			return err
		}

		programs, err = r.rows2programs(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	return programs, nil
}

func (r *Repo) rows2programs(rows pgx.Rows) ([]Program, error) {
	var programs []Program
	for rows.Next() {
		var id, weeks int
		var userID, name string
		var daysBytes []byte
		var createdAt time.Time
		if err := rows.Scan(&id, &userID, &name, &weeks, &daysBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}

		var days []TemplateDay
		if len(daysBytes) > 0 {
			if err := json.Unmarshal(daysBytes, &days); err != nil {
				return nil, fmt.Errorf("unmarshal days for program %d: %w", id, err)
			}
		}

		programs = append(programs, Program{
			ID:        id,
			UserID:    userID,
			Name:      name,
			Weeks:     weeks,
			Days:      days,
			CreatedAt: createdAt,
		})
	}
	return programs, nil
}
